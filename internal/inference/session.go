package inference

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	initialized bool
	initMu      sync.Mutex
)

// Provider selects the ONNX Runtime execution provider.
type Provider string

const (
	ProviderCPU    Provider = "cpu"
	ProviderCoreML Provider = "coreml"
)

// ParseProvider parses an execution provider name. Empty means CPU.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case "", ProviderCPU:
		return ProviderCPU, nil
	case ProviderCoreML:
		return p, nil
	}
	return "", fmt.Errorf("invalid execution provider: %s (use 'cpu' or 'coreml')", s)
}

// DefaultLibraryPath returns the usual onnxruntime shared library location
// for the running platform.
func DefaultLibraryPath() string {
	switch runtime.GOOS {
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "/opt/homebrew/lib/libonnxruntime.dylib"
		}
		return "/usr/local/lib/libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "/usr/lib/libonnxruntime.so"
	}
}

// Initialize sets up ONNX Runtime environment (call once at startup).
// An empty libPath uses DefaultLibraryPath.
func Initialize(libPath string, log logrus.FieldLogger) error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return nil
	}

	if libPath == "" {
		libPath = DefaultLibraryPath()
	}
	ort.SetSharedLibraryPath(libPath)

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime from %s: %w", libPath, err)
	}

	if log != nil {
		log.WithField("library", libPath).Infof("ONNX Runtime %s initialized", ort.GetVersion())
	}
	initialized = true
	return nil
}

// Shutdown cleans up ONNX Runtime environment
func Shutdown() error {
	initMu.Lock()
	defer initMu.Unlock()

	if !initialized {
		return nil
	}

	if err := ort.DestroyEnvironment(); err != nil {
		return err
	}

	initialized = false
	return nil
}

// Session wraps an ONNX Runtime inference session. Run may be called from
// several goroutines as long as each call owns its tensors.
type Session struct {
	session     *ort.DynamicAdvancedSession
	modelPath   string
	inputNames  []string
	outputNames []string
}

// NewSession creates a new inference session from an ONNX model
func NewSession(modelPath string, inputNames, outputNames []string, provider Provider, log logrus.FieldLogger) (*Session, error) {
	if !initialized {
		return nil, fmt.Errorf("ONNX Runtime not initialized, call Initialize() first")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	entry := logrus.FieldLogger(logrus.StandardLogger())
	if log != nil {
		entry = log
	}
	entry = entry.WithField("model", modelPath)

	if provider == ProviderCoreML {
		// Flag 0 = default settings, use Neural Engine + GPU
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			entry.Warnf("CoreML unavailable, using CPU: %v", err)
		} else {
			entry.Info("using CoreML execution provider")
		}
	} else {
		entry.Info("using CPU execution provider")
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		inputNames,
		outputNames,
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", modelPath, err)
	}

	return &Session{
		session:     session,
		modelPath:   modelPath,
		inputNames:  inputNames,
		outputNames: outputNames,
	}, nil
}

// ModelPath returns the path the session was loaded from
func (s *Session) ModelPath() string {
	return s.modelPath
}

// OutputNames returns the requested output names in Run order
func (s *Session) OutputNames() []string {
	return s.outputNames
}

// Run executes inference with the given inputs
func (s *Session) Run(inputs []ort.Value, outputs []ort.Value) error {
	if len(inputs) != len(s.inputNames) {
		return fmt.Errorf("got %d inputs, model %s expects %d", len(inputs), s.modelPath, len(s.inputNames))
	}
	if len(outputs) != len(s.outputNames) {
		return fmt.Errorf("got %d outputs, model %s expects %d", len(outputs), s.modelPath, len(s.outputNames))
	}
	return s.session.Run(inputs, outputs)
}

// Destroy releases session resources
func (s *Session) Destroy() error {
	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		return err
	}
	return nil
}

// CreateTensor creates a tensor with the given shape and data
func CreateTensor[T ort.TensorData](shape []int64, data []T) (*ort.Tensor[T], error) {
	return ort.NewTensor(ort.NewShape(shape...), data)
}

// CreateEmptyTensor creates a zeroed tensor for output
func CreateEmptyTensor[T ort.TensorData](shape []int64) (*ort.Tensor[T], error) {
	return ort.NewEmptyTensor[T](ort.NewShape(shape...))
}
