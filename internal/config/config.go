package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dudu/centerface/internal/detector"
	"github.com/dudu/centerface/internal/inference"
)

// Config holds the application configuration
type Config struct {
	Model     ModelConfig     `json:"model"`
	Detection DetectionConfig `json:"detection"`
	Output    OutputConfig    `json:"output"`
	Log       LogConfig       `json:"log"`
}

// ModelConfig locates the network and the runtime
type ModelConfig struct {
	Path        string `json:"path"`
	LibraryPath string `json:"library_path"` // onnxruntime shared library, empty = platform default
	Provider    string `json:"provider"`     // "cpu" or "coreml"
}

// DetectionConfig holds post-processing parameters
type DetectionConfig struct {
	ScoreThreshold float32 `json:"score_threshold"`
	NMSThreshold   float32 `json:"nms_threshold"`
	NMSMode        string  `json:"nms_mode"` // "minimum" or "union"
	// Resize target before padding; 0 uses the image size.
	TargetWidth  int `json:"target_width"`
	TargetHeight int `json:"target_height"`
}

// OutputConfig controls what Analyze writes
type OutputConfig struct {
	AnnotatedPath string  `json:"annotated_path"`
	CropDir       string  `json:"crop_dir"`
	CropMargin    float64 `json:"crop_margin"`
	CropSize      int     `json:"crop_size"` // 0 keeps the cropped size
	JSONPath      string  `json:"json_path"`
	AlignedDir    string  `json:"aligned_dir"`  // landmark-aligned chips
	AlignedSize   int     `json:"aligned_size"` // chip side length
}

// LogConfig configures logrus
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "text" or "json"
	File   string `json:"file"`
}

// Default returns a configuration with default values
func Default() *Config {
	params := detector.DefaultParams()
	return &Config{
		Model: ModelConfig{
			Path:     "models/centerface.onnx",
			Provider: string(inference.ProviderCPU),
		},
		Detection: DetectionConfig{
			ScoreThreshold: params.ScoreThreshold,
			NMSThreshold:   params.NMSThreshold,
			NMSMode:        params.NMSMode.String(),
		},
		Output: OutputConfig{
			CropMargin:  0.5,
			CropSize:    150,
			AlignedSize: 112,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides values from CENTERFACE_* environment variables.
// Unset or unparsable variables are ignored.
func (c *Config) ApplyEnv() {
	readEnvString("CENTERFACE_MODEL", &c.Model.Path)
	readEnvString("CENTERFACE_ORT_LIB", &c.Model.LibraryPath)
	readEnvString("CENTERFACE_PROVIDER", &c.Model.Provider)
	readEnvFloat("CENTERFACE_SCORE_THRESHOLD", &c.Detection.ScoreThreshold)
	readEnvFloat("CENTERFACE_NMS_THRESHOLD", &c.Detection.NMSThreshold)
	readEnvString("CENTERFACE_NMS_MODE", &c.Detection.NMSMode)
	readEnvInt("CENTERFACE_TARGET_WIDTH", &c.Detection.TargetWidth)
	readEnvInt("CENTERFACE_TARGET_HEIGHT", &c.Detection.TargetHeight)
	readEnvString("CENTERFACE_LOG_LEVEL", &c.Log.Level)
	readEnvString("CENTERFACE_LOG_FORMAT", &c.Log.Format)
	readEnvString("CENTERFACE_LOG_FILE", &c.Log.File)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Model.Path == "" {
		return fmt.Errorf("model.path cannot be empty")
	}

	if _, err := inference.ParseProvider(c.Model.Provider); err != nil {
		return fmt.Errorf("model.provider: %w", err)
	}

	if c.Detection.ScoreThreshold < 0 || c.Detection.ScoreThreshold > 1 {
		return fmt.Errorf("detection.score_threshold must be between 0 and 1")
	}

	if c.Detection.NMSThreshold < 0 || c.Detection.NMSThreshold > 1 {
		return fmt.Errorf("detection.nms_threshold must be between 0 and 1")
	}

	if _, err := detector.ParseNMSMode(c.Detection.NMSMode); err != nil {
		return fmt.Errorf("detection.nms_mode: %w", err)
	}

	if c.Detection.TargetWidth < 0 || c.Detection.TargetHeight < 0 {
		return fmt.Errorf("detection target size cannot be negative")
	}

	if (c.Detection.TargetWidth == 0) != (c.Detection.TargetHeight == 0) {
		return fmt.Errorf("detection.target_width and target_height must both be set or both be 0")
	}

	if c.Output.CropMargin < 0 {
		return fmt.Errorf("output.crop_margin must be non-negative")
	}

	if c.Output.CropSize < 0 {
		return fmt.Errorf("output.crop_size must be non-negative")
	}

	if c.Output.AlignedDir != "" && c.Output.AlignedSize <= 0 {
		return fmt.Errorf("output.aligned_size must be positive")
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}

	return nil
}

// Params converts the detection section into post-processing parameters
func (c *Config) Params() (detector.Params, error) {
	mode, err := detector.ParseNMSMode(c.Detection.NMSMode)
	if err != nil {
		return detector.Params{}, err
	}
	return detector.Params{
		ScoreThreshold: c.Detection.ScoreThreshold,
		NMSThreshold:   c.Detection.NMSThreshold,
		NMSMode:        mode,
	}, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "centerface", "config.json")
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvFloat(name string, value *float32) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return
	}
	*value = float32(f)
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = i
}
