package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/dudu/centerface/internal/align"
	"github.com/dudu/centerface/internal/centerface"
	"github.com/dudu/centerface/internal/config"
	"github.com/dudu/centerface/internal/detector"
	"github.com/dudu/centerface/internal/export"
	"github.com/dudu/centerface/internal/inference"
)

// Config holds pipeline configuration
type Config struct {
	ModelPath    string
	LibraryPath  string
	Provider     inference.Provider
	Params       detector.Params
	TargetWidth  int // 0 = image width
	TargetHeight int // 0 = image height

	AnnotatedPath string
	CropDir       string
	CropMargin    float64
	CropSize      int
	JSONPath      string
	AlignedDir    string
	AlignedSize   int
}

// ConfigFrom converts the application configuration
func ConfigFrom(cfg *config.Config) (Config, error) {
	params, err := cfg.Params()
	if err != nil {
		return Config{}, err
	}
	provider, err := inference.ParseProvider(cfg.Model.Provider)
	if err != nil {
		return Config{}, err
	}
	return Config{
		ModelPath:     cfg.Model.Path,
		LibraryPath:   cfg.Model.LibraryPath,
		Provider:      provider,
		Params:        params,
		TargetWidth:   cfg.Detection.TargetWidth,
		TargetHeight:  cfg.Detection.TargetHeight,
		AnnotatedPath: cfg.Output.AnnotatedPath,
		CropDir:       cfg.Output.CropDir,
		CropMargin:    cfg.Output.CropMargin,
		CropSize:      cfg.Output.CropSize,
		JSONPath:      cfg.Output.JSONPath,
		AlignedDir:    cfg.Output.AlignedDir,
		AlignedSize:   cfg.Output.AlignedSize,
	}, nil
}

// Timing holds performance timing information
type Timing struct {
	Detection time.Duration
	Export    time.Duration
	Total     time.Duration
}

// Result is the outcome of one detection call
type Result struct {
	Faces   []detector.Face
	Crops   []string
	Aligned []string
	Timing  Timing
}

// Pipeline orchestrates detection and the downstream consumers.
type Pipeline struct {
	config   Config
	detector FaceDetector
	cropper  *export.Cropper
	aligner  *align.Aligner
	log      logrus.FieldLogger
	ownsORT  bool
}

// New initializes ONNX Runtime and loads the CenterFace model
func New(config Config, log logrus.FieldLogger) (*Pipeline, error) {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	// A missing model is fatal here, before the runtime is touched.
	if err := centerface.CheckModel(config.ModelPath); err != nil {
		return nil, err
	}

	if err := inference.Initialize(config.LibraryPath, log); err != nil {
		return nil, fmt.Errorf("failed to initialize inference: %w", err)
	}

	det, err := centerface.New(centerface.Options{
		ModelPath: config.ModelPath,
		Provider:  config.Provider,
		Params:    config.Params,
		Logger:    log,
	})
	if err != nil {
		inference.Shutdown()
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}

	p := NewWithDetector(config, det, log)
	p.ownsORT = true
	return p, nil
}

// NewWithDetector builds a pipeline around an existing detector
func NewWithDetector(config Config, det FaceDetector, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Pipeline{
		config:   config,
		detector: det,
		cropper:  export.NewCropper(config.CropMargin, config.CropSize),
		aligner:  align.NewAligner(config.AlignedSize),
		log:      log,
	}
}

func (p *Pipeline) detect(img gocv.Mat) ([]detector.Face, error) {
	if p.config.TargetWidth > 0 && p.config.TargetHeight > 0 {
		return p.detector.DetectWithTarget(img, p.config.TargetWidth, p.config.TargetHeight)
	}
	return p.detector.Detect(img)
}

// Analyze detects faces in an image file and writes the configured outputs.
// Errors from any stage are logged and yield an empty or partial result.
func (p *Pipeline) Analyze(ctx context.Context, imagePath string) Result {
	totalStart := time.Now()
	var result Result
	log := p.log.WithField("image", imagePath)

	if err := ctx.Err(); err != nil {
		log.Warnf("analysis cancelled: %v", err)
		return result
	}

	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	if img.Empty() {
		log.Errorf("failed to load image: %v", detector.ErrEmptyInput)
		return result
	}
	defer img.Close()

	detectStart := time.Now()
	faces, err := p.detect(img)
	result.Timing.Detection = time.Since(detectStart)
	if err != nil {
		log.Errorf("detection failed: %v", err)
		return result
	}
	result.Faces = faces

	if len(faces) == 0 {
		log.Info("no face detected")
	} else {
		log.Infof("detected %d faces", len(faces))
	}

	exportStart := time.Now()
	result.Crops = p.export(log, img, imagePath, faces)
	if p.config.AlignedDir != "" && len(faces) > 0 {
		aligned, err := p.aligner.Save(img, faces, p.config.AlignedDir)
		if err != nil {
			log.Errorf("failed to save aligned faces: %v", err)
		}
		result.Aligned = aligned
	}
	result.Timing.Export = time.Since(exportStart)
	result.Timing.Total = time.Since(totalStart)

	log.WithFields(logrus.Fields{
		"detection_ms": result.Timing.Detection.Milliseconds(),
		"total_ms":     result.Timing.Total.Milliseconds(),
	}).Debug("analysis finished")

	return result
}

// export runs the downstream consumers and returns the written crop paths.
func (p *Pipeline) export(log logrus.FieldLogger, img gocv.Mat, imagePath string, faces []detector.Face) []string {
	var crops []string

	if p.config.CropDir != "" && len(faces) > 0 {
		src, err := img.ToImage()
		if err != nil {
			log.Errorf("failed to convert image for cropping: %v", err)
		} else {
			crops, err = p.cropper.Save(src, faces, p.config.CropDir)
			if err != nil {
				log.Errorf("failed to save crops: %v", err)
			}
		}
	}

	if p.config.AnnotatedPath != "" {
		annotated := img.Clone()
		Annotate(&annotated, faces)
		if !gocv.IMWrite(p.config.AnnotatedPath, annotated) {
			log.Errorf("failed to write annotated image %s", p.config.AnnotatedPath)
		} else {
			log.Infof("result image saved in %s", p.config.AnnotatedPath)
		}
		annotated.Close()
	}

	if p.config.JSONPath != "" {
		err := export.WriteJSON(p.config.JSONPath, export.Result{
			Image:  imagePath,
			Width:  img.Cols(),
			Height: img.Rows(),
			Faces:  faces,
			Crops:  crops,
		})
		if err != nil {
			log.Errorf("failed to write result JSON: %v", err)
		}
	}

	return crops
}

// Process detects faces on a live frame and draws them onto it.
func (p *Pipeline) Process(frame *gocv.Mat) Result {
	totalStart := time.Now()
	var result Result

	detectStart := time.Now()
	faces, err := p.detect(*frame)
	result.Timing.Detection = time.Since(detectStart)
	if err != nil {
		p.log.Warnf("detection failed: %v", err)
	} else {
		result.Faces = faces
		Annotate(frame, faces)
	}

	result.Timing.Total = time.Since(totalStart)
	return result
}

// Run processes frames from source until ctx is done, the source ends, or
// the user presses 'q' or ESC in the preview.
func (p *Pipeline) Run(ctx context.Context, source FrameSource, preview Preview) error {
	frame := gocv.NewMat()
	defer frame.Close()

	misses := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !source.Read(&frame) || frame.Empty() {
			// video files end; cameras occasionally drop a frame
			misses++
			if misses > 30 {
				return fmt.Errorf("frame source stopped delivering frames")
			}
			continue
		}
		misses = 0

		result := p.Process(&frame)
		p.log.WithFields(logrus.Fields{
			"faces":        len(result.Faces),
			"detection_ms": result.Timing.Detection.Milliseconds(),
		}).Debug("frame processed")

		if preview != nil {
			if fc, ok := preview.(FaceCounter); ok {
				fc.SetFaces(len(result.Faces))
			}
			preview.Show(&frame)
			key := preview.WaitKey(10)
			if key == 'q' || key == 27 { // 'q' or ESC
				return nil
			}
		}
	}
}

// Close releases pipeline resources
func (p *Pipeline) Close() error {
	var errs []error

	if p.detector != nil {
		if err := p.detector.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if p.ownsORT {
		if err := inference.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
