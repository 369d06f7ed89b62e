package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/dudu/centerface/internal/camera"
	"github.com/dudu/centerface/internal/config"
	"github.com/dudu/centerface/internal/logging"
	"github.com/dudu/centerface/internal/pipeline"
	"github.com/dudu/centerface/internal/ui"
)

func init() {
	// Lock the main goroutine to the main OS thread.
	// This is required on macOS for OpenCV's highgui (window creation).
	runtime.LockOSThread()
}

type Options struct {
	ConfigPath string
	Image      string
	Source     string
	Preview    bool

	Model          string
	Provider       string
	ScoreThreshold float64
	NMSThreshold   float64
	NMSMode        string
	TargetWidth    int
	TargetHeight   int

	Annotated string
	CropDir   string
	JSONPath  string
	Aligned   string
	LogLevel  string
}

func main() {
	opts, set := parseFlags()

	if opts.Image == "" && opts.Source == "" {
		fmt.Fprintln(os.Stderr, "Error: --image or --camera flag is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(opts, set); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (Options, map[string]bool) {
	opts := Options{}

	flag.StringVar(&opts.ConfigPath, "config", "", "JSON configuration file")
	flag.StringVar(&opts.Image, "image", "", "Image to analyze")
	flag.StringVar(&opts.Image, "i", "", "Image to analyze (shorthand)")
	flag.StringVar(&opts.Source, "camera", "", "Camera index or video file for live detection")
	flag.StringVar(&opts.Source, "c", "", "Camera index or video file (shorthand)")
	flag.BoolVar(&opts.Preview, "preview", true, "Show preview window in live mode")
	flag.BoolVar(&opts.Preview, "p", true, "Show preview window (shorthand)")
	flag.StringVar(&opts.Model, "model", "", "CenterFace ONNX model")
	flag.StringVar(&opts.Model, "m", "", "CenterFace ONNX model (shorthand)")
	flag.StringVar(&opts.Provider, "provider", "", "Execution provider: cpu or coreml")
	flag.Float64Var(&opts.ScoreThreshold, "score", 0, "Heatmap score threshold")
	flag.Float64Var(&opts.NMSThreshold, "nms", 0, "NMS overlap threshold")
	flag.StringVar(&opts.NMSMode, "mode", "", "NMS overlap mode: minimum or union")
	flag.IntVar(&opts.TargetWidth, "width", 0, "Resize target width (0 = image width)")
	flag.IntVar(&opts.TargetHeight, "height", 0, "Resize target height (0 = image height)")
	flag.StringVar(&opts.Annotated, "out", "", "Write the annotated image here")
	flag.StringVar(&opts.Annotated, "o", "", "Write the annotated image here (shorthand)")
	flag.StringVar(&opts.CropDir, "crops", "", "Write face crops into this directory")
	flag.StringVar(&opts.JSONPath, "json", "", "Write detections as JSON")
	flag.StringVar(&opts.Aligned, "aligned", "", "Write landmark-aligned face chips into this directory")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "centerface - CenterFace face detection\n\n")
		fmt.Fprintf(os.Stderr, "Usage: centerface [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  centerface --image group.jpg --out annotated.jpg\n")
		fmt.Fprintf(os.Stderr, "  centerface --image group.jpg --crops faces --json faces.json\n")
		fmt.Fprintf(os.Stderr, "  centerface --camera 0 --mode union --provider coreml\n")
	}

	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return opts, set
}

// loadConfig layers defaults, the config file, CENTERFACE_* variables and
// explicitly set flags, in that order.
func loadConfig(opts Options, set map[string]bool) (*config.Config, error) {
	cfg := config.Default()

	path := opts.ConfigPath
	if path == "" {
		if _, err := os.Stat(config.GetConfigPath()); err == nil {
			path = config.GetConfigPath()
		}
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv()

	if set["model"] || set["m"] {
		cfg.Model.Path = opts.Model
	}
	if set["provider"] {
		cfg.Model.Provider = opts.Provider
	}
	if set["score"] {
		cfg.Detection.ScoreThreshold = float32(opts.ScoreThreshold)
	}
	if set["nms"] {
		cfg.Detection.NMSThreshold = float32(opts.NMSThreshold)
	}
	if set["mode"] {
		cfg.Detection.NMSMode = opts.NMSMode
	}
	if set["width"] {
		cfg.Detection.TargetWidth = opts.TargetWidth
	}
	if set["height"] {
		cfg.Detection.TargetHeight = opts.TargetHeight
	}
	if set["out"] || set["o"] {
		cfg.Output.AnnotatedPath = opts.Annotated
	}
	if set["crops"] {
		cfg.Output.CropDir = opts.CropDir
	}
	if set["json"] {
		cfg.Output.JSONPath = opts.JSONPath
	}
	if set["aligned"] {
		cfg.Output.AlignedDir = opts.Aligned
	}
	if set["log-level"] {
		cfg.Log.Level = opts.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(opts Options, set map[string]bool) error {
	cfg, err := loadConfig(opts, set)
	if err != nil {
		return err
	}

	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()

	pipelineConfig, err := pipeline.ConfigFrom(cfg)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"model":    pipelineConfig.ModelPath,
		"provider": pipelineConfig.Provider,
		"mode":     pipelineConfig.Params.NMSMode,
	}).Info("loading model")

	p, err := pipeline.New(pipelineConfig, log)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.Image != "" {
		result := p.Analyze(ctx, opts.Image)
		for i, face := range result.Faces {
			b := face.BoundingBox
			fmt.Printf("face %d: score=%.3f box=(%.1f, %.1f, %.1f, %.1f)\n",
				i, face.Score, b.X1, b.Y1, b.X2, b.Y2)
		}
		return nil
	}

	return live(ctx, p, opts, log)
}

func live(ctx context.Context, p *pipeline.Pipeline, opts Options, log logrus.FieldLogger) error {
	source, err := camera.Open(opts.Source)
	if err != nil {
		return err
	}
	defer source.Close()
	log.Infof("source %s opened: %dx%d", source.Name(), source.Width(), source.Height())

	var preview pipeline.Preview
	if opts.Preview {
		window := ui.NewWindow("CenterFace", source.Width(), source.Height())
		defer window.Close()
		preview = window
	} else if !source.Live() {
		log.Info("no preview, processing video to the end")
	}

	fmt.Println("Running... Press 'q' to quit")
	if err := p.Run(ctx, source, preview); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println("\nShutting down...")
	return nil
}
