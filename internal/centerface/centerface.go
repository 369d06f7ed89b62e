// Package centerface runs the CenterFace ONNX model and post-processes its
// outputs into faces in original image coordinates.
package centerface

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/dudu/centerface/internal/detector"
	"github.com/dudu/centerface/internal/inference"
)

// Tensor names of the CenterFace ONNX export.
const (
	InputName     = "input.1"
	HeatmapName   = "537"
	ScaleName     = "538"
	OffsetName    = "539"
	LandmarksName = "540"
)

// OutputNames lists the outputs in the order Detect requests them.
var OutputNames = []string{HeatmapName, ScaleName, OffsetName, LandmarksName}

// Detector implements CenterFace face detection. It keeps no per-call state,
// so Detect may be called concurrently.
type Detector struct {
	session *inference.Session
	post    *detector.Postprocessor
	log     logrus.FieldLogger
}

// Options configure a Detector.
type Options struct {
	ModelPath string
	Provider  inference.Provider
	Params    detector.Params
	Logger    logrus.FieldLogger
}

// CheckModel reports ErrMissingModelArtifact if the model file is absent.
func CheckModel(modelPath string) error {
	if modelPath == "" {
		return fmt.Errorf("model path is empty: %w", detector.ErrMissingModelArtifact)
	}
	info, err := os.Stat(modelPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not find CenterFace model %s: %w", modelPath, detector.ErrMissingModelArtifact)
	}
	if err != nil {
		return fmt.Errorf("failed to stat model %s: %w", modelPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("model path %s is a directory: %w", modelPath, detector.ErrMissingModelArtifact)
	}
	return nil
}

// New creates a CenterFace detector. inference.Initialize must have been
// called.
func New(opts Options) (*Detector, error) {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	if err := CheckModel(opts.ModelPath); err != nil {
		return nil, err
	}

	session, err := inference.NewSession(opts.ModelPath, []string{InputName}, OutputNames, opts.Provider, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create CenterFace session: %w", err)
	}

	return &Detector{
		session: session,
		post:    detector.NewPostprocessor(opts.Params, log),
		log:     log.WithField("detector", "centerface"),
	}, nil
}

// Params returns the post-processing parameters
func (d *Detector) Params() detector.Params {
	return d.post.Params()
}

// Detect finds faces using the image's own size as resize target.
func (d *Detector) Detect(img gocv.Mat) ([]detector.Face, error) {
	return d.DetectWithTarget(img, img.Cols(), img.Rows())
}

// DetectWithTarget finds faces after resizing the image to targetW x
// targetH rounded up to a multiple of 32. An empty image yields no faces.
func (d *Detector) DetectWithTarget(img gocv.Mat, targetW, targetH int) ([]detector.Face, error) {
	if img.Empty() {
		d.log.Warn("image is empty, no faces")
		return nil, nil
	}

	sc, err := detector.NewScaleContext(img.Cols(), img.Rows(), targetW, targetH)
	if err != nil {
		return nil, err
	}

	blob := preprocess(img, sc)
	defer blob.Close()

	inputTensor, err := inference.CreateTensor(
		[]int64{1, 3, int64(sc.PaddedH), int64(sc.PaddedW)},
		bytesToFloat32(blob.ToBytes()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	featW, featH := sc.OutputSize()
	channels := []int64{1, 2, 2, 10}
	outputTensors := make([]*ort.Tensor[float32], len(channels))
	outputs := make([]ort.Value, len(channels))
	defer func() {
		for _, t := range outputTensors {
			if t != nil {
				t.Destroy()
			}
		}
	}()
	for i, c := range channels {
		t, err := inference.CreateEmptyTensor[float32]([]int64{1, c, int64(featH), int64(featW)})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s output tensor: %w", OutputNames[i], err)
		}
		outputTensors[i] = t
		outputs[i] = t
	}

	if err := d.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out, err := wrapOutputs(outputTensors, featH, featW)
	if err != nil {
		return nil, err
	}

	return d.post.Run(out, sc)
}

// preprocess resizes the image straight to the padded size (no letterbox
// bars), swaps BGR to RGB and lays it out as NCHW float32.
func preprocess(img gocv.Mat, sc detector.ScaleContext) gocv.Mat {
	return gocv.BlobFromImage(img, 1.0, image.Pt(sc.PaddedW, sc.PaddedH),
		gocv.NewScalar(0, 0, 0, 0), true, false)
}

func wrapOutputs(tensors []*ort.Tensor[float32], h, w int) (detector.Outputs, error) {
	views := make([]detector.Tensor, len(tensors))
	for i, t := range tensors {
		shape := t.GetShape()
		if len(shape) != 4 {
			return detector.Outputs{}, fmt.Errorf("output %s has shape %v: %w", OutputNames[i], shape, detector.ErrInvalidDimension)
		}
		v, err := detector.NewTensor(t.GetData(), int(shape[1]), h, w)
		if err != nil {
			return detector.Outputs{}, fmt.Errorf("output %s: %w", OutputNames[i], err)
		}
		views[i] = v
	}
	return detector.Outputs{
		Heatmap:   views[0],
		Scale:     views[1],
		Offset:    views[2],
		Landmarks: views[3],
	}, nil
}

// Close releases detector resources
func (d *Detector) Close() error {
	return d.session.Destroy()
}

func bytesToFloat32(data []byte) []float32 {
	result := make([]float32, len(data)/4)
	for i := range result {
		bits := uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
		result[i] = math.Float32frombits(bits)
	}
	return result
}
