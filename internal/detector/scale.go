package detector

import "fmt"

// Stride is the input size multiple required by the network's downsampling.
const Stride = 32

// OutputStride is the ratio between padded input and output tensor size.
const OutputStride = 4

// ScaleContext maps network output coordinates back to the original image.
//
// The network input is the caller's target size rounded up to a multiple of
// Stride. Coordinates are corrected first by the pad scale, which lives in the
// network frame, and then by the image scale.
type ScaleContext struct {
	ImageW, ImageH   int
	TargetW, TargetH int
	PaddedW, PaddedH int

	PadScaleW, PadScaleH     float32 // Target / Padded
	ImageScaleW, ImageScaleH float32 // Image / Target
}

// NewScaleContext computes the letterbox sizes and scale factors.
func NewScaleContext(imageW, imageH, targetW, targetH int) (ScaleContext, error) {
	if imageW <= 0 || imageH <= 0 {
		return ScaleContext{}, fmt.Errorf("image size %dx%d: %w", imageW, imageH, ErrInvalidDimension)
	}
	if targetW <= 0 || targetH <= 0 {
		return ScaleContext{}, fmt.Errorf("target size %dx%d: %w", targetW, targetH, ErrInvalidDimension)
	}

	paddedW := roundUp(targetW, Stride)
	paddedH := roundUp(targetH, Stride)

	return ScaleContext{
		ImageW:      imageW,
		ImageH:      imageH,
		TargetW:     targetW,
		TargetH:     targetH,
		PaddedW:     paddedW,
		PaddedH:     paddedH,
		PadScaleW:   float32(targetW) / float32(paddedW),
		PadScaleH:   float32(targetH) / float32(paddedH),
		ImageScaleW: float32(imageW) / float32(targetW),
		ImageScaleH: float32(imageH) / float32(targetH),
	}, nil
}

// OutputSize returns the spatial size of the network output tensors.
func (s ScaleContext) OutputSize() (w, h int) {
	return s.PaddedW / OutputStride, s.PaddedH / OutputStride
}

// ScaleX returns the factor that maps a network x coordinate to image pixels.
func (s ScaleContext) ScaleX() float32 {
	return s.PadScaleW * s.ImageScaleW
}

// ScaleY returns the factor that maps a network y coordinate to image pixels.
func (s ScaleContext) ScaleY() float32 {
	return s.PadScaleH * s.ImageScaleH
}

func roundUp(v, multiple int) int {
	return (v + multiple - 1) / multiple * multiple
}
