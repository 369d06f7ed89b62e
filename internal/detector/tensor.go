package detector

import "fmt"

// Tensor is a read-only CHW view over a flat float32 buffer. The batch
// dimension is assumed to be 1.
type Tensor struct {
	data     []float32
	channels int
	height   int
	width    int
}

// NewTensor wraps data as a channels x height x width tensor. The buffer is
// not copied and must stay valid while the view is in use.
func NewTensor(data []float32, channels, height, width int) (Tensor, error) {
	if channels < 0 || height < 0 || width < 0 {
		return Tensor{}, fmt.Errorf("tensor shape %dx%dx%d: %w", channels, height, width, ErrInvalidDimension)
	}
	if want := channels * height * width; len(data) != want {
		return Tensor{}, fmt.Errorf("tensor shape %dx%dx%d needs %d values, got %d: %w",
			channels, height, width, want, len(data), ErrInvalidDimension)
	}
	return Tensor{data: data, channels: channels, height: height, width: width}, nil
}

// Channels returns the channel count
func (t Tensor) Channels() int { return t.channels }

// Height returns the spatial height
func (t Tensor) Height() int { return t.height }

// Width returns the spatial width
func (t Tensor) Width() int { return t.width }

// Empty reports whether the tensor holds no values.
func (t Tensor) Empty() bool {
	return len(t.data) == 0
}

// Channel returns the plane of channel c, row-major.
func (t Tensor) Channel(c int) []float32 {
	if c < 0 || c >= t.channels {
		panic(fmt.Sprintf("detector: channel %d out of range [0,%d)", c, t.channels))
	}
	plane := t.height * t.width
	return t.data[c*plane : (c+1)*plane : (c+1)*plane]
}

// At returns the value at (c, row, col).
func (t Tensor) At(c, row, col int) float32 {
	if row < 0 || row >= t.height || col < 0 || col >= t.width {
		panic(fmt.Sprintf("detector: index (%d,%d) out of range %dx%d", row, col, t.height, t.width))
	}
	return t.Channel(c)[row*t.width+col]
}

// Outputs holds the four CenterFace output tensors of one inference.
type Outputs struct {
	Heatmap   Tensor // 1 channel: face centre confidence
	Scale     Tensor // 2 channels: log height, log width
	Offset    Tensor // 2 channels: row offset, column offset
	Landmarks Tensor // 10 channels: (y, x) per landmark, in box units
}

// Required channel counts per output.
const (
	heatmapChannels  = 1
	scaleChannels    = 2
	offsetChannels   = 2
	landmarkChannels = 2 * NumLandmarks
)

func (o Outputs) empty() bool {
	return o.Heatmap.Empty() || o.Scale.Empty() || o.Offset.Empty() || o.Landmarks.Empty()
}

// validate checks channel counts and that all outputs share a spatial size.
func (o Outputs) validate() error {
	checks := []struct {
		name     string
		t        Tensor
		channels int
	}{
		{"heatmap", o.Heatmap, heatmapChannels},
		{"scale", o.Scale, scaleChannels},
		{"offset", o.Offset, offsetChannels},
		{"landmarks", o.Landmarks, landmarkChannels},
	}
	h, w := o.Heatmap.height, o.Heatmap.width
	for _, c := range checks {
		if c.t.channels < c.channels {
			return fmt.Errorf("%s has %d channels, need %d: %w", c.name, c.t.channels, c.channels, ErrInvalidDimension)
		}
		if c.t.height != h || c.t.width != w {
			return fmt.Errorf("%s is %dx%d, heatmap is %dx%d: %w", c.name, c.t.height, c.t.width, h, w, ErrInvalidDimension)
		}
	}
	return nil
}
