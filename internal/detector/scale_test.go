package detector

import (
	"errors"
	"testing"
)

func TestNewScaleContext(t *testing.T) {
	tests := []struct {
		name                     string
		imageW, imageH           int
		targetW, targetH         int
		paddedW, paddedH         int
		padScaleW, padScaleH     float32
		imageScaleW, imageScaleH float32
	}{
		{
			name:   "already aligned",
			imageW: 800, imageH: 600, targetW: 640, targetH: 480,
			paddedW: 640, paddedH: 480,
			padScaleW: 1, padScaleH: 1,
			imageScaleW: 1.25, imageScaleH: 1.25,
		},
		{
			name:   "rounded up",
			imageW: 500, imageH: 375, targetW: 500, targetH: 375,
			paddedW: 512, paddedH: 384,
			padScaleW: 500.0 / 512, padScaleH: 375.0 / 384,
			imageScaleW: 1, imageScaleH: 1,
		},
		{
			name:   "tiny target",
			imageW: 10, imageH: 10, targetW: 1, targetH: 33,
			paddedW: 32, paddedH: 64,
			padScaleW: 1.0 / 32, padScaleH: 33.0 / 64,
			imageScaleW: 10, imageScaleH: 10.0 / 33,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := NewScaleContext(tt.imageW, tt.imageH, tt.targetW, tt.targetH)
			if err != nil {
				t.Fatalf("NewScaleContext() error = %v", err)
			}
			if sc.PaddedW != tt.paddedW || sc.PaddedH != tt.paddedH {
				t.Errorf("padded = %dx%d, want %dx%d", sc.PaddedW, sc.PaddedH, tt.paddedW, tt.paddedH)
			}
			if sc.PaddedW%Stride != 0 || sc.PaddedH%Stride != 0 {
				t.Errorf("padded %dx%d is not a multiple of %d", sc.PaddedW, sc.PaddedH, Stride)
			}
			if sc.PaddedW < sc.TargetW || sc.PaddedH < sc.TargetH {
				t.Errorf("padded %dx%d smaller than target", sc.PaddedW, sc.PaddedH)
			}
			if !approx(sc.PadScaleW, tt.padScaleW) || !approx(sc.PadScaleH, tt.padScaleH) {
				t.Errorf("pad scale = %v,%v, want %v,%v", sc.PadScaleW, sc.PadScaleH, tt.padScaleW, tt.padScaleH)
			}
			if !approx(sc.ImageScaleW, tt.imageScaleW) || !approx(sc.ImageScaleH, tt.imageScaleH) {
				t.Errorf("image scale = %v,%v, want %v,%v", sc.ImageScaleW, sc.ImageScaleH, tt.imageScaleW, tt.imageScaleH)
			}
		})
	}
}

func TestNewScaleContextInvalid(t *testing.T) {
	tests := []struct {
		name string
		dims [4]int
	}{
		{"zero image width", [4]int{0, 10, 10, 10}},
		{"negative image height", [4]int{10, -1, 10, 10}},
		{"zero target width", [4]int{10, 10, 0, 10}},
		{"negative target height", [4]int{10, 10, 10, -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScaleContext(tt.dims[0], tt.dims[1], tt.dims[2], tt.dims[3])
			if !errors.Is(err, ErrInvalidDimension) {
				t.Errorf("error = %v, want ErrInvalidDimension", err)
			}
		})
	}
}

func TestScaleContextOutputSize(t *testing.T) {
	sc, err := NewScaleContext(800, 600, 640, 480)
	if err != nil {
		t.Fatal(err)
	}
	w, h := sc.OutputSize()
	if w != 160 || h != 120 {
		t.Errorf("OutputSize() = %dx%d, want 160x120", w, h)
	}
	if !approx(sc.ScaleX(), 1.25) || !approx(sc.ScaleY(), 1.25) {
		t.Errorf("ScaleX/ScaleY = %v/%v, want 1.25", sc.ScaleX(), sc.ScaleY())
	}
}

func approx(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1e-4
}
