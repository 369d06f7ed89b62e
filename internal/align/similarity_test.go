package align

import (
	"math"
	"testing"

	"github.com/dudu/centerface/internal/detector"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func TestSimilarityIdentity(t *testing.T) {
	m := Similarity(Template112, Template112)
	want := Affine{1, 0, 0, 0, 1, 0}
	for i := range m {
		if math.Abs(m[i]-want[i]) > 1e-9 {
			t.Fatalf("Similarity(template, template) = %v, want identity", m)
		}
	}
}

func TestSimilarityRecoversTransform(t *testing.T) {
	// rotate 30 degrees, scale 2.5, shift (40, -7)
	theta := math.Pi / 6
	c, s := 2.5*math.Cos(theta), 2.5*math.Sin(theta)
	truth := Affine{c, -s, 40, s, c, -7}

	var src detector.Landmarks
	for i, p := range Template112 {
		src[i] = truth.Apply(p)
	}

	m := Similarity(src, Template112)
	for i, p := range src {
		got := m.Apply(p)
		if !near(got.X, Template112[i].X) || !near(got.Y, Template112[i].Y) {
			t.Errorf("point %d mapped to %v, want %v", i, got, Template112[i])
		}
	}
	if math.Abs(m.Scale()-1/2.5) > 1e-6 {
		t.Errorf("Scale() = %v, want %v", m.Scale(), 1/2.5)
	}
}

func TestSimilarityDegenerate(t *testing.T) {
	var src detector.Landmarks
	for i := range src {
		src[i] = detector.Point{X: 10, Y: 20}
	}
	m := Similarity(src, Template112)
	if m[0] != 1 || m[4] != 1 || m[1] != 0 || m[3] != 0 {
		t.Errorf("degenerate transform = %v, want pure translation", m)
	}
}

func TestScaleTemplate(t *testing.T) {
	got := ScaleTemplate(224)
	for i, p := range Template112 {
		if !near(got[i].X, 2*p.X) || !near(got[i].Y, 2*p.Y) {
			t.Errorf("ScaleTemplate(224)[%d] = %v, want %v", i, got[i], p)
		}
	}
}
