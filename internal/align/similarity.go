// Package align warps detected faces onto a canonical five point template.
package align

import (
	"math"

	"github.com/dudu/centerface/internal/detector"
)

// Template112 is the five point layout of a 112x112 aligned face, in
// landmark order.
var Template112 = detector.Landmarks{
	{X: 38.2946, Y: 51.6963},
	{X: 73.5318, Y: 51.5014},
	{X: 56.0252, Y: 71.7366},
	{X: 41.5493, Y: 92.3655},
	{X: 70.7299, Y: 92.2041},
}

// Affine is a 2x3 row-major affine matrix.
type Affine [6]float64

// Apply maps p through the transform.
func (m Affine) Apply(p detector.Point) detector.Point {
	x, y := float64(p.X), float64(p.Y)
	return detector.Point{
		X: float32(m[0]*x + m[1]*y + m[2]),
		Y: float32(m[3]*x + m[4]*y + m[5]),
	}
}

// ScaleTemplate returns the template scaled from 112 to size pixels.
func ScaleTemplate(size int) detector.Landmarks {
	s := float32(size) / 112
	var out detector.Landmarks
	for i, p := range Template112 {
		out[i] = detector.Point{X: p.X * s, Y: p.Y * s}
	}
	return out
}

// Similarity returns the least squares rotation, uniform scale and
// translation taking src onto dst. Degenerate inputs (all points equal)
// give a pure translation between centroids.
func Similarity(src, dst detector.Landmarks) Affine {
	n := float64(len(src))

	var scx, scy, dcx, dcy float64
	for i := range src {
		scx += float64(src[i].X)
		scy += float64(src[i].Y)
		dcx += float64(dst[i].X)
		dcy += float64(dst[i].Y)
	}
	scx, scy, dcx, dcy = scx/n, scy/n, dcx/n, dcy/n

	// a = sum(dot), b = sum(cross) of the centred pairs
	var a, b, srcVar float64
	for i := range src {
		sx, sy := float64(src[i].X)-scx, float64(src[i].Y)-scy
		dx, dy := float64(dst[i].X)-dcx, float64(dst[i].Y)-dcy
		a += sx*dx + sy*dy
		b += sx*dy - sy*dx
		srcVar += sx*sx + sy*sy
	}

	if srcVar < 1e-12 {
		return Affine{1, 0, dcx - scx, 0, 1, dcy - scy}
	}

	// s*cos and s*sin of the optimal transform
	c := a / srcVar
	s := b / srcVar

	return Affine{
		c, -s, dcx - (c*scx - s*scy),
		s, c, dcy - (s*scx + c*scy),
	}
}

// Scale returns the uniform scale factor of a similarity transform.
func (m Affine) Scale() float64 {
	return math.Hypot(m[0], m[3])
}
