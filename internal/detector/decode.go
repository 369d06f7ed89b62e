package detector

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Decode turns CenterFace outputs into face candidates in padded network
// space, in row-major discovery order. Only cells whose heatmap value is
// strictly greater than scoreThreshold produce a candidate.
//
// Empty outputs yield no candidates and no error. Outputs with missing
// channels or mismatched spatial sizes return ErrInvalidDimension.
func Decode(out Outputs, sc ScaleContext, scoreThreshold float32, log logrus.FieldLogger) ([]Face, error) {
	if out.empty() {
		if log != nil {
			log.Warn("decode: empty output tensor, no faces")
		}
		return nil, nil
	}
	if err := out.validate(); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	featH := out.Heatmap.Height()
	featW := out.Heatmap.Width()

	heatmap := out.Heatmap.Channel(0)
	scale0, scale1 := out.Scale.Channel(0), out.Scale.Channel(1)
	offset0, offset1 := out.Offset.Channel(0), out.Offset.Channel(1)

	var lmY, lmX [NumLandmarks][]float32
	for j := 0; j < NumLandmarks; j++ {
		lmY[j] = out.Landmarks.Channel(2 * j)
		lmX[j] = out.Landmarks.Channel(2*j + 1)
	}

	paddedW := float32(sc.PaddedW)
	paddedH := float32(sc.PaddedH)

	var faces []Face
	for row := 0; row < featH; row++ {
		for col := 0; col < featW; col++ {
			idx := row*featW + col
			score := heatmap[idx]
			if !(score > scoreThreshold) {
				continue
			}

			boxH := expf(scale0[idx]) * OutputStride
			boxW := expf(scale1[idx]) * OutputStride

			x1 := maxf(0, (float32(col)+offset1[idx]+0.5)*OutputStride-boxW/2)
			y1 := maxf(0, (float32(row)+offset0[idx]+0.5)*OutputStride-boxH/2)
			x1 = minf(x1, paddedW)
			y1 = minf(y1, paddedH)
			x2 := minf(x1+boxW, paddedW)
			y2 := minf(y1+boxH, paddedH)

			face := Face{
				BoundingBox: BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2},
				Score:       score,
				Area:        (x2 - x1) * (y2 - y1),
			}
			// Landmarks are anchored on the clamped corner but scaled by the
			// unclamped box size.
			for j := 0; j < NumLandmarks; j++ {
				face.Landmarks[j] = Point{
					X: x1 + lmX[j][idx]*boxW,
					Y: y1 + lmY[j][idx]*boxH,
				}
			}
			faces = append(faces, face)
		}
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"candidates": len(faces),
			"threshold":  scoreThreshold,
		}).Debug("decode: heatmap scanned")
	}
	return faces, nil
}

func expf(x float32) float32 {
	return float32(math.Exp(float64(x)))
}

// maxf returns b only if b > a, so maxf(0, NaN) is 0.
func maxf(a, b float32) float32 {
	if b > a {
		return b
	}
	return a
}

// minf returns a only if a < b, so minf(NaN, limit) is limit.
func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
