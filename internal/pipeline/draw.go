package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/dudu/centerface/internal/detector"
)

var (
	boxColor      = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	landmarkColor = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	labelColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Annotate draws face boxes, landmark dots and scores onto frame.
func Annotate(frame *gocv.Mat, faces []detector.Face) {
	thickness := 1 + min(frame.Cols(), frame.Rows())/500

	for _, face := range faces {
		b := face.BoundingBox
		rect := image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
		gocv.Rectangle(frame, rect, boxColor, thickness)

		for _, p := range face.Landmarks {
			gocv.Circle(frame, image.Pt(int(p.X), int(p.Y)), thickness+1, landmarkColor, -1)
		}

		label := fmt.Sprintf("%.2f", face.Score)
		gocv.PutText(frame, label, image.Pt(rect.Min.X, max(rect.Min.Y-4, 12)),
			gocv.FontHersheyPlain, 1, labelColor, 1)
	}
}
