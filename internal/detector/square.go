package detector

// MapToImage rescales boxes and landmarks from padded network space to
// original image pixels and then squares every box in place.
func MapToImage(faces []Face, sc ScaleContext) {
	rescale(faces, sc)
	SquareBox(faces, sc.ImageW, sc.ImageH)
}

func rescale(faces []Face, sc ScaleContext) {
	sx, sy := sc.ScaleX(), sc.ScaleY()
	for i := range faces {
		b := &faces[i].BoundingBox
		b.X1 *= sx
		b.Y1 *= sy
		b.X2 *= sx
		b.Y2 *= sy

		for j := range faces[i].Landmarks {
			faces[i].Landmarks[j].X *= sx
			faces[i].Landmarks[j].Y *= sy
		}
	}
}

// SquareBox grows each box to a square of its longer side around the same
// centre, clamped to [0, imageW-1] x [0, imageH-1]. Landmarks are untouched.
func SquareBox(faces []Face, imageW, imageH int) {
	maxX := float32(imageW - 1)
	maxY := float32(imageH - 1)

	for i := range faces {
		b := faces[i].BoundingBox
		w := b.Width()
		h := b.Height()
		size := w
		if h > w {
			size = h
		}
		c := b.Center()

		faces[i].BoundingBox = BoundingBox{
			X1: clamp(c.X-size/2, 0, maxX),
			Y1: clamp(c.Y-size/2, 0, maxY),
			X2: clamp(c.X+size/2, 0, maxX),
			Y2: clamp(c.Y+size/2, 0, maxY),
		}
	}
}

func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
