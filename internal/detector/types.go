package detector

// Point represents a 2D point
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// BoundingBox represents a face bounding box
type BoundingBox struct {
	X1 float32 `json:"x1"` // top-left
	Y1 float32 `json:"y1"`
	X2 float32 `json:"x2"` // bottom-right
	Y2 float32 `json:"y2"`
}

// Width returns box width
func (b BoundingBox) Width() float32 {
	return b.X2 - b.X1
}

// Height returns box height
func (b BoundingBox) Height() float32 {
	return b.Y2 - b.Y1
}

// Center returns box center point
func (b BoundingBox) Center() Point {
	return Point{
		X: b.X1 + b.Width()/2,
		Y: b.Y1 + b.Height()/2,
	}
}

// Area returns box area
func (b BoundingBox) Area() float32 {
	return b.Width() * b.Height()
}

// Landmark indices in the CenterFace output order
const (
	LeftEye = iota
	RightEye
	Nose
	LeftMouth
	RightMouth

	NumLandmarks
)

// Landmarks represents 5 facial landmark points
type Landmarks [NumLandmarks]Point

// AsSlice returns landmarks as a flat slice [x0,y0,x1,y1,...]
func (l Landmarks) AsSlice() []float32 {
	out := make([]float32, 0, 2*NumLandmarks)
	for _, p := range l {
		out = append(out, p.X, p.Y)
	}
	return out
}

// Face is a detected face. While decoding it lives in padded network space;
// after MapToImage the box and landmarks are in original image pixels.
type Face struct {
	BoundingBox BoundingBox `json:"box"`
	Landmarks   Landmarks   `json:"landmarks"`
	Score       float32     `json:"score"`
	// Area of the decoded box in network space, used by NMS.
	Area float32 `json:"-"`
}
