package pipeline

import (
	"gocv.io/x/gocv"

	"github.com/dudu/centerface/internal/detector"
)

// FaceDetector interface for face detection
type FaceDetector interface {
	Detect(img gocv.Mat) ([]detector.Face, error)
	DetectWithTarget(img gocv.Mat, targetW, targetH int) ([]detector.Face, error)
	Close() error
}

// FrameSource interface for live frame capture
type FrameSource interface {
	Read(frame *gocv.Mat) bool
	Close() error
}

// Preview interface for displaying annotated frames
type Preview interface {
	Show(frame *gocv.Mat)
	WaitKey(delayMs int) int
	Close() error
}

// FaceCounter is implemented by previews that overlay the face count
type FaceCounter interface {
	SetFaces(n int)
}
