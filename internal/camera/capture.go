package camera

import (
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Source reads frames from a webcam or a video file
type Source struct {
	capture *gocv.VideoCapture
	name    string
	live    bool
	width   int
	height  int
	mu      sync.Mutex
}

// Open opens a frame source. A numeric name selects a camera device,
// anything else is treated as a video file path or stream URL.
func Open(name string) (*Source, error) {
	if id, err := strconv.Atoi(name); err == nil {
		return OpenDevice(id, 1280, 720)
	}

	capture, err := gocv.OpenVideoCapture(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", name, err)
	}
	return newSource(capture, name, false), nil
}

// OpenDevice opens a camera and requests the given resolution
func OpenDevice(deviceID int, width, height int) (*Source, error) {
	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", deviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(height))

	return newSource(capture, strconv.Itoa(deviceID), true), nil
}

func newSource(capture *gocv.VideoCapture, name string, live bool) *Source {
	// Camera may not support the requested resolution
	return &Source{
		capture: capture,
		name:    name,
		live:    live,
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}
}

// Read captures a frame into the provided Mat
func (s *Source) Read(frame *gocv.Mat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return false
	}
	return s.capture.Read(frame)
}

// Name returns the device index or path the source was opened with
func (s *Source) Name() string { return s.name }

// Live reports whether the source is a camera
func (s *Source) Live() bool { return s.live }

// Width returns frame width
func (s *Source) Width() int { return s.width }

// Height returns frame height
func (s *Source) Height() int { return s.height }

// Close releases the capture device
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture != nil {
		err := s.capture.Close()
		s.capture = nil
		return err
	}
	return nil
}
