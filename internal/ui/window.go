package ui

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

// Window shows annotated frames with a frame rate and face count overlay
type Window struct {
	window *gocv.Window
	meter  FPSMeter
	faces  int
}

// NewWindow creates a new preview window
func NewWindow(name string, width, height int) *Window {
	window := gocv.NewWindow(name)
	if width > 0 && height > 0 {
		// Force window to appear on macOS
		window.ResizeWindow(width, height)
		window.MoveWindow(100, 100)
	}
	return &Window{window: window}
}

// SetFaces sets the face count drawn on the next frame
func (w *Window) SetFaces(n int) {
	w.faces = n
}

// Show displays a frame and updates the FPS counter
func (w *Window) Show(frame *gocv.Mat) {
	fps := w.meter.Tick(time.Now())

	text := fmt.Sprintf("FPS: %.1f  faces: %d", fps, w.faces)
	gocv.PutText(frame, text, image.Pt(10, 30),
		gocv.FontHersheyPlain, 2, color.RGBA{R: 0, G: 255, B: 0, A: 255}, 2)

	w.window.IMShow(*frame)
}

// WaitKey waits for key press, returns key code or -1
func (w *Window) WaitKey(delayMs int) int {
	return w.window.WaitKey(delayMs)
}

// FPS returns current frames per second
func (w *Window) FPS() float64 {
	return w.meter.FPS()
}

// Close closes the window
func (w *Window) Close() error {
	if w.window != nil {
		err := w.window.Close()
		w.window = nil
		return err
	}
	return nil
}
