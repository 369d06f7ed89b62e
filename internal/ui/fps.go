package ui

import "time"

// FPSMeter averages the frame rate over one second windows.
type FPSMeter struct {
	start  time.Time
	frames int
	fps    float64
}

// Tick records a frame at now and returns the latest rate.
func (m *FPSMeter) Tick(now time.Time) float64 {
	if m.start.IsZero() {
		m.start = now
	}
	m.frames++

	elapsed := now.Sub(m.start)
	if elapsed >= time.Second {
		m.fps = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.start = now
	}
	return m.fps
}

// FPS returns the rate of the last completed window.
func (m *FPSMeter) FPS() float64 {
	return m.fps
}
