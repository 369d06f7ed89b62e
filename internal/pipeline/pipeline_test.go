package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/dudu/centerface/internal/detector"
	"github.com/dudu/centerface/internal/logging"
)

type fakeDetector struct {
	faces   []detector.Face
	err     error
	targets [][2]int
	closed  bool
}

func (f *fakeDetector) Detect(img gocv.Mat) ([]detector.Face, error) {
	return f.DetectWithTarget(img, img.Cols(), img.Rows())
}

func (f *fakeDetector) DetectWithTarget(img gocv.Mat, w, h int) ([]detector.Face, error) {
	f.targets = append(f.targets, [2]int{w, h})
	return f.faces, f.err
}

func (f *fakeDetector) Close() error {
	f.closed = true
	return nil
}

type fakeSource struct {
	frames int
}

func (s *fakeSource) Read(frame *gocv.Mat) bool {
	if s.frames == 0 {
		return false
	}
	s.frames--
	m := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	m.CopyTo(frame)
	m.Close()
	return true
}

func (s *fakeSource) Close() error { return nil }

type fakePreview struct {
	shown int
	faces int
	quit  int // quit after this many frames
}

func (p *fakePreview) Show(frame *gocv.Mat) { p.shown++ }
func (p *fakePreview) SetFaces(n int)       { p.faces = n }
func (p *fakePreview) Close() error         { return nil }

func (p *fakePreview) WaitKey(int) int {
	if p.shown >= p.quit {
		return 'q'
	}
	return -1
}

func oneFace() []detector.Face {
	f := detector.Face{
		BoundingBox: detector.BoundingBox{X1: 10, Y1: 8, X2: 30, Y2: 28},
		Score:       0.9,
	}
	f.Landmarks[detector.Nose] = detector.Point{X: 20, Y: 18}
	return []detector.Face{f}
}

func writeImage(t *testing.T, dir string) string {
	t.Helper()
	img := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer img.Close()
	path := filepath.Join(dir, "in.png")
	if !gocv.IMWrite(path, img) {
		t.Fatalf("failed to write %s", path)
	}
	return path
}

func TestAnalyzeWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	det := &fakeDetector{faces: oneFace()}
	p := NewWithDetector(Config{
		AnnotatedPath: filepath.Join(dir, "annotated.png"),
		CropDir:       filepath.Join(dir, "crops"),
		CropMargin:    0.5,
		CropSize:      32,
		JSONPath:      filepath.Join(dir, "result.json"),
		AlignedDir:    filepath.Join(dir, "aligned"),
		AlignedSize:   112,
	}, det, logging.Discard())
	defer p.Close()

	result := p.Analyze(context.Background(), writeImage(t, dir))
	if len(result.Faces) != 1 {
		t.Fatalf("Analyze() returned %d faces, want 1", len(result.Faces))
	}
	if len(result.Crops) != 1 {
		t.Errorf("Analyze() wrote %d crops, want 1", len(result.Crops))
	}
	if len(det.targets) != 1 || det.targets[0] != [2]int{64, 48} {
		t.Errorf("detector targets = %v, want image size", det.targets)
	}
	if len(result.Aligned) != 1 {
		t.Errorf("Analyze() wrote %d aligned chips, want 1", len(result.Aligned))
	}
	for _, name := range []string{"annotated.png", "result.json", "crops/face_0.jpg", "aligned/aligned_0.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestAnalyzeUsesConfiguredTarget(t *testing.T) {
	dir := t.TempDir()
	det := &fakeDetector{}
	p := NewWithDetector(Config{TargetWidth: 320, TargetHeight: 240}, det, nil)

	p.Analyze(context.Background(), writeImage(t, dir))
	if len(det.targets) != 1 || det.targets[0] != [2]int{320, 240} {
		t.Errorf("detector targets = %v, want [320 240]", det.targets)
	}
}

func TestAnalyzeFailuresYieldEmptyResult(t *testing.T) {
	dir := t.TempDir()

	p := NewWithDetector(Config{}, &fakeDetector{faces: oneFace()}, nil)
	if result := p.Analyze(context.Background(), filepath.Join(dir, "missing.jpg")); len(result.Faces) != 0 {
		t.Errorf("missing image: got %d faces, want 0", len(result.Faces))
	}

	failing := NewWithDetector(Config{}, &fakeDetector{err: errors.New("boom")}, nil)
	if result := failing.Analyze(context.Background(), writeImage(t, dir)); len(result.Faces) != 0 {
		t.Errorf("detector error: got %d faces, want 0", len(result.Faces))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if result := p.Analyze(ctx, writeImage(t, dir)); len(result.Faces) != 0 {
		t.Errorf("cancelled: got %d faces, want 0", len(result.Faces))
	}
}

func TestRunStopsOnQuitKey(t *testing.T) {
	p := NewWithDetector(Config{}, &fakeDetector{faces: oneFace()}, nil)
	preview := &fakePreview{quit: 3}

	if err := p.Run(context.Background(), &fakeSource{frames: 10}, preview); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if preview.shown != 3 {
		t.Errorf("shown %d frames, want 3", preview.shown)
	}
	if preview.faces != 1 {
		t.Errorf("face count = %d, want 1", preview.faces)
	}
}

func TestRunSourceExhausted(t *testing.T) {
	p := NewWithDetector(Config{}, &fakeDetector{}, nil)
	if err := p.Run(context.Background(), &fakeSource{frames: 2}, nil); err == nil {
		t.Error("Run() on an exhausted source should return an error")
	}
}

func TestRunCancelled(t *testing.T) {
	p := NewWithDetector(Config{}, &fakeDetector{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Run(ctx, &fakeSource{frames: 100}, nil); err != nil {
		t.Errorf("Run() error = %v, want nil on cancel", err)
	}
}

func TestCloseClosesDetector(t *testing.T) {
	det := &fakeDetector{}
	p := NewWithDetector(Config{}, det, nil)
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !det.closed {
		t.Error("Close() did not close the detector")
	}
}
