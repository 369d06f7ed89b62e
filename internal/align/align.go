package align

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/dudu/centerface/internal/detector"
)

// Aligner produces square face chips with the landmarks on the template.
type Aligner struct {
	size     int
	template detector.Landmarks
}

// NewAligner creates an aligner for size x size chips
func NewAligner(size int) *Aligner {
	if size <= 0 {
		size = 112
	}
	return &Aligner{size: size, template: ScaleTemplate(size)}
}

// Size returns the chip side length
func (a *Aligner) Size() int {
	return a.size
}

// Transform returns the image-to-chip transform of a face
func (a *Aligner) Transform(face detector.Face) Affine {
	return Similarity(face.Landmarks, a.template)
}

// Align warps one face out of img. The caller owns the returned Mat.
func (a *Aligner) Align(img gocv.Mat, face detector.Face) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.NewMat(), detector.ErrEmptyInput
	}

	m := a.Transform(face)
	transform := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer transform.Close()
	for i, v := range m {
		transform.SetDoubleAt(i/3, i%3, v)
	}

	aligned := gocv.NewMat()
	gocv.WarpAffine(img, &aligned, transform, image.Pt(a.size, a.size))
	return aligned, nil
}

// Save aligns every face and writes aligned_<i>.png into dir.
func (a *Aligner) Save(img gocv.Mat, faces []detector.Face, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create aligned directory: %w", err)
	}

	var paths []string
	for i, face := range faces {
		chip, err := a.Align(img, face)
		if err != nil {
			chip.Close()
			return paths, fmt.Errorf("failed to align face %d: %w", i, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("aligned_%d.png", i))
		ok := gocv.IMWrite(path, chip)
		chip.Close()
		if !ok {
			return paths, fmt.Errorf("failed to write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
