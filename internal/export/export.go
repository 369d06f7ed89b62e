// Package export hands detection results to disk: cropped face images and
// a JSON listing.
package export

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/dudu/centerface/internal/detector"
)

// Cropper cuts faces out of the source image.
type Cropper struct {
	// Margin grows each side by Margin*max(w,h) of the box.
	Margin float64
	// Size resizes crops to Size x Size; 0 keeps the cropped size.
	Size int
	// Format is the file extension, "jpg" or "png".
	Format string
}

// NewCropper creates a Cropper with the given margin and output size
func NewCropper(margin float64, size int) *Cropper {
	return &Cropper{Margin: margin, Size: size, Format: "jpg"}
}

// Region returns the crop rectangle of a face, clamped to bounds.
func (c *Cropper) Region(face detector.Face, bounds image.Rectangle) image.Rectangle {
	b := face.BoundingBox
	side := math.Max(float64(b.Width()), float64(b.Height()))
	pad := side * c.Margin

	r := image.Rect(
		int(math.Round(float64(b.X1)-pad)),
		int(math.Round(float64(b.Y1)-pad)),
		int(math.Round(float64(b.X2)+pad)),
		int(math.Round(float64(b.Y2)+pad)),
	).Add(bounds.Min)
	return r.Intersect(bounds)
}

// Crop returns one image per face, in face order. Faces whose region is
// empty yield nil.
func (c *Cropper) Crop(img image.Image, faces []detector.Face) []image.Image {
	crops := make([]image.Image, len(faces))
	for i, face := range faces {
		r := c.Region(face, img.Bounds())
		if r.Empty() {
			continue
		}
		crop := image.Image(imaging.Crop(img, r))
		if c.Size > 0 {
			crop = imaging.Resize(crop, c.Size, c.Size, imaging.Linear)
		}
		crops[i] = crop
	}
	return crops
}

// Save crops every face and writes them to dir as face_<i>.<format>.
// It returns the written paths, in face order, skipping empty regions.
func (c *Cropper) Save(img image.Image, faces []detector.Face, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create crop directory: %w", err)
	}

	format := c.Format
	if format == "" {
		format = "jpg"
	}

	var paths []string
	for i, crop := range c.Crop(img, faces) {
		if crop == nil {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("face_%d.%s", i, format))
		if err := imaging.Save(crop, path, imaging.JPEGQuality(95)); err != nil {
			return paths, fmt.Errorf("failed to save crop %d: %w", i, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Result is the JSON document written by WriteJSON.
type Result struct {
	Image  string          `json:"image"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Faces  []detector.Face `json:"faces"`
	Crops  []string        `json:"crops,omitempty"`
}

// WriteJSON writes the result as indented JSON.
func WriteJSON(path string, result Result) error {
	if result.Faces == nil {
		result.Faces = []detector.Face{}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create result directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
