package detector

import (
	"fmt"
	"sort"
	"strings"
)

// NMSMode selects the normalizer of the overlap ratio.
type NMSMode int

const (
	// NMSMinimum divides the intersection by the smaller box area. A small
	// box nested in a larger one is suppressed even when the union IoU is low.
	NMSMinimum NMSMode = iota
	// NMSUnion divides the intersection by the union area.
	NMSUnion
)

// String returns the configuration name of the mode
func (m NMSMode) String() string {
	switch m {
	case NMSMinimum:
		return "minimum"
	case NMSUnion:
		return "union"
	}
	return fmt.Sprintf("NMSMode(%d)", int(m))
}

// ParseNMSMode parses "minimum"/"min" or "union".
func ParseNMSMode(s string) (NMSMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "min", "minimum":
		return NMSMinimum, nil
	case "union", "iou":
		return NMSUnion, nil
	}
	return 0, fmt.Errorf("unknown nms mode %q (use 'minimum' or 'union')", s)
}

// NonMaxSuppression greedily keeps the highest scoring face and drops every
// remaining face whose overlap ratio with it exceeds threshold, until no
// candidates are left. The result is in pick order. faces is reordered.
func NonMaxSuppression(faces []Face, threshold float32, mode NMSMode) []Face {
	if len(faces) == 0 {
		return nil
	}

	// Ties keep their input order, so the later one is picked first.
	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i].Score < faces[j].Score
	})

	work := make([]int, len(faces))
	for i := range work {
		work[i] = i
	}

	picked := make([]Face, 0, len(faces))
	for len(work) > 0 {
		last := work[len(work)-1]
		work = work[:len(work)-1]
		picked = append(picked, faces[last])

		kept := work[:0]
		for _, idx := range work {
			if overlap(faces[idx], faces[last], mode) > threshold {
				continue
			}
			kept = append(kept, idx)
		}
		work = kept
	}

	return picked
}

// overlap computes the intersection ratio of two faces. The intersection
// counts pixels inclusively (+1 per axis); areas are the decoded areas.
func overlap(a, b Face, mode NMSMode) float32 {
	maxX := max32(a.BoundingBox.X1, b.BoundingBox.X1)
	maxY := max32(a.BoundingBox.Y1, b.BoundingBox.Y1)
	minX := min32(a.BoundingBox.X2, b.BoundingBox.X2)
	minY := min32(a.BoundingBox.Y2, b.BoundingBox.Y2)

	inter := positive(minX-maxX+1) * positive(minY-maxY+1)

	switch mode {
	case NMSUnion:
		return inter / (a.Area + b.Area - inter)
	default:
		return inter / min32(a.Area, b.Area)
	}
}

// positive returns v if v > 0, else 0 (NaN included).
func positive(v float32) float32 {
	if v > 0 {
		return v
	}
	return 0
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
