package detector

import "errors"

var (
	// ErrInvalidDimension reports non-positive or inconsistent image, target
	// or tensor dimensions. It aborts the call before any tensor work.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrEmptyInput reports a missing or zero-length image or tensor. The
	// detector recovers from it by returning no faces.
	ErrEmptyInput = errors.New("empty input")

	// ErrMissingModelArtifact reports that a model file does not exist.
	ErrMissingModelArtifact = errors.New("missing model artifact")
)
