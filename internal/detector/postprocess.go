package detector

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Params are the per-call tunables of face post-processing.
type Params struct {
	ScoreThreshold float32
	NMSThreshold   float32
	NMSMode        NMSMode
}

// DefaultParams returns score 0.5, NMS 0.3 in minimum mode.
func DefaultParams() Params {
	return Params{
		ScoreThreshold: 0.5,
		NMSThreshold:   0.3,
		NMSMode:        NMSMinimum,
	}
}

// Postprocessor runs decode, NMS and coordinate mapping. It holds no per-call
// state and is safe for concurrent use.
type Postprocessor struct {
	params Params
	log    logrus.FieldLogger
}

// NewPostprocessor creates a Postprocessor. A nil logger discards output.
func NewPostprocessor(params Params, log logrus.FieldLogger) *Postprocessor {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Postprocessor{params: params, log: log}
}

// Params returns the configured parameters
func (p *Postprocessor) Params() Params {
	return p.params
}

// Run turns one set of outputs into faces in original image pixels, in NMS
// pick order.
func (p *Postprocessor) Run(out Outputs, sc ScaleContext) ([]Face, error) {
	faces, err := Decode(out, sc, p.params.ScoreThreshold, p.log)
	if err != nil {
		return nil, err
	}

	faces = NonMaxSuppression(faces, p.params.NMSThreshold, p.params.NMSMode)
	MapToImage(faces, sc)

	p.log.WithFields(logrus.Fields{
		"faces":  len(faces),
		"image":  [2]int{sc.ImageW, sc.ImageH},
		"padded": [2]int{sc.PaddedW, sc.PaddedH},
		"mode":   p.params.NMSMode.String(),
	}).Debug("postprocess done")

	return faces, nil
}
