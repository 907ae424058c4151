package effect

import "github.com/cwbudde/algo-pvs/dsp/pvs"

// Identity passes frames through unchanged.
type Identity struct {
	base
}

// NewIdentity returns an identity effect for format.
func NewIdentity(format pvs.Format) (*Identity, error) {
	b, err := newBase(format)
	if err != nil {
		return nil, err
	}

	return &Identity{base: b}, nil
}

// ProcessFrame copies src into dst.
func (e *Identity) ProcessFrame(dst, src *pvs.Frame) error {
	if err := e.check(dst, src); err != nil {
		return err
	}

	dst.ID = src.ID
	copy(dst.Bins, src.Bins)

	return nil
}

// Process copies src into the effect's output frame.
func (e *Identity) Process(src *pvs.Frame) (*pvs.Frame, error) {
	if err := e.ProcessFrame(e.out, src); err != nil {
		return nil, err
	}

	return e.out, nil
}

// Configure accepts and ignores any parameters.
func (e *Identity) Configure(Params) error { return nil }
