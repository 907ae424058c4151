package effect

import (
	"fmt"

	"github.com/cwbudde/algo-pvs/dsp/core"
	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

// Configurable is implemented by effects whose parameters can be updated
// from a Params set while running.
type Configurable interface {
	Configure(p Params) error
}

// base carries the format and output frame every effect shares.
type base struct {
	format pvs.Format
	out    *pvs.Frame
}

func newBase(format pvs.Format) (base, error) {
	if err := validateFormat(format); err != nil {
		return base{}, err
	}

	return base{format: format, out: pvs.NewFrame(format)}, nil
}

// Format returns the frame format the effect accepts.
func (b *base) Format() pvs.Format { return b.format }

// Output returns the frame Process writes into.
func (b *base) Output() *pvs.Frame { return b.out }

func (b *base) check(dst, src *pvs.Frame) error {
	if err := pvs.CheckDistinct(dst, src); err != nil {
		return err
	}

	if src.Format != b.format || dst.Format != b.format {
		return pvs.ErrFormatMismatch
	}

	return nil
}

func validateFormat(f pvs.Format) error {
	if f.FFTSize < pvs.MinFFTSize || f.FFTSize > pvs.MaxFFTSize || !core.IsPowerOfTwo(f.FFTSize) {
		return fmt.Errorf("effect: FFT size %d: %w", f.FFTSize, pvs.ErrInvalidSize)
	}

	if f.HopSize <= 0 || f.HopSize > f.FFTSize {
		return fmt.Errorf("effect: hop %d: %w", f.HopSize, pvs.ErrInvalidHop)
	}

	if !core.IsFinitePositive(f.SampleRate) {
		return fmt.Errorf("effect: sample rate %v: %w", f.SampleRate, pvs.ErrInvalidSampleRate)
	}

	return nil
}

func paramError(name string, v float64) error {
	return fmt.Errorf("effect: %s %v: %w", name, v, pvs.ErrInvalidParameter)
}
