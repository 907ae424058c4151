package effect

import (
	"math"

	"github.com/cwbudde/algo-pvs/dsp/core"
	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

// Freeze holds amplitudes, frequencies or both.
//
// Each component freezes while its trigger is at least 1. The frame
// processed when a trigger first reaches 1 is captured; from then on the
// captured values are emitted unchanged until the trigger drops below 1.
type Freeze struct {
	base

	ampTrigger  *core.Float64
	freqTrigger *core.Float64

	held       []pvs.Bin
	ampFrozen  bool
	freqFrozen bool
}

// NewFreeze returns a freeze for format with the given initial triggers.
func NewFreeze(format pvs.Format, ampTrigger, freqTrigger float64) (*Freeze, error) {
	b, err := newBase(format)
	if err != nil {
		return nil, err
	}

	if math.IsNaN(ampTrigger) || math.IsNaN(freqTrigger) {
		return nil, paramError("freeze trigger", math.NaN())
	}

	return &Freeze{
		base:        b,
		ampTrigger:  core.NewFloat64(ampTrigger),
		freqTrigger: core.NewFloat64(freqTrigger),
		held:        make([]pvs.Bin, format.Bins()),
	}, nil
}

// SetAmplitudeTrigger sets the amplitude freeze trigger.
func (e *Freeze) SetAmplitudeTrigger(v float64) error {
	if math.IsNaN(v) {
		return paramError("amplitude trigger", v)
	}

	e.ampTrigger.Store(v)

	return nil
}

// SetFrequencyTrigger sets the frequency freeze trigger.
func (e *Freeze) SetFrequencyTrigger(v float64) error {
	if math.IsNaN(v) {
		return paramError("frequency trigger", v)
	}

	e.freqTrigger.Store(v)

	return nil
}

// Freeze sets both triggers to 1.
func (e *Freeze) Freeze() {
	e.ampTrigger.Store(1)
	e.freqTrigger.Store(1)
}

// Release sets both triggers to 0.
func (e *Freeze) Release() {
	e.ampTrigger.Store(0)
	e.freqTrigger.Store(0)
}

// Frozen reports which components the current triggers freeze.
func (e *Freeze) Frozen() (amp, freq bool) {
	return e.ampTrigger.Load() >= 1, e.freqTrigger.Load() >= 1
}

// Configure applies the "amp" and "freq" trigger parameters.
func (e *Freeze) Configure(p Params) error {
	if v, ok := p.Num["amp"]; ok {
		if err := e.SetAmplitudeTrigger(v); err != nil {
			return err
		}
	}

	if v, ok := p.Num["freq"]; ok {
		return e.SetFrequencyTrigger(v)
	}

	return nil
}

// ProcessFrame writes src into dst with frozen components replaced by the
// captured snapshot.
func (e *Freeze) ProcessFrame(dst, src *pvs.Frame) error {
	if err := e.check(dst, src); err != nil {
		return err
	}

	amp, freq := e.Frozen()

	if amp && !e.ampFrozen {
		for k, b := range src.Bins {
			e.held[k].Amp = b.Amp
		}
	}

	if freq && !e.freqFrozen {
		for k, b := range src.Bins {
			e.held[k].Freq = b.Freq
		}
	}

	e.ampFrozen, e.freqFrozen = amp, freq

	dst.ID = src.ID

	for k, b := range src.Bins {
		if amp {
			b.Amp = e.held[k].Amp
		}

		if freq {
			b.Freq = e.held[k].Freq
		}

		dst.Bins[k] = b
	}

	return nil
}

// Process freezes src into the effect's output frame.
func (e *Freeze) Process(src *pvs.Frame) (*pvs.Frame, error) {
	if err := e.ProcessFrame(e.out, src); err != nil {
		return nil, err
	}

	return e.out, nil
}
