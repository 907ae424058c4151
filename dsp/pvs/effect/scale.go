package effect

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/cwbudde/algo-pvs/dsp/core"
	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

// FormantMode selects how Scale treats the spectral envelope.
type FormantMode int

const (
	// FormantNone shifts partials together with their envelope.
	FormantNone FormantMode = iota
	// FormantLifter keeps a cepstrally smoothed envelope in place.
	FormantLifter
	// FormantTrueEnvelope keeps an iterated true envelope in place. It
	// costs up to MaxIterations extra FFT pairs per frame.
	FormantTrueEnvelope
)

var formantNames = map[FormantMode]string{
	FormantNone:         "none",
	FormantLifter:       "lifter",
	FormantTrueEnvelope: "true",
}

func (m FormantMode) String() string {
	if s, ok := formantNames[m]; ok {
		return s
	}

	return fmt.Sprintf("formant(%d)", int(m))
}

// ParseFormantMode resolves a name printed by FormantMode.String.
func ParseFormantMode(name string) (FormantMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, s := range formantNames {
		if s == name {
			return m, nil
		}
	}

	return 0, fmt.Errorf("effect: formant mode %q: %w", name, pvs.ErrInvalidParameter)
}

// maxFormantCorrection bounds the envelope correction to ±60 dB.
const maxFormantCorrection = 6.907755278982137

// ScaleConfig configures a Scale.
type ScaleConfig struct {
	Factor  float64
	Gain    float64
	Formant FormantMode

	// Coefficients is the number of cepstral coefficients kept by the
	// envelope estimators.
	Coefficients int
	// MaxIterations caps the true envelope iterations.
	MaxIterations int
	// Tolerance is the convergence tolerance of the true envelope in
	// natural-log amplitude units.
	Tolerance float64
}

// DefaultScaleConfig returns an identity scale with envelope defaults.
func DefaultScaleConfig() ScaleConfig {
	return ScaleConfig{
		Factor:        1,
		Gain:          1,
		Formant:       FormantNone,
		Coefficients:  80,
		MaxIterations: 40,
		Tolerance:     0.1,
	}
}

// Scale transposes a frame: the partial in bin k moves to bin
// round(k*factor) with its frequency multiplied by factor. When several
// bins land on the same target the loudest source wins. Amplitudes are
// multiplied by the gain and, with a formant mode, corrected so the
// estimated envelope stays in place.
type Scale struct {
	base

	factor  *core.Float64
	gain    *core.Float64
	formant atomic.Int32

	env    *envelope
	winner []float64
}

// NewScale returns a scale for format.
func NewScale(format pvs.Format, cfg ScaleConfig) (*Scale, error) {
	b, err := newBase(format)
	if err != nil {
		return nil, err
	}

	if err := validateFactor(cfg.Factor); err != nil {
		return nil, err
	}

	if err := validateGain(cfg.Gain); err != nil {
		return nil, err
	}

	if _, ok := formantNames[cfg.Formant]; !ok {
		return nil, fmt.Errorf("effect: %v: %w", cfg.Formant, pvs.ErrInvalidParameter)
	}

	if cfg.Coefficients < 1 || cfg.Coefficients > format.FFTSize/2 {
		return nil, paramError("cepstral coefficients", float64(cfg.Coefficients))
	}

	if cfg.MaxIterations < 1 {
		return nil, paramError("envelope iterations", float64(cfg.MaxIterations))
	}

	if !core.IsFinitePositive(cfg.Tolerance) {
		return nil, paramError("envelope tolerance", cfg.Tolerance)
	}

	env, err := newEnvelope(format.FFTSize, cfg.Coefficients, cfg.MaxIterations, cfg.Tolerance)
	if err != nil {
		return nil, err
	}

	s := &Scale{
		base:   b,
		factor: core.NewFloat64(cfg.Factor),
		gain:   core.NewFloat64(cfg.Gain),
		env:    env,
		winner: make([]float64, format.Bins()),
	}
	s.formant.Store(int32(cfg.Formant))

	return s, nil
}

func validateFactor(f float64) error {
	if !core.IsFinitePositive(f) {
		return paramError("scale factor", f)
	}

	return nil
}

func validateGain(g float64) error {
	if !(g >= 0) || math.IsInf(g, 0) {
		return paramError("scale gain", g)
	}

	return nil
}

// Factor returns the transposition factor.
func (s *Scale) Factor() float64 { return s.factor.Load() }

// Gain returns the amplitude gain.
func (s *Scale) Gain() float64 { return s.gain.Load() }

// FormantMode returns the envelope mode.
func (s *Scale) FormantMode() FormantMode { return FormantMode(s.formant.Load()) }

// SetFactor sets the transposition factor; it must be positive.
func (s *Scale) SetFactor(f float64) error {
	if err := validateFactor(f); err != nil {
		return err
	}

	s.factor.Store(f)

	return nil
}

// SetGain sets the linear amplitude gain.
func (s *Scale) SetGain(g float64) error {
	if err := validateGain(g); err != nil {
		return err
	}

	s.gain.Store(g)

	return nil
}

// SetFormantMode switches the envelope mode.
func (s *Scale) SetFormantMode(m FormantMode) error {
	if _, ok := formantNames[m]; !ok {
		return fmt.Errorf("effect: %v: %w", m, pvs.ErrInvalidParameter)
	}

	s.formant.Store(int32(m))

	return nil
}

// EnvelopeFallbacks returns how often the true envelope produced
// non-finite values and the lifter envelope was used instead.
func (s *Scale) EnvelopeFallbacks() uint64 { return s.env.fallbacks.Load() }

// Configure applies the "factor", "gain" and "formant" parameters.
func (s *Scale) Configure(p Params) error {
	if v, ok := p.Num["factor"]; ok {
		if err := s.SetFactor(v); err != nil {
			return err
		}
	}

	if v, ok := p.Num["gain"]; ok {
		if err := s.SetGain(v); err != nil {
			return err
		}
	}

	if name, ok := p.Str["formant"]; ok {
		m, err := ParseFormantMode(name)
		if err != nil {
			return err
		}

		return s.SetFormantMode(m)
	}

	return nil
}

// ProcessFrame writes the transposed src into dst. Target bins that no
// source reaches are silent at their center frequency.
func (s *Scale) ProcessFrame(dst, src *pvs.Frame) error {
	if err := s.check(dst, src); err != nil {
		return err
	}

	factor := s.factor.Load()
	gain := s.gain.Load()
	mode := s.FormantMode()

	if mode != FormantNone {
		if err := s.env.estimate(src.Bins, mode); err != nil {
			return fmt.Errorf("%w: %w", pvs.ErrInternal, err)
		}
	}

	dst.ID = src.ID

	for k := range dst.Bins {
		dst.Bins[k] = pvs.Bin{Freq: s.format.BinFrequency(k)}
		s.winner[k] = -1
	}

	bins := float64(len(dst.Bins))

	for k, b := range src.Bins {
		target := math.Floor(float64(k)*factor + 0.5)
		if target >= bins {
			continue
		}

		nk := int(target)
		if b.Amp <= s.winner[nk] {
			continue
		}

		s.winner[nk] = b.Amp

		amp := b.Amp * gain
		if mode != FormantNone {
			d := core.Clamp(s.env.env[nk]-s.env.env[k], -maxFormantCorrection, maxFormantCorrection)
			amp *= mathExp(d)
		}

		dst.Bins[nk] = pvs.Bin{Amp: amp, Freq: b.Freq * factor}
	}

	return nil
}

// Process transposes src into the effect's output frame.
func (s *Scale) Process(src *pvs.Frame) (*pvs.Frame, error) {
	if err := s.ProcessFrame(s.out, src); err != nil {
		return nil, err
	}

	return s.out, nil
}
