package pvs

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-pvs/dsp/core"
	"github.com/cwbudde/algo-pvs/dsp/window"
)

const (
	// MinFFTSize and MaxFFTSize bound the supported transform sizes.
	MinFFTSize = 256
	MaxFFTSize = 4096

	defaultFFTSize = 1024
)

// PhaseMode selects how the resynthesizer propagates bin phases.
type PhaseMode int

const (
	// PhaseLocked advances every bin by its frequency and then snaps the
	// bins around each spectral peak to the peak's phase, keeping the main
	// lobe of every partial coherent.
	PhaseLocked PhaseMode = iota
	// PhaseFree advances every bin independently. It does not preserve
	// level: once a frame has seen a signal onset, neighbouring main-lobe
	// bins drift apart and a steady sinusoid comes out at roughly half to
	// two thirds of its input amplitude.
	PhaseFree
)

func (m PhaseMode) String() string {
	switch m {
	case PhaseLocked:
		return "locked"
	case PhaseFree:
		return "free"
	default:
		return fmt.Sprintf("phase(%d)", int(m))
	}
}

// ParsePhaseMode resolves a name printed by PhaseMode.String.
func ParsePhaseMode(name string) (PhaseMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "locked":
		return PhaseLocked, nil
	case "free":
		return PhaseFree, nil
	default:
		return 0, statusErrorf(StatusInvalidParameter, "phase mode %q", name)
	}
}

// Config describes one engine instance. FFTSize, HopSize and WindowSize are
// in samples; a zero WindowSize means FFTSize.
type Config struct {
	FFTSize    int
	HopSize    int
	WindowSize int
	Window     window.Type
	Phase      PhaseMode

	core.ProcessorConfig
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns a 1024-point Hamming analysis with a quarter-frame
// hop at the default processor settings.
func DefaultConfig() Config {
	return Config{
		FFTSize:         defaultFFTSize,
		HopSize:         defaultFFTSize / 4,
		WindowSize:      defaultFFTSize,
		Window:          window.TypeHamming,
		ProcessorConfig: core.DefaultProcessorConfig(),
	}
}

// NewConfig applies opts to DefaultConfig. Changing the FFT size without an
// explicit hop or window size keeps the quarter-frame hop and full window.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// WithFFTSize sets the transform size and rescales hop and window size when
// they still hold their defaults.
func WithFFTSize(n int) Option {
	return func(c *Config) {
		if c.HopSize == c.FFTSize/4 {
			c.HopSize = n / 4
		}

		if c.WindowSize == c.FFTSize {
			c.WindowSize = n
		}

		c.FFTSize = n
	}
}

// WithHopSize sets the hop size in samples.
func WithHopSize(h int) Option {
	return func(c *Config) { c.HopSize = h }
}

// WithWindowSize sets the analysis window length in samples.
func WithWindowSize(w int) Option {
	return func(c *Config) { c.WindowSize = w }
}

// WithWindow sets the analysis/synthesis window type.
func WithWindow(t window.Type) Option {
	return func(c *Config) { c.Window = t }
}

// WithPhaseMode sets the resynthesis phase mode.
func WithPhaseMode(m PhaseMode) Option {
	return func(c *Config) { c.Phase = m }
}

// WithProcessor applies processor options (sample rate, block size).
func WithProcessor(opts ...core.ProcessorOption) Option {
	return func(c *Config) { c.ProcessorConfig = c.ProcessorConfig.With(opts...) }
}

func (c Config) windowSize() int {
	if c.WindowSize == 0 {
		return c.FFTSize
	}

	return c.WindowSize
}

// Validate checks sizes and rates and verifies that the window/hop pair is
// constant-overlap-add. Errors wrap the matching Status.
func (c Config) Validate() error {
	if err := c.validateShape(); err != nil {
		return err
	}

	if !core.IsFinitePositive(c.SampleRate) {
		return statusErrorf(StatusInvalidSampleRate, "%v", c.SampleRate)
	}

	if c.BlockSize <= 0 {
		return statusErrorf(StatusInvalidBlockSize, "%d", c.BlockSize)
	}

	_, err := c.overlap()

	return err
}

// validateShape checks the framing parameters only.
func (c Config) validateShape() error {
	if c.FFTSize < MinFFTSize || c.FFTSize > MaxFFTSize || !core.IsPowerOfTwo(c.FFTSize) {
		return statusErrorf(StatusInvalidSize, "%d is not a power of two in [%d, %d]",
			c.FFTSize, MinFFTSize, MaxFFTSize)
	}

	w := c.windowSize()
	if w <= 0 || w > c.FFTSize || w%2 != 0 {
		return statusErrorf(StatusInvalidWindow, "window size %d must be even and in [2, %d]", w, c.FFTSize)
	}

	if !c.Window.Valid() {
		return statusErrorf(StatusInvalidWindow, "%v", c.Window)
	}

	if c.Phase != PhaseLocked && c.Phase != PhaseFree {
		return statusErrorf(StatusInvalidParameter, "%v", c.Phase)
	}

	if c.HopSize <= 0 || c.HopSize > w/2 {
		return statusErrorf(StatusInvalidHop, "hop %d must be in [1, %d]", c.HopSize, w/2)
	}

	return nil
}

// overlap returns the analysis window and its overlap-add analysis for the
// configured hop, failing with StatusNotCOLA when the pair cannot be
// normalized reliably.
func (c Config) overlap() (window.Overlap, error) {
	coeffs, err := window.Centered(c.Window, c.windowSize(), c.FFTSize)
	if err != nil {
		return window.Overlap{}, statusErrorf(StatusInvalidWindow, "%v", err)
	}

	o, err := window.AnalyzeOverlap(coeffs, coeffs, c.HopSize)
	if err != nil {
		return window.Overlap{}, statusErrorf(StatusInvalidHop, "%v", err)
	}

	if !o.COLA() || math.IsNaN(o.Ripple) {
		return o, statusErrorf(StatusNotCOLA, "%s hop %d ripple %.2f%%",
			c.Window, c.HopSize, 100*o.Ripple)
	}

	return o, nil
}

// Format returns the frame format produced by an analyzer built from c.
func (c Config) Format() Format {
	return Format{
		FFTSize:    c.FFTSize,
		HopSize:    c.HopSize,
		WindowSize: c.windowSize(),
		Window:     c.Window,
		SampleRate: c.SampleRate,
	}
}
