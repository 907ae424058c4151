package pvs

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-pvs/dsp/core"
	"github.com/cwbudde/algo-pvs/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// Analyzer converts windowed frames into spectral frames.
//
// Each call rotates the windowed buffer so the window center sits at index
// zero, runs a forward FFT and converts every bin to a linear amplitude and
// an instantaneous frequency. The frequency is derived from the phase advance
// since the previous call relative to the advance expected for the bin
// center. The first call reports bin center frequencies.
//
// An Analyzer is not safe for concurrent use.
type Analyzer struct {
	format Format

	plan *algofft.Plan[complex128]
	buf  []complex128

	re, im, mag []float64
	prevPhase   []float64
	expected    []float64

	ampScale  float64
	freqScale float64

	started bool
	nextID  uint64
	frame   *Frame
}

// NewAnalyzer allocates an analyzer for cfg.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.validateShape(); err != nil {
		return nil, err
	}

	if !core.IsFinitePositive(cfg.SampleRate) {
		return nil, statusErrorf(StatusInvalidSampleRate, "%v", cfg.SampleRate)
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, statusErrorf(StatusInternal, "analyzer FFT plan: %v", err)
	}

	coeffs, err := window.Centered(cfg.Window, cfg.windowSize(), cfg.FFTSize)
	if err != nil {
		return nil, statusErrorf(StatusInvalidWindow, "%v", err)
	}

	format := cfg.Format()
	bins := format.Bins()
	hop := float64(cfg.HopSize)

	a := &Analyzer{
		format:    format,
		plan:      plan,
		buf:       make([]complex128, cfg.FFTSize),
		re:        make([]float64, bins),
		im:        make([]float64, bins),
		mag:       make([]float64, bins),
		prevPhase: make([]float64, bins),
		expected:  make([]float64, bins),
		ampScale:  2 / window.Sum(coeffs),
		freqScale: cfg.SampleRate / (2 * math.Pi * hop),
		nextID:    1,
		frame:     NewFrame(format),
	}

	for k := range bins {
		a.expected[k] = 2 * math.Pi * float64(k) * hop / float64(cfg.FFTSize)
	}

	return a, nil
}

// Format returns the format of the frames this analyzer emits.
func (a *Analyzer) Format() Format { return a.format }

// Analyze converts one windowed buffer of FFT size samples into the
// analyzer's own frame and returns it. The frame is overwritten by the next
// call.
func (a *Analyzer) Analyze(windowed []float64) (*Frame, error) {
	if err := a.AnalyzeInto(a.frame, windowed); err != nil {
		return nil, err
	}

	return a.frame, nil
}

// AnalyzeInto writes the analysis of windowed into dst, which must have the
// analyzer's format.
func (a *Analyzer) AnalyzeInto(dst *Frame, windowed []float64) error {
	if a.plan == nil {
		return ErrNotInitialized
	}

	n := a.format.FFTSize
	if len(windowed) != n {
		return statusErrorf(StatusBufferTooSmall, "analysis buffer %d != %d", len(windowed), n)
	}

	if dst == nil || dst.Format != a.format || len(dst.Bins) != a.format.Bins() {
		return ErrFormatMismatch
	}

	half := n / 2
	for i := range n {
		a.buf[i] = complex(windowed[(i+half)%n], 0)
	}

	if err := a.plan.Forward(a.buf, a.buf); err != nil {
		return fmt.Errorf("%w: forward FFT: %w", ErrInternal, err)
	}

	for k := range a.re {
		a.re[k] = real(a.buf[k])
		a.im[k] = imag(a.buf[k])
	}

	vecmath.Magnitude(a.mag, a.re, a.im)
	vecmath.ScaleBlock(a.mag, a.mag, a.ampScale)

	// DC and Nyquist have no mirror image.
	a.mag[0] *= 0.5
	a.mag[half] *= 0.5

	binWidth := a.format.BinWidth()
	for k := range dst.Bins {
		phase := math.Atan2(a.im[k], a.re[k])

		freq := float64(k) * binWidth
		if a.started {
			delta := core.WrapPhase(phase - a.prevPhase[k] - a.expected[k])
			freq = (a.expected[k] + delta) * a.freqScale
		}

		a.prevPhase[k] = phase
		dst.Bins[k] = Bin{Amp: a.mag[k], Freq: freq}
	}

	a.started = true
	dst.ID = a.nextID
	a.nextID++

	return nil
}

// Reset forgets the phase history; the next frame reports bin centers.
// Frame IDs keep increasing.
func (a *Analyzer) Reset() {
	clear(a.prevPhase)
	a.started = false
}
