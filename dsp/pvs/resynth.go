package pvs

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-pvs/dsp/core"
	"github.com/cwbudde/algo-pvs/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// Resynthesizer turns spectral frames back into samples.
//
// Every bin carries a running phase advanced by its frequency once per hop.
// The bins are mirrored into a Hermitian spectrum, inverse transformed,
// rotated back from zero-phase framing, multiplied by the synthesis window
// and overlap-added. Each frame releases one hop of output, normalized by the
// hop-periodic overlap sum of analysis and synthesis windows.
//
// A Resynthesizer is not safe for concurrent use.
type Resynthesizer struct {
	format Format

	plan *algofft.Plan[complex128]
	spec []complex128
	time []complex128

	phase    []float64
	magScale []float64
	phaseInc float64
	locked   bool
	peaks    []int

	coeffs []float64
	frame  []float64
	acc    []float64
	norm   []float64
	out    []float64

	started bool
	readPos int
}

// NewResynthesizer allocates a resynthesizer for cfg. The window/hop pair
// must be constant-overlap-add within window.MaxCOLARipple.
func NewResynthesizer(cfg Config) (*Resynthesizer, error) {
	if err := cfg.validateShape(); err != nil {
		return nil, err
	}

	if !core.IsFinitePositive(cfg.SampleRate) {
		return nil, statusErrorf(StatusInvalidSampleRate, "%v", cfg.SampleRate)
	}

	if _, err := cfg.overlap(); err != nil {
		return nil, err
	}

	coeffs, err := window.Centered(cfg.Window, cfg.windowSize(), cfg.FFTSize)
	if err != nil {
		return nil, statusErrorf(StatusInvalidWindow, "%v", err)
	}

	sum, err := window.OverlapSum(coeffs, coeffs, cfg.HopSize)
	if err != nil {
		return nil, statusErrorf(StatusInvalidHop, "%v", err)
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, statusErrorf(StatusInternal, "resynthesis FFT plan: %v", err)
	}

	format := cfg.Format()
	bins := format.Bins()

	r := &Resynthesizer{
		format:   format,
		plan:     plan,
		spec:     make([]complex128, cfg.FFTSize),
		time:     make([]complex128, cfg.FFTSize),
		phase:    make([]float64, bins),
		magScale: make([]float64, bins),
		phaseInc: 2 * math.Pi * float64(cfg.HopSize) / cfg.SampleRate,
		locked:   cfg.Phase == PhaseLocked,
		peaks:    make([]int, 0, bins),
		coeffs:   coeffs,
		frame:    make([]float64, cfg.FFTSize),
		acc:      make([]float64, cfg.FFTSize),
		norm:     make([]float64, cfg.HopSize),
		out:      make([]float64, cfg.HopSize),
		readPos:  cfg.HopSize,
	}

	// Inverse of the analyzer's amplitude normalization.
	gain := window.Sum(coeffs)
	for k := range r.magScale {
		r.magScale[k] = gain / 2
	}

	r.magScale[0] = gain
	r.magScale[bins-1] = gain

	for i, s := range sum {
		r.norm[i] = 1 / s
	}

	return r, nil
}

// Format returns the frame format this resynthesizer accepts.
func (r *Resynthesizer) Format() Format { return r.format }

// Synthesize consumes one frame and returns the next hop of output samples.
// The returned slice is owned by the resynthesizer and valid until the next
// call. It also rearms NextSample.
func (r *Resynthesizer) Synthesize(f *Frame) ([]float64, error) {
	if r.plan == nil {
		return nil, ErrNotInitialized
	}

	if f == nil || f.Format != r.format || len(f.Bins) != len(r.phase) {
		return nil, ErrFormatMismatch
	}

	n := r.format.FFTSize
	half := n / 2

	if r.started {
		for k, b := range f.Bins {
			r.phase[k] = core.WrapPhase(r.phase[k] + r.phaseInc*b.Freq)
		}
	}

	r.started = true

	if r.locked {
		r.lockPhases(f.Bins)
	}

	for k, b := range f.Bins {
		sin, cos := math.Sincos(r.phase[k])
		mag := b.Amp * r.magScale[k]
		r.spec[k] = complex(mag*cos, mag*sin)
	}

	r.spec[0] = complex(real(r.spec[0]), 0)
	r.spec[half] = complex(real(r.spec[half]), 0)

	for k := 1; k < half; k++ {
		v := r.spec[k]
		r.spec[n-k] = complex(real(v), -imag(v))
	}

	if err := r.plan.Inverse(r.time, r.spec); err != nil {
		return nil, fmt.Errorf("%w: inverse FFT: %w", ErrInternal, err)
	}

	for i := range n {
		r.frame[i] = real(r.time[(i+half)%n])
	}

	vecmath.MulBlockInPlace(r.frame, r.coeffs)
	vecmath.AddBlockInPlace(r.acc, r.frame)

	hop := len(r.out)
	vecmath.MulBlock(r.out, r.acc[:hop], r.norm)

	copy(r.acc, r.acc[hop:])
	clear(r.acc[n-hop:])

	r.readPos = 0

	return r.out, nil
}

// lockPhases copies the phase of every spectral peak onto the bins it
// governs. Regions are split at the quietest bin between adjacent peaks.
func (r *Resynthesizer) lockPhases(bins []Bin) {
	peaks := r.peaks[:0]
	for k := range bins {
		if isPeak(bins, k) {
			peaks = append(peaks, k)
		}
	}

	start := 0
	for i, p := range peaks {
		end := len(bins)
		if i+1 < len(peaks) {
			lo := p
			for j := p + 1; j <= peaks[i+1]; j++ {
				if bins[j].Amp < bins[lo].Amp {
					lo = j
				}
			}

			end = lo + 1
		}

		for k := start; k < end; k++ {
			r.phase[k] = r.phase[p]
		}

		start = end
	}
}

// isPeak reports whether bin k is louder than the two bins on either side.
// Ties resolve to the lower bin.
func isPeak(bins []Bin, k int) bool {
	a := bins[k].Amp
	if !(a > 0) {
		return false
	}

	for d := -2; d <= 2; d++ {
		j := k + d
		if d == 0 || j < 0 || j >= len(bins) {
			continue
		}

		if (d < 0 && bins[j].Amp >= a) || (d > 0 && bins[j].Amp > a) {
			return false
		}
	}

	return true
}

// NextSample pulls one sample of the most recent hop. It reports false once
// the hop is exhausted, until the next Synthesize.
func (r *Resynthesizer) NextSample() (float64, bool) {
	if r.readPos >= len(r.out) {
		return 0, false
	}

	v := r.out[r.readPos]
	r.readPos++

	return v, true
}

// Pending returns the number of samples NextSample can still deliver.
func (r *Resynthesizer) Pending() int { return len(r.out) - r.readPos }

// Reset clears phase accumulators and the overlap-add state.
func (r *Resynthesizer) Reset() {
	clear(r.phase)
	clear(r.acc)
	clear(r.out)
	r.started = false
	r.readPos = len(r.out)
}
