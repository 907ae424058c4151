package pvs

import (
	"github.com/cwbudde/algo-pvs/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// Framer accumulates a sample stream into overlapping analysis windows.
//
// The history holds the last FFTSize samples. Every HopSize pushed samples a
// window becomes ready and Window returns the history multiplied by the
// analysis window. Before FFTSize samples have been pushed the unfilled part
// of the history is zero.
type Framer struct {
	size int
	hop  int

	history  []float64
	coeffs   []float64
	windowed []float64

	fill   int
	pushed int
	ready  bool
}

// NewFramer allocates a framer for cfg's FFT size, hop and window.
func NewFramer(cfg Config) (*Framer, error) {
	if err := cfg.validateShape(); err != nil {
		return nil, err
	}

	coeffs, err := window.Centered(cfg.Window, cfg.windowSize(), cfg.FFTSize)
	if err != nil {
		return nil, statusErrorf(StatusInvalidWindow, "%v", err)
	}

	return &Framer{
		size:     cfg.FFTSize,
		hop:      cfg.HopSize,
		history:  make([]float64, cfg.FFTSize),
		coeffs:   coeffs,
		windowed: make([]float64, cfg.FFTSize),
	}, nil
}

// Size returns the window length in samples.
func (f *Framer) Size() int { return f.size }

// Hop returns the hop size in samples.
func (f *Framer) Hop() int { return f.hop }

// Coefficients returns the analysis window, zero-padded to the frame size.
// The slice must not be modified.
func (f *Framer) Coefficients() []float64 { return f.coeffs }

// Push appends one sample and reports whether a new window is ready.
func (f *Framer) Push(x float64) bool {
	if f.fill == f.hop {
		copy(f.history, f.history[f.hop:])
		f.fill = 0
	}

	f.history[f.size-f.hop+f.fill] = x
	f.fill++

	if f.pushed < f.size {
		f.pushed++
	}

	f.ready = f.fill == f.hop
	if f.ready {
		vecmath.MulBlock(f.windowed, f.history, f.coeffs)
	}

	return f.ready
}

// PushBlock pushes samples until the block is consumed or a window becomes
// ready, whichever comes first. It returns the number of samples consumed
// and whether a window is ready; callers resume with samples[n:] after
// handling the window.
func (f *Framer) PushBlock(samples []float64) (n int, ready bool) {
	for i, x := range samples {
		if f.Push(x) {
			return i + 1, true
		}
	}

	return len(samples), false
}

// Ready reports whether the most recent Push completed a window.
func (f *Framer) Ready() bool { return f.ready }

// Filled reports whether at least FFTSize samples have been pushed.
func (f *Framer) Filled() bool { return f.pushed >= f.size }

// Window returns the windowed copy of the history as of the last completed
// window. The slice is owned by the framer and overwritten by the next one.
func (f *Framer) Window() []float64 { return f.windowed }

// Reset zeroes the history.
func (f *Framer) Reset() {
	clear(f.history)
	clear(f.windowed)
	f.fill = 0
	f.pushed = 0
	f.ready = false
}
