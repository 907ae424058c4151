package effect

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

// BlurConfig configures a Blur.
type BlurConfig struct {
	// DelayTime is the averaging span in seconds.
	DelayTime float64

	// MaxDelayTime sizes the history when Storage is nil. Zero means
	// DelayTime.
	MaxDelayTime float64

	// Storage optionally holds the history; see BlurStorageSize.
	Storage []pvs.Bin
}

// MaxBlurFrames is the longest history NewBlur allocates itself.
const MaxBlurFrames = 4096

// BlurStorageSize returns the number of bins a Blur needs to support
// delays up to maxDelay seconds, capped at MaxBlurFrames frames.
func BlurStorageSize(format pvs.Format, maxDelay float64) int {
	n := blurFrames(format, maxDelay)

	switch {
	case !(n >= 1):
		n = 1
	case n > MaxBlurFrames:
		n = MaxBlurFrames
	}

	return int(n) * format.Bins()
}

// blurFrames stays in float64; callers compare it before converting to int.
func blurFrames(format pvs.Format, delay float64) float64 {
	return math.Round(delay / format.HopDuration())
}

// Blur averages amplitude and frequency of every bin over the most recent
// frames, the current one included. The number of frames is
// round(delay/hopDuration); zero or one frame passes frames through.
// Before enough frames have been seen the history holds silent bins at
// their center frequencies.
type Blur struct {
	base

	history  []pvs.Bin
	capacity int
	pos      int

	frames atomic.Int64
}

// NewBlur returns a blur for format.
func NewBlur(format pvs.Format, cfg BlurConfig) (*Blur, error) {
	b, err := newBase(format)
	if err != nil {
		return nil, err
	}

	if !(cfg.DelayTime >= 0) || math.IsInf(cfg.DelayTime, 0) {
		return nil, paramError("blur delay", cfg.DelayTime)
	}

	bins := format.Bins()

	storage := cfg.Storage
	if storage == nil {
		maxDelay := max(cfg.MaxDelayTime, cfg.DelayTime)
		if math.IsInf(maxDelay, 0) || math.IsNaN(maxDelay) {
			return nil, paramError("blur max delay", maxDelay)
		}

		if blurFrames(format, maxDelay) > MaxBlurFrames {
			return nil, fmt.Errorf("effect: blur delay %gs exceeds %d frames: %w", maxDelay, MaxBlurFrames, pvs.ErrInvalidParameter)
		}

		storage = make([]pvs.Bin, BlurStorageSize(format, maxDelay))
	}

	capacity := len(storage) / bins
	if capacity == 0 {
		return nil, fmt.Errorf("effect: blur storage %d < %d bins: %w", len(storage), bins, pvs.ErrBufferTooSmall)
	}

	n := blurFrames(format, cfg.DelayTime)
	if n > float64(capacity) {
		return nil, fmt.Errorf("effect: blur delay of %g frames exceeds %d: %w", n, capacity, pvs.ErrBufferTooSmall)
	}

	e := &Blur{base: b, history: storage[:capacity*bins], capacity: capacity}
	e.frames.Store(int64(n))
	e.Reset()

	return e, nil
}

// Capacity returns the longest supported delay in frames.
func (e *Blur) Capacity() int { return e.capacity }

// Frames returns the current averaging span in frames.
func (e *Blur) Frames() int { return int(e.frames.Load()) }

// DelayTime returns the current averaging span in seconds.
func (e *Blur) DelayTime() float64 {
	return float64(e.Frames()) * e.format.HopDuration()
}

// SetDelayTime changes the averaging span. Delays beyond the history
// capacity are clamped to it.
func (e *Blur) SetDelayTime(seconds float64) error {
	if !(seconds >= 0) || math.IsInf(seconds, 0) {
		return paramError("blur delay", seconds)
	}

	n := min(blurFrames(e.format, seconds), float64(e.capacity))
	e.frames.Store(int64(n))

	return nil
}

// Configure applies the "delay" parameter.
func (e *Blur) Configure(p Params) error {
	if v, ok := p.Num["delay"]; ok {
		return e.SetDelayTime(v)
	}

	return nil
}

// Reset refills the history with silent bins at their center frequencies.
func (e *Blur) Reset() {
	bins := e.format.Bins()
	for i := range e.history {
		e.history[i] = pvs.Bin{Freq: e.format.BinFrequency(i % bins)}
	}

	e.pos = 0
}

func (e *Blur) slot(i int) []pvs.Bin {
	bins := e.format.Bins()
	return e.history[i*bins : (i+1)*bins]
}

// ProcessFrame records src and writes the average of the last Frames()
// frames into dst.
func (e *Blur) ProcessFrame(dst, src *pvs.Frame) error {
	if err := e.check(dst, src); err != nil {
		return err
	}

	n := e.Frames()

	copy(e.slot(e.pos), src.Bins)
	e.pos = (e.pos + 1) % e.capacity

	dst.ID = src.ID

	if n <= 1 {
		copy(dst.Bins, src.Bins)
		return nil
	}

	clear(dst.Bins)

	for j := 1; j <= n; j++ {
		s := e.slot((e.pos - j + e.capacity) % e.capacity)
		for k := range dst.Bins {
			dst.Bins[k].Amp += s[k].Amp
			dst.Bins[k].Freq += s[k].Freq
		}
	}

	inv := 1 / float64(n)
	for k := range dst.Bins {
		dst.Bins[k].Amp *= inv
		dst.Bins[k].Freq *= inv
	}

	return nil
}

// Process blurs src into the effect's output frame.
func (e *Blur) Process(src *pvs.Frame) (*pvs.Frame, error) {
	if err := e.ProcessFrame(e.out, src); err != nil {
		return nil, err
	}

	return e.out, nil
}
