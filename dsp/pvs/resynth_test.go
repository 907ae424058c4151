package pvs

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-pvs/dsp/window"
	"github.com/cwbudde/algo-pvs/internal/testutil"
)

// roundTrip runs x through framer, analyzer and resynthesizer, one hop at a
// time, and returns the concatenated output.
func roundTrip(t *testing.T, cfg Config, x []float64) []float64 {
	t.Helper()

	f, err := NewFramer(cfg)
	if err != nil {
		t.Fatalf("NewFramer() = %v", err)
	}

	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer() = %v", err)
	}

	r, err := NewResynthesizer(cfg)
	if err != nil {
		t.Fatalf("NewResynthesizer() = %v", err)
	}

	out := make([]float64, 0, len(x))

	for _, v := range x {
		if !f.Push(v) {
			continue
		}

		fr, err := a.Analyze(f.Window())
		if err != nil {
			t.Fatalf("Analyze() = %v", err)
		}

		y, err := r.Synthesize(fr)
		if err != nil {
			t.Fatalf("Synthesize() = %v", err)
		}

		out = append(out, y...)
	}

	return out
}

func TestRoundTripBinCenteredSine(t *testing.T) {
	cfg := NewConfig(WithFFTSize(512), WithWindow(window.TypeHamming))
	f0 := cfg.Format().BinFrequency(12)
	const amp = 0.5

	x := testutil.Sine(f0, cfg.SampleRate, amp, 40*cfg.HopSize)
	y := roundTrip(t, cfg, x)
	testutil.RequireFinite(t, y)

	steady := y[3*cfg.FFTSize:]

	if dev := math.Abs(testutil.Peak(steady)-amp) / amp; dev > 0.01 {
		t.Fatalf("peak deviation = %.4f%%", 100*dev)
	}

	if dev := math.Abs(testutil.RMS(steady)-amp/math.Sqrt2) / (amp / math.Sqrt2); dev > 0.01 {
		t.Fatalf("RMS deviation = %.4f%%", 100*dev)
	}

	// A sine cannot move faster than amp*omega between samples; a hop
	// boundary glitch would.
	limit := 1.01 * amp * 2 * math.Pi * f0 / cfg.SampleRate
	if step := testutil.MaxStep(steady); step > limit {
		t.Fatalf("max step %v > %v", step, limit)
	}
}

func TestRoundTripWindowsAndHops(t *testing.T) {
	tests := []struct {
		win window.Type
		div int
	}{
		{window.TypeHann, 3},
		{window.TypeHann, 4},
		{window.TypeHamming, 3},
		{window.TypeBlackman, 4},
	}

	for _, tt := range tests {
		t.Run(tt.win.String(), func(t *testing.T) {
			cfg := NewConfig(WithFFTSize(256), WithHopSize(256/tt.div), WithWindow(tt.win))
			f0 := cfg.Format().BinFrequency(10)

			x := testutil.Sine(f0, cfg.SampleRate, 0.5, 60*cfg.HopSize)
			y := roundTrip(t, cfg, x)

			if dev := math.Abs(testutil.Peak(y[3*256:])-0.5) / 0.5; dev > 0.01 {
				t.Fatalf("peak deviation = %.4f%%", 100*dev)
			}
		})
	}
}

func TestRoundTripLateOnset(t *testing.T) {
	cfg := NewConfig(WithFFTSize(256), WithHopSize(64))
	f0 := cfg.Format().BinFrequency(10)

	x := make([]float64, 60*64)
	copy(x[1000:], testutil.Sine(f0, cfg.SampleRate, 0.5, len(x)-1000))

	y := roundTrip(t, cfg, x)

	if dev := math.Abs(testutil.Peak(y[1000+3*256:])-0.5) / 0.5; dev > 0.01 {
		t.Fatalf("peak deviation = %.4f%%", 100*dev)
	}
}

func TestRoundTripLevelByPhaseMode(t *testing.T) {
	const amp = 0.5

	for _, mode := range []PhaseMode{PhaseLocked, PhaseFree} {
		t.Run(mode.String(), func(t *testing.T) {
			cfg := NewConfig(WithFFTSize(512), WithWindow(window.TypeHamming), WithPhaseMode(mode))
			x := testutil.Sine(cfg.Format().BinFrequency(12), cfg.SampleRate, amp, 40*cfg.HopSize)
			y := roundTrip(t, cfg, x)

			ratio := testutil.Peak(y[3*cfg.FFTSize:]) / amp

			switch mode {
			case PhaseLocked:
				if math.Abs(ratio-1) > 0.01 {
					t.Fatalf("level ratio = %.4f, want 1", ratio)
				}
			case PhaseFree:
				if ratio > 0.9 {
					t.Fatalf("level ratio = %.4f, want the documented loss", ratio)
				}
			}
		})
	}
}

func TestRoundTripPreservesFrequency(t *testing.T) {
	for _, mode := range []PhaseMode{PhaseLocked, PhaseFree} {
		t.Run(mode.String(), func(t *testing.T) {
			cfg := NewConfig(WithPhaseMode(mode))
			x := testutil.Sine(1000, cfg.SampleRate, 0.5, 48*cfg.HopSize)
			y := roundTrip(t, cfg, x)

			got := testutil.DominantFrequency(y[2*cfg.FFTSize:], cfg.SampleRate)
			if math.Abs(got-1000) > cfg.Format().BinWidth() {
				t.Fatalf("dominant frequency = %v, want 1000", got)
			}
		})
	}
}

func TestResynthesizerSilence(t *testing.T) {
	cfg := DefaultConfig()
	y := roundTrip(t, cfg, make([]float64, 8*cfg.HopSize))

	for i, v := range y {
		if v != 0 {
			t.Fatalf("y[%d] = %v, want 0", i, v)
		}
	}
}

func TestResynthesizerNextSample(t *testing.T) {
	cfg := DefaultConfig()

	r, err := NewResynthesizer(cfg)
	if err != nil {
		t.Fatalf("NewResynthesizer() = %v", err)
	}

	if _, ok := r.NextSample(); ok {
		t.Fatal("NextSample before Synthesize reported a sample")
	}

	fr := NewFrame(cfg.Format())
	fr.Bins[8].Amp = 1

	hop, err := r.Synthesize(fr)
	if err != nil {
		t.Fatalf("Synthesize() = %v", err)
	}

	if r.Pending() != cfg.HopSize {
		t.Fatalf("Pending() = %d", r.Pending())
	}

	for i := range cfg.HopSize {
		v, ok := r.NextSample()
		if !ok || v != hop[i] {
			t.Fatalf("NextSample #%d = %v, %t, want %v", i, v, ok, hop[i])
		}
	}

	if _, ok := r.NextSample(); ok {
		t.Fatal("NextSample past end of hop reported a sample")
	}
}

func TestResynthesizerErrors(t *testing.T) {
	if _, err := NewResynthesizer(NewConfig(WithWindow(window.TypeBlackman), WithHopSize(341))); !errors.Is(err, ErrNotCOLA) {
		t.Fatalf("NewResynthesizer(blackman N/3) = %v, want ErrNotCOLA", err)
	}

	r, _ := NewResynthesizer(DefaultConfig())
	if _, err := r.Synthesize(NewFrame(NewConfig(WithHopSize(128)).Format())); !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("Synthesize(other format) = %v, want ErrFormatMismatch", err)
	}

	var zero Resynthesizer
	if _, err := zero.Synthesize(NewFrame(DefaultConfig().Format())); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("zero Resynthesizer = %v, want ErrNotInitialized", err)
	}
}

func TestLockPhases(t *testing.T) {
	r := &Resynthesizer{
		phase: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9},
		peaks: make([]int, 0, 9),
	}

	bins := make([]Bin, 9)
	for k, a := range []float64{0, 0.2, 1, 0.2, 0.05, 0.3, 0.9, 0.3, 0} {
		bins[k].Amp = a
	}

	r.lockPhases(bins)

	want := []float64{0.3, 0.3, 0.3, 0.3, 0.3, 0.7, 0.7, 0.7, 0.7}
	testutil.RequireClose(t, r.phase, want, 0)
}

func BenchmarkResynthesizer(b *testing.B) {
	cfg := DefaultConfig()
	r, _ := NewResynthesizer(cfg)
	fr := NewFrame(cfg.Format())

	for k := range fr.Bins {
		fr.Bins[k] = Bin{Amp: 1 / float64(k+1), Freq: cfg.Format().BinFrequency(k)}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := r.Synthesize(fr); err != nil {
			b.Fatal(err)
		}
	}
}
