package pvs

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-pvs/internal/testutil"
)

func newTestBridge(t *testing.T, cfg Config, bc BridgeConfig) *Bridge {
	t.Helper()

	b, err := NewBridge(newTestEngine(t, cfg, nil), bc)
	if err != nil {
		t.Fatalf("NewBridge() = %v", err)
	}

	return b
}

// delayed returns ref shifted right by d samples, zero-filled, cut to n.
func delayed(ref []float64, d, n int) []float64 {
	out := make([]float64, n)
	for i := d; i < n && i-d < len(ref); i++ {
		out[i] = ref[i-d]
	}

	return out
}

func TestBridgeDefaults(t *testing.T) {
	cfg := DefaultConfig()
	b := newTestBridge(t, cfg, BridgeConfig{})

	p := cfg.HopSize + cfg.BlockSize
	if b.OutputLevel() != p || b.InputLevel() != 0 {
		t.Fatalf("levels = %d/%d, want 0/%d", b.InputLevel(), b.OutputLevel(), p)
	}

	if b.Latency() != cfg.FFTSize-cfg.HopSize+p {
		t.Fatalf("Latency() = %d", b.Latency())
	}

	if b.Engine().Status(StageBridge) != StatusOK {
		t.Fatalf("bridge status = %v", b.Engine().Status(StageBridge))
	}
}

func TestBridgeConfigErrors(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		bc   BridgeConfig
	}{
		{"capacity", BridgeConfig{Capacity: cfg.HopSize}},
		{"storage", BridgeConfig{Capacity: 1000, Storage: make([]float64, 1000)}},
		{"prefill", BridgeConfig{Capacity: 400, Prefill: 401}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, cfg, nil)

			_, err := NewBridge(e, tt.bc)
			if !errors.Is(err, ErrBufferTooSmall) {
				t.Fatalf("NewBridge() = %v, want ErrBufferTooSmall", err)
			}

			if e.Status(StageBridge) != StatusBufferTooSmall || !e.Supervisor().Halted() {
				t.Fatal("bridge failure not recorded")
			}
		})
	}

	if _, err := NewBridge(nil, BridgeConfig{}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("NewBridge(nil) = %v", err)
	}
}

func TestBridgeMatchesDelayedEngine(t *testing.T) {
	cfg := DefaultConfig()
	x := testutil.Noise(11, 0.5, 36*cfg.HopSize)

	ref := processHops(t, newTestEngine(t, cfg, nil), x)

	storage := make([]float64, 2*600)
	b := newTestBridge(t, cfg, BridgeConfig{Storage: storage})
	got := make([]float64, len(x))

	for i := 0; i+cfg.BlockSize <= len(x); i += cfg.BlockSize {
		b.ProcessBlock(x[i:i+cfg.BlockSize], got[i:i+cfg.BlockSize])

		if _, err := b.Drain(); err != nil {
			t.Fatalf("Drain() = %v", err)
		}
	}

	prefill := b.Latency() - b.Engine().Latency()
	testutil.RequireClose(t, got, delayed(ref, prefill, len(x)), 0)

	st := b.Stats()
	if st.Overflows != 0 || st.Underruns != 0 {
		t.Fatalf("stats = %+v", st)
	}

	if st.Hops != uint64(len(x)/cfg.HopSize) {
		t.Fatalf("hops = %d", st.Hops)
	}
}

func TestBridgeSampleMatchesBlock(t *testing.T) {
	cfg := DefaultConfig()
	x := testutil.Sine(440, cfg.SampleRate, 0.5, 12*cfg.HopSize)

	blockBridge := newTestBridge(t, cfg, BridgeConfig{})
	want := make([]float64, len(x))

	for i := 0; i < len(x); i += cfg.BlockSize {
		blockBridge.ProcessBlock(x[i:i+cfg.BlockSize], want[i:i+cfg.BlockSize])
		blockBridge.Drain()
	}

	sampleBridge := newTestBridge(t, cfg, BridgeConfig{})
	got := make([]float64, len(x))

	for i, v := range x {
		got[i] = sampleBridge.Sample(v)
		sampleBridge.Drain()
	}

	testutil.RequireClose(t, got, want, 0)
}

func TestBridgeConcurrent(t *testing.T) {
	cfg := DefaultConfig()
	x := testutil.Noise(5, 0.5, 30*cfg.HopSize)
	ref := processHops(t, newTestEngine(t, cfg, nil), x)

	b := newTestBridge(t, cfg, BridgeConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	var runErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = b.Run(ctx)
	}()

	got := make([]float64, len(x))
	deadline := time.Now().Add(10 * time.Second)

	for i := 0; i < len(x); i += cfg.BlockSize {
		b.ProcessBlock(x[i:i+cfg.BlockSize], got[i:i+cfg.BlockSize])

		// Emulate a computation context that keeps pace with the callback.
		for b.InputLevel() >= cfg.HopSize {
			if time.Now().After(deadline) {
				t.Fatal("computation context stalled")
			}

			runtime.Gosched()
		}
	}

	cancel()
	wg.Wait()

	if !errors.Is(runErr, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", runErr)
	}

	prefill := b.Latency() - b.Engine().Latency()
	testutil.RequireClose(t, got, delayed(ref, prefill, len(x)), 0)

	if st := b.Stats(); st.Underruns != 0 || st.Overflows != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestBridgeOverflowAndUnderrun(t *testing.T) {
	cfg := DefaultConfig()
	c := cfg.HopSize + cfg.BlockSize

	b := newTestBridge(t, cfg, BridgeConfig{Capacity: c})
	in := testutil.Constant(1, cfg.BlockSize)
	out := make([]float64, cfg.BlockSize)

	calls := c/cfg.BlockSize + 1
	for range calls {
		b.ProcessBlock(in, out)
	}

	lost := uint64(calls*cfg.BlockSize - c)

	st := b.Stats()
	if st.Overflows != lost || st.Underruns != lost {
		t.Fatalf("stats = %+v, want %d overflows and underruns", st, lost)
	}
}

func TestBridgeHaltedOutputsSilence(t *testing.T) {
	cfg := DefaultConfig()
	b := newTestBridge(t, cfg, BridgeConfig{Prefill: -1})

	in := testutil.Constant(1, cfg.BlockSize)
	out := make([]float64, cfg.BlockSize)

	for range 20 {
		b.ProcessBlock(in, out)
		b.Drain()
	}

	b.Engine().Supervisor().Halt()

	out[0] = 1
	b.ProcessBlock(in, out)

	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v after halt", i, v)
		}
	}

	if y := b.Sample(1); y != 0 {
		t.Fatalf("Sample() = %v after halt", y)
	}

	if _, err := b.Step(); !errors.Is(err, ErrHalted) {
		t.Fatalf("Step() = %v, want ErrHalted", err)
	}

	if err := b.Run(context.Background()); !errors.Is(err, ErrHalted) {
		t.Fatalf("Run() = %v, want ErrHalted", err)
	}
}

func BenchmarkBridgeProcessBlock(b *testing.B) {
	cfg := DefaultConfig()
	e, _ := NewEngine(cfg, nil)
	br, _ := NewBridge(e, BridgeConfig{})
	in := testutil.Noise(1, 1, cfg.BlockSize)
	out := make([]float64, cfg.BlockSize)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		br.ProcessBlock(in, out)
		br.Drain()
	}
}
