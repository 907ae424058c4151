package pvs

import (
	"context"
	"sync/atomic"

	"github.com/cwbudde/algo-pvs/dsp/buffer"
)

// BridgeConfig sizes the rings between the real-time and computation
// contexts.
type BridgeConfig struct {
	// Capacity of each ring in samples. Zero means 2*(hop+block), or half
	// of Storage when Storage is given. Must be at least hop+block.
	Capacity int

	// Prefill is the number of zeros queued on the output ring before the
	// first block. Zero means hop+block; a negative value disables prefill.
	Prefill int

	// Storage optionally backs both rings; it must hold 2*Capacity samples.
	Storage []float64
}

// BridgeStats counts ring events since construction.
type BridgeStats struct {
	Overflows uint64 // input samples dropped because the input ring was full
	Underruns uint64 // output samples zero-filled because the output ring was empty
	Hops      uint64 // hops processed by the computation context
}

// Bridge decouples a fixed-size audio block cadence from the engine's hop
// cadence.
//
// ProcessBlock and Sample run in the real-time context: they only move
// samples through two SPSC rings and post a non-blocking wake-up. Step, Drain
// and Run run in the computation context and drive the engine one hop at a
// time. With the default prefill the output never underruns as long as the
// computation context processes every queued hop before the next block.
type Bridge struct {
	engine *Engine
	hop    int

	in  *buffer.Ring[float64]
	out *buffer.Ring[float64]

	hopIn  []float64
	hopOut []float64

	prefill int
	wake    chan struct{}

	overflows atomic.Uint64
	underruns atomic.Uint64
	hops      atomic.Uint64
}

// NewBridge wires a bridge to engine. The engine must not be used directly
// afterwards.
func NewBridge(engine *Engine, cfg BridgeConfig) (*Bridge, error) {
	if engine == nil {
		return nil, ErrNotInitialized
	}

	b, err := newBridge(engine, cfg)
	if err = engine.sup.Record(StageBridge, err); err != nil {
		engine.sup.Halt()
		return nil, err
	}

	return b, nil
}

func newBridge(engine *Engine, cfg BridgeConfig) (*Bridge, error) {
	hop := engine.cfg.HopSize

	block := engine.cfg.BlockSize
	if block <= 0 {
		return nil, statusErrorf(StatusInvalidBlockSize, "%d", block)
	}

	minCap := hop + block

	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = 2 * minCap
		if len(cfg.Storage) > 0 {
			capacity = len(cfg.Storage) / 2
		}
	}

	if capacity < minCap {
		return nil, statusErrorf(StatusBufferTooSmall, "ring capacity %d < hop+block %d", capacity, minCap)
	}

	prefill := cfg.Prefill
	switch {
	case prefill == 0:
		prefill = minCap
	case prefill < 0:
		prefill = 0
	case prefill > capacity:
		return nil, statusErrorf(StatusBufferTooSmall, "prefill %d > capacity %d", prefill, capacity)
	}

	storage := cfg.Storage
	if storage == nil {
		storage = make([]float64, 2*capacity)
	}

	if len(storage) < 2*capacity {
		return nil, statusErrorf(StatusBufferTooSmall, "bridge storage %d < %d", len(storage), 2*capacity)
	}

	in, err := buffer.NewRingFrom(storage[:capacity])
	if err != nil {
		return nil, statusErrorf(StatusBufferTooSmall, "%v", err)
	}

	out, err := buffer.NewRingFrom(storage[capacity : 2*capacity])
	if err != nil {
		return nil, statusErrorf(StatusBufferTooSmall, "%v", err)
	}

	b := &Bridge{
		engine:  engine,
		hop:     hop,
		in:      in,
		out:     out,
		hopIn:   make([]float64, hop),
		hopOut:  make([]float64, hop),
		prefill: prefill,
		wake:    make(chan struct{}, 1),
	}

	for range prefill {
		b.out.Push(0)
	}

	return b, nil
}

// Latency returns the end-to-end delay in samples: engine latency plus the
// prefill.
func (b *Bridge) Latency() int { return b.engine.Latency() + b.prefill }

// Engine returns the engine driven by the bridge.
func (b *Bridge) Engine() *Engine { return b.engine }

// Halted reports whether the pipeline has failed permanently.
func (b *Bridge) Halted() bool { return b.engine.sup.Halted() }

// InputLevel returns the number of samples waiting for the computation
// context.
func (b *Bridge) InputLevel() int { return b.in.Len() }

// OutputLevel returns the number of processed samples waiting for the
// real-time context.
func (b *Bridge) OutputLevel() int { return b.out.Len() }

// Stats returns a snapshot of the event counters.
func (b *Bridge) Stats() BridgeStats {
	return BridgeStats{
		Overflows: b.overflows.Load(),
		Underruns: b.underruns.Load(),
		Hops:      b.hops.Load(),
	}
}

// ProcessBlock exchanges one audio block. Output is read before input is
// queued so a prefilled bridge serves a block even when the computation
// context has not run yet. After a halt it writes silence.
//
// Real-time context only. It never blocks or allocates.
func (b *Bridge) ProcessBlock(in, out []float64) {
	if b.Halted() {
		clear(out)
		return
	}

	if n := b.out.Read(out); n < len(out) {
		clear(out[n:])
		b.underruns.Add(uint64(len(out) - n))
	}

	if n := b.in.Write(in); n < len(in) {
		b.overflows.Add(uint64(len(in) - n))
	}

	if b.in.Len() >= b.hop {
		b.signal()
	}
}

// Sample exchanges a single sample. Real-time context only.
func (b *Bridge) Sample(x float64) float64 {
	if b.Halted() {
		return 0
	}

	y, ok := b.out.Pop()
	if !ok {
		b.underruns.Add(1)
	}

	if !b.in.Push(x) {
		b.overflows.Add(1)
	}

	if b.in.Len() >= b.hop {
		b.signal()
	}

	return y
}

func (b *Bridge) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Step processes one hop if a full hop is queued and the output ring has
// room for it. It reports whether a hop was processed.
//
// Computation context only.
func (b *Bridge) Step() (bool, error) {
	if b.Halted() {
		return false, ErrHalted
	}

	if b.in.Len() < b.hop || b.out.Free() < b.hop {
		return false, nil
	}

	b.in.Read(b.hopIn)

	if err := b.engine.ProcessHop(b.hopIn, b.hopOut); err != nil {
		return false, err
	}

	b.out.Write(b.hopOut)
	b.hops.Add(1)

	return true, nil
}

// Drain runs Step until no hop can be processed and returns the number of
// hops processed.
func (b *Bridge) Drain() (int, error) {
	n := 0

	for {
		ok, err := b.Step()
		if err != nil || !ok {
			return n, err
		}

		n++
	}
}

// Run drains the bridge whenever the real-time context signals queued input
// until ctx is done or the pipeline halts.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		if _, err := b.Drain(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.wake:
		}
	}
}

// Wake nudges Run, for hosts that queue input outside ProcessBlock.
func (b *Bridge) Wake() { b.signal() }
