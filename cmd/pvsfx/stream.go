package main

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

// source feeds a signal through a bridge block by block and yields the
// delayed output, trimmed so output sample i lines up with input sample i.
type source struct {
	bridge *pvs.Bridge
	x      []float64

	pos  int // next input sample
	skip int // output samples still to discard
	left int // output samples still to emit

	in, out []float64
	outPos  int

	pend    [4]byte // encoded sample being read out
	pendPos int

	// wait, if set, runs before every exchange. An error ends the stream.
	wait func() error
	err  error
}

func newSource(b *pvs.Bridge, x []float64) *source {
	block := b.Engine().Config().BlockSize

	return &source{
		bridge:  b,
		x:       x,
		skip:    b.Latency(),
		left:    len(x),
		in:      make([]float64, block),
		out:     make([]float64, block),
		outPos:  block,
		pendPos: 4,
	}
}

// exchange runs one block through the bridge. Input past the end of the
// signal is silence.
func (s *source) exchange() bool {
	if s.wait != nil {
		if s.err = s.wait(); s.err != nil {
			return false
		}
	}

	n := copy(s.in, s.x[min(s.pos, len(s.x)):])
	clear(s.in[n:])
	s.pos += len(s.in)

	s.bridge.ProcessBlock(s.in, s.out)
	s.outPos = 0

	return true
}

// next returns the next aligned output sample.
func (s *source) next() (float64, bool) {
	for s.left > 0 {
		if s.outPos == len(s.out) && !s.exchange() {
			return 0, false
		}

		v := s.out[s.outPos]
		s.outPos++

		if s.skip > 0 {
			s.skip--
			continue
		}

		s.left--

		return v, true
	}

	return 0, false
}

// Read encodes the output as 32-bit little-endian floats and returns io.EOF
// after the last sample.
func (s *source) Read(p []byte) (int, error) {
	n := 0

	for n < len(p) {
		if s.pendPos == len(s.pend) {
			v, ok := s.next()
			if !ok {
				break
			}

			binary.LittleEndian.PutUint32(s.pend[:], math.Float32bits(float32(v)))
			s.pendPos = 0
		}

		c := copy(p[n:], s.pend[s.pendPos:])
		s.pendPos += c
		n += c
	}

	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}

	return n, nil
}

// runPipeline runs transport with the bridge's computation context and the
// optional control loop. The other goroutines stop once transport returns.
func runPipeline(ctx context.Context, b *pvs.Bridge, transport, control func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return transport(gctx)
	})

	g.Go(func() error {
		if err := b.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		return nil
	})

	if control != nil {
		g.Go(func() error { return control(gctx) })
	}

	return g.Wait()
}

// runOffline processes x as fast as the computation goroutine allows. The
// transport waits for a full block of output before each exchange, so the
// result matches a real-time run without underruns.
func runOffline(ctx context.Context, b *pvs.Bridge, x []float64, control func(context.Context) error) ([]float64, error) {
	s := newSource(b, x)
	y := make([]float64, 0, len(x))

	transport := func(ctx context.Context) error {
		s.wait = func() error {
			for b.OutputLevel() < len(s.out) {
				if b.Halted() {
					return b.Engine().Supervisor().Err()
				}

				if err := ctx.Err(); err != nil {
					return err
				}

				runtime.Gosched()
			}

			return nil
		}

		for {
			v, ok := s.next()
			if !ok {
				return s.err
			}

			y = append(y, v)
		}
	}

	if err := runPipeline(ctx, b, transport, control); err != nil {
		return nil, err
	}

	return y, nil
}
