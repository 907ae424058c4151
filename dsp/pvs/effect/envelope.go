package effect

import (
	"fmt"
	"math"
	"sync/atomic"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

const (
	envelopeFloor   = 1e-12
	envelopeCeiling = 1e12
)

// envelope estimates the log-amplitude spectral envelope of a frame by
// cepstral liftering, optionally iterated into a true envelope.
type envelope struct {
	size    int
	coeffs  int
	maxIter int
	tol     float64

	plan *algofft.Plan[complex128]
	buf  []complex128

	logSpec []float64
	cur     []float64
	env     []float64

	iterations int
	fallbacks  atomic.Uint64
}

func newEnvelope(size, coeffs, maxIter int, tol float64) (*envelope, error) {
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("effect: envelope FFT plan: %w", err)
	}

	bins := size/2 + 1

	return &envelope{
		size:    size,
		coeffs:  coeffs,
		maxIter: maxIter,
		tol:     tol,
		plan:    plan,
		buf:     make([]complex128, size),
		logSpec: make([]float64, bins),
		cur:     make([]float64, bins),
		env:     make([]float64, bins),
	}, nil
}

// estimate fills e.env with the envelope of bins.
func (e *envelope) estimate(bins []pvs.Bin, mode FormantMode) error {
	for k, b := range bins {
		e.logSpec[k] = logAmp(b.Amp)
	}

	if mode == FormantTrueEnvelope {
		return e.trueEnvelope()
	}

	e.iterations = 0

	return e.lifter(e.env, e.logSpec)
}

// logAmp maps an amplitude to a bounded natural log.
func logAmp(a float64) float64 {
	switch {
	case !(a > envelopeFloor):
		a = envelopeFloor
	case a > envelopeCeiling:
		a = envelopeCeiling
	}

	return mathLog(a)
}

// lifter writes the cepstrally smoothed version of the log spectrum src
// into dst, keeping the lowest e.coeffs cepstral coefficients.
func (e *envelope) lifter(dst, src []float64) error {
	n := e.size
	half := n / 2

	for k, v := range src {
		e.buf[k] = complex(v, 0)
	}

	for k := 1; k < half; k++ {
		e.buf[n-k] = e.buf[k]
	}

	if err := e.plan.Inverse(e.buf, e.buf); err != nil {
		return fmt.Errorf("effect: cepstrum: %w", err)
	}

	for i := e.coeffs; i <= n-e.coeffs; i++ {
		e.buf[i] = 0
	}

	if err := e.plan.Forward(e.buf, e.buf); err != nil {
		return fmt.Errorf("effect: cepstrum: %w", err)
	}

	for k := range dst {
		dst[k] = real(e.buf[k])
	}

	return nil
}

// trueEnvelope iterates A = max(A, lifter(A)) until the smoothed curve lies
// on or above the log spectrum within e.tol, or e.maxIter iterations ran.
// A result that is not finite falls back to the plain lifter envelope, or
// to a flat envelope if that is not finite either.
func (e *envelope) trueEnvelope() error {
	copy(e.cur, e.logSpec)

	if err := e.lifter(e.env, e.cur); err != nil {
		return err
	}

	e.iterations = 0

	for e.iterations < e.maxIter && finite(e.env) && excess(e.logSpec, e.env) > e.tol {
		for k := range e.cur {
			e.cur[k] = max(e.cur[k], e.env[k])
		}

		if err := e.lifter(e.env, e.cur); err != nil {
			return err
		}

		e.iterations++
	}

	if finite(e.env) {
		return nil
	}

	e.fallbacks.Add(1)

	if err := e.lifter(e.env, e.logSpec); err != nil {
		return err
	}

	if !finite(e.env) {
		clear(e.env)
	}

	return nil
}

// excess returns how far spec rises above env at most.
func excess(spec, env []float64) float64 {
	m := math.Inf(-1)
	for k, v := range spec {
		m = max(m, v-env[k])
	}

	return m
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
