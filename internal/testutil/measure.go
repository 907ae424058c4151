package testutil

import (
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// RMS returns the root-mean-square level of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range x {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(x)))
}

// Peak returns the largest absolute sample value.
func Peak(x []float64) float64 {
	p := 0.0
	for _, v := range x {
		p = max(p, math.Abs(v))
	}

	return p
}

// MaxStep returns the largest absolute difference between adjacent samples.
func MaxStep(x []float64) float64 {
	m := 0.0
	for i := 1; i < len(x); i++ {
		m = max(m, math.Abs(x[i]-x[i-1]))
	}

	return m
}

// DominantFrequency estimates the frequency of the strongest spectral peak
// in x. It analyses the largest power-of-two prefix of x under a Hann window
// and refines the peak by parabolic interpolation of log magnitudes.
func DominantFrequency(x []float64, sampleRate float64) float64 {
	n := 1
	for n*2 <= len(x) {
		n *= 2
	}

	if n < 4 {
		return 0
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return 0
	}

	buf := make([]complex128, n)
	for i := range n {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
		buf[i] = complex(x[i]*w, 0)
	}

	if err := plan.Forward(buf, buf); err != nil {
		return 0
	}

	best := 1
	for k := 1; k < n/2; k++ {
		if cmplx.Abs(buf[k]) > cmplx.Abs(buf[best]) {
			best = k
		}
	}

	offset := 0.0
	if best > 1 && best < n/2-1 {
		a := math.Log(cmplx.Abs(buf[best-1]) + 1e-300)
		b := math.Log(cmplx.Abs(buf[best]) + 1e-300)
		c := math.Log(cmplx.Abs(buf[best+1]) + 1e-300)

		if den := a - 2*b + c; den != 0 {
			offset = 0.5 * (a - c) / den
		}
	}

	return (float64(best) + offset) * sampleRate / float64(n)
}
