package testutil

import (
	"math"
	"math/rand"
)

// Sine returns amplitude*sin(2*pi*freqHz*n/sampleRate) for n in [0, length).
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	w := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(w*float64(i))
	}

	return out
}

// BinSine returns a sine whose frequency is the center of bin k of an
// fftSize-point transform.
func BinSine(k, fftSize int, amplitude float64, length int) []float64 {
	return Sine(float64(k), float64(fftSize), amplitude, length)
}

// Harmonics returns a sawtooth-like tone: every harmonic of f0 below
// maxHz with amplitude amplitude/h.
func Harmonics(f0, maxHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	for h := 1; float64(h)*f0 < maxHz; h++ {
		w := 2 * math.Pi * f0 * float64(h) / sampleRate
		a := amplitude / float64(h)

		for i := range out {
			out[i] += a * math.Sin(w*float64(i))
		}
	}

	return out
}

// Noise returns uniform white noise in [-amplitude, amplitude) from a fixed
// seed.
func Noise(seed int64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, length)

	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}

	return out
}

// Impulse returns length zeros with a 1 at pos, if pos is in range.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// Constant returns length copies of v.
func Constant(v float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = v
	}

	return out
}
