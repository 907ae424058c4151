package window

import (
	"fmt"
	"math"
	"strings"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

// Metadata holds static properties of a window type.
type Metadata struct {
	Name         string
	CoherentGain float64
}

var (
	hannCoeffs     = []float64{0.5, -0.5}
	hammingCoeffs  = []float64{0.54, -0.46}
	blackmanCoeffs = []float64{0.42, -0.5, 0.08}
)

var metadataByType = map[Type]Metadata{
	TypeRectangular: {Name: "rectangular", CoherentGain: 1},
	TypeHann:        {Name: "hann", CoherentGain: 0.5},
	TypeHamming:     {Name: "hamming", CoherentGain: 0.54},
	TypeBlackman:    {Name: "blackman", CoherentGain: 0.42},
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Types returns every supported window type in declaration order.
func Types() []Type {
	return []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman}
}

// Valid reports whether t is a known window type.
func (t Type) Valid() bool {
	_, ok := metadataByType[t]
	return ok
}

// String returns the lower-case window name.
func (t Type) String() string {
	if m, ok := metadataByType[t]; ok {
		return m.Name
	}

	return fmt.Sprintf("window(%d)", int(t))
}

// ParseType resolves a window name as printed by String.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range Types() {
		if metadataByType[t].Name == name {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errUnknownType, name)
}

// Info returns static metadata for a window type.
func Info(t Type) Metadata {
	return metadataByType[t]
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length, cfg.periodic))
	}

	return out
}

// Centered returns a frame of frameSize coefficients holding a periodic window
// of windowSize samples in the middle and zeros around it. windowSize must not
// exceed frameSize.
func Centered(t Type, windowSize, frameSize int) ([]float64, error) {
	if err := validateLength(windowSize); err != nil {
		return nil, err
	}

	if windowSize > frameSize {
		return nil, fmt.Errorf("window size %d exceeds frame size %d", windowSize, frameSize)
	}

	out := make([]float64, frameSize)
	pad := (frameSize - windowSize) / 2
	copy(out[pad:], Generate(t, windowSize, WithPeriodic()))

	return out, nil
}

// Sum returns the sum of all coefficients (the DC gain in samples).
func Sum(coeffs []float64) float64 {
	s := 0.0
	for _, c := range coeffs {
		s += c
	}

	return s
}

func evalWindow(t Type, x float64) float64 {
	switch t {
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeHamming:
		return cosineFromCoeffs(x, hammingCoeffs)
	case TypeBlackman:
		return cosineFromCoeffs(x, blackmanCoeffs)
	default:
		return 1
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
