package core

import (
	"math"
	"sync/atomic"
)

// Float64 is a float64 parameter written by one goroutine and read by
// another without locking. The zero value holds 0.
type Float64 struct {
	bits atomic.Uint64
}

// NewFloat64 returns a Float64 holding v.
func NewFloat64(v float64) *Float64 {
	f := &Float64{}
	f.Store(v)

	return f
}

// Load returns the current value.
func (f *Float64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Store sets the value.
func (f *Float64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}
