package buffer

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrZeroCapacity is returned when a ring is created without storage.
var ErrZeroCapacity = errors.New("buffer: ring capacity must be > 0")

// Ring is a bounded single-producer/single-consumer FIFO.
//
// The write cursor is only advanced by the producer and the read cursor only
// by the consumer; both are monotonic counters, so Len never exceeds Cap and
// the number of elements read never exceeds the number written.
type Ring[T any] struct {
	buf  []T
	size uint64

	write atomic.Uint64
	read  atomic.Uint64
}

// NewRing allocates a ring holding up to capacity elements.
func NewRing[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrZeroCapacity, capacity)
	}

	return &Ring[T]{buf: make([]T, capacity), size: uint64(capacity)}, nil
}

// NewRingFrom builds a ring over caller-supplied storage. The ring owns the
// storage from then on; its capacity is len(storage).
func NewRingFrom[T any](storage []T) (*Ring[T], error) {
	if len(storage) == 0 {
		return nil, ErrZeroCapacity
	}

	return &Ring[T]{buf: storage, size: uint64(len(storage))}, nil
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return int(r.size) }

// Len returns the number of unread elements.
func (r *Ring[T]) Len() int {
	return int(r.write.Load() - r.read.Load())
}

// Free returns the number of elements that can be written without loss.
func (r *Ring[T]) Free() int {
	return int(r.size - (r.write.Load() - r.read.Load()))
}

// Written returns the total number of elements ever written.
func (r *Ring[T]) Written() uint64 { return r.write.Load() }

// Consumed returns the total number of elements ever read.
func (r *Ring[T]) Consumed() uint64 { return r.read.Load() }

// Write copies as much of src as fits and returns the count written.
// Producer side only.
func (r *Ring[T]) Write(src []T) int {
	w := r.write.Load()
	free := r.size - (w - r.read.Load())

	n := min(uint64(len(src)), free)
	if n == 0 {
		return 0
	}

	start := w % r.size
	first := min(n, r.size-start)
	copy(r.buf[start:start+first], src[:first])
	copy(r.buf[:n-first], src[first:n])

	r.write.Store(w + n)

	return int(n)
}

// Push appends one element, reporting false when the ring is full.
// Producer side only.
func (r *Ring[T]) Push(v T) bool {
	w := r.write.Load()
	if w-r.read.Load() >= r.size {
		return false
	}

	r.buf[w%r.size] = v
	r.write.Store(w + 1)

	return true
}

// Read moves up to len(dst) elements into dst and returns the count read.
// Consumer side only.
func (r *Ring[T]) Read(dst []T) int {
	rd := r.read.Load()
	avail := r.write.Load() - rd

	n := min(uint64(len(dst)), avail)
	if n == 0 {
		return 0
	}

	start := rd % r.size
	first := min(n, r.size-start)
	copy(dst[:first], r.buf[start:start+first])
	copy(dst[first:n], r.buf[:n-first])

	r.read.Store(rd + n)

	return int(n)
}

// Pop removes one element, reporting false when the ring is empty.
// Consumer side only.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T

	rd := r.read.Load()
	if r.write.Load() == rd {
		return zero, false
	}

	v := r.buf[rd%r.size]
	r.read.Store(rd + 1)

	return v, true
}

// Reset discards all content. It must not run concurrently with either side.
func (r *Ring[T]) Reset() {
	r.read.Store(r.write.Load())
}
