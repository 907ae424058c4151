package pvs

import (
	"unsafe"

	"github.com/cwbudde/algo-pvs/dsp/window"
)

// Bin is one spectral component: linear amplitude and instantaneous
// frequency in Hz.
type Bin struct {
	Amp  float64
	Freq float64
}

// Format describes the analysis that produced a frame. Two frames can only
// be combined when their formats are equal.
type Format struct {
	FFTSize    int
	HopSize    int
	WindowSize int
	Window     window.Type
	SampleRate float64
}

// Bins returns the number of bins per frame, FFTSize/2+1.
func (f Format) Bins() int { return f.FFTSize/2 + 1 }

// BinWidth returns the bin spacing in Hz.
func (f Format) BinWidth() float64 { return f.SampleRate / float64(f.FFTSize) }

// BinFrequency returns the center frequency of bin k in Hz.
func (f Format) BinFrequency(k int) float64 { return float64(k) * f.BinWidth() }

// HopDuration returns the time between frames in seconds.
func (f Format) HopDuration() float64 { return float64(f.HopSize) / f.SampleRate }

// Frame is one spectral frame.
type Frame struct {
	Format

	// ID increases by one for every frame an analyzer emits.
	ID   uint64
	Bins []Bin
}

// NewFrame allocates a zeroed frame for format.
func NewFrame(format Format) *Frame {
	return &Frame{Format: format, Bins: make([]Bin, format.Bins())}
}

// NewFrameWith builds a frame over caller-supplied storage, which must hold
// at least format.Bins() bins.
func NewFrameWith(format Format, storage []Bin) (*Frame, error) {
	if len(storage) < format.Bins() {
		return nil, statusErrorf(StatusBufferTooSmall, "frame storage %d < %d bins",
			len(storage), format.Bins())
	}

	return &Frame{Format: format, Bins: storage[:format.Bins()]}, nil
}

// CopyFrom makes f an exact copy of src. Both frames must share a format.
func (f *Frame) CopyFrom(src *Frame) error {
	if f.Format != src.Format {
		return ErrFormatMismatch
	}

	if err := CheckDistinct(f, src); err != nil {
		return err
	}

	f.ID = src.ID
	copy(f.Bins, src.Bins)

	return nil
}

// CheckDistinct returns ErrAliased when dst and src are the same frame or
// their bins overlap in memory, and ErrFormatMismatch when dst cannot hold
// src.
func CheckDistinct(dst, src *Frame) error {
	if dst == nil || src == nil {
		return ErrNotInitialized
	}

	if dst == src || overlaps(dst.Bins, src.Bins) {
		return ErrAliased
	}

	if len(dst.Bins) != len(src.Bins) {
		return ErrFormatMismatch
	}

	return nil
}

func overlaps(a, b []Bin) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}

	size := unsafe.Sizeof(Bin{})
	a0 := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	b0 := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	a1 := a0 + uintptr(len(a))*size
	b1 := b0 + uintptr(len(b))*size

	return a0 < b1 && b0 < a1
}
