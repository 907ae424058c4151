package pvs

import (
	"errors"
	"fmt"
)

// Status is the outcome of initializing or running a pipeline stage.
// Every non-OK Status is also an error, so statuses double as sentinels:
//
//	if errors.Is(err, pvs.ErrInvalidHop) { ... }
type Status int

const (
	StatusOK Status = iota
	StatusInvalidSize
	StatusInvalidHop
	StatusInvalidWindow
	StatusInvalidSampleRate
	StatusInvalidBlockSize
	StatusInvalidParameter
	StatusBufferTooSmall
	StatusNotInitialized
	StatusNotCOLA
	StatusAliased
	StatusFormatMismatch
	StatusHalted
	StatusInternal
)

var statusText = [...]string{
	StatusOK:                "ok",
	StatusInvalidSize:       "invalid FFT size",
	StatusInvalidHop:        "invalid hop size",
	StatusInvalidWindow:     "invalid window",
	StatusInvalidSampleRate: "invalid sample rate",
	StatusInvalidBlockSize:  "invalid block size",
	StatusInvalidParameter:  "invalid parameter",
	StatusBufferTooSmall:    "buffer too small",
	StatusNotInitialized:    "not initialized",
	StatusNotCOLA:           "window/hop pair is not constant-overlap-add",
	StatusAliased:           "input and output frames share storage",
	StatusFormatMismatch:    "frame format mismatch",
	StatusHalted:            "pipeline halted",
	StatusInternal:          "internal error",
}

// Sentinel errors, one per failing Status.
var (
	ErrInvalidSize       error = StatusInvalidSize
	ErrInvalidHop        error = StatusInvalidHop
	ErrInvalidWindow     error = StatusInvalidWindow
	ErrInvalidSampleRate error = StatusInvalidSampleRate
	ErrInvalidBlockSize  error = StatusInvalidBlockSize
	ErrInvalidParameter  error = StatusInvalidParameter
	ErrBufferTooSmall    error = StatusBufferTooSmall
	ErrNotInitialized    error = StatusNotInitialized
	ErrNotCOLA           error = StatusNotCOLA
	ErrAliased           error = StatusAliased
	ErrFormatMismatch    error = StatusFormatMismatch
	ErrHalted            error = StatusHalted
	ErrInternal          error = StatusInternal
)

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusText) {
		return statusText[s]
	}

	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) Error() string { return "pvs: " + s.String() }

// OK reports whether s is StatusOK.
func (s Status) OK() bool { return s == StatusOK }

// StatusOf extracts the Status carried by err. A nil error maps to StatusOK
// and an error without a Status to StatusInternal.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}

	var s Status
	if errors.As(err, &s) {
		return s
	}

	return StatusInternal
}

// StageError attributes an error to a pipeline stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pvs: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func statusErrorf(s Status, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{s}, args...)...)
}
