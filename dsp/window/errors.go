package window

import (
	"errors"
	"fmt"
)

var (
	errMismatchedLength = errors.New("samples and coefficients must have same length")
	errUnknownType      = errors.New("unknown window type")
)

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("window size must be > 0: %d", size)
	}
	return nil
}

func validateHop(hop, size int) error {
	if hop <= 0 || hop > size {
		return fmt.Errorf("hop must be in [1, %d]: %d", size, hop)
	}
	return nil
}
