package testutil

import (
	"math"
	"testing"
)

// MaxAbsDiff returns the largest |a[i]-b[i]| over the common prefix of a
// and b, and the index where it occurs.
func MaxAbsDiff(a, b []float64) (float64, int) {
	worst, at := 0.0, 0

	for i := range min(len(a), len(b)) {
		if d := math.Abs(a[i] - b[i]); d > worst {
			worst, at = d, i
		}
	}

	return worst, at
}

// RequireClose fails t unless got and want have the same length and differ
// by at most eps everywhere.
func RequireClose(t *testing.T, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}

	if d, i := MaxAbsDiff(got, want); d > eps {
		t.Fatalf("sample %d: got %v, want %v (|diff| %v > %v)", i, got[i], want[i], d, eps)
	}
}

// RequireFinite fails t on the first NaN or infinite sample.
func RequireFinite(t *testing.T, x []float64) {
	t.Helper()

	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d is %v", i, v)
		}
	}
}
