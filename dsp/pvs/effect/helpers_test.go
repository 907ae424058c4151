package effect

import (
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-pvs/dsp/pvs"
)

func testFormat() pvs.Format {
	return pvs.DefaultConfig().Format()
}

// randomFrame returns a frame with random amplitudes and frequencies near
// the bin centers.
func randomFrame(seed int64, format pvs.Format, id uint64) *pvs.Frame {
	rng := rand.New(rand.NewSource(seed))
	f := pvs.NewFrame(format)
	f.ID = id

	for k := range f.Bins {
		f.Bins[k] = pvs.Bin{
			Amp:  rng.Float64(),
			Freq: format.BinFrequency(k) + (rng.Float64()-0.5)*format.BinWidth(),
		}
	}

	return f
}

func requireSameBins(t *testing.T, got, want *pvs.Frame) {
	t.Helper()

	if got.ID != want.ID {
		t.Fatalf("ID = %d, want %d", got.ID, want.ID)
	}

	for k := range want.Bins {
		if got.Bins[k] != want.Bins[k] {
			t.Fatalf("bin %d = %+v, want %+v", k, got.Bins[k], want.Bins[k])
		}
	}
}
