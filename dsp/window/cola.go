package window

// MaxCOLARipple is the largest relative overlap-sum ripple, (max-min)/mean,
// a (window, hop) pair may show and still count as constant-overlap-add.
const MaxCOLARipple = 0.05

// Overlap describes the steady-state overlap-add sum of an analysis/synthesis
// window pair at a given hop.
type Overlap struct {
	Hop    int
	Mean   float64
	Min    float64
	Max    float64
	Ripple float64
}

// COLA reports whether the overlap sum never vanishes and its ripple is
// within MaxCOLARipple.
func (o Overlap) COLA() bool {
	return o.Min > 0 && o.Ripple <= MaxCOLARipple
}

// OverlapSum returns the steady-state overlap-add gain for each of the hop
// output phases: sum[i] = sum_j analysis[i+j*hop] * synthesis[i+j*hop].
//
// The sum is periodic in hop whether or not hop divides the frame length, so
// dividing the i-th sample of every emitted hop by sum[i] reconstructs the
// input exactly for an unmodified spectrum.
func OverlapSum(analysis, synthesis []float64, hop int) ([]float64, error) {
	if len(analysis) != len(synthesis) {
		return nil, errMismatchedLength
	}

	if err := validateHop(hop, len(analysis)); err != nil {
		return nil, err
	}

	sum := make([]float64, hop)
	for i := range hop {
		for n := i; n < len(analysis); n += hop {
			sum[i] += analysis[n] * synthesis[n]
		}
	}

	return sum, nil
}

// AnalyzeOverlap summarizes OverlapSum.
func AnalyzeOverlap(analysis, synthesis []float64, hop int) (Overlap, error) {
	sum, err := OverlapSum(analysis, synthesis, hop)
	if err != nil {
		return Overlap{}, err
	}

	o := Overlap{Hop: hop, Min: sum[0], Max: sum[0]}
	for _, v := range sum {
		o.Mean += v
		o.Min = min(o.Min, v)
		o.Max = max(o.Max, v)
	}

	o.Mean /= float64(len(sum))
	if o.Mean > 0 {
		o.Ripple = (o.Max - o.Min) / o.Mean
	}

	return o, nil
}
