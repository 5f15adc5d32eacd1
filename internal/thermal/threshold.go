package thermal

import (
	"math"
	"slices"
)

// Percentile returns the p-th percentile (0-100) of the surface values using
// linear interpolation between the two closest ranks:
//
//	rank = p/100 * (n-1)
//	value = v[floor(rank)] + (v[ceil(rank)] - v[floor(rank)]) * frac(rank)
//
// where v is the sorted list of values. p is clamped to [0,100].
func Percentile(s *Surface, p float64) float64 {
	n := len(s.Pix)
	if n == 0 {
		return 0
	}

	sorted := slices.Clone(s.Pix)
	slices.Sort(sorted)

	p = math.Min(math.Max(p, 0), 100)
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// ThresholdMask returns the mask of pixels whose value is at or above t.
func ThresholdMask(s *Surface, t float64) *Mask {
	m := NewMask(s.Width, s.Height)
	for i, v := range s.Pix {
		m.Pix[i] = v >= t
	}
	return m
}
