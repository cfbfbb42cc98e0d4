package stats

import "math"

// WilsonInterval returns the Wilson score interval for conversions out of
// visitors at the given two-sided confidence level, clamped to [0, 1].
// Zero visitors yields (0, 0).
func WilsonInterval(conversions, visitors int, confidence float64) (lower, upper float64) {
	if visitors <= 0 {
		return 0, 0
	}

	n := float64(visitors)
	rate := float64(conversions) / n
	z := ZScore(confidence)
	z2 := z * z

	scale := 1 / (1 + z2/n)
	mid := scale * (rate + z2/(2*n))
	half := scale * z * math.Sqrt(rate*(1-rate)/n+z2/(4*n*n))

	return math.Max(0, mid-half), math.Min(1, mid+half)
}
