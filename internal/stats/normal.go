package stats

import "gonum.org/v1/gonum/stat/distuv"

// NormalCDF is Φ, the standard normal cumulative distribution function.
func NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile is Φ⁻¹, the inverse of NormalCDF. p must be in (0, 1).
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// ZScore returns the two-sided critical value for a confidence level.
// Common values:
//   - 0.90 -> 1.645
//   - 0.95 -> 1.960
//   - 0.99 -> 2.576
func ZScore(confidence float64) float64 {
	return NormalQuantile(1 - (1-confidence)/2)
}

// twoTailedP is the two-sided p-value of a standard normal statistic.
func twoTailedP(z float64) float64 {
	if z < 0 {
		z = -z
	}
	// 2·(1 − Φ(|z|)), computed from the upper tail directly.
	return 2 * distuv.UnitNormal.Survival(z)
}
