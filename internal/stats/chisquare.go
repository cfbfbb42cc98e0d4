package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquareResult is Pearson's chi-square test of independence over the
// 2×k table of [conversions, non-conversions] per variant.
type ChiSquareResult struct {
	Statistic        float64 `json:"statistic"`
	DegreesOfFreedom int     `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
	Significant      bool    `json:"significant"`
}

// ChiSquareTest jointly compares every variant in set. No continuity
// correction is applied, so with two variants the statistic equals the
// square of the pooled z statistic.
func ChiSquareTest(set VariantSet) (ChiSquareResult, error) {
	variants := set.Variants()
	if len(variants) < 2 {
		return ChiSquareResult{}, fmt.Errorf("%w: need at least 2 variants, got %d", ErrInvalidInput, len(variants))
	}

	var total, converted float64
	for _, v := range variants {
		total += float64(v.Visitors)
		converted += float64(v.Conversions)
	}
	notConverted := total - converted
	if converted == 0 || notConverted == 0 {
		return ChiSquareResult{}, fmt.Errorf("%w: every variant converts at the same 0%% or 100%% rate", ErrDegenerateVariance)
	}

	var chi2 float64
	for _, v := range variants {
		n := float64(v.Visitors)
		expConv := n * converted / total
		expMiss := n * notConverted / total

		dConv := float64(v.Conversions) - expConv
		dMiss := float64(v.Visitors-v.Conversions) - expMiss
		chi2 += dConv*dConv/expConv + dMiss*dMiss/expMiss
	}

	df := len(variants) - 1
	dist := distuv.ChiSquared{K: float64(df)}

	return ChiSquareResult{
		Statistic:        chi2,
		DegreesOfFreedom: df,
		PValue:           dist.Survival(chi2),
	}, nil
}
