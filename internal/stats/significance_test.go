package stats_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkobilansky/abkit/internal/stats"
)

func mustSet(t *testing.T, control stats.Variant, treatments ...stats.Variant) stats.VariantSet {
	t.Helper()
	set, err := stats.NewVariantSet(control, treatments...)
	require.NoError(t, err)
	return set
}

func TestComputeSignificance_EndToEnd(t *testing.T) {
	set := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 1000, Conversions: 100},
		stats.Variant{Name: "Treatment", Visitors: 1000, Conversions: 130},
	)

	report, err := stats.ComputeSignificance(set, 0.05)
	require.NoError(t, err)

	assert.Equal(t, "Control", report.ControlName)
	assert.InDelta(t, 0.10, report.ControlRate, 1e-12)
	require.Len(t, report.Variants, 1)

	v := report.Variants[0]
	assert.Equal(t, "Treatment", v.Name)
	assert.InDelta(t, 0.13, v.Rate, 1e-12)
	assert.InDelta(t, 30.0, v.UpliftPercent, 1e-9)

	// Recompute the unpooled z-test by hand.
	se := math.Sqrt(0.10*0.90/1000 + 0.13*0.87/1000)
	z := (0.13 - 0.10) / se
	p := 2 * (1 - stats.NormalCDF(math.Abs(z)))
	assert.InDelta(t, z, v.ZScore, 1e-12)
	assert.InDelta(t, p, v.PValue, 1e-9)
	assert.InDelta(t, 0.03529, v.PValue, 1e-4)

	assert.True(t, v.Significant)
	assert.True(t, report.AnySignificant)
	assert.Nil(t, report.Omnibus, "omnibus test only runs with two or more treatments")
	assert.Equal(t, "At least one variation is statistically significant at the 5% level.", report.Verdict())
}

func TestComputeSignificance_NotSignificantAtStricterAlpha(t *testing.T) {
	set := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 1000, Conversions: 100},
		stats.Variant{Name: "Treatment", Visitors: 1000, Conversions: 130},
	)

	report, err := stats.ComputeSignificance(set, 0.01)
	require.NoError(t, err)

	assert.False(t, report.Variants[0].Significant)
	assert.False(t, report.AnySignificant)
	assert.Equal(t, "No variations are statistically significant at the 1% level.", report.Verdict())
}

func TestComputeSignificance_ABC(t *testing.T) {
	set := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 1000, Conversions: 100},
		stats.Variant{Name: "Variation A", Visitors: 1000, Conversions: 130},
		stats.Variant{Name: "Variation B", Visitors: 1000, Conversions: 115},
	)

	report, err := stats.ComputeSignificance(set, 0.05)
	require.NoError(t, err)
	require.Len(t, report.Variants, 2)
	require.NotNil(t, report.Omnibus)

	assert.Equal(t, 2, report.Omnibus.DegreesOfFreedom)
	assert.InDelta(t, 4.4215, report.Omnibus.Statistic, 1e-3)
	assert.InDelta(t, 0.1096, report.Omnibus.PValue, 1e-3)
	assert.False(t, report.Omnibus.Significant)

	assert.Equal(t, "Variation A", report.Leading().Name)
}

func TestComputeSignificance_ConfidenceIntervalsBracketRate(t *testing.T) {
	set := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 1000, Conversions: 100},
		stats.Variant{Name: "Treatment", Visitors: 1000, Conversions: 150},
	)

	report, err := stats.ComputeSignificance(set, 0.05)
	require.NoError(t, err)

	for _, v := range report.Variants {
		assert.Less(t, v.CILower, v.Rate)
		assert.Greater(t, v.CIUpper, v.Rate)
		assert.GreaterOrEqual(t, v.CILower, 0.0)
		assert.LessOrEqual(t, v.CIUpper, 1.0)
	}
}

func TestComputeSignificance_Errors(t *testing.T) {
	ok := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 1000, Conversions: 100},
		stats.Variant{Name: "Treatment", Visitors: 1000, Conversions: 130},
	)
	zeroControl := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 1000, Conversions: 0},
		stats.Variant{Name: "Treatment", Visitors: 1000, Conversions: 10},
	)
	noneConvert := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 100, Conversions: 0},
		stats.Variant{Name: "Treatment", Visitors: 100, Conversions: 0},
	)
	allConvert := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 500, Conversions: 500},
		stats.Variant{Name: "Treatment", Visitors: 800, Conversions: 800},
	)

	tests := []struct {
		name  string
		set   stats.VariantSet
		alpha float64
		want  error
	}{
		{"alpha zero", ok, 0, stats.ErrInvalidInput},
		{"alpha one", ok, 1, stats.ErrInvalidInput},
		{"empty set", stats.VariantSet{}, 0.05, stats.ErrInvalidInput},
		{"zero control rate", zeroControl, 0.05, stats.ErrUndefinedUplift},
		{"both at 0%", noneConvert, 0.05, stats.ErrDegenerateVariance},
		{"both at 100%", allConvert, 0.05, stats.ErrDegenerateVariance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := stats.ComputeSignificance(tt.set, tt.alpha)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTwoProportionZTest_FullConversion(t *testing.T) {
	full := stats.Variant{Name: "A", Visitors: 1000, Conversions: 1000}

	_, _, err := stats.TwoProportionZTest(full, stats.Variant{Name: "B", Visitors: 400, Conversions: 400})
	assert.ErrorIs(t, err, stats.ErrDegenerateVariance)

	z, p, err := stats.TwoProportionZTest(full, stats.Variant{Name: "B", Visitors: 1000, Conversions: 990})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(z) || math.IsInf(z, 0), "z must be finite, got %v", z)
	assert.InDelta(t, -3.1782, z, 1e-3)
	assert.Greater(t, p, 0.0)
	assert.Less(t, p, 0.01)
}

func TestTwoProportionZTest_EqualRates(t *testing.T) {
	z, p, err := stats.TwoProportionZTest(
		stats.Variant{Name: "A", Visitors: 1000, Conversions: 50},
		stats.Variant{Name: "B", Visitors: 1000, Conversions: 50},
	)
	require.NoError(t, err)
	assert.Equal(t, 0.0, z)
	assert.InDelta(t, 1.0, p, 1e-12)
}

func TestTwoProportionZTest_RejectsInvalidVariants(t *testing.T) {
	good := stats.Variant{Name: "A", Visitors: 100, Conversions: 10}

	_, _, err := stats.TwoProportionZTest(good, stats.Variant{Name: "B", Visitors: 0})
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	_, _, err = stats.TwoProportionZTest(good, stats.Variant{Name: "B", Visitors: 10, Conversions: 11})
	assert.ErrorIs(t, err, stats.ErrInvalidInput)
}

func TestRelativeUplift(t *testing.T) {
	uplift, err := stats.RelativeUplift(0.05, 0.055)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, uplift, 1e-9)

	uplift, err = stats.RelativeUplift(0.10, 0.08)
	require.NoError(t, err)
	assert.InDelta(t, -20.0, uplift, 1e-9)

	_, err = stats.RelativeUplift(0, 0.05)
	assert.True(t, errors.Is(err, stats.ErrUndefinedUplift))
}

func TestChiSquareMatchesZTestForTwoVariants(t *testing.T) {
	cases := [][2]stats.Variant{
		{{Name: "C", Visitors: 1000, Conversions: 100}, {Name: "T", Visitors: 1000, Conversions: 130}},
		{{Name: "C", Visitors: 2000, Conversions: 200}, {Name: "T", Visitors: 2000, Conversions: 220}},
		{{Name: "C", Visitors: 1000, Conversions: 50}, {Name: "T", Visitors: 1000, Conversions: 55}},
	}

	for _, c := range cases {
		set := mustSet(t, c[0], c[1])

		_, zp, err := stats.TwoProportionZTest(c[0], c[1])
		require.NoError(t, err)

		chi, err := stats.ChiSquareTest(set)
		require.NoError(t, err)

		assert.Equal(t, 1, chi.DegreesOfFreedom)
		assert.InDelta(t, zp, chi.PValue, 1e-3, "%s/%s", c[0].Name, c[1].Name)
	}
}

func TestChiSquareTest_Degenerate(t *testing.T) {
	set := mustSet(t,
		stats.Variant{Name: "C", Visitors: 100, Conversions: 0},
		stats.Variant{Name: "T", Visitors: 100, Conversions: 0},
	)
	_, err := stats.ChiSquareTest(set)
	assert.ErrorIs(t, err, stats.ErrDegenerateVariance)
}

func TestZScore(t *testing.T) {
	tests := []struct {
		confidence float64
		expected   float64
	}{
		{0.90, 1.6449},
		{0.95, 1.9600},
		{0.99, 2.5758},
	}

	for _, tt := range tests {
		z := stats.ZScore(tt.confidence)
		if math.Abs(z-tt.expected) > 1e-4 {
			t.Errorf("ZScore(%f) = %f, want %f", tt.confidence, z, tt.expected)
		}
	}
}
