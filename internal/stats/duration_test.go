package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkobilansky/abkit/internal/stats"
)

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		sampleSize, daily int
		split             float64
		want              int
	}{
		{31234, 1000, 0.5, 63},
		{31234, 1000, 0.2, 157},
		{31234, 1000, 0.1, 313},
		{500, 1000, 0.5, 1},
		{1, 100000, 0.5, 1},
		{1000, 100, 0.5, 20},
	}

	for _, tt := range tests {
		days, err := stats.EstimateDuration(tt.sampleSize, tt.daily, tt.split)
		require.NoError(t, err)
		assert.Equal(t, tt.want, days, "n=%d daily=%d split=%v", tt.sampleSize, tt.daily, tt.split)
	}
}

func TestEstimateDuration_DecreasesWithSplit(t *testing.T) {
	prev := 0
	for i, split := range []float64{0.1, 0.2, 0.3, 0.4, 0.5} {
		days, err := stats.EstimateDuration(31234, 1000, split)
		require.NoError(t, err)
		if i > 0 {
			assert.Less(t, days, prev, "split=%v", split)
		}
		prev = days
	}
}

func TestEstimateDuration_ZeroSampleIsOneDay(t *testing.T) {
	days, err := stats.EstimateDuration(0, 1000, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, days)
}

func TestEstimateDuration_Errors(t *testing.T) {
	_, err := stats.EstimateDuration(-1, 1000, 0.5)
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	_, err = stats.EstimateDuration(100, 0, 0.5)
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	_, err = stats.EstimateDuration(100, 1000, 0)
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	_, err = stats.EstimateDuration(100, 1000, 0.51)
	assert.ErrorIs(t, err, stats.ErrInvalidInput)
}

func TestGenerateDurationCurve(t *testing.T) {
	mdes := []float64{0.05, 0.10, 0.20}
	splits := []float64{0.1, 0.5}

	curve, err := stats.GenerateDurationCurve(baseConfig(), mdes, splits)
	require.NoError(t, err)
	require.Len(t, curve, 6)

	for i, split := range splits {
		for j, mde := range mdes {
			p := curve[i*len(mdes)+j]
			assert.Equal(t, split, p.TrafficSplit)
			assert.Equal(t, mde, p.MDE)

			n, err := stats.SampleSize(0.05, mde, 0.05, 0.8)
			require.NoError(t, err)
			assert.Equal(t, n, p.SampleSize)

			days, err := stats.EstimateDuration(n, 1000, split)
			require.NoError(t, err)
			assert.Equal(t, days, p.DurationDays)
		}
	}

	half := curve.Split(0.5)
	require.Len(t, half, 3)
	assert.Equal(t, 63, half[1].DurationDays)
}

func TestGenerateDurationCurve_Idempotent(t *testing.T) {
	a, err := stats.GenerateDurationCurve(baseConfig(), stats.DefaultMDERange(), stats.DefaultTrafficSplits())
	require.NoError(t, err)
	b, err := stats.GenerateDurationCurve(baseConfig(), stats.DefaultMDERange(), stats.DefaultTrafficSplits())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 300)
}

func TestGenerateDurationCurve_DurationsAreUncapped(t *testing.T) {
	curve, err := stats.GenerateDurationCurve(baseConfig(), []float64{0.01}, []float64{0.1})
	require.NoError(t, err)
	assert.Greater(t, curve[0].DurationDays, 90)
}

func TestGenerateDurationCurve_Errors(t *testing.T) {
	_, err := stats.GenerateDurationCurve(baseConfig(), nil, []float64{0.5})
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	_, err = stats.GenerateDurationCurve(baseConfig(), []float64{0.1}, nil)
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	_, err = stats.GenerateDurationCurve(baseConfig(), []float64{0.1, 25}, []float64{0.5})
	assert.ErrorIs(t, err, stats.ErrInvalidEffectSize)

	_, err = stats.GenerateDurationCurve(baseConfig(), []float64{0.1}, []float64{0.5, 0.7})
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	curve, err := stats.GenerateDurationCurve(baseConfig(), []float64{0.1, 1e-9}, []float64{0.2, 0.5})
	assert.Nil(t, curve)
	assert.ErrorIs(t, err, stats.ErrInvalidEffectSize)
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, stats.Linspace(0, 1, 3))
	assert.Equal(t, []float64{2}, stats.Linspace(2, 5, 1))
	assert.Nil(t, stats.Linspace(0, 1, 0))

	r := stats.DefaultMDERange()
	require.Len(t, r, 100)
	assert.Equal(t, 0.01, r[0])
	assert.Equal(t, 0.20, r[99])
}
