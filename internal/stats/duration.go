package stats

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// DurationPoint is one cell of a duration sweep.
type DurationPoint struct {
	MDE          float64 `json:"mde"`
	TrafficSplit float64 `json:"traffic_split"`
	SampleSize   int     `json:"sample_size"`
	DurationDays int     `json:"duration_days"`
}

// DurationCurve holds a sweep ordered by traffic split, then MDE, in the
// order the inputs were given.
type DurationCurve []DurationPoint

// EstimateDuration returns how many days it takes for one variant to
// collect sampleSize visitors. The result is at least one day and is
// never capped.
func EstimateDuration(sampleSize, dailyVisitors int, trafficSplit float64) (int, error) {
	if sampleSize < 0 {
		return 0, fmt.Errorf("%w: sample_size must be >= 0, got %d", ErrInvalidInput, sampleSize)
	}
	if dailyVisitors <= 0 {
		return 0, fmt.Errorf("%w: daily_visitors must be > 0, got %d", ErrInvalidInput, dailyVisitors)
	}
	if err := validateSplit(trafficSplit); err != nil {
		return 0, err
	}
	return estimateDuration(sampleSize, dailyVisitors, trafficSplit), nil
}

func estimateDuration(sampleSize, dailyVisitors int, trafficSplit float64) int {
	perVariant := float64(dailyVisitors) * trafficSplit
	days := int(math.Ceil(float64(sampleSize) / perVariant))
	if days < 1 {
		return 1
	}
	return days
}

// GenerateDurationCurve evaluates every (traffic split, MDE) combination
// against cfg's baseline, alpha, power and daily visitors. cfg's own MDE
// and TrafficSplit are ignored. The curve depends only on its inputs, so
// callers may cache it keyed by them.
func GenerateDurationCurve(cfg ExperimentConfig, mdes, splits []float64) (DurationCurve, error) {
	if len(mdes) == 0 {
		return nil, fmt.Errorf("%w: mde range is empty", ErrInvalidInput)
	}
	if len(splits) == 0 {
		return nil, fmt.Errorf("%w: traffic splits are empty", ErrInvalidInput)
	}

	// Validate everything up front so a bad cell never leaves a half-built curve.
	for _, split := range splits {
		for _, mde := range mdes {
			if err := cfg.WithMDE(mde).WithTrafficSplit(split).Validate(); err != nil {
				return nil, err
			}
		}
	}

	curve := make(DurationCurve, len(splits)*len(mdes))

	var g errgroup.Group
	for i, split := range splits {
		g.Go(func() error {
			for j, mde := range mdes {
				n, err := sampleSize(cfg.BaselineRate, mde, cfg.Alpha, cfg.Power)
				if err != nil {
					return err
				}
				curve[i*len(mdes)+j] = DurationPoint{
					MDE:          mde,
					TrafficSplit: split,
					SampleSize:   n,
					DurationDays: estimateDuration(n, cfg.DailyVisitors, split),
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return curve, nil
}

// Split returns the points of c for a single traffic split.
func (c DurationCurve) Split(split float64) DurationCurve {
	var out DurationCurve
	for _, p := range c {
		if p.TrafficSplit == split {
			out = append(out, p)
		}
	}
	return out
}

// Linspace returns n evenly spaced values from start to end inclusive.
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = end
	return out
}

// DefaultMDERange is 1% to 20% in 100 steps.
func DefaultMDERange() []float64 {
	return Linspace(0.01, 0.20, 100)
}

// DefaultTrafficSplits are the allocations compared by default.
func DefaultTrafficSplits() []float64 {
	return []float64{0.1, 0.2, 0.5}
}
