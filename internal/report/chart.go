package report

import (
	"math"

	"github.com/gkobilansky/abkit/internal/stats"
)

// CapDuration limits days to maxDays for display. maxDays <= 0 disables
// the cap.
func CapDuration(days, maxDays int) int {
	if maxDays > 0 && days > maxDays {
		return maxDays
	}
	return days
}

// CappedCurve returns a copy of curve with durations capped for charting.
// The engine's curve is left untouched.
func CappedCurve(curve stats.DurationCurve, maxDays int) stats.DurationCurve {
	out := make(stats.DurationCurve, len(curve))
	for i, p := range curve {
		p.DurationDays = CapDuration(p.DurationDays, maxDays)
		out[i] = p
	}
	return out
}

// Annotation labels the duration at a key MDE on one traffic split's line.
type Annotation struct {
	MDE          float64 `json:"mde"`
	TrafficSplit float64 `json:"traffic_split"`
	DurationDays int     `json:"duration_days"`
}

// Annotations finds, for every traffic split and every key MDE, the curve
// point nearest to that MDE within 0.1 percentage points. Points past
// maxDays are left out.
func Annotations(curve stats.DurationCurve, keyMDEs []float64, maxDays int) []Annotation {
	splits, _ := axes(curve)

	var out []Annotation
	for _, split := range splits {
		line := curve.Split(split)
		for _, key := range keyMDEs {
			p, ok := nearest(line, key)
			if !ok {
				continue
			}
			if maxDays > 0 && p.DurationDays > maxDays {
				continue
			}
			out = append(out, Annotation{MDE: key, TrafficSplit: split, DurationDays: p.DurationDays})
		}
	}
	return out
}

func nearest(line stats.DurationCurve, mde float64) (stats.DurationPoint, bool) {
	const tolerance = 0.001
	best, bestDist := stats.DurationPoint{}, math.Inf(1)
	for _, p := range line {
		if d := math.Abs(p.MDE - mde); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, bestDist <= tolerance
}
