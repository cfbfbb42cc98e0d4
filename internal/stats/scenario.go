package stats

import (
	"fmt"
	"math"
	"math/rand/v2"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Scenario names a hypothetical truth about the treatment.
type Scenario string

const (
	ScenarioExpected       Scenario = "Expected"
	ScenarioNoEffect       Scenario = "NoEffect"
	ScenarioNegativeEffect Scenario = "NegativeEffect"
)

// Scenarios lists every scenario in simulation order.
var Scenarios = []Scenario{ScenarioExpected, ScenarioNoEffect, ScenarioNegativeEffect}

// TreatmentRate is the treatment's true rate under s.
func (s Scenario) TreatmentRate(cfg ExperimentConfig) float64 {
	switch s {
	case ScenarioExpected:
		return cfg.BaselineRate * (1 + cfg.MDE)
	case ScenarioNegativeEffect:
		return math.Max(0, cfg.BaselineRate*(1-cfg.MDE/2))
	default:
		return cfg.BaselineRate
	}
}

// ScenarioPoint is the running conversion rate of one variant on one day
// of one scenario.
type ScenarioPoint struct {
	Day            int      `json:"day"`
	ScenarioName   Scenario `json:"scenario_name"`
	VariantRole    Role     `json:"variant_role"`
	CumulativeRate float64  `json:"cumulative_rate"`
}

// ScenarioSeries is ordered by scenario, then day, control before
// treatment.
type ScenarioSeries []ScenarioPoint

// VisitorsPerVariant is the whole number of visitors each variant sees per
// day under cfg.
func VisitorsPerVariant(cfg ExperimentConfig) int {
	return int(math.Floor(float64(cfg.DailyVisitors) * cfg.TrafficSplit))
}

// SimulateScenariosSeed is SimulateScenarios with a PCG source seeded from
// seed.
func SimulateScenariosSeed(cfg ExperimentConfig, durationDays int, seed uint64) (ScenarioSeries, error) {
	return SimulateScenarios(cfg, durationDays, rand.NewPCG(seed, seed))
}

// SimulateScenarios draws day-by-day binomial conversions for the control
// and treatment under each scenario and returns the cumulative rates.
// All randomness comes from src; the same source state yields the same
// series. src must not be shared with a concurrent caller.
func SimulateScenarios(cfg ExperimentConfig, durationDays int, src rand.Source) (ScenarioSeries, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if durationDays <= 0 {
		return nil, fmt.Errorf("%w: duration_days must be > 0, got %d", ErrInvalidInput, durationDays)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidInput)
	}
	n := VisitorsPerVariant(cfg)
	if n < 1 {
		return nil, fmt.Errorf("%w: daily_visitors %d with traffic_split %v gives no visitors per variant", ErrInvalidInput, cfg.DailyVisitors, cfg.TrafficSplit)
	}

	series := make(ScenarioSeries, 0, len(Scenarios)*durationDays*2)
	for _, sc := range Scenarios {
		control := distuv.Binomial{N: float64(n), P: cfg.BaselineRate, Src: src}
		treatment := distuv.Binomial{N: float64(n), P: sc.TreatmentRate(cfg), Src: src}

		var controlConv, treatmentConv float64
		for day := 1; day <= durationDays; day++ {
			controlConv += draw(control)
			treatmentConv += draw(treatment)

			seen := float64(n * day)
			series = append(series,
				ScenarioPoint{Day: day, ScenarioName: sc, VariantRole: RoleControl, CumulativeRate: controlConv / seen},
				ScenarioPoint{Day: day, ScenarioName: sc, VariantRole: RoleTreatment, CumulativeRate: treatmentConv / seen},
			)
		}
	}

	return series, nil
}

func draw(b distuv.Binomial) float64 {
	switch b.P {
	case 0:
		return 0
	case 1:
		return b.N
	}
	return b.Rand()
}

// ScenarioSummary describes one variant's trajectory within a scenario.
type ScenarioSummary struct {
	ScenarioName Scenario `json:"scenario_name"`
	VariantRole  Role     `json:"variant_role"`
	FinalRate    float64  `json:"final_rate"`
	MinRate      float64  `json:"min_rate"`
	MaxRate      float64  `json:"max_rate"`
	MeanRate     float64  `json:"mean_rate"`
}

// SummarizeScenarios reduces a series to one summary per scenario and
// role, in series order.
func SummarizeScenarios(series ScenarioSeries) ([]ScenarioSummary, error) {
	type key struct {
		sc   Scenario
		role Role
	}
	var order []key
	rates := make(map[key][]float64)
	for _, p := range series {
		k := key{p.ScenarioName, p.VariantRole}
		if _, ok := rates[k]; !ok {
			order = append(order, k)
		}
		rates[k] = append(rates[k], p.CumulativeRate)
	}

	out := make([]ScenarioSummary, 0, len(order))
	for _, k := range order {
		data := rates[k]
		lo, err := mstats.Min(data)
		if err != nil {
			return nil, fmt.Errorf("summarize %s/%s: %w", k.sc, k.role, err)
		}
		hi, err := mstats.Max(data)
		if err != nil {
			return nil, fmt.Errorf("summarize %s/%s: %w", k.sc, k.role, err)
		}
		mean, err := mstats.Mean(data)
		if err != nil {
			return nil, fmt.Errorf("summarize %s/%s: %w", k.sc, k.role, err)
		}
		out = append(out, ScenarioSummary{
			ScenarioName: k.sc,
			VariantRole:  k.role,
			FinalRate:    data[len(data)-1],
			MinRate:      lo,
			MaxRate:      hi,
			MeanRate:     mean,
		})
	}
	return out, nil
}
