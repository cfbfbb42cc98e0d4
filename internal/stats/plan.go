package stats

import (
	"fmt"
	"math/rand/v2"
)

// Plan is the sizing of an experiment, optionally with simulated
// trajectories.
type Plan struct {
	Config          ExperimentConfig `json:"config"`
	SampleSize      int              `json:"sample_size"`       // per variant
	TotalSampleSize int              `json:"total_sample_size"` // control + treatment
	DurationDays    int              `json:"duration_days"`
	Scenarios       ScenarioSeries   `json:"scenarios,omitempty"`
}

// PlanOptions controls the optional simulation step of PlanExperiment.
type PlanOptions struct {
	Simulate bool
	// Days overrides the simulated duration. Zero uses the planned duration.
	Days int
	// Source drives the simulation. Required when Simulate is set.
	Source rand.Source
}

// PlanExperiment validates cfg, sizes the experiment and, if asked,
// simulates it. It returns nothing on failure.
func PlanExperiment(cfg ExperimentConfig, opts PlanOptions) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Days < 0 {
		return nil, fmt.Errorf("%w: simulation days must be >= 0, got %d", ErrInvalidInput, opts.Days)
	}
	if opts.Simulate && opts.Source == nil {
		return nil, fmt.Errorf("%w: simulation requires a random source", ErrInvalidInput)
	}

	n, err := sampleSize(cfg.BaselineRate, cfg.MDE, cfg.Alpha, cfg.Power)
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		Config:          cfg,
		SampleSize:      n,
		TotalSampleSize: 2 * n,
		DurationDays:    estimateDuration(n, cfg.DailyVisitors, cfg.TrafficSplit),
	}

	if opts.Simulate {
		days := opts.Days
		if days == 0 {
			days = plan.DurationDays
		}
		series, err := SimulateScenarios(cfg, days, opts.Source)
		if err != nil {
			return nil, err
		}
		plan.Scenarios = series
	}

	return plan, nil
}
