package stats

import (
	"fmt"
	"math"
)

// ExperimentConfig describes a planned experiment.
type ExperimentConfig struct {
	BaselineRate  float64 `json:"baseline_rate" yaml:"baseline_rate"`
	MDE           float64 `json:"mde" yaml:"mde"` // relative, 0.10 = +10%
	Alpha         float64 `json:"alpha" yaml:"alpha"`
	Power         float64 `json:"power" yaml:"power"`
	DailyVisitors int     `json:"daily_visitors" yaml:"daily_visitors"`
	TrafficSplit  float64 `json:"traffic_split" yaml:"traffic_split"` // share of traffic per variant
}

// Validate checks every field's range, then that the treatment rate
// implied by the MDE is a probability.
func (c ExperimentConfig) Validate() error {
	if err := validateRates(c.BaselineRate, c.MDE, c.Alpha, c.Power); err != nil {
		return err
	}
	if c.DailyVisitors <= 0 {
		return fmt.Errorf("%w: daily_visitors must be > 0, got %d", ErrInvalidInput, c.DailyVisitors)
	}
	if err := validateSplit(c.TrafficSplit); err != nil {
		return err
	}
	return validateEffect(c.BaselineRate, c.MDE)
}

// TreatmentRate is the rate the treatment converts at if the MDE is real.
func (c ExperimentConfig) TreatmentRate() float64 {
	return c.BaselineRate * (1 + c.MDE)
}

// WithMDE returns a copy of c with a different MDE.
func (c ExperimentConfig) WithMDE(mde float64) ExperimentConfig {
	c.MDE = mde
	return c
}

// WithTrafficSplit returns a copy of c with a different traffic split.
func (c ExperimentConfig) WithTrafficSplit(split float64) ExperimentConfig {
	c.TrafficSplit = split
	return c
}

// ComputeSampleSize returns the per-variant sample size for cfg.
// DailyVisitors and TrafficSplit are not used but must still be valid.
func ComputeSampleSize(cfg ExperimentConfig) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	return sampleSize(cfg.BaselineRate, cfg.MDE, cfg.Alpha, cfg.Power)
}

// SampleSize returns the per-variant sample size needed for a two-tailed
// two-proportion test to detect a relative change of mde from
// baselineRate at the given alpha and power.
func SampleSize(baselineRate, mde, alpha, power float64) (int, error) {
	if err := validateRates(baselineRate, mde, alpha, power); err != nil {
		return 0, err
	}
	if err := validateEffect(baselineRate, mde); err != nil {
		return 0, err
	}
	return sampleSize(baselineRate, mde, alpha, power)
}

// maxSampleSize keeps the total across both variants representable.
const maxSampleSize = math.MaxInt / 2

func sampleSize(baselineRate, mde, alpha, power float64) (int, error) {
	p1 := baselineRate
	p2 := p1 * (1 + mde)

	zAlpha := NormalQuantile(1 - alpha/2)
	zBeta := NormalQuantile(power)

	pooled := (p1 + p2) / 2

	num := zAlpha*math.Sqrt(2*pooled*(1-pooled)) + zBeta*math.Sqrt(p1*(1-p1)+p2*(1-p2))
	diff := p2 - p1

	n := math.Ceil(num * num / (diff * diff))
	if math.IsNaN(n) || n > maxSampleSize {
		return 0, fmt.Errorf("%w: mde %v at baseline_rate %v needs more than %d visitors per variant", ErrInvalidEffectSize, mde, baselineRate, maxSampleSize)
	}
	return int(n), nil
}

func validateRates(baselineRate, mde, alpha, power float64) error {
	if err := validateProbability("baseline_rate", baselineRate); err != nil {
		return err
	}
	if math.IsNaN(mde) || math.IsInf(mde, 0) || mde <= 0 {
		return fmt.Errorf("%w: mde must be > 0, got %v", ErrInvalidInput, mde)
	}
	if err := validateProbability("alpha", alpha); err != nil {
		return err
	}
	return validateProbability("power", power)
}

func validateSplit(split float64) error {
	if math.IsNaN(split) || split <= 0 || split > 0.5 {
		return fmt.Errorf("%w: traffic_split must be in (0, 0.5], got %v", ErrInvalidInput, split)
	}
	return nil
}

func validateEffect(baselineRate, mde float64) error {
	if p2 := baselineRate * (1 + mde); p2 > 1 {
		return fmt.Errorf("%w: baseline_rate %v with mde %v implies a treatment rate of %v", ErrInvalidEffectSize, baselineRate, mde, p2)
	}
	return nil
}
