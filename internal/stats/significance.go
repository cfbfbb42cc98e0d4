package stats

import (
	"fmt"
	"math"
	"strconv"
)

// SignificanceReport is the outcome of comparing every treatment in a
// VariantSet against its control.
type SignificanceReport struct {
	ControlName        string           `json:"control_name"`
	ControlVisitors    int              `json:"control_visitors"`
	ControlConversions int              `json:"control_conversions"`
	ControlRate        float64          `json:"control_rate"`
	Alpha              float64          `json:"alpha"`
	Variants           []VariantResult  `json:"variants"`
	Omnibus            *ChiSquareResult `json:"omnibus,omitempty"`
	AnySignificant     bool             `json:"any_significant"`
}

// VariantResult holds the pairwise comparison of one treatment against
// the control.
type VariantResult struct {
	Name          string  `json:"name"`
	Visitors      int     `json:"visitors"`
	Conversions   int     `json:"conversions"`
	Rate          float64 `json:"rate"`
	UpliftPercent float64 `json:"uplift_percent"`
	ZScore        float64 `json:"z_score"`
	PValue        float64 `json:"p_value"`
	Significant   bool    `json:"significant"`
	CILower       float64 `json:"ci_lower"`
	CIUpper       float64 `json:"ci_upper"`
}

// TwoProportionZTest compares treatment against control with an unpooled
// two-proportion z-test and returns the z statistic and two-tailed
// p-value. No continuity correction is applied.
func TwoProportionZTest(control, treatment Variant) (z, p float64, err error) {
	if err := control.Validate(); err != nil {
		return 0, 0, err
	}
	if err := treatment.Validate(); err != nil {
		return 0, 0, err
	}

	rc := control.Rate()
	rv := treatment.Rate()
	nc := float64(control.Visitors)
	nv := float64(treatment.Visitors)

	se := math.Sqrt(rc*(1-rc)/nc + rv*(1-rv)/nv)
	if se == 0 {
		return 0, 0, fmt.Errorf("%w: %q and %q both convert at %.0f%%", ErrDegenerateVariance, control.Name, treatment.Name, rc*100)
	}

	z = (rv - rc) / se
	return z, twoTailedP(z), nil
}

// RelativeUplift returns (variantRate - controlRate) / controlRate * 100.
func RelativeUplift(controlRate, variantRate float64) (float64, error) {
	if controlRate == 0 {
		return 0, fmt.Errorf("%w: control rate is zero", ErrUndefinedUplift)
	}
	return (variantRate - controlRate) / controlRate * 100, nil
}

// ComputeSignificance runs the pairwise test for every treatment in set
// and, when there are two or more treatments, the omnibus chi-square test
// across all variants. No multiple-comparison adjustment is applied to
// the pairwise p-values.
func ComputeSignificance(set VariantSet, alpha float64) (*SignificanceReport, error) {
	if err := validateProbability("alpha", alpha); err != nil {
		return nil, err
	}
	if set.Len() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 variants, got %d", ErrInvalidInput, set.Len())
	}

	control := set.Control()
	controlRate := control.Rate()

	report := &SignificanceReport{
		ControlName:        control.Name,
		ControlVisitors:    control.Visitors,
		ControlConversions: control.Conversions,
		ControlRate:        controlRate,
		Alpha:              alpha,
	}

	for _, t := range set.Treatments() {
		z, p, err := TwoProportionZTest(control, t)
		if err != nil {
			return nil, err
		}
		uplift, err := RelativeUplift(controlRate, t.Rate())
		if err != nil {
			return nil, err
		}
		lower, upper := WilsonInterval(t.Conversions, t.Visitors, 1-alpha)

		significant := p < alpha
		report.AnySignificant = report.AnySignificant || significant
		report.Variants = append(report.Variants, VariantResult{
			Name:          t.Name,
			Visitors:      t.Visitors,
			Conversions:   t.Conversions,
			Rate:          t.Rate(),
			UpliftPercent: uplift,
			ZScore:        z,
			PValue:        p,
			Significant:   significant,
			CILower:       lower,
			CIUpper:       upper,
		})
	}

	if set.Len() > 2 {
		omnibus, err := ChiSquareTest(set)
		if err != nil {
			return nil, err
		}
		omnibus.Significant = omnibus.PValue < alpha
		report.Omnibus = &omnibus
	}

	return report, nil
}

// Leading returns the treatment with the highest rate.
func (r *SignificanceReport) Leading() VariantResult {
	best := r.Variants[0]
	for _, v := range r.Variants[1:] {
		if v.Rate > best.Rate {
			best = v
		}
	}
	return best
}

// Verdict is a one-line summary of the report.
func (r *SignificanceReport) Verdict() string {
	level := strconv.FormatFloat(r.Alpha*100, 'g', 4, 64) + "%"
	if r.AnySignificant {
		return fmt.Sprintf("At least one variation is statistically significant at the %s level.", level)
	}
	return fmt.Sprintf("No variations are statistically significant at the %s level.", level)
}

func validateProbability(name string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v >= 1 {
		return fmt.Errorf("%w: %s must be in (0, 1), got %v", ErrInvalidInput, name, v)
	}
	return nil
}
