// Package report renders engine results for people and downloads: text
// tables, CSV, XLSX, chart annotations, and the prompt handed to a
// narrative collaborator.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gkobilansky/abkit/internal/stats"
)

// WriteSignificanceTable prints r as an aligned table followed by the
// verdict.
func WriteSignificanceTable(out io.Writer, r *stats.SignificanceReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tVISITORS\tCONVERSIONS\tRATE\tUPLIFT\tP-VALUE\tSIGNIFICANT\tCI")

	fmt.Fprintf(w, "%s\t%d\t%d\t%s\tN/A\tN/A\tN/A\t\n",
		truncate(r.ControlName, 24),
		r.ControlVisitors,
		r.ControlConversions,
		FormatPercent(r.ControlRate),
	)

	level := fmt.Sprintf("%.0f%% CI", (1-r.Alpha)*100)
	for _, v := range r.Variants {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%+.2f%%\t%.4f\t%s\t[%.2f%%, %.2f%%] %s\n",
			truncate(v.Name, 24),
			v.Visitors,
			v.Conversions,
			FormatPercent(v.Rate),
			v.UpliftPercent,
			v.PValue,
			yesNo(v.Significant),
			v.CILower*100, v.CIUpper*100, level,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	if r.Omnibus != nil {
		fmt.Fprintf(out, "Chi-square (all variants): χ²=%.3f, df=%d, p=%.4f (%s)\n",
			r.Omnibus.Statistic, r.Omnibus.DegreesOfFreedom, r.Omnibus.PValue, significanceWord(r.Omnibus.Significant))
	}
	_, err := fmt.Fprintln(out, r.Verdict())
	return err
}

// WritePlan prints the sizing of an experiment.
func WritePlan(out io.Writer, p *stats.Plan, maxDays int) error {
	cfg := p.Config
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Baseline rate\t%s\n", FormatPercent(cfg.BaselineRate))
	fmt.Fprintf(w, "Minimum detectable effect\t%s relative (%s → %s)\n",
		FormatPercent(cfg.MDE), FormatPercent(cfg.BaselineRate), FormatPercent(cfg.TreatmentRate()))
	fmt.Fprintf(w, "Significance level\t%g\n", cfg.Alpha)
	fmt.Fprintf(w, "Power\t%g\n", cfg.Power)
	fmt.Fprintf(w, "Daily visitors\t%s (%s per variant)\n", FormatNumber(cfg.DailyVisitors), FormatPercent(cfg.TrafficSplit))
	fmt.Fprintf(w, "Sample size per variant\t%s\n", FormatNumber(p.SampleSize))
	fmt.Fprintf(w, "Total sample size\t%s\n", FormatNumber(p.TotalSampleSize))
	fmt.Fprintf(w, "Estimated duration\t%s\n", FormatDays(p.DurationDays, maxDays))
	return w.Flush()
}

// WriteDurationTable prints curve pivoted with one row per MDE and one
// column per traffic split. Durations beyond maxDays print as ">maxDays";
// maxDays <= 0 disables the cap.
func WriteDurationTable(out io.Writer, curve stats.DurationCurve, maxDays int) error {
	splits, mdes := axes(curve)
	cells := make(map[[2]float64]stats.DurationPoint, len(curve))
	for _, p := range curve {
		cells[[2]float64{p.TrafficSplit, p.MDE}] = p
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"MDE", "SAMPLE/VARIANT"}
	for _, s := range splits {
		header = append(header, FormatPercent(s)+" TRAFFIC")
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, mde := range mdes {
		row := []string{fmt.Sprintf("%.1f%%", mde*100)}
		for i, s := range splits {
			p := cells[[2]float64{s, mde}]
			if i == 0 {
				row = append(row, FormatNumber(p.SampleSize))
			}
			row = append(row, FormatDays(p.DurationDays, maxDays))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

// WriteScenarioSummary prints one line per scenario and role.
func WriteScenarioSummary(out io.Writer, summaries []stats.ScenarioSummary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tVARIANT\tFINAL\tMIN\tMAX\tMEAN")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ScenarioName,
			s.VariantRole,
			FormatPercent(s.FinalRate),
			FormatPercent(s.MinRate),
			FormatPercent(s.MaxRate),
			FormatPercent(s.MeanRate),
		)
	}
	return w.Flush()
}

// axes returns the distinct splits and MDEs of curve in first-seen order.
func axes(curve stats.DurationCurve) (splits, mdes []float64) {
	seenSplit := map[float64]bool{}
	seenMDE := map[float64]bool{}
	for _, p := range curve {
		if !seenSplit[p.TrafficSplit] {
			seenSplit[p.TrafficSplit] = true
			splits = append(splits, p.TrafficSplit)
		}
		if !seenMDE[p.MDE] {
			seenMDE[p.MDE] = true
			mdes = append(mdes, p.MDE)
		}
	}
	return splits, mdes
}

// FormatPercent renders a fraction as a percentage.
func FormatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

// FormatNumber adds thousands separators.
func FormatNumber(n int) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

// FormatDays renders a duration, showing ">max" past the display cap.
func FormatDays(days, maxDays int) string {
	if maxDays > 0 && days > maxDays {
		return fmt.Sprintf(">%d days", maxDays)
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%s days", FormatNumber(days))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func significanceWord(b bool) string {
	if b {
		return "significant"
	}
	return "not significant"
}
