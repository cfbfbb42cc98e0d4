package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gkobilansky/abkit/internal/stats"
)

// CSV headers. Column names match the JSON field names of the engine types.
var (
	DurationCurveHeader      = []string{"mde", "traffic_split", "sample_size", "duration_days"}
	ScenarioSeriesHeader     = []string{"day", "scenario_name", "variant_role", "cumulative_rate"}
	SignificanceReportHeader = []string{"name", "role", "visitors", "conversions", "rate", "uplift_percent", "z_score", "p_value", "significant", "ci_lower", "ci_upper"}
)

// DurationCurveFilename is the download name used for exported curves.
const DurationCurveFilename = "ab_test_duration_mde_data"

// WriteDurationCurveCSV writes curve as CSV.
func WriteDurationCurveCSV(w io.Writer, curve stats.DurationCurve) error {
	rows := make([][]string, 0, len(curve))
	for _, p := range curve {
		rows = append(rows, []string{
			formatFloat(p.MDE),
			formatFloat(p.TrafficSplit),
			strconv.Itoa(p.SampleSize),
			strconv.Itoa(p.DurationDays),
		})
	}
	return writeCSV(w, DurationCurveHeader, rows)
}

// WriteScenarioCSV writes series as CSV.
func WriteScenarioCSV(w io.Writer, series stats.ScenarioSeries) error {
	rows := make([][]string, 0, len(series))
	for _, p := range series {
		rows = append(rows, []string{
			strconv.Itoa(p.Day),
			string(p.ScenarioName),
			string(p.VariantRole),
			formatFloat(p.CumulativeRate),
		})
	}
	return writeCSV(w, ScenarioSeriesHeader, rows)
}

// WriteSignificanceCSV writes the control row followed by one row per
// treatment. The control's comparison columns are left empty.
func WriteSignificanceCSV(w io.Writer, r *stats.SignificanceReport) error {
	rows := make([][]string, 0, len(r.Variants)+1)
	rows = append(rows, []string{
		r.ControlName,
		string(stats.RoleControl),
		strconv.Itoa(r.ControlVisitors),
		strconv.Itoa(r.ControlConversions),
		formatFloat(r.ControlRate),
		"", "", "", "", "", "",
	})
	for _, v := range r.Variants {
		rows = append(rows, []string{
			v.Name,
			string(stats.RoleTreatment),
			strconv.Itoa(v.Visitors),
			strconv.Itoa(v.Conversions),
			formatFloat(v.Rate),
			formatFloat(v.UpliftPercent),
			formatFloat(v.ZScore),
			formatFloat(v.PValue),
			strconv.FormatBool(v.Significant),
			formatFloat(v.CILower),
			formatFloat(v.CIUpper),
		})
	}
	return writeCSV(w, SignificanceReportHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
