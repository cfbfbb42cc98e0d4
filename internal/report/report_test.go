package report_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gkobilansky/abkit/internal/report"
	"github.com/gkobilansky/abkit/internal/stats"
)

func sampleReport(t *testing.T) *stats.SignificanceReport {
	t.Helper()
	set, err := stats.NewVariantSet(
		stats.Variant{Name: "Control", Visitors: 1000, Conversions: 100},
		stats.Variant{Name: "Variation A", Visitors: 1000, Conversions: 130},
		stats.Variant{Name: "Variation B", Visitors: 1000, Conversions: 105},
	)
	require.NoError(t, err)
	r, err := stats.ComputeSignificance(set, 0.05)
	require.NoError(t, err)
	return r
}

func sampleCurve(t *testing.T) stats.DurationCurve {
	t.Helper()
	cfg := stats.ExperimentConfig{BaselineRate: 0.05, MDE: 0.1, Alpha: 0.05, Power: 0.8, DailyVisitors: 1000, TrafficSplit: 0.5}
	curve, err := stats.GenerateDurationCurve(cfg, stats.DefaultMDERange(), stats.DefaultTrafficSplits())
	require.NoError(t, err)
	return curve
}

func TestWriteDurationCurveCSV(t *testing.T) {
	curve := sampleCurve(t)

	var buf bytes.Buffer
	require.NoError(t, report.WriteDurationCurveCSV(&buf, curve))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(curve)+1)
	assert.Equal(t, []string{"mde", "traffic_split", "sample_size", "duration_days"}, records[0])
	assert.Equal(t, []string{"0.01", "0.1", "2996698", "29967"}, records[1])
}

func TestWriteScenarioCSV(t *testing.T) {
	series := stats.ScenarioSeries{
		{Day: 1, ScenarioName: stats.ScenarioExpected, VariantRole: stats.RoleControl, CumulativeRate: 0.05},
		{Day: 1, ScenarioName: stats.ScenarioExpected, VariantRole: stats.RoleTreatment, CumulativeRate: 0.056},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteScenarioCSV(&buf, series))

	assert.Equal(t, "day,scenario_name,variant_role,cumulative_rate\n"+
		"1,Expected,control,0.05\n"+
		"1,Expected,treatment,0.056\n", buf.String())
}

func TestWriteSignificanceCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteSignificanceCSV(&buf, sampleReport(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, report.SignificanceReportHeader, records[0])
	assert.Equal(t, []string{"Control", "control", "1000", "100", "0.1", "", "", "", "", "", ""}, records[1])
	assert.Equal(t, "Variation A", records[2][0])
	assert.Equal(t, "true", records[2][8])
	assert.Equal(t, "false", records[3][8])
}

func TestWriteDurationCurveXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteDurationCurveXLSX(&buf, sampleCurve(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Duration")
	require.NoError(t, err)
	require.Len(t, rows, 301)
	assert.Equal(t, report.DurationCurveHeader, rows[0])
	assert.Equal(t, "2996698", rows[1][2])
}

func TestWriteSignificanceXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteSignificanceXLSX(&buf, sampleReport(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Significance")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Control", rows[1][0])
}

func TestWriteSignificanceTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteSignificanceTable(&buf, sampleReport(t)))
	out := buf.String()

	for _, want := range []string{
		"VARIANT", "Control", "Variation A", "+30.00%", "Yes", "95% CI",
		"Chi-square (all variants)",
		"At least one variation is statistically significant at the 5% level.",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWriteDurationTable_CapsForDisplay(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteDurationTable(&buf, sampleCurve(t), 90))
	out := buf.String()

	assert.Contains(t, out, "10.00% TRAFFIC")
	assert.Contains(t, out, "50.00% TRAFFIC")
	assert.Contains(t, out, ">90 days")
	assert.Equal(t, 101, strings.Count(out, "\n"))
}

func TestWritePlan(t *testing.T) {
	cfg := stats.ExperimentConfig{BaselineRate: 0.05, MDE: 0.1, Alpha: 0.05, Power: 0.8, DailyVisitors: 1000, TrafficSplit: 0.5}
	plan, err := stats.PlanExperiment(cfg, stats.PlanOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WritePlan(&buf, plan, 90))
	assert.Contains(t, buf.String(), "31,234")
	assert.Contains(t, buf.String(), "63 days")
}

func TestCappedCurve_LeavesEngineValuesAlone(t *testing.T) {
	curve := sampleCurve(t)
	capped := report.CappedCurve(curve, 90)

	assert.Equal(t, 29967, curve[0].DurationDays)
	assert.Equal(t, 90, capped[0].DurationDays)
	for _, p := range capped {
		assert.LessOrEqual(t, p.DurationDays, 90)
	}
	assert.Equal(t, curve, report.CappedCurve(curve, 0))
}

func TestAnnotations(t *testing.T) {
	curve := sampleCurve(t)
	notes := report.Annotations(curve, []float64{0.01, 0.02, 0.05, 0.10}, 90)

	require.NotEmpty(t, notes)
	for _, n := range notes {
		assert.LessOrEqual(t, n.DurationDays, 90)
	}

	// 1% MDE never finishes within 90 days at 1,000 visitors a day.
	for _, n := range notes {
		assert.NotEqual(t, 0.01, n.MDE)
	}

	uncapped := report.Annotations(curve, []float64{0.01}, 0)
	assert.Len(t, uncapped, 3)

	none := report.Annotations(curve, []float64{0.5}, 0)
	assert.Empty(t, none)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0%", report.FormatPercent(0))
	assert.Equal(t, "13.00%", report.FormatPercent(0.13))
	assert.Equal(t, "999", report.FormatNumber(999))
	assert.Equal(t, "31,234", report.FormatNumber(31234))
	assert.Equal(t, "2,996,698", report.FormatNumber(2996698))
	assert.Equal(t, "1 day", report.FormatDays(1, 90))
	assert.Equal(t, ">90 days", report.FormatDays(91, 90))
	assert.Equal(t, "1,200 days", report.FormatDays(1200, 0))
}

func TestInterpretationPrompt(t *testing.T) {
	prompt, err := report.InterpretationPrompt(sampleReport(t), "")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Variation A")
	assert.Contains(t, prompt, "Significance Level: 5.00%")
	assert.Contains(t, prompt, "No experiment details provided.")

	prompt, err = report.InterpretationPrompt(sampleReport(t), "Goal: raise checkout completion.")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Goal: raise checkout completion.")
}
