package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/abkit/internal/report"
	"github.com/gkobilansky/abkit/internal/stats"
	"github.com/gkobilansky/abkit/internal/store"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a saved analysis",
	Long: `Export a saved analysis as CSV, JSON or XLSX.

JSON exports the whole saved record. CSV and XLSX export the result table:
the variant comparison, the duration curve or the scenario series.

Examples:
  abkit export 3f2a... --format csv > results.csv
  abkit export 3f2a... --format xlsx --out ab_test_duration_mde_data.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv, json or xlsx)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := checkFormat(exportFormat, "csv", "json", "xlsx"); err != nil {
		return err
	}

	return withStore(func(s *store.SQLiteStore) error {
		a, err := getAnalysis(cmd, s, args[0])
		if err != nil {
			return err
		}

		out, closeOut, err := openOutput(cmd, exportOut)
		if err != nil {
			return err
		}
		err = exportAnalysis(out, a, exportFormat)
		if cerr := closeOut(); err == nil {
			err = cerr
		}
		return err
	})
}

func exportAnalysis(out io.Writer, a *store.Analysis, format string) error {
	if format == "json" {
		return printJSON(out, a)
	}

	switch a.Kind {
	case store.KindSignificance:
		var rep stats.SignificanceReport
		if err := json.Unmarshal(a.Result, &rep); err != nil {
			return fmt.Errorf("failed to decode report: %w", err)
		}
		if format == "xlsx" {
			return report.WriteSignificanceXLSX(out, &rep)
		}
		return report.WriteSignificanceCSV(out, &rep)

	case store.KindCurve:
		var curve stats.DurationCurve
		if err := json.Unmarshal(a.Result, &curve); err != nil {
			return fmt.Errorf("failed to decode curve: %w", err)
		}
		if format == "xlsx" {
			return report.WriteDurationCurveXLSX(out, curve)
		}
		return report.WriteDurationCurveCSV(out, curve)

	case store.KindScenarios, store.KindPlan:
		var run struct {
			Series    stats.ScenarioSeries `json:"series"`
			Scenarios stats.ScenarioSeries `json:"scenarios"`
		}
		if err := json.Unmarshal(a.Result, &run); err != nil {
			return fmt.Errorf("failed to decode scenarios: %w", err)
		}
		series := run.Series
		if a.Kind == store.KindPlan {
			series = run.Scenarios
		}
		if len(series) == 0 || format != "csv" {
			return fmt.Errorf("%s analyses export as json, or csv when they include a simulation", a.Kind)
		}
		return report.WriteScenarioCSV(out, series)
	}

	return fmt.Errorf("cannot export analysis of kind %q", a.Kind)
}
