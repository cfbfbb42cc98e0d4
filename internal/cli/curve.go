package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/abkit/internal/report"
	"github.com/gkobilansky/abkit/internal/stats"
	"github.com/gkobilansky/abkit/internal/store"
)

var (
	curveFlags    experimentFlags
	curveMDEMin   float64
	curveMDEMax   float64
	curveMDESteps int
	curveSplits   []float64
	curveFormat   string
	curveOut      string
	curveSave     saveFlags
)

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Show how duration trades off against effect size and traffic",
	Long: `Compute the experiment duration for every combination of minimum
detectable effect and traffic split.

Table output caps durations at the display limit from the config file;
CSV and XLSX carry the uncapped values.

Examples:
  abkit curve --baseline 0.05 --daily 5000
  abkit curve --splits 0.1,0.25,0.5 --format csv > ab_test_duration_mde_data.csv
  abkit curve --format xlsx --out curve.xlsx`,
	RunE: runCurve,
}

func init() {
	addExperimentFlags(curveCmd, &curveFlags)
	c := cfg.Curve
	curveCmd.Flags().Float64Var(&curveMDEMin, "mde-min", c.MDEMin, "smallest MDE in the sweep")
	curveCmd.Flags().Float64Var(&curveMDEMax, "mde-max", c.MDEMax, "largest MDE in the sweep")
	curveCmd.Flags().IntVar(&curveMDESteps, "mde-steps", c.MDESteps, "number of MDE points")
	curveCmd.Flags().Float64SliceVar(&curveSplits, "splits", c.TrafficSplits, "traffic splits to compare")
	curveCmd.Flags().StringVarP(&curveFormat, "format", "f", "table", "output format (table, csv or xlsx)")
	curveCmd.Flags().StringVarP(&curveOut, "out", "o", "", "write to file instead of stdout")
	addSaveFlags(curveCmd, &curveSave)
	rootCmd.AddCommand(curveCmd)
}

// curveInput is what gets saved alongside a curve.
type curveInput struct {
	stats.ExperimentConfig
	MDEs          []float64 `json:"mdes"`
	TrafficSplits []float64 `json:"traffic_splits"`
}

func runCurve(cmd *cobra.Command, args []string) error {
	if err := checkFormat(curveFormat, "table", "csv", "xlsx"); err != nil {
		return err
	}

	ec := curveFlags.resolve(cmd)
	mdes, splits := curveAxes(cmd)

	curve, err := stats.GenerateDurationCurve(ec, mdes, splits)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd, curveOut)
	if err != nil {
		return err
	}

	maxDays := cfg.Display.MaxDurationDays
	switch curveFormat {
	case "csv":
		err = report.WriteDurationCurveCSV(out, curve)
	case "xlsx":
		err = report.WriteDurationCurveXLSX(out, curve)
	default:
		err = writeCurveTable(out, curve, maxDays)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	return saveAnalysis(cmd, curveSave, store.KindCurve, curveInput{ec, mdes, splits}, curve)
}

// curveAxes layers explicitly set sweep flags over the config.
func curveAxes(cmd *cobra.Command) (mdes, splits []float64) {
	c := cfg.Curve
	set := cmd.Flags().Changed
	if set("mde-min") {
		c.MDEMin = curveMDEMin
	}
	if set("mde-max") {
		c.MDEMax = curveMDEMax
	}
	if set("mde-steps") {
		c.MDESteps = curveMDESteps
	}
	if set("splits") {
		c.TrafficSplits = curveSplits
	}
	return stats.Linspace(c.MDEMin, c.MDEMax, c.MDESteps), c.TrafficSplits
}

func writeCurveTable(out io.Writer, curve stats.DurationCurve, maxDays int) error {
	if err := report.WriteDurationTable(out, curve, maxDays); err != nil {
		return err
	}

	notes := report.Annotations(curve, cfg.Display.AnnotationMDEs, maxDays)
	if len(notes) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "KEY POINTS")
	for _, n := range notes {
		fmt.Fprintf(out, "  %s MDE at %s traffic: %s\n",
			report.FormatPercent(n.MDE), report.FormatPercent(n.TrafficSplit), report.FormatDays(n.DurationDays, maxDays))
	}
	return nil
}
