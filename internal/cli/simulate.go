package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/abkit/internal/report"
	"github.com/gkobilansky/abkit/internal/stats"
	"github.com/gkobilansky/abkit/internal/store"
)

var (
	simFlags  experimentFlags
	simDays   int
	simSeed   uint64
	simFormat string
	simSave   saveFlags
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate how results could evolve during the experiment",
	Long: `Simulate daily cumulative conversion rates for the control and the
treatment under three scenarios: the expected effect, no effect, and a
negative effect of half the MDE.

The same seed always produces the same series.

Examples:
  abkit simulate --baseline 0.05 --mde 0.10 --days 30
  abkit simulate --seed 7 --format csv > scenarios.csv`,
	RunE: runSimulate,
}

func init() {
	addExperimentFlags(simulateCmd, &simFlags)
	simulateCmd.Flags().IntVar(&simDays, "days", 0, "days to simulate (default: the planned duration)")
	simulateCmd.Flags().Uint64Var(&simSeed, "seed", cfg.Defaults.Seed, "random seed")
	simulateCmd.Flags().StringVarP(&simFormat, "format", "f", "table", "output format (table or csv)")
	addSaveFlags(simulateCmd, &simSave)
	rootCmd.AddCommand(simulateCmd)
}

// scenarioRun is the saved form of a simulation.
type scenarioRun struct {
	Days    int                     `json:"days"`
	Seed    uint64                  `json:"seed"`
	Series  stats.ScenarioSeries    `json:"series"`
	Summary []stats.ScenarioSummary `json:"summary"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if err := checkFormat(simFormat, "table", "csv"); err != nil {
		return err
	}

	ec := simFlags.resolve(cmd)
	seed := cfg.Defaults.Seed
	if cmd.Flags().Changed("seed") {
		seed = simSeed
	}

	days := simDays
	if days == 0 {
		plan, err := stats.PlanExperiment(ec, stats.PlanOptions{})
		if err != nil {
			return err
		}
		days = plan.DurationDays
		logger.Info("simulating the planned duration", "days", days)
	}

	series, err := stats.SimulateScenariosSeed(ec, days, seed)
	if err != nil {
		return err
	}
	summary, err := stats.SummarizeScenarios(series)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if simFormat == "csv" {
		if err := report.WriteScenarioCSV(out, series); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Simulated %s per variant per day for %s (seed %d)\n\n",
			report.FormatNumber(stats.VisitorsPerVariant(ec)), report.FormatDays(days, 0), seed)
		if err := report.WriteScenarioSummary(out, summary); err != nil {
			return err
		}
	}

	run := scenarioRun{Days: days, Seed: seed, Series: series, Summary: summary}
	return saveAnalysis(cmd, simSave, store.KindScenarios, ec, run)
}
