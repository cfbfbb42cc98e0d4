package cli

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/abkit/internal/report"
	"github.com/gkobilansky/abkit/internal/stats"
	"github.com/gkobilansky/abkit/internal/store"
)

var (
	planFlags    experimentFlags
	planSimulate bool
	planSeed     uint64
	planDays     int
	planFormat   string
	planSave     saveFlags
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Size an experiment",
	Long: `Compute the sample size each variant needs and how long the experiment
will take, optionally simulating how the results could evolve.

Unset flags use the defaults from the config file.

Examples:
  abkit plan --baseline 0.05 --mde 0.10
  abkit plan --baseline 0.03 --mde 0.05 --daily 20000 --split 0.25
  abkit plan --simulate --seed 7 --format json`,
	RunE: runPlan,
}

func init() {
	addExperimentFlags(planCmd, &planFlags)
	planCmd.Flags().BoolVar(&planSimulate, "simulate", false, "simulate the experiment under each scenario")
	planCmd.Flags().Uint64Var(&planSeed, "seed", cfg.Defaults.Seed, "random seed for the simulation")
	planCmd.Flags().IntVar(&planDays, "days", 0, "days to simulate (default: the planned duration)")
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "table", "output format (table or json)")
	addSaveFlags(planCmd, &planSave)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if err := checkFormat(planFormat, "table", "json"); err != nil {
		return err
	}

	ec := planFlags.resolve(cmd)
	seed := cfg.Defaults.Seed
	if cmd.Flags().Changed("seed") {
		seed = planSeed
	}

	opts := stats.PlanOptions{Simulate: planSimulate, Days: planDays}
	if planSimulate {
		opts.Source = rand.NewPCG(seed, seed)
	}

	logger.Debug("planning experiment", "config", ec, "simulate", planSimulate)
	plan, err := stats.PlanExperiment(ec, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if planFormat == "json" {
		if err := printJSON(out, plan); err != nil {
			return err
		}
	} else {
		if err := report.WritePlan(out, plan, cfg.Display.MaxDurationDays); err != nil {
			return err
		}
		if len(plan.Scenarios) > 0 {
			summary, err := stats.SummarizeScenarios(plan.Scenarios)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			if err := report.WriteScenarioSummary(out, summary); err != nil {
				return err
			}
		}
	}

	return saveAnalysis(cmd, planSave, store.KindPlan, ec, plan)
}
