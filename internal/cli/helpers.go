package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/abkit/internal/stats"
	"github.com/gkobilansky/abkit/internal/store"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// tokenFilePath returns the path to the token file, kept alongside the
// database.
func tokenFilePath() string {
	return filepath.Join(filepath.Dir(dbPath), ".abkit-token")
}

func printJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// openOutput returns the file at path, or stdout when path is empty.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be one of %v", format, allowed)
}

// experimentFlags are the sizing inputs shared by plan, curve and
// simulate. Flags left unset fall back to the config defaults.
type experimentFlags struct {
	baseline float64
	mde      float64
	alpha    float64
	power    float64
	daily    int
	split    float64
}

func addExperimentFlags(cmd *cobra.Command, f *experimentFlags) {
	d := cfg.Defaults
	cmd.Flags().Float64Var(&f.baseline, "baseline", d.BaselineRate, "baseline conversion rate (0.05 = 5%)")
	cmd.Flags().Float64Var(&f.mde, "mde", d.MDE, "minimum detectable effect, relative (0.10 = +10%)")
	cmd.Flags().Float64Var(&f.alpha, "alpha", d.Alpha, "significance level")
	cmd.Flags().Float64Var(&f.power, "power", d.Power, "statistical power")
	cmd.Flags().IntVar(&f.daily, "daily", d.DailyVisitors, "daily visitors to the experiment")
	cmd.Flags().Float64Var(&f.split, "split", d.TrafficSplit, "share of traffic per variant, at most 0.5")
}

// resolve layers explicitly set flags over the loaded config.
func (f experimentFlags) resolve(cmd *cobra.Command) stats.ExperimentConfig {
	ec := cfg.ExperimentConfig()
	set := cmd.Flags().Changed
	if set("baseline") {
		ec.BaselineRate = f.baseline
	}
	if set("mde") {
		ec.MDE = f.mde
	}
	if set("alpha") {
		ec.Alpha = f.alpha
	}
	if set("power") {
		ec.Power = f.power
	}
	if set("daily") {
		ec.DailyVisitors = f.daily
	}
	if set("split") {
		ec.TrafficSplit = f.split
	}
	return ec
}

// saveFlags ask a command to keep its result in the history.
type saveFlags struct {
	save  bool
	name  string
	owner string
}

func addSaveFlags(cmd *cobra.Command, f *saveFlags) {
	cmd.Flags().BoolVar(&f.save, "save", false, "save the result to the history")
	cmd.Flags().StringVar(&f.name, "name", "", "name for the saved analysis")
	cmd.Flags().StringVar(&f.owner, "owner", getEnvOrDefault("ABKIT_OWNER", ""), "owner of the saved analysis")
}

// saveAnalysis stores the result when asked and reports the new ID on
// stderr so stdout stays clean for piping.
func saveAnalysis(cmd *cobra.Command, f saveFlags, kind store.Kind, input, result any) error {
	if !f.save {
		return nil
	}
	return withStore(func(s *store.SQLiteStore) error {
		a, err := s.SaveAnalysis(cmd.Context(), f.owner, kind, f.name, input, result)
		if err != nil {
			return err
		}
		logger.Info("analysis saved", "id", a.ID, "kind", kind)
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved analysis %s\n", a.ID)
		return nil
	})
}
