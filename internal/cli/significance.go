package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/abkit/internal/narrative"
	"github.com/gkobilansky/abkit/internal/report"
	"github.com/gkobilansky/abkit/internal/stats"
	"github.com/gkobilansky/abkit/internal/store"
)

var (
	sigVariants    []string
	sigAlpha       float64
	sigInteractive bool
	sigContext     string
	sigNarrate     bool
	sigFormat      string
	sigSave        saveFlags
)

var significanceCmd = &cobra.Command{
	Use:     "significance",
	Aliases: []string{"sig", "results"},
	Short:   "Test observed results for statistical significance",
	Long: `Compare every variation against the control with a two-proportion
z-test, and all variants together with a chi-square test when there are
more than two.

The first --variant is the control.

Examples:
  abkit significance --variant Control:1000:100 --variant "Variation A":1000:130
  abkit significance -i
  abkit significance --variant A:5000:250 --variant B:5000:290 --format csv > results.csv`,
	RunE: runSignificance,
}

func init() {
	significanceCmd.Flags().StringArrayVarP(&sigVariants, "variant", "v", nil, "variant as name:visitors:conversions (repeatable, first is control)")
	significanceCmd.Flags().Float64Var(&sigAlpha, "alpha", cfg.Defaults.Alpha, "significance level")
	significanceCmd.Flags().BoolVarP(&sigInteractive, "interactive", "i", false, "enter variants interactively")
	significanceCmd.Flags().StringVar(&sigContext, "context", "", "experiment details for the interpretation")
	significanceCmd.Flags().BoolVar(&sigNarrate, "narrate", false, "ask a language model to interpret the results")
	significanceCmd.Flags().StringVarP(&sigFormat, "format", "f", "table", "output format (table, csv or json)")
	addSaveFlags(significanceCmd, &sigSave)
	rootCmd.AddCommand(significanceCmd)
}

// significanceInput is what gets saved alongside a report.
type significanceInput struct {
	Variants []stats.Variant `json:"variants"`
	Alpha    float64         `json:"alpha"`
	Context  string          `json:"context,omitempty"`
}

func runSignificance(cmd *cobra.Command, args []string) error {
	if err := checkFormat(sigFormat, "table", "csv", "json"); err != nil {
		return err
	}

	alpha := cfg.Defaults.Alpha
	if cmd.Flags().Changed("alpha") {
		alpha = sigAlpha
	}

	var set stats.VariantSet
	var err error
	if sigInteractive {
		set, alpha, err = promptVariantSet(cmd, cfg.Display.AlphaChoices)
	} else {
		set, err = parseVariantSet(sigVariants)
	}
	if err != nil {
		return err
	}

	rep, err := stats.ComputeSignificance(set, alpha)
	if err != nil {
		return err
	}

	if err := writeSignificance(cmd.OutOrStdout(), rep, sigFormat); err != nil {
		return err
	}

	if sigNarrate {
		n, err := narrative.NewOpenAINarrator(cfg.Narrative, logger)
		if err != nil {
			return err
		}
		text, err := narrative.Interpret(cmd.Context(), n, rep, sigContext)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), "INTERPRETATION")
		fmt.Fprintln(cmd.OutOrStdout(), text)
	}

	input := significanceInput{Variants: set.Variants(), Alpha: alpha, Context: sigContext}
	return saveAnalysis(cmd, sigSave, store.KindSignificance, input, rep)
}

func writeSignificance(out io.Writer, rep *stats.SignificanceReport, format string) error {
	switch format {
	case "csv":
		return report.WriteSignificanceCSV(out, rep)
	case "json":
		return printJSON(out, rep)
	default:
		return report.WriteSignificanceTable(out, rep)
	}
}

// parseVariantSet builds a set from name:visitors:conversions specs. The
// first spec is the control.
func parseVariantSet(specs []string) (stats.VariantSet, error) {
	if len(specs) < 2 {
		return stats.VariantSet{}, fmt.Errorf("%w: need at least 2 --variant flags (or use --interactive)", stats.ErrInvalidInput)
	}
	variants := make([]stats.Variant, len(specs))
	for i, spec := range specs {
		v, err := parseVariant(spec)
		if err != nil {
			return stats.VariantSet{}, err
		}
		variants[i] = v
	}
	return stats.NewVariantSet(variants[0], variants[1:]...)
}

// parseVariant reads name:visitors:conversions. The name may itself
// contain colons; the last two fields are the counts.
func parseVariant(spec string) (stats.Variant, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 {
		return stats.Variant{}, fmt.Errorf("%w: variant %q must be name:visitors:conversions", stats.ErrInvalidInput, spec)
	}
	n := len(parts)
	name := strings.TrimSpace(strings.Join(parts[:n-2], ":"))

	visitors, err := parseCount(parts[n-2])
	if err != nil {
		return stats.Variant{}, fmt.Errorf("%w: variant %q: visitors: %v", stats.ErrInvalidInput, spec, err)
	}
	conversions, err := parseCount(parts[n-1])
	if err != nil {
		return stats.Variant{}, fmt.Errorf("%w: variant %q: conversions: %v", stats.ErrInvalidInput, spec, err)
	}
	return stats.Variant{Name: name, Visitors: visitors, Conversions: conversions}, nil
}

func parseCount(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(s)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			return 0, numErr.Err
		}
		return 0, err
	}
	return n, nil
}
