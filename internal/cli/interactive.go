package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/gkobilansky/abkit/internal/report"
	"github.com/gkobilansky/abkit/internal/stats"
)

// promptVariantSet asks for the control, then variations until the user
// stops, then the significance level.
func promptVariantSet(cmd *cobra.Command, alphaChoices []float64) (stats.VariantSet, float64, error) {
	control, err := promptVariant("Control", "Control")
	if err != nil {
		return stats.VariantSet{}, 0, err
	}

	var treatments []stats.Variant
	for {
		v, err := promptVariant(fmt.Sprintf("Variation %d", len(treatments)+1), stats.DefaultVariantName(len(treatments)))
		if err != nil {
			return stats.VariantSet{}, 0, err
		}
		treatments = append(treatments, v)

		more, err := promptYesNo("Add another variation?")
		if err != nil {
			return stats.VariantSet{}, 0, err
		}
		if !more {
			break
		}
	}

	set, err := stats.NewVariantSet(control, treatments...)
	if err != nil {
		return stats.VariantSet{}, 0, err
	}

	alpha, err := promptAlpha(alphaChoices)
	if err != nil {
		return stats.VariantSet{}, 0, err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return set, alpha, nil
}

func promptVariant(label, defaultName string) (stats.Variant, error) {
	name, err := run(&promptui.Prompt{
		Label:   label + " name",
		Default: defaultName,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("name must not be empty")
			}
			return nil
		},
	})
	if err != nil {
		return stats.Variant{}, err
	}

	visitors, err := promptCount(label+" visitors", 1)
	if err != nil {
		return stats.Variant{}, err
	}
	conversions, err := promptCount(label+" conversions", 0)
	if err != nil {
		return stats.Variant{}, err
	}

	return stats.Variant{Name: strings.TrimSpace(name), Visitors: visitors, Conversions: conversions}, nil
}

func promptCount(label string, least int) (int, error) {
	validate := func(s string) error {
		n, err := parseCount(s)
		if err != nil {
			return errors.New("enter a whole number")
		}
		if n < least {
			return fmt.Errorf("must be at least %d", least)
		}
		return nil
	}

	s, err := run(&promptui.Prompt{Label: label, Validate: validate})
	if err != nil {
		return 0, err
	}
	return parseCount(s)
}

func promptYesNo(label string) (bool, error) {
	prompt := promptui.Select{
		Label: label,
		Items: []string{"No", "Yes"},
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return false, interrupted(err)
	}
	return idx == 1, nil
}

func promptAlpha(choices []float64) (float64, error) {
	if len(choices) == 0 {
		return cfg.Defaults.Alpha, nil
	}

	items := make([]string, len(choices))
	cursor := 0
	for i, a := range choices {
		items[i] = fmt.Sprintf("%s (%s confidence)", report.FormatPercent(a), report.FormatPercent(1-a))
		if a == cfg.Defaults.Alpha {
			cursor = i
		}
	}

	prompt := promptui.Select{
		Label:     "Significance level",
		Items:     items,
		CursorPos: cursor,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return 0, interrupted(err)
	}
	return choices[idx], nil
}

func run(p *promptui.Prompt) (string, error) {
	s, err := p.Run()
	if err != nil {
		return "", interrupted(err)
	}
	return s, nil
}

func interrupted(err error) error {
	if err == promptui.ErrInterrupt {
		os.Exit(0)
	}
	return err
}
