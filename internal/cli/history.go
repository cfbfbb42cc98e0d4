package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/abkit/internal/store"
)

var historyOwner string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved analyses",
	Long: `List analyses saved with --save, newest first.

Examples:
  abkit history
  abkit history --owner pm@example.com
  abkit history show <id>
  abkit history delete <id>`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved analysis as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyCmd.Flags().StringVar(&historyOwner, "owner", "", "only show analyses saved by this owner")
	historyCmd.AddCommand(historyShowCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		analyses, err := s.ListAnalyses(cmd.Context(), historyOwner)
		if err != nil {
			return fmt.Errorf("failed to list analyses: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(analyses) == 0 {
			fmt.Fprintln(out, "No saved analyses yet.")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Add --save to significance, plan, curve or simulate to keep a result.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tNAME\tOWNER\tCREATED")
		for _, a := range analyses {
			name := a.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				a.ID,
				a.Kind,
				name,
				a.Owner,
				a.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		a, err := getAnalysis(cmd, s, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), a)
	})
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		if err := s.DeleteAnalysis(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("analysis '%s' not found", args[0])
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted analysis %s\n", args[0])
		return nil
	})
}

func getAnalysis(cmd *cobra.Command, s *store.SQLiteStore, id string) (*store.Analysis, error) {
	a, err := s.GetAnalysis(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("analysis '%s' not found", id)
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}
