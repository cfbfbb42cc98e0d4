package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the history API token",
	Long: `Show the token of the running server, for when you've scrolled past
the startup message.

Example:
  abkit token`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(tokenFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no server running. Start with: abkit serve")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return fmt.Errorf("token file is empty. Restart the server with: abkit serve")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Token: %s\n", token)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  curl -H 'Authorization: Bearer %s' http://localhost:%d/api/analyses\n", token, cfg.Server.Port)
	return nil
}
