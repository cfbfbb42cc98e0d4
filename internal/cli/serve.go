package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gkobilansky/abkit/internal/logging"
	"github.com/gkobilansky/abkit/internal/narrative"
	"github.com/gkobilansky/abkit/internal/server"
	"github.com/gkobilansky/abkit/internal/store"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the abkit HTTP API.

The server provides:
  - JSON endpoints for significance, sample size, duration, curves,
    scenarios and plans, with CSV and XLSX downloads
  - The saved analyses history (token protected)
  - Prometheus metrics at /metrics
  - Health check at /health

Interpretation is enabled when the API key named in the config is set.

Example:
  abkit serve --port 8080`,
	RunE: runServe,
}

func init() {
	defaultPort := 0
	if p := os.Getenv("ABKIT_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			defaultPort = parsed
		}
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", defaultPort, "port to listen on (default: config server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	serverLogger := logging.New(cmd.ErrOrStderr(), level, logging.FormatJSON)

	return withStore(func(s *store.SQLiteStore) error {
		serverCfg := cfg
		if port != 0 {
			serverCfg.Server.Port = port
		}

		opts := []server.Option{
			server.WithLogger(serverLogger),
			server.WithTokenFile(tokenFilePath()),
		}
		n, err := narrative.NewOpenAINarrator(cfg.Narrative, serverLogger)
		switch {
		case err == nil:
			opts = append(opts, server.WithNarrator(n))
		case errors.Is(err, narrative.ErrNotConfigured):
			serverLogger.Info("interpretation disabled", "reason", err.Error())
		default:
			return err
		}

		srv := server.New(s, serverCfg, opts...)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprintf(out, "abkit running on http://localhost:%d\n", srv.Port())
		fmt.Fprintf(out, "History API token: %s\n", srv.Token())
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Press Ctrl+C to stop")

		return srv.Start(cmd.Context())
	})
}
