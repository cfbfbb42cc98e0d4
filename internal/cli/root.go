package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gkobilansky/abkit/internal/config"
	"github.com/gkobilansky/abkit/internal/logging"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	cfg    = config.Default()
	logger = logging.Discard()
)

// envFlags maps global flags to the environment variables that default
// them. They are re-read after .env is loaded.
var envFlags = map[string]string{
	"db":        "ABKIT_DB_PATH",
	"config":    "ABKIT_CONFIG",
	"log-level": "ABKIT_LOG_LEVEL",
}

var rootCmd = &cobra.Command{
	Use:   "abkit",
	Short: "abkit - A/B test planning and significance analysis",
	Long: `abkit sizes A/B experiments and analyses their results.

It answers the questions a product manager asks around an experiment:
  - how many visitors each variant needs (plan)
  - how long that takes at different traffic splits (curve)
  - what the results might look like while it runs (simulate)
  - whether the observed difference is real (significance)

Results can be saved to a local SQLite history and served over HTTP.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("ABKIT_DB_PATH", "./abkit.db"), "database path")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", getEnvOrDefault("ABKIT_CONFIG", "./abkit.yaml"), "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", getEnvOrDefault("ABKIT_LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")
}

// setup loads .env, the config file and the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	for name, env := range envFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		if v := os.Getenv(env); v != "" {
			if err := f.Value.Set(v); err != nil {
				return fmt.Errorf("invalid %s: %w", env, err)
			}
		}
	}

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger = logging.New(cmd.ErrOrStderr(), level, logging.FormatText)
	slog.SetDefault(logger)

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	logger.Debug("configuration loaded", "path", configPath, "db", dbPath)
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
