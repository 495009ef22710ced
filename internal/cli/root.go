// Package cli wires the quadra commands: the API server, migrations and
// admin bootstrap.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"quadra/internal/config"
	"quadra/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "quadra",
	Short: "Backend for the club's games, roster and treasury",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is for local development; absence is fine in production.
		_ = godotenv.Load()

		logger := log.New(log.Config{
			Level:     slog.LevelInfo,
			Component: log.ComponentApp,
		})
		log.SetDefault(logger)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
