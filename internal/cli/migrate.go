package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"quadra/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			return err
		}
		slog.Info("Migrations applied", "db_path", cfg.SQLiteDBPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
