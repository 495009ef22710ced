package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"quadra/internal/services"
	"quadra/internal/storage"
)

var bootstrapEmail string

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative operations",
}

// bootstrapCmd grants the admin role to a registered member from the
// command line. A fresh deployment has no admins, so the first one cannot
// be promoted through the API.
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Grant the admin role to a member by email",
	RunE: func(cmd *cobra.Command, args []string) error {
		if bootstrapEmail == "" {
			return errors.New("--email is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return err
		}
		defer repo.Close()

		m, err := services.NewMemberService(repo).BootstrapAdmin(cmd.Context(), bootstrapEmail)
		if err != nil {
			return err
		}
		slog.Info("Admin role granted", "member_id", m.ID, "email", m.Email)
		return nil
	},
}

func init() {
	bootstrapCmd.Flags().StringVar(&bootstrapEmail, "email", "", "email of the member to promote")
	adminCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(adminCmd)
}
