package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"interviewprep/internal/gateway/app"
	sessionrepo "interviewprep/internal/gateway/repository/session"
	"interviewprep/internal/observability"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the session schema in DATABASE_URL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return fmt.Errorf("database url is required")
		}
		db, err := app.OpenDatabase(cmd.Context(), cfg.DatabaseURL, cfg.DatabaseConnectTimeout)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := sessionrepo.NewPostgresStore(db).Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		observability.Logger().Info("session schema is up to date")
		return nil
	},
}
