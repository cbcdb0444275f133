package main

import (
	"github.com/spf13/cobra"

	"listingboard/internal/database"
	"listingboard/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = cfg.DB.MigrationsPath
		}

		db, err := database.ConnectDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.CloseDB(); err != nil {
				logging.Error().Err(err).Msg("close database")
			}
		}()

		return db.RunMigrations(cmd.Context(), path)
	},
}

func init() {
	migrateCmd.Flags().String("file", "", "migration file (overrides MIGRATIONS_PATH)")
}
