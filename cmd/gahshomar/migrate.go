package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/gahshomar/internal/database"
)

func newMigrateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.OpenNoMigrate(app.Config.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			app.Logger.Info("migrations applied", "db", app.Config.DBPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.OpenNoMigrate(app.Config.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Rollback(cmd.Context(), db); err != nil {
				return err
			}
			app.Logger.Info("migration rolled back", "db", app.Config.DBPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.OpenNoMigrate(app.Config.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			statuses, err := database.Status(cmd.Context(), db)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%05d  %-8s %s\n", s.Version, state, s.Source)
			}
			return nil
		},
	})

	return cmd
}
