package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/gahshomar/internal/backup"
	"github.com/dukerupert/gahshomar/internal/database"
)

func newBackupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot and restore the calendar database",
	}

	var (
		dir    string
		upload bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Write a snapshot, encrypted when a backup passphrase is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config.Backup
			db, err := database.Open(app.Config.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			path := filepath.Join(dir, backup.FileName(time.Now(), cfg.Passphrase != ""))
			size, err := backup.Snapshot(cmd.Context(), db, path, cfg.Passphrase)
			if err != nil {
				return err
			}
			app.Logger.Info("snapshot written", "path", path, "bytes", size, "encrypted", cfg.Passphrase != "")

			if upload {
				if cfg.S3.Bucket == "" {
					return fmt.Errorf("upload requested but no backup s3 bucket is configured")
				}
				key, err := backup.Upload(cmd.Context(), backup.NewS3Client(cfg.S3), cfg.S3.Bucket, path)
				if err != nil {
					return err
				}
				app.Logger.Info("snapshot uploaded", "bucket", cfg.S3.Bucket, "key", key)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	create.Flags().StringVar(&dir, "dir", ".", "Directory to write the snapshot to")
	create.Flags().BoolVar(&upload, "upload", false, "Upload the snapshot to the configured S3 bucket")

	restore := &cobra.Command{
		Use:   "restore <snapshot>",
		Short: "Replace the database with a snapshot (stop the server first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := backup.Restore(cmd.Context(), args[0], app.Config.DBPath, app.Config.Backup.Passphrase); err != nil {
				return err
			}
			app.Logger.Info("database restored", "from", args[0], "db", app.Config.DBPath)
			return nil
		},
	}

	cmd.AddCommand(create, restore)
	return cmd
}
