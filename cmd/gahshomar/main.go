package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/gahshomar/internal/config"
	"github.com/dukerupert/gahshomar/internal/logging"
)

// App carries state shared by every subcommand.
type App struct {
	ConfigPath string
	Config     *config.Config
	Logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "gahshomar",
		Short:        "Jalali and Gregorian month calendar service",
		SilenceUsage: true,
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(app.ConfigPath)
		if err != nil {
			return err
		}
		app.Config = cfg
		app.Logger = logging.Setup(cfg.LogLevel, cfg.LogFormat)
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to a YAML config file (default $GAHSHOMAR_CONFIG)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newMonthCmd(app))
	cmd.AddCommand(newConvertCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
