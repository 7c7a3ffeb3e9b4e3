package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/wordday/internal/app"
	"github.com/at-ishikawa/wordday/internal/cli"
	"github.com/at-ishikawa/wordday/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := app.New(cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("app.New() > %w", err)
			}
			defer func() {
				_ = a.Close()
			}()

			db, err := a.DB()
			if err != nil {
				return err
			}
			applied, err := database.Migrate(cmd.Context(), db, slog.Default())
			if err != nil {
				return fmt.Errorf("database.Migrate() > %w", err)
			}

			printer := cli.NewPrinter(os.Stdout)
			if len(applied) == 0 {
				printer.Success("The database is up to date.")
				return nil
			}
			for _, version := range applied {
				printer.Success("Applied %s", version)
			}
			return nil
		},
	}
}
