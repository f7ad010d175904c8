package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sevigo/change-warden/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and print the schema version",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Opening the toolkit applies pending migrations.
		return withToolkit(func(_ context.Context, tk *app.Toolkit) error {
			version, dirty, err := tk.DB.MigrationVersion()
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(map[string]any{"driver": tk.DB.Driver, "version": version, "dirty": dirty})
			}
			if dirty {
				errorColor.Printf("✗ Schema version %d is dirty, fix it manually\n", version)
				return nil
			}
			successColor.Printf("✓ %s schema at version %d\n", tk.DB.Driver, version)
			return nil
		})
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(migrateCmd)
}
