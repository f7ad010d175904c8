package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var outputJSON bool

var rootCmd = &cobra.Command{
	Use:   "warden-cli",
	Short: "warden-cli is the command-line interface for change-warden.",
	Long: `A CLI for operating change-warden: submit changes for review, inspect stored
reviews and the review ledger, and manage the database schema.

Configuration is read from .env and the environment, exactly like the server.`,
	SilenceUsage: true,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Print results as JSON")
}

// initConfig reads in ENV variables if set.
func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
