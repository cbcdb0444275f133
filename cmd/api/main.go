package main

import (
	"os"

	"github.com/spf13/cobra"

	"listingboard/internal/config"
	"listingboard/internal/logging"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "listingboard",
	Short: "Classifieds API: accounts, listings and listing images",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// setting up config
		cfg = config.LoadConfig()
		logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

		return cfg.Validate()
	},
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Error().Err(err).Msg("listingboard failed")
		os.Exit(1)
	}
}
