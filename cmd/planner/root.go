package main

import (
	"os"

	"github.com/spf13/cobra"

	"campaign-builder/internal/config"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "planner",
		Short:         "Build paid-search keyword plans from a business description",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.SetupLogging(config.LogConfig{Level: logLevel, Format: "console"}, os.Stderr)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newGenerateCmd())
	return root
}
