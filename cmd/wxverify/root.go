package main

import (
	"github.com/spf13/cobra"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "wxverify",
		Short: "wxverify verifies historical rainfall for a place and date",
		Long: `wxverify resolves a place name, fetches that day's archived weather from
Open-Meteo, and reports whether significant rain (more than 5 mm) fell.

Endpoints, timeouts and the history window are read from the same
environment variables (or .env file) as the verify service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "log format: text|json")

	root.AddCommand(newReportCmd(&flags))
	return root
}
