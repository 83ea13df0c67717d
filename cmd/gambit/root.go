package main

import (
	"github.com/spf13/cobra"

	"gambit/internal/logging"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var (
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "gambit",
	Short: "Goal-oriented action planning engine",
	Long: `gambit plans ordered action sequences toward symbolic goals.

Action and goal libraries are authored in YAML, validated before use, and
planned against world snapshots. Histories of action outcomes feed learned
success estimates back into planning. The serve command exposes the same
engine to LLM tooling as an MCP server over stdio.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		logging.Init(level, flagLogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(serveCmd)

	rootCmd.Version = version
}
