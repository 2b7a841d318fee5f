package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/paradigm/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "paradigm",
	Short: "Paradigm expands and runs behavioral experiment definitions",
	Long: `Paradigm reads experiment files (YAML or JSON) declaring states and trial blocks,
expands them into trial sequences, and runs them headless or behind an HTTP API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
}

// newLogger builds the command logger from the persistent flags. Logs go to stderr.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	asJSON, _ := cmd.Flags().GetBool("log-json")

	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(cmd.ErrOrStderr(), level, asJSON), nil
}
