package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/paradigm"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of paradigm",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "paradigm version %s\n", strings.TrimSpace(paradigm.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func versionString() string {
	return "v" + strings.TrimPrefix(strings.TrimSpace(paradigm.Version), "v")
}
