package main

import (
	"context"
	"fmt"

	"github.com/aretw0/paradigm/internal/cli"
	"github.com/aretw0/paradigm/internal/config"
	"github.com/aretw0/paradigm/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <experiment>",
	Short: "Print the trial loop as a Mermaid diagram",
	Long: `Prints the experiment's states, phase loop and interrupts as a Mermaid flowchart.
With --session and --trial, the states that stored trial went through are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := config.Load(args[0])
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID != "" {
			trial, _ := cmd.Flags().GetInt("trial")
			storeOpts, err := storeOptions(cmd)
			if err != nil {
				return err
			}
			store, closeStore, err := cli.OpenStore(storeOpts)
			if err != nil {
				return err
			}
			defer closeStore()

			rec, err := store.Load(context.Background(), sessionID, trial)
			if err != nil {
				return fmt.Errorf("failed to load trial %d of session %s: %w", trial, sessionID, err)
			}
			overlay = graph.OverlayFromRecord(rec)
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(exp, overlay))
		return err
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addStoreFlags(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight a stored trial of this session")
	graphCmd.Flags().Int("trial", 0, "Trial number to highlight")
}
