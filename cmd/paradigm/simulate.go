package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/paradigm/internal/cli"
	"github.com/aretw0/paradigm/internal/config"
	"github.com/aretw0/paradigm/internal/presentation/tui"
	"github.com/aretw0/paradigm/pkg/session"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <experiment>",
	Short: "Run every trial headless on a virtual clock",
	Long: `Runs the experiment frame by frame on a virtual clock: each trial walks the
configured phases, interrupts are pushed on schedule, and every finished trial is saved
to the selected store.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		exp, err := config.Load(args[0])
		if err != nil {
			return err
		}

		storeOpts, err := storeOptions(cmd)
		if err != nil {
			return err
		}
		sessions, closeStore, err := cli.OpenSessions(storeOpts, session.WithLogger(logger))
		if err != nil {
			return err
		}
		defer closeStore()

		opts := cli.SimulateOptions{Sessions: sessions, Logger: logger}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Resume, _ = cmd.Flags().GetBool("resume")
		opts.Frame, _ = cmd.Flags().GetDuration("frame")
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetUint64("seed")
			opts.Seed = &seed
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		out := cmd.OutOrStdout()
		if !quiet {
			tui.PrintBanner(out, versionString())
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Stop()

		res, err := cli.Simulate(sigCtx, exp, opts)
		if errors.Is(err, context.Canceled) && res != nil && sigCtx.Signal() != nil {
			fmt.Fprintf(out, ">>> Interrupted by %v after %d trials.\n", sigCtx.Signal(), res.Trials)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, ">>> Session %s: %d trials saved", res.SessionID, res.Trials)
		if res.Skipped > 0 {
			fmt.Fprintf(out, " (%d resumed)", res.Skipped)
		}
		fmt.Fprintf(out, ", %d interrupts, %v simulated in %d frames (seed %d).\n",
			res.Interrupts, res.Elapsed, res.Frames, res.Seed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	addStoreFlags(simulateCmd)
	simulateCmd.Flags().String("session", "", "Session ID (default: random UUID)")
	simulateCmd.Flags().Bool("resume", false, "Skip trials already saved under the session")
	simulateCmd.Flags().Uint64("seed", 0, "Shuffle seed (overrides the file's seed)")
	simulateCmd.Flags().Duration("frame", cli.DefaultFrame, "Virtual frame duration")
	simulateCmd.Flags().BoolP("quiet", "q", false, "Suppress the banner")
}
