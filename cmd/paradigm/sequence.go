package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/paradigm/internal/config"
	"github.com/aretw0/paradigm/internal/presentation/tui"
	"github.com/aretw0/paradigm/pkg/sequence"
	"github.com/spf13/cobra"
)

var sequenceCmd = &cobra.Command{
	Use:   "sequence <experiment>",
	Short: "Expand an experiment into its trial sequence",
	Long: `Expands every block of the experiment and prints the resulting trials.
Formats: table (default), json, markdown.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		exp, err := config.Load(args[0])
		if err != nil {
			return err
		}

		opts := []sequence.Option{sequence.WithLogger(logger)}
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetUint64("seed")
			opts = append(opts, sequence.WithSeed(seed))
		} else if exp.Seed == nil {
			seed := config.RandomSeed()
			logger.Info("no seed given, drew one", "seed", seed)
			opts = append(opts, sequence.WithSeed(seed))
		}

		seq, err := exp.NewSequencer(opts...)
		if err != nil {
			return err
		}
		trials := seq.Trials()
		out := cmd.OutOrStdout()

		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(trials)
		case "markdown", "md":
			md := tui.Markdown(exp.Name, trials)
			if out != os.Stdout || !tui.IsTerminal(os.Stdout) {
				_, err := fmt.Fprint(out, md)
				return err
			}
			render, err := tui.NewRenderer(tui.Width(os.Stdout))
			if err != nil {
				return err
			}
			rendered, err := render(md)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, rendered)
			return err
		case "table", "":
			return tui.Table(out, trials, out == os.Stdout && tui.IsTerminal(os.Stdout))
		}
		return fmt.Errorf("unknown format %q (want table, json or markdown)", format)
	},
}

func init() {
	rootCmd.AddCommand(sequenceCmd)
	sequenceCmd.Flags().StringP("format", "f", "table", "Output format: table, json, markdown")
	sequenceCmd.Flags().Uint64("seed", 0, "Shuffle seed (overrides the file's seed)")
}
