package main

import (
	"fmt"
	"io"

	"github.com/aretw0/paradigm/internal/cli"
	"github.com/aretw0/paradigm/internal/config"
	"github.com/aretw0/paradigm/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <experiment>",
	Short: "Check an experiment file for consistency",
	Long: `Checks states, phases and interrupts, factor types against each block's schema,
and factor lengths, without expanding the sequence.
With --watch, checks again on every save until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return validate(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		}

		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Stop()

		return cli.Watch(sigCtx, args[0], func() error {
			err := validate(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Waiting for changes...")
			return err
		}, cli.WatchOptions{Logger: logger})
	},
}

func validate(out, errOut io.Writer, path string) error {
	exp, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := exp.Validate(); err != nil {
		for _, verr := range schema.ValidationErrors(err) {
			fmt.Fprintf(errOut, "  - %v\n", verr)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "Experiment %q is valid: %d states, %d blocks.\n",
		exp.Name, len(exp.States), len(exp.Blocks))
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolP("watch", "w", false, "Validate again whenever the file changes")
}
