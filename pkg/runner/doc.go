/*
Package runner is the thin driver that ties the state machine and the trial sequence
together for one experiment session.

A Runner owns one machine.Machine and one sequence.Sequencer. Every frame the host calls a
StepFunc that polls the machine, begins and finishes trials, and fills the active
TrialRecord with measured data. Templates in the sequence are never modified: Begin hands
out a deep copy, and Finish saves that copy through a ports.TrialStore keyed by trial
number. Every state transition is stamped onto the active record.

# Usage

	seq := sequence.New(sequence.WithSeed(7))
	_ = seq.Build(blocks)

	r, err := runner.New([]string{"START", "TRIAL", "DONE"}, seq,
		runner.WithStore(memory.NewStore()),
	)
	if err != nil {
		log.Fatal(err)
	}

	err = r.Run(ctx, time.Second/60, func(ctx context.Context, r *runner.Runner) error {
		m := r.Machine()
		switch {
		case m.Is("START"):
			if _, err := r.Begin(ctx); err != nil {
				return err
			}
			m.NextTo("TRIAL")
		case m.Is("TRIAL") && m.Expired(time.Second):
			m.NextTo("START")
			return r.Finish(ctx)
		}
		return nil
	})
*/
package runner
