/*
Package paradigm is a toolkit for running behavioral experiments: a state machine that
paces each trial and a trial sequencer that expands declarative blocks into the ordered
list of trials to run.

# Concepts

An experiment declares its states (phases such as HOME, REACH, FEEDBACK, plus interrupt
states such as BLOCKED) and its blocks. A block lists factors, each either one value per
trial or a scalar shared by all, with a repetition count and an ordering policy.
The sequencer expands blocks into trial templates tagged with block name, block index and
cycle. The runner hands out a deep copy of each template for the running trial, stamps
every state transition onto it and saves it when the trial finishes.

# Usage

	exp, err := paradigm.New("experiment.yaml",
		paradigm.WithStore(memory.NewStore()),
	)
	if err != nil {
		log.Fatal(err)
	}

	r, err := exp.NewRunner()
	if err != nil {
		log.Fatal(err)
	}

	// Called once per frame by the host.
	step := func(ctx context.Context, r *runner.Runner) error {
		m := r.Machine()
		switch {
		case m.Is("HOME"):
			if _, err := r.Begin(ctx); err != nil {
				return err
			}
			m.NextTo("REACH")
		case m.Is("REACH") && m.Expired(time.Second):
			m.NextTo("HOME")
			return r.Finish(ctx)
		}
		return nil
	}

Blocks can also be declared in Go with the dsl package and passed with WithStates and
WithBlocks, in which case no file is read.
*/
package paradigm
