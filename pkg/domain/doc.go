/*
Package domain contains the core types of the paradigm experiment engine.

It defines the vocabulary shared by the state machine, the trial sequencer and the
driver loop. This package is kept pure and free of external dependencies like I/O or
persistence.

# Key Entities

  - State / StateSet: Declared experiment phases and their stable indices.
  - Block: Factor template plus sequencing options (repetitions, shuffle, ordering).
  - Trial: Immutable template emitted by the sequencer.
  - TrialRecord: Mutable per-run working copy of a Trial, filled in by the driver.
*/
package domain
