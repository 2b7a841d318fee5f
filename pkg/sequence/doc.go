/*
Package sequence expands declarative block specifications into the ordered list of
trials an experiment runs.

Each block names its factors (one value per base trial, or a scalar broadcast to all of
them) and how often and in which order to run them. A Sequencer turns a list of blocks
into a flat sequence, tagging every trial with its block name, block index and cycle
(one cycle per block repetition, counted across the whole sequence).

Ordering strategies:

  - Identity: declared order (default).
  - Shuffle: uniform random permutation per repetition. Wins over a custom order.
  - Custom: any function over the identity permutation.

Shuffled blocks can ask for NoConsecutiveRepeats on a set of factors. By default only the
boundary between repetitions is checked; StrictNoRepeats also checks every adjacent pair.
*/
package sequence
