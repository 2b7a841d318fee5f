// Package config loads experiment definitions from YAML or JSON files.
//
// Documents are decoded into a generic map first and then mapped onto Experiment with
// mapstructure, so both formats share the same keys, weak number conversion and duration
// parsing. Block specs convert to domain blocks through BlockSpec.ToBlock, which checks
// factor types against the block's optional schema.
package config
