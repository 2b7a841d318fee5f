package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Experiment is the file form of an experiment: its phases, interrupts and blocks.
type Experiment struct {
	Name string `mapstructure:"name" json:"name"`

	// Seed makes shuffled blocks reproducible. Nil means a fresh random seed per run.
	Seed *uint64 `mapstructure:"seed" json:"seed,omitempty"`

	// States declares the state machine; the first one is the initial state.
	States []string `mapstructure:"states" json:"states"`

	// Phases is the per-trial script run by simulate: each phase is entered in order
	// and held for its duration.
	Phases []Phase `mapstructure:"phases" json:"phases,omitempty"`

	Interrupts []Interrupt `mapstructure:"interrupts" json:"interrupts,omitempty"`
	Blocks     []BlockSpec `mapstructure:"blocks" json:"blocks"`
}

// Phase is one step of the per-trial script.
type Phase struct {
	State    string        `mapstructure:"state" json:"state"`
	Duration time.Duration `mapstructure:"duration" json:"duration"`
}

// Interrupt pushes State every Every trials, during the phase named After, and pops it
// once Duration has elapsed.
type Interrupt struct {
	State    string        `mapstructure:"state" json:"state"`
	After    string        `mapstructure:"after" json:"after"`
	Every    int           `mapstructure:"every" json:"every"`
	Duration time.Duration `mapstructure:"duration" json:"duration"`
}

// BlockSpec is the file form of a domain.Block.
type BlockSpec struct {
	Name        string `mapstructure:"name" json:"name"`
	Repetitions int    `mapstructure:"repetitions" json:"repetitions"`
	Shuffle     bool   `mapstructure:"shuffle" json:"shuffle,omitempty"`

	// Order names a built-in ordering: identity, reverse or shuffle.
	Order     string   `mapstructure:"order" json:"order,omitempty"`
	NoRepeats []string `mapstructure:"no_repeats" json:"no_repeats,omitempty"`
	Strict    bool     `mapstructure:"strict" json:"strict,omitempty"`

	Factors map[string]any `mapstructure:"factors" json:"factors"`

	// Schema maps factor names to type names (string, int, float, bool, oneof(a|b)).
	Schema map[string]string `mapstructure:"schema" json:"schema,omitempty"`
}

// Load reads an experiment file. JSON is used for .json files, YAML otherwise.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment: %w", err)
	}
	return Parse(data, strings.ToLower(filepath.Ext(path)) == ".json")
}

// Parse decodes an experiment document.
func Parse(data []byte, isJSON bool) (*Experiment, error) {
	var raw map[string]any
	if isJSON {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse experiment json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse experiment yaml: %w", err)
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("experiment document is empty")
	}

	var exp Experiment
	if err := Decode(raw, &exp); err != nil {
		return nil, err
	}
	if len(exp.States) == 0 {
		return nil, fmt.Errorf("experiment %q declares no states", exp.Name)
	}
	return &exp, nil
}

// Decode maps a generic document onto out. Numbers and strings are converted weakly,
// durations accept Go duration strings ("250ms") or milliseconds.
func Decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			millisecondsHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("failed to decode experiment: %w", err)
	}
	return nil
}

// millisecondsHook reads bare numbers as milliseconds when the target is a duration.
func millisecondsHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case uint64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	}
	return data, nil
}
