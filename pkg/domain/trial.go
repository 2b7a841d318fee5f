package domain

import (
	"reflect"
	"time"

	"github.com/mohae/deepcopy"
)

// Trial is an immutable template produced by the sequencer.
// Callers that need per-run fields must work on a TrialRecord instead.
type Trial struct {
	BlockName  string         `json:"blockName"`
	BlockIndex int            `json:"blockIndex"`
	Cycle      int            `json:"cycle"`
	Factors    map[string]any `json:"factors"`
}

// Value returns a factor value.
func (t Trial) Value(name string) (any, bool) {
	v, ok := t.Factors[name]
	return v, ok
}

// Clone returns a deep copy: nested factor values are not shared with t.
func (t Trial) Clone() Trial {
	if copied, ok := deepcopy.Copy(t).(Trial); ok {
		return copied
	}
	return t
}

// MatchesOn reports whether t and other carry equal values for every named factor.
func (t Trial) MatchesOn(other Trial, names []string) bool {
	for _, name := range names {
		if !reflect.DeepEqual(t.Factors[name], other.Factors[name]) {
			return false
		}
	}
	return true
}

// Flatten returns the trial as one flat record, factors plus engine metadata.
func (t Trial) Flatten() map[string]any {
	out := make(map[string]any, len(t.Factors)+3)
	for k, v := range t.Factors {
		out[k] = v
	}
	out[KeyBlockName] = t.BlockName
	out[KeyBlockIndex] = t.BlockIndex
	out[KeyCycle] = t.Cycle
	return out
}

// TrialRecord is the mutable working copy of a Trial for one run of the experiment loop.
type TrialRecord struct {
	Trial       Trial          `json:"trial"`
	TrialNumber int            `json:"trialNumber"`
	SessionID   string         `json:"sessionId,omitempty"`
	StartedAt   time.Time      `json:"startedAt"`
	FinishedAt  time.Time      `json:"finishedAt,omitzero"`
	States      []StateStamp   `json:"states"`
	Data        map[string]any `json:"data"`
}

// NewTrialRecord deep-copies the template so that run data never leaks back into it.
func NewTrialRecord(template Trial, number int) *TrialRecord {
	copied, _ := deepcopy.Copy(template).(Trial)
	return &TrialRecord{
		Trial:       copied,
		TrialNumber: number,
		States:      []StateStamp{},
		Data:        make(map[string]any),
	}
}

// Flatten returns the record as one flat map: trial values, measured data and the trial number.
func (r *TrialRecord) Flatten() map[string]any {
	out := r.Trial.Flatten()
	for k, v := range r.Data {
		out[k] = v
	}
	out[KeyTrialNumber] = r.TrialNumber
	return out
}
