package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown for the terminal using glamour.
// A width of 0 keeps glamour's default word wrap.
func NewRenderer(width int) (func(string) (string, error), error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render, nil
}

// Markdown summarizes a sequence: one section per block with its trial count and the
// full trial table.
func Markdown(title string, trials []domain.Trial) string {
	var b strings.Builder
	if title == "" {
		title = "Sequence"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "%d trials in %d cycles.\n\n", len(trials), countCycles(trials))

	b.WriteString("| Block | Index | Cycles | Trials |\n|---|---|---|---|\n")
	for _, s := range summarize(trials) {
		fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", s.name, s.index, s.cycles, s.trials)
	}

	names := FactorColumns(trials)
	b.WriteString("\n## Trials\n\n| # | Block | Cycle |")
	for _, n := range names {
		fmt.Fprintf(&b, " %s |", n)
	}
	b.WriteString("\n|---|---|---|" + strings.Repeat("---|", len(names)) + "\n")
	for i, t := range trials {
		fmt.Fprintf(&b, "| %d | %s | %d |", i, t.BlockName, t.Cycle)
		for _, n := range names {
			fmt.Fprintf(&b, " %s |", formatValue(t.Factors, n))
		}
		b.WriteString("\n")
	}
	return b.String()
}

type blockSummary struct {
	name   string
	index  int
	cycles int
	trials int
}

func summarize(trials []domain.Trial) []blockSummary {
	var out []blockSummary
	lastCycle := -1
	for _, t := range trials {
		if len(out) == 0 || out[len(out)-1].index != t.BlockIndex {
			out = append(out, blockSummary{name: t.BlockName, index: t.BlockIndex})
		}
		s := &out[len(out)-1]
		s.trials++
		if t.Cycle != lastCycle {
			s.cycles++
			lastCycle = t.Cycle
		}
	}
	return out
}

func countCycles(trials []domain.Trial) int {
	seen := make(map[int]struct{})
	for _, t := range trials {
		seen[t.Cycle] = struct{}{}
	}
	return len(seen)
}

// FactorColumns returns the sorted union of factor names over trials.
func FactorColumns(trials []domain.Trial) []string {
	set := make(map[string]struct{})
	for _, t := range trials {
		for k := range t.Factors {
			set[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

func formatValue(factors map[string]any, name string) string {
	v, ok := factors[name]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}
