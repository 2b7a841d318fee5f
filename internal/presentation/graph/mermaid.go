package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/paradigm/internal/config"
	"github.com/aretw0/paradigm/pkg/domain"
)

// Overlay marks the states a trial went through on the diagram.
type Overlay struct {
	VisitedStates []string
	CurrentState  string
}

// OverlayFromRecord builds an overlay from a record's state stamps. The last stamp is the
// current state.
func OverlayFromRecord(rec *domain.TrialRecord) *Overlay {
	o := &Overlay{}
	for _, s := range rec.States {
		o.VisitedStates = append(o.VisitedStates, s.Name)
	}
	if n := len(rec.States); n > 0 {
		o.CurrentState = rec.States[n-1].Name
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of an experiment's trial loop.
// Shapes:
//   - Initial state: ((Circle))
//   - Interrupt state: {{Hexagon}}
//   - Phase or other state: [Rectangle], annotated with the phase duration
//
// Phases are chained in order and loop back for the next trial. Interrupts are drawn as
// dotted push and pop edges from the state they fire in.
func GenerateMermaid(exp *config.Experiment, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	interrupts := make(map[string]bool)
	for _, in := range exp.Interrupts {
		interrupts[in.State] = true
	}
	durations := make(map[string]string)
	for _, p := range exp.Phases {
		durations[p.State] = p.Duration.String()
	}

	for i, name := range exp.States {
		id := sanitizeMermaidID(name)
		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case interrupts[name]:
			opener, closer = "{{", "}}"
		}

		label := name
		if d, ok := durations[name]; ok {
			label = fmt.Sprintf("%s <br/> ⏱️ %s", name, d)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)
	}

	if len(exp.Phases) > 0 && len(exp.States) > 0 {
		first := sanitizeMermaidID(exp.Phases[0].State)
		if exp.States[0] != exp.Phases[0].State {
			fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(exp.States[0]), first)
		}
		for i := 1; i < len(exp.Phases); i++ {
			fmt.Fprintf(&sb, "    %s --> %s\n",
				sanitizeMermaidID(exp.Phases[i-1].State), sanitizeMermaidID(exp.Phases[i].State))
		}
		last := sanitizeMermaidID(exp.Phases[len(exp.Phases)-1].State)
		fmt.Fprintf(&sb, "    %s -- \"next trial\" --> %s\n", last, first)
	}

	for _, in := range exp.Interrupts {
		after := in.After
		if after == "" && len(exp.Phases) > 0 {
			after = exp.Phases[0].State
		}
		if after == "" {
			continue
		}
		from, to := sanitizeMermaidID(after), sanitizeMermaidID(in.State)
		fmt.Fprintf(&sb, "    %s -. \"⚡ every %d\" .-> %s\n", from, in.Every, to)
		fmt.Fprintf(&sb, "    %s -. \"pop\" .-> %s\n", to, from)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.VisitedStates {
			id := sanitizeMermaidID(name)
			if id != "" && !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", id)
			}
		}
		if overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
