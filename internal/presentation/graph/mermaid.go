package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
)

// GraphOverlay contains playthrough state to highlight on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of a World, one subgraph per Scene.
// Events are shaped by role:
// - Start: ((Circle))
// - Input: [/Parallelogram/]
// - Ending: ([Stadium])
// - Default: [Rectangle]
// Jumps are hexagons and edges into them are dotted.
func GenerateMermaid(b *bundle.Bundle, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	events := make(map[string]*domain.Event, len(b.Events))
	for _, ev := range b.Events {
		events[ev.ID] = ev
	}
	jumps := make(map[string]*domain.Jump, len(b.Jumps))
	for _, j := range b.Jumps {
		jumps[j.ID] = j
	}
	start := b.Start()

	for _, scene := range b.Scenes {
		fmt.Fprintf(&sb, "    subgraph scene_%s[\"%s\"]\n", sanitizeMermaidID(scene.ID), escapeLabel(titleOr(scene.Title, scene.ID)))
		for _, ref := range scene.Children {
			switch ref.Kind {
			case domain.ChildEvent:
				if ev, ok := events[ref.ID]; ok {
					sb.WriteString("        " + eventNode(ev, ev.ID == start) + "\n")
				}
			case domain.ChildJump:
				if j, ok := jumps[ref.ID]; ok {
					fmt.Fprintf(&sb, "        %s{{\"%s\"}}\n", sanitizeMermaidID(j.ID), escapeLabel(titleOr(j.Title, "jump "+j.ID)))
				}
			}
		}
		sb.WriteString("    end\n")
	}

	for _, j := range b.Jumps {
		if target := b.JumpTarget(j.ID); target != "" {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", sanitizeMermaidID(j.ID), sanitizeMermaidID(target))
		}
	}

	labels := edgeLabels(b)
	for _, p := range b.Paths {
		from := sanitizeMermaidID(p.OriginID)
		to := sanitizeMermaidID(p.DestinationID)
		toJump := p.DestinationType == domain.DestinationJump

		arrow := "-->"
		if toJump {
			arrow = "-.->"
		}
		if label := labels[p.ID]; label != "" {
			safe := escapeLabel(label)
			arrow = fmt.Sprintf("-- \"%s\" -->", safe)
			if toJump {
				arrow = fmt.Sprintf("-. \"%s\" .->", safe)
			}
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow, to)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func eventNode(ev *domain.Event, isStart bool) string {
	opener, closer := "[", "]"
	switch {
	case isStart:
		opener, closer = "((", "))"
	case ev.Input != "":
		opener, closer = "[/", "/]"
	case ev.Ending:
		opener, closer = "([", "])"
	}
	return fmt.Sprintf("%s%s\"%s\"%s", sanitizeMermaidID(ev.ID), opener, escapeLabel(titleOr(ev.Title, ev.ID)), closer)
}

// edgeLabels describes each Path by what the player does and what must hold.
func edgeLabels(b *bundle.Bundle) map[string]string {
	choices := make(map[string]string, len(b.Choices))
	for _, c := range b.Choices {
		choices[c.ID] = titleOr(c.Title, c.ID)
	}
	inputs := make(map[string]string, len(b.Inputs))
	for _, in := range b.Inputs {
		inputs[in.ID] = in.VariableID
	}
	variables := make(map[string]string, len(b.Variables))
	for _, v := range b.Variables {
		variables[v.ID] = titleOr(v.Title, v.ID)
	}
	conditions := make(map[string][]string)
	for _, c := range b.Conditions {
		conditions[c.PathID] = append(conditions[c.PathID],
			fmt.Sprintf("%s %s %s", titleOr(variables[c.VariableID], c.VariableID), c.Operator, c.Value))
	}

	labels := make(map[string]string, len(b.Paths))
	for _, p := range b.Paths {
		var action string
		switch p.OriginType {
		case domain.OriginChoice:
			action = choices[p.ChoiceID]
		case domain.OriginInput:
			action = "input"
			if v := inputs[p.InputID]; v != "" {
				action += ": " + titleOr(variables[v], v)
			}
		}

		label := action
		if conds := conditions[p.ID]; len(conds) > 0 {
			join := " and "
			if p.Policy() == domain.ConditionsAny {
				join = " or "
			}
			label = strings.TrimSpace(label + " if " + strings.Join(conds, join))
		}
		labels[p.ID] = label
	}
	return labels
}

func titleOr(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
