package runner

import (
	"fmt"
	"strings"

	"github.com/aretw0/tapestry/pkg/domain"
)

// FormatPassage lays a passage out as markdown: title, text, then what the player can do.
// Closed choices are listed struck through so numbering stays stable.
func FormatPassage(p *domain.Passage) string {
	var sb strings.Builder
	if p.Event != nil && p.Event.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", p.Event.Title)
	}
	if text := strings.TrimSpace(p.Text); text != "" {
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	switch {
	case p.Ending:
		sb.WriteString("**The End.** Press Enter to play again.\n")
	case p.Input != nil:
		prompt := "_Type your answer._"
		if p.Input.Variable != nil && p.Input.Variable.Title != "" {
			prompt = fmt.Sprintf("_Type your answer (%s)._", p.Input.Variable.Title)
		}
		sb.WriteString(prompt + "\n")
	case len(p.Choices) > 0:
		for i, c := range p.Choices {
			title := titleOf(c.Choice)
			if !c.Open {
				title = "~~" + title + "~~"
			}
			fmt.Fprintf(&sb, "%d. %s\n", i+1, title)
		}
		if p.Passthrough != nil {
			sb.WriteString("\n_Or press Enter to continue._\n")
		}
	case p.Passthrough != nil:
		sb.WriteString("_Press Enter to continue._\n")
	}
	if p.Blocked {
		fmt.Fprintf(&sb, "\n_No way forward. Type %s or %s._\n", MetaBack, MetaRestart)
	}
	return sb.String()
}

// FormatHistory lists entries newest first, one per line.
func FormatHistory(entries []*domain.PlaythroughEvent) string {
	if len(entries) == 0 {
		return "No history yet."
	}
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%4d  %-20s %s", e.Seq, e.Destination, e.Type)
		if e.Result != nil {
			fmt.Fprintf(&sb, " -> %s", e.Result.Kind)
		}
	}
	return sb.String()
}
