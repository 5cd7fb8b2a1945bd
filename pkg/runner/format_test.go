package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/tapestry/pkg/domain"
)

func TestFormatPassage(t *testing.T) {
	tests := []struct {
		name    string
		passage *domain.Passage
		want    string
	}{
		{
			name: "Choices",
			passage: &domain.Passage{
				Event: &domain.Event{Title: "Darkness"},
				Text:  "You wake in the dark.\n",
				Choices: []domain.ChoiceView{
					{Choice: &domain.Choice{ID: "light", Title: "Light the lantern"}, Open: false},
					{Choice: &domain.Choice{ID: "wait"}, Open: true},
				},
			},
			want: "# Darkness\n\nYou wake in the dark.\n\n1. ~~Light the lantern~~\n2. wait\n",
		},
		{
			name: "Input",
			passage: &domain.Passage{
				Text:  "Who are you?",
				Input: &domain.InputView{Input: &domain.Input{ID: "ask"}, Variable: &domain.Variable{Title: "name"}},
			},
			want: "Who are you?\n\n_Type your answer (name)._\n",
		},
		{
			name:    "Passthrough",
			passage: &domain.Passage{Text: "Light fills the room.", Passthrough: &domain.Path{ID: "p"}},
			want:    "Light fills the room.\n\n_Press Enter to continue._\n",
		},
		{
			name:    "Ending",
			passage: &domain.Passage{Text: "Goodbye.", Ending: true},
			want:    "Goodbye.\n\n**The End.** Press Enter to play again.\n",
		},
		{
			name:    "Blocked",
			passage: &domain.Passage{Text: "A wall.", Blocked: true},
			want:    "A wall.\n\n\n_No way forward. Type :back or :restart._\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPassage(tt.passage))
		})
	}
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No history yet.", FormatHistory(nil))

	out := FormatHistory([]*domain.PlaythroughEvent{
		{Seq: 1, Destination: "glow", Type: domain.EntryAdvance},
		{Seq: 0, Destination: "dark", Type: domain.EntryInitial, Result: &domain.RouteResult{Kind: domain.OutcomeChoice}},
	})
	assert.Equal(t, "   1  glow                 advance\n   0  dark                 initial -> choice", out)
}
