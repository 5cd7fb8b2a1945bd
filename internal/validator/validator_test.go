package validator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tapestry/pkg/adapters/memory"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
)

func lantern(t *testing.T) *bundle.Bundle {
	t.Helper()
	b, err := bundle.ReadFile(filepath.Join("..", "..", "pkg", "bundle", "testdata", "lantern.yaml"))
	require.NoError(t, err)
	return b
}

func TestValidate_CleanWorld(t *testing.T) {
	report := Validate(lantern(t))
	assert.Empty(t, report.Issues)
	assert.NoError(t, report.Err())
}

func TestValidateWorld_FromGraph(t *testing.T) {
	ctx := context.Background()
	graph := memory.NewGraph()
	require.NoError(t, bundle.Load(ctx, graph, lantern(t)))

	report, err := ValidateWorld(ctx, graph, "lantern")
	require.NoError(t, err)
	assert.Empty(t, report.Errors())

	_, err = ValidateWorld(ctx, graph, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestValidate_Findings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(b *bundle.Bundle)
		severity Severity
		kind     domain.Kind
		id       string
	}{
		{
			name:     "Dangling Destination",
			mutate:   func(b *bundle.Bundle) { b.Paths[2].DestinationID = "nowhere" },
			severity: SeverityError, kind: domain.KindPath, id: "p-glow",
		},
		{
			name:     "Broken Jump",
			mutate:   func(b *bundle.Bundle) { b.Jumps[0].EventID = "ghost" },
			severity: SeverityError, kind: domain.KindJump, id: "to-farewell",
		},
		{
			name:     "Input With Unknown Variable",
			mutate:   func(b *bundle.Bundle) { b.Inputs[0].VariableID = "v-ghost" },
			severity: SeverityError, kind: domain.KindInput, id: "ask-name",
		},
		{
			name:     "Effect With Unknown Variable",
			mutate:   func(b *bundle.Bundle) { b.Effects[0].VariableID = "v-ghost" },
			severity: SeverityError, kind: domain.KindEffect, id: "p-light-lit",
		},
		{
			name:     "Condition With Unknown Variable",
			mutate:   func(b *bundle.Bundle) { b.Conditions[0].VariableID = "v-ghost" },
			severity: SeverityError, kind: domain.KindCondition, id: "p-light-oil",
		},
		{
			name: "Choice Path From Wrong Origin",
			mutate: func(b *bundle.Bundle) {
				b.Paths[0].OriginID = "glow"
			},
			severity: SeverityError, kind: domain.KindPath, id: "p-light",
		},
		{
			name:     "Unknown Condition Operator",
			mutate:   func(b *bundle.Bundle) { b.Conditions[0].Operator = "~=" },
			severity: SeverityError, kind: domain.KindCondition, id: "p-light-oil",
		},
		{
			name:     "Initial Value Of Wrong Type",
			mutate:   func(b *bundle.Bundle) { b.Variables[0].Initial = "plenty" },
			severity: SeverityError, kind: domain.KindVariable, id: "v-oil",
		},
		{
			name: "Empty Scene",
			mutate: func(b *bundle.Bundle) {
				b.Scenes = append(b.Scenes, &domain.Scene{ID: "attic", WorldID: "lantern"})
				b.World.Children = append(b.World.Children, domain.SceneChild("attic"))
			},
			severity: SeverityWarning, kind: domain.KindScene, id: "attic",
		},
		{
			name: "Ambiguous Choice",
			mutate: func(b *bundle.Bundle) {
				b.Paths = append(b.Paths, &domain.Path{ID: "p-wait-2", WorldID: "lantern", OriginID: "dark",
					OriginType: domain.OriginChoice, ChoiceID: "wait", DestinationID: "glow", DestinationType: domain.DestinationEvent})
			},
			severity: SeverityWarning, kind: domain.KindChoice, id: "wait",
		},
		{
			name: "Unreachable Event",
			mutate: func(b *bundle.Bundle) {
				b.Events = append(b.Events, &domain.Event{ID: "secret", WorldID: "lantern", SceneID: "cellar", Ending: true})
			},
			severity: SeverityWarning, kind: domain.KindEvent, id: "secret",
		},
		{
			name:     "Failing Expression",
			mutate:   func(b *bundle.Bundle) { b.Events[1].Content = "{ghost.upper()}" },
			severity: SeverityWarning, kind: domain.KindEvent, id: "glow",
		},
		{
			name:     "Dead End",
			mutate:   func(b *bundle.Bundle) { b.Paths = b.Paths[:2]; b.Paths = append(b.Paths, lantern(t).Paths[3]) },
			severity: SeverityWarning, kind: domain.KindEvent, id: "glow",
		},
		{
			name: "No Starting Destination",
			mutate: func(b *bundle.Bundle) {
				b.World.Children = []domain.ChildRef{}
			},
			severity: SeverityError, kind: domain.KindWorld, id: "lantern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := lantern(t)
			tt.mutate(b)
			report := Validate(b)

			found := false
			for _, issue := range report.Issues {
				if issue.Severity == tt.severity && issue.Kind == tt.kind && issue.ID == tt.id {
					found = true
				}
			}
			assert.True(t, found, "expected %s on %s %q, got %v", tt.severity, tt.kind, tt.id, report.Issues)
			if tt.severity == SeverityError {
				assert.Error(t, report.Err())
			}
		})
	}
}
