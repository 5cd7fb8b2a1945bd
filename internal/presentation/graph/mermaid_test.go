package graph_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tapestry/internal/presentation/graph"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
)

func scene(id string, events ...string) *domain.Scene {
	s := &domain.Scene{ID: id, Title: id}
	for _, e := range events {
		s.Children = append(s.Children, domain.ChildRef{Kind: domain.ChildEvent, ID: e})
	}
	return s
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		bundle   *bundle.Bundle
		contains []string
	}{
		{
			name: "Event Shapes",
			bundle: &bundle.Bundle{
				World:  domain.World{ID: "w", Children: []domain.ChildRef{{Kind: domain.ChildScene, ID: "s"}}},
				Scenes: []*domain.Scene{scene("s", "first", "ask", "fin", "plain")},
				Events: []*domain.Event{
					{ID: "first", SceneID: "s"},
					{ID: "ask", SceneID: "s", Input: "i1"},
					{ID: "fin", SceneID: "s", Ending: true},
					{ID: "plain", SceneID: "s", Title: "Plain"},
				},
			},
			contains: []string{
				`first(("first"))`,
				`ask[/"ask"/]`,
				`fin(["fin"])`,
				`plain["Plain"]`,
			},
		},
		{
			name: "ID Sanitization",
			bundle: &bundle.Bundle{
				World:  domain.World{ID: "w"},
				Scenes: []*domain.Scene{scene("act.one", "hyphen-ated")},
				Events: []*domain.Event{{ID: "hyphen-ated", SceneID: "act.one"}},
			},
			contains: []string{
				`subgraph scene_act_one["act.one"]`,
				`hyphen_ated["hyphen-ated"]`,
			},
		},
		{
			name: "Label Escaping And Any Policy",
			bundle: &bundle.Bundle{
				World:     domain.World{ID: "w"},
				Scenes:    []*domain.Scene{scene("s", "a", "b")},
				Events:    []*domain.Event{{ID: "a", SceneID: "s", Choices: []string{"c"}}, {ID: "b", SceneID: "s"}},
				Choices:   []*domain.Choice{{ID: "c", EventID: "a", Title: `Say "yes"`}},
				Variables: []*domain.Variable{{ID: "v1", Title: "mood"}, {ID: "v2", Title: "luck"}},
				Paths: []*domain.Path{{ID: "p", OriginID: "a", OriginType: domain.OriginChoice, ChoiceID: "c",
					DestinationID: "b", DestinationType: domain.DestinationEvent, ConditionsType: domain.ConditionsAny}},
				Conditions: []*domain.Condition{
					{ID: "k1", PathID: "p", VariableID: "v1", Operator: domain.CompareEqual, Value: "calm"},
					{ID: "k2", PathID: "p", VariableID: "v2", Operator: domain.CompareGreater, Value: "3"},
				},
			},
			contains: []string{
				`a -- "Say 'yes' if mood = calm or luck > 3" --> b`,
			},
		},
		{
			name: "Jump Defaults To Scene Start",
			bundle: &bundle.Bundle{
				World:  domain.World{ID: "w"},
				Scenes: []*domain.Scene{scene("s", "a"), scene("t", "t1", "t2")},
				Events: []*domain.Event{{ID: "a", SceneID: "s"}, {ID: "t1", SceneID: "t"}, {ID: "t2", SceneID: "t"}},
				Jumps:  []*domain.Jump{{ID: "j", Title: "Onward", SceneID: "t"}},
				Paths: []*domain.Path{{ID: "p", OriginID: "a", OriginType: domain.OriginEvent,
					DestinationID: "j", DestinationType: domain.DestinationJump}},
			},
			contains: []string{
				`j -.-> t1`,
				`a -.-> j`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.bundle, nil)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			if strings.Contains(got, "classDef") {
				t.Errorf("GenerateMermaid() without overlay emitted styles:\n%v", got)
			}
		})
	}
}

func TestGenerateMermaid_Golden(t *testing.T) {
	b, err := bundle.ReadFile(filepath.Join("..", "..", "..", "pkg", "bundle", "testdata", "lantern.yaml"))
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "lantern", []byte(graph.GenerateMermaid(b, nil)))
	g.Assert(t, "lantern_overlay", []byte(graph.GenerateMermaid(b, &graph.GraphOverlay{
		VisitedNodes: []string{"dark", "dark", "glow"},
		CurrentNode:  "voice",
	})))
}
