package runtime_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/tapestry/internal/runtime"
	"github.com/aretw0/tapestry/pkg/adapters/memory"
	"github.com/aretw0/tapestry/pkg/domain"
)

const worldID = "w"

// storyworld returns the graph used across runtime tests:
//
//	e1 --c1/p1 (+5 score)--> e2 --passthrough p3--> j1 --> e4 (ending)
//	e1 --c2/p2 [flag = true]--> e3 --input i1 (name)/p4 (flag := true)--> e4
func storyworld() []domain.Entity {
	return []domain.Entity{
		&domain.World{ID: worldID, Title: "Test World", Children: []domain.ChildRef{
			domain.FolderChild("f1"),
			domain.SceneChild("s1"),
		}},
		&domain.Folder{ID: "f1", WorldID: worldID, Title: "Drafts", Children: []domain.ChildRef{domain.SceneChild("s0")}},
		&domain.Scene{ID: "s0", WorldID: worldID, Title: "Draft", Children: []domain.ChildRef{domain.EventChild("e0")}},
		&domain.Scene{ID: "s1", WorldID: worldID, Title: "Hall", Children: []domain.ChildRef{
			domain.EventChild("e1"),
			domain.EventChild("e2"),
			domain.EventChild("e3"),
			domain.EventChild("e4"),
			domain.JumpChild("j1"),
		}},

		&domain.Variable{ID: "v-score", WorldID: worldID, Title: "score", Type: domain.VariableNumber, Initial: "0"},
		&domain.Variable{ID: "v-flag", WorldID: worldID, Title: "flag", Type: domain.VariableBoolean, Initial: "false"},
		&domain.Variable{ID: "v-name", WorldID: worldID, Title: "name", Type: domain.VariableString, Initial: "Ada"},

		&domain.Event{ID: "e0", WorldID: worldID, SceneID: "s0", Content: "draft"},
		&domain.Event{ID: "e1", WorldID: worldID, SceneID: "s1", Title: "Start",
			Content: "Hello {name.upper()}.\n\nScore: {score}. {unknown.upper()}",
			Choices: []string{"c1", "c2"}},
		&domain.Event{ID: "e2", WorldID: worldID, SceneID: "s1", Title: "Corridor", Content: "A corridor."},
		&domain.Event{ID: "e3", WorldID: worldID, SceneID: "s1", Title: "Gate", Content: "Who goes there?", Input: "i1"},
		&domain.Event{ID: "e4", WorldID: worldID, SceneID: "s1", Title: "End", Content: "{flag ? 'Welcome' : 'Farewell'}, {name}.", Ending: true},

		&domain.Choice{ID: "c1", WorldID: worldID, EventID: "e1", Title: "Walk"},
		&domain.Choice{ID: "c2", WorldID: worldID, EventID: "e1", Title: "Knock"},
		&domain.Input{ID: "i1", WorldID: worldID, EventID: "e3", VariableID: "v-name"},
		&domain.Jump{ID: "j1", WorldID: worldID, SceneID: "s1", EventID: "e4"},

		&domain.Path{ID: "p1", WorldID: worldID, OriginID: "e1", OriginType: domain.OriginChoice, ChoiceID: "c1",
			DestinationID: "e2", DestinationType: domain.DestinationEvent},
		&domain.Effect{ID: "p1-score", WorldID: worldID, PathID: "p1", VariableID: "v-score", Operator: domain.SetAdd, Value: "5"},

		&domain.Path{ID: "p2", WorldID: worldID, OriginID: "e1", OriginType: domain.OriginChoice, ChoiceID: "c2",
			DestinationID: "e3", DestinationType: domain.DestinationEvent},
		&domain.Condition{ID: "p2-flag", WorldID: worldID, PathID: "p2", VariableID: "v-flag", Operator: domain.CompareEqual, Value: "true"},

		&domain.Path{ID: "p3", WorldID: worldID, OriginID: "e2", OriginType: domain.OriginEvent,
			DestinationID: "j1", DestinationType: domain.DestinationJump},

		&domain.Path{ID: "p4", WorldID: worldID, OriginID: "e3", OriginType: domain.OriginInput, InputID: "i1",
			DestinationID: "e4", DestinationType: domain.DestinationEvent},
		&domain.Effect{ID: "p4-flag", WorldID: worldID, PathID: "p4", VariableID: "v-flag", Operator: domain.SetAssign, Value: "true"},
	}
}

type fixture struct {
	graph  *memory.Graph
	store  *memory.Store
	engine *runtime.Engine
}

func newFixture(t *testing.T, extra []domain.Entity, opts ...runtime.EngineOption) *fixture {
	t.Helper()
	graph, err := memory.NewFromEntities(append(storyworld(), extra...)...)
	require.NoError(t, err)
	store := memory.NewStore()

	var seq atomic.Int64
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	defaults := []runtime.EngineOption{
		runtime.WithIDGenerator(func() string { return fmt.Sprintf("entry-%d", seq.Add(1)) }),
		runtime.WithClock(func() time.Time { return base.Add(time.Duration(seq.Load()) * time.Second) }),
	}
	engine := runtime.NewEngine(graph, store, append(defaults, opts...)...)
	return &fixture{graph: graph, store: store, engine: engine}
}

func (f *fixture) install(t *testing.T) domain.SessionState {
	t.Helper()
	state, err := f.engine.Install(context.Background(), worldID, nil)
	require.NoError(t, err)
	return state
}

func (f *fixture) submit(t *testing.T, outcome domain.RouteOutcome) domain.SessionState {
	t.Helper()
	ctx := context.Background()
	current, err := f.engine.Resume(ctx, worldID)
	require.NoError(t, err)
	state, err := f.engine.SubmitRoute(ctx, worldID, current.Entry.ID, outcome)
	require.NoError(t, err)
	return state
}

func (f *fixture) setFlag(t *testing.T, value string) {
	t.Helper()
	entry, err := f.store.GetEntry(context.Background(), domain.InitialEntryID(worldID))
	require.NoError(t, err)
	v := entry.State["v-flag"]
	v.Value = value
	entry.State["v-flag"] = v
	require.NoError(t, f.store.DeletePlaythrough(context.Background(), worldID))
	require.NoError(t, f.store.PutEntry(context.Background(), entry))
}
