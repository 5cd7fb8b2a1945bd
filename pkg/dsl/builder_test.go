package dsl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tapestry/internal/runtime"
	"github.com/aretw0/tapestry/internal/validator"
	"github.com/aretw0/tapestry/pkg/adapters/memory"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/dsl"
)

func doorWorld() *dsl.Builder {
	b := dsl.New("door", "The Door").
		Variable("v-key", "key", domain.VariableBoolean, "false").
		Variable("v-name", "name", domain.VariableString, "friend").
		Setting("history_limit", 5)

	hall := b.Scene("hall", "Hall")
	start := hall.Event("start").Title("Locked").Text("A locked door. {key ? 'Key in hand.' : ''}")
	start.Choice("take", "Take the key").Go("start").
		Set("v-key", domain.SetAssign, "true")
	start.Choice("open", "Open the door").Go("to-garden").
		When("v-key", domain.CompareEqual, "true")
	hall.Jump("to-garden", "garden", "")

	garden := b.Scene("garden", "Garden")
	ask := garden.Event("gate").Text("A gardener asks your name.")
	ask.Input("ask-name", "v-name").Go("bye")
	garden.Event("bye").Text("Goodbye, {name}.").Ending()
	return b
}

func TestBuilder_BuildsValidWorld(t *testing.T) {
	b, err := doorWorld().Build()
	require.NoError(t, err)

	assert.Equal(t, "door", b.World.ID)
	assert.Equal(t, []domain.ChildRef{domain.SceneChild("hall"), domain.SceneChild("garden")}, b.World.Children)
	assert.Equal(t, "start", b.Start())
	assert.Equal(t, "gate", b.JumpTarget("to-garden"))
	assert.Equal(t, []string{"take", "open"}, b.Events[0].Choices)

	require.Len(t, b.Paths, 3)
	assert.Equal(t, "p-take-1", b.Paths[0].ID)
	assert.Equal(t, domain.DestinationEvent, b.Paths[0].DestinationType)
	assert.Equal(t, domain.DestinationJump, b.Paths[1].DestinationType)
	assert.Equal(t, domain.OriginInput, b.Paths[2].OriginType)
	for _, c := range b.Conditions {
		assert.Equal(t, "door", c.WorldID)
	}

	report := validator.Validate(b)
	assert.NoError(t, report.Err())
}

func TestBuilder_Plays(t *testing.T) {
	ctx := context.Background()
	b, err := doorWorld().Build()
	require.NoError(t, err)

	graph := memory.NewGraph()
	engine := runtime.NewEngine(graph, memory.NewStore())
	state, err := bundle.Install(ctx, graph, engine, b)
	require.NoError(t, err)

	state, err = engine.SubmitRoute(ctx, "door", state.Entry.ID, domain.ChoiceOutcome("take", ""))
	require.NoError(t, err)
	state, err = engine.SubmitRoute(ctx, "door", state.Entry.ID, domain.ChoiceOutcome("open", ""))
	require.NoError(t, err)
	assert.Equal(t, "gate", state.Entry.Destination)

	state, err = engine.SubmitRoute(ctx, "door", state.Entry.ID, domain.InputOutcome("Ada", ""))
	require.NoError(t, err)

	p, err := engine.RenderPassage(ctx, "door", state.Entry.ID)
	require.NoError(t, err)
	assert.True(t, p.Ending)
	assert.Equal(t, "Goodbye, Ada.", p.Text)
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *dsl.Builder
		want  string
	}{
		{
			name: "Duplicate Event",
			build: func() *dsl.Builder {
				b := dsl.New("w", "")
				s := b.Scene("s", "")
				s.Event("a")
				s.Event("a")
				return b
			},
			want: `duplicate event "a"`,
		},
		{
			name: "Unknown Destination",
			build: func() *dsl.Builder {
				b := dsl.New("w", "")
				b.Scene("s", "").Event("a").Go("nowhere")
				return b
			},
			want: `unknown destination "nowhere"`,
		},
		{
			name: "Unknown Start Jump",
			build: func() *dsl.Builder {
				b := dsl.New("w", "").StartAt("j")
				b.Scene("s", "").Event("a")
				return b
			},
			want: `unknown jump "j"`,
		},
		{
			name: "Missing ID",
			build: func() *dsl.Builder {
				b := dsl.New("w", "")
				b.Variable("", "x", domain.VariableNumber, "0")
				return b
			},
			want: "variable without id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
