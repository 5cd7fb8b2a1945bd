package tapestry_test

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tapestry"
	"github.com/aretw0/tapestry/pkg/adapters/sqlite"
	"github.com/aretw0/tapestry/pkg/domain"
)

var lanternPath = filepath.Join("pkg", "bundle", "testdata", "lantern.yaml")

func TestEngine_InstallFileAndPlay(t *testing.T) {
	ctx := context.Background()
	eng := tapestry.New(tapestry.WithRand(rand.New(rand.NewPCG(1, 2))))

	var seen []domain.SessionState
	unsubscribe := eng.Subscribe(func(s domain.SessionState) { seen = append(seen, s) })
	defer unsubscribe()

	state, err := eng.InstallFile(ctx, lanternPath)
	require.NoError(t, err)
	assert.Equal(t, "lantern", state.WorldID)
	assert.Equal(t, domain.EntryInitial, state.Entry.Type)

	state, err = eng.SubmitRoute(ctx, "lantern", state.Entry.ID, domain.ChoiceOutcome("light", ""))
	require.NoError(t, err)
	assert.Equal(t, "glow", state.Entry.Destination)

	p, err := eng.RenderPassage(ctx, "lantern", state.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Warm light fills the cellar.", p.Text)

	info, err := eng.Introspect(ctx, "lantern")
	require.NoError(t, err)
	assert.Equal(t, "1", info.State["v-oil"].Value)
	assert.Equal(t, "true", info.State["v-lit"].Value)

	history, err := eng.History(ctx, "lantern", 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.NotEmpty(t, seen)
}

func TestEngine_Play(t *testing.T) {
	ctx := context.Background()
	eng := tapestry.New()
	_, err := eng.InstallFile(ctx, lanternPath)
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, eng.Play(ctx, "lantern", strings.NewReader("1\n\nada\n"), &out))
	assert.Contains(t, out.String(), "You wake in the dark, stranger.")
	assert.Contains(t, out.String(), "Goodbye, Ada.")

	state, err := eng.Resume(ctx, "lantern")
	require.NoError(t, err)
	assert.Equal(t, "farewell", state.Entry.Destination)
}

func TestEngine_ExportAndUninstall(t *testing.T) {
	ctx := context.Background()
	eng := tapestry.New()
	_, err := eng.InstallFile(ctx, lanternPath)
	require.NoError(t, err)

	b, err := eng.Export(ctx, "lantern")
	require.NoError(t, err)
	assert.Equal(t, "The Lantern", b.World.Title)
	assert.Len(t, b.Events, 4)

	require.NoError(t, eng.Uninstall(ctx, "lantern"))
	_, err = eng.Resume(ctx, "lantern")
	assert.ErrorIs(t, err, domain.ErrNotInstalled)

	state, err := eng.Install(ctx, "lantern", nil)
	require.NoError(t, err)
	assert.Equal(t, "dark", state.Entry.Destination)
}

func TestEngine_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tapestry.db")

	store, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	eng := tapestry.New(tapestry.WithGraph(store), tapestry.WithStore(store))
	state, err := eng.InstallFile(ctx, lanternPath)
	require.NoError(t, err)
	_, err = eng.SubmitRoute(ctx, "lantern", state.Entry.ID, domain.ChoiceOutcome("wait", ""))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	eng = tapestry.New(tapestry.WithGraph(reopened), tapestry.WithStore(reopened))
	state, err = eng.Resume(ctx, "lantern")
	require.NoError(t, err)
	p, err := eng.RenderPassage(ctx, "lantern", state.Entry.ID)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Oil left: 1.")
}

func TestEngine_InstallFileMissing(t *testing.T) {
	_, err := tapestry.New().InstallFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "open bundle")
}
