package bundle_test

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tapestry/internal/runtime"
	"github.com/aretw0/tapestry/pkg/adapters/memory"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
)

func readLantern(t *testing.T) *bundle.Bundle {
	t.Helper()
	b, err := bundle.ReadFile(filepath.Join("testdata", "lantern.yaml"))
	require.NoError(t, err)
	return b
}

func TestDecode_YAML(t *testing.T) {
	b := readLantern(t)

	assert.Equal(t, "lantern", b.World.ID)
	assert.Equal(t, bundle.CurrentVersion, b.Version)
	assert.Len(t, b.Entities(), 21)
	assert.Equal(t, "lantern", b.Events[0].WorldID, "world ids are filled in")
	assert.Equal(t, []string{"light", "wait"}, b.Events[0].Choices)
	assert.Equal(t, domain.CompareGreater, b.Conditions[0].Operator)
	assert.True(t, b.Events[3].Ending)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"Empty", "   \n"},
		{"Not A Document", "world: [unclosed"},
		{"Missing World ID", "world: {title: Nameless}"},
		{"Future Version", "version: 99\nworld: {id: w}"},
		{"Record Without ID", "world: {id: w}\nevents:\n  - title: anonymous"},
		{"Foreign Record", "world: {id: w}\nevents:\n  - {id: e1, world_id: other}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bundle.Decode(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, bundle.ErrInvalidBundle)
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	original := readLantern(t)

	formats := []struct {
		name string
		file string
	}{
		{"YAML", "world.yaml"},
		{"JSON", "world.json"},
		{"Gzipped YAML", "world.yaml.gz"},
		{"Gzipped JSON", "world.json.gz"},
	}
	for _, f := range formats {
		t.Run(f.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), f.file)
			require.NoError(t, bundle.WriteFile(path, original))

			decoded, err := bundle.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, original.Entities(), decoded.Entities())

			settings, err := decoded.DecodeSettings()
			require.NoError(t, err)
			assert.Equal(t, 10, settings.HistoryLimit)
		})
	}

	t.Run("Overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "world.json")
		require.NoError(t, bundle.WriteFile(path, original))
		require.NoError(t, bundle.WriteFile(path, original))
		matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".tmp-*"))
		require.NoError(t, err)
		assert.Empty(t, matches, "temp files are cleaned up")
	})
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, bundle.Format{JSON: true}, bundle.FormatFor("a/world.JSON"))
	assert.Equal(t, bundle.Format{Gzip: true}, bundle.FormatFor("world.yml.gz"))
	assert.Equal(t, bundle.Format{}, bundle.FormatFor("world"))
}

func TestDecodeSettings(t *testing.T) {
	b := &bundle.Bundle{World: domain.World{ID: "w"}}
	s, err := b.DecodeSettings()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings("w"), s)

	b.Settings = map[string]any{"theme": "light", "history_limit": 5, "unknown": true}
	s, err = b.DecodeSettings()
	require.NoError(t, err)
	assert.Equal(t, domain.Settings{WorldID: "w", Theme: "light", HistoryLimit: 5}, s)

	b.Settings = map[string]any{"history_limit": "lots"}
	_, err = b.DecodeSettings()
	assert.ErrorIs(t, err, bundle.ErrInvalidBundle)

	require.NoError(t, b.SetSettings(domain.Settings{WorldID: "w", Theme: "dark", HistoryLimit: 3}))
	s, err = b.DecodeSettings()
	require.NoError(t, err)
	assert.Equal(t, 3, s.HistoryLimit)
	assert.NotContains(t, b.Settings, "world_id")
}

func TestInstall(t *testing.T) {
	ctx := context.Background()
	graph := memory.NewGraph()
	store := memory.NewStore()
	engine := runtime.NewEngine(graph, store)

	state, err := bundle.Install(ctx, graph, engine, readLantern(t))
	require.NoError(t, err)
	assert.Equal(t, "dark", state.Entry.Destination)
	assert.Equal(t, "stranger", state.Entry.State["v-name"].Value)

	settings, err := store.GetSettings(ctx, "lantern")
	require.NoError(t, err)
	assert.Equal(t, "dark", settings.Theme)
	assert.Equal(t, 10, settings.HistoryLimit)
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	original := readLantern(t)
	graph := memory.NewGraph()
	require.NoError(t, bundle.Load(ctx, graph, original))

	// Orphans of another world are not exported.
	require.NoError(t, graph.Put(ctx, &domain.Event{ID: "stray", WorldID: "elsewhere", SceneID: "nowhere"}))

	snap, err := bundle.Snapshot(ctx, graph, "lantern")
	require.NoError(t, err)
	assert.Equal(t, keys(original.Entities()), keys(snap.Entities()))

	var buf bytes.Buffer
	require.NoError(t, bundle.Encode(&buf, snap, bundle.Format{}))
	again, err := bundle.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, keys(snap.Entities()), keys(again.Entities()))

	_, err = bundle.Snapshot(ctx, graph, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func keys(entities []domain.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = string(e.EntityKind()) + "/" + e.EntityID()
	}
	sort.Strings(out)
	return out
}
