package sqlite_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tapestry/pkg/adapters/sqlite"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/ports"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_GraphContract(t *testing.T) {
	ports.RunGraphStoreContract(t, openStore(t, filepath.Join(t.TempDir(), "graph.db")))
}

func TestStore_PlaythroughContract(t *testing.T) {
	ports.RunPlaythroughStoreContract(t, openStore(t, filepath.Join(t.TempDir(), "log.db")))
}

func TestStore_InMemory(t *testing.T) {
	ports.RunPlaythroughStoreContract(t, openStore(t, ":memory:"))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), "  ")
	assert.Error(t, err)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tapestry.db")

	store, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, &domain.World{ID: "w", Title: "Kept", Children: []domain.ChildRef{domain.SceneChild("s1")}}))
	require.NoError(t, store.PutEntry(ctx, &domain.PlaythroughEvent{
		ID: domain.InitialEntryID("w"), WorldID: "w", Type: domain.EntryInitial, Destination: "e1",
		State: domain.VariableState{}, UpdatedAt: time.Now(),
	}))
	require.NoError(t, store.Close())

	// Migrations are recorded and not applied twice.
	reopened := openStore(t, path)
	got, err := reopened.Get(ctx, domain.KindWorld, "w")
	require.NoError(t, err)
	world := got.(*domain.World)
	assert.Equal(t, "Kept", world.Title)
	assert.Equal(t, []domain.ChildRef{domain.SceneChild("s1")}, world.Children)

	entry, err := reopened.GetEntry(ctx, domain.InitialEntryID("w"))
	require.NoError(t, err)
	assert.Equal(t, "e1", entry.Destination)
}

func TestStore_ConcurrentResultWrites(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "race.db"))
	require.NoError(t, store.PutEntry(ctx, &domain.PlaythroughEvent{
		ID: "head", WorldID: "w", Type: domain.EntryInitial, Destination: "e1",
		State: domain.VariableState{}, UpdatedAt: time.Now(),
	}))

	const writers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.UpdateEntry(ctx, "head", domain.EntryPatch{
				Result: &domain.RouteResult{Kind: domain.OutcomeLoopback},
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrEntryClosed)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestStore_DuplicateSeqIsBranching(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, ":memory:")
	entry := func(id string) *domain.PlaythroughEvent {
		return &domain.PlaythroughEvent{ID: id, WorldID: "w", Seq: 3, Type: domain.EntryAdvance, Destination: "e1",
			State: domain.VariableState{}, UpdatedAt: time.Now()}
	}
	require.NoError(t, store.PutEntry(ctx, entry("a")))
	assert.ErrorIs(t, store.PutEntry(ctx, entry("b")), domain.ErrBranchingLog)
}
