package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tapestry/internal/runtime"
	"github.com/aretw0/tapestry/pkg/adapters/memory"
	"github.com/aretw0/tapestry/pkg/domain"
)

func TestInstall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	installed, err := f.engine.IsInstalled(ctx, worldID)
	require.NoError(t, err)
	assert.False(t, installed)

	state := f.install(t)
	assert.Equal(t, domain.StatusIdle, state.Status)
	assert.Equal(t, domain.InitialEntryID(worldID), state.Entry.ID)
	assert.Equal(t, domain.EntryInitial, state.Entry.Type)
	assert.Equal(t, "e1", state.Entry.Destination)
	assert.Equal(t, "0", state.Entry.State["v-score"].Value)
	assert.Equal(t, "Ada", state.Entry.State["v-name"].Value)

	installed, err = f.engine.IsInstalled(ctx, worldID)
	require.NoError(t, err)
	assert.True(t, installed)

	b, err := f.store.GetBookmark(ctx, worldID)
	require.NoError(t, err)
	assert.Equal(t, domain.InitialEntryID(worldID), b.EntryID)

	s, err := f.store.GetSettings(ctx, worldID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultHistoryLimit, s.HistoryLimit)

	t.Run("Install Is Idempotent", func(t *testing.T) {
		f.submit(t, domain.ChoiceOutcome("c1", ""))
		again, err := f.engine.Install(ctx, worldID, nil)
		require.NoError(t, err)
		assert.Equal(t, "e2", again.Entry.Destination)
	})
}

func TestResume_NotInstalled(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Resume(context.Background(), worldID)
	assert.ErrorIs(t, err, domain.ErrNotInstalled)

	info, err := f.engine.Introspect(context.Background(), worldID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUninstalled, info.Status)
}

func TestSubmitRoute_Choice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	initial := f.install(t)

	state := f.submit(t, domain.ChoiceOutcome("c1", ""))

	require.NotNil(t, state.Previous)
	assert.Equal(t, initial.Entry.ID, state.Previous.ID)
	assert.Equal(t, &domain.RouteResult{Kind: domain.OutcomeChoice, ChoiceID: "c1", PathID: "p1"}, state.Previous.Result)
	assert.Equal(t, state.Entry.ID, state.Previous.Next)

	next := state.Entry
	assert.Equal(t, "e2", next.Destination)
	assert.Equal(t, "e1", next.Origin)
	assert.Equal(t, initial.Entry.ID, next.Prev)
	assert.Equal(t, uint64(1), next.Seq)
	assert.Equal(t, "5", next.State["v-score"].Value)

	stored, err := f.store.GetEntry(ctx, initial.Entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.Closed())
	assert.Equal(t, next.ID, stored.Next)
	assert.Equal(t, "0", stored.State["v-score"].Value, "closed entry keeps its snapshot")

	b, err := f.store.GetBookmark(ctx, worldID)
	require.NoError(t, err)
	assert.Equal(t, next.ID, b.EntryID)
}

func TestSubmitRoute_PassthroughFollowsJump(t *testing.T) {
	f := newFixture(t, nil)
	f.install(t)
	f.submit(t, domain.ChoiceOutcome("c1", "p1"))

	state := f.submit(t, domain.PassthroughOutcome(""))
	assert.Equal(t, "e4", state.Entry.Destination)
	assert.Equal(t, "p3", state.Previous.Result.PathID)
}

func TestSubmitRoute_Input(t *testing.T) {
	f := newFixture(t, nil)
	f.install(t)
	f.setFlag(t, "true")

	gate := f.submit(t, domain.ChoiceOutcome("c2", ""))
	require.Equal(t, "e3", gate.Entry.Destination)

	end := f.submit(t, domain.InputOutcome("  Grace  ", ""))
	assert.Equal(t, "e4", end.Entry.Destination)
	assert.Equal(t, "Grace", end.Entry.State["v-name"].Value)
	assert.Equal(t, "true", end.Entry.State["v-flag"].Value)
	assert.Equal(t, &domain.RouteResult{Kind: domain.OutcomeInput, InputID: "i1", PathID: "p4", Value: "Grace"}, end.Previous.Result)
}

func TestSubmitRoute_InvalidOutcomes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	initial := f.install(t)

	tests := []struct {
		name    string
		outcome domain.RouteOutcome
		wantErr error
	}{
		{"Missing Choice", domain.RouteOutcome{Kind: domain.OutcomeChoice}, domain.ErrInvalidOutcome},
		{"Choice Of Other Event", domain.ChoiceOutcome("unknown", ""), domain.ErrNotFound},
		{"Input On Choice Event", domain.InputOutcome("x", ""), domain.ErrInvalidOutcome},
		{"Pinned Path Of Other Choice", domain.ChoiceOutcome("c1", "p2"), domain.ErrInvalidOutcome},
		{"Closed Guard", domain.ChoiceOutcome("c2", ""), domain.ErrNoOpenRoute},
		{"Closed Pinned Path", domain.ChoiceOutcome("c2", "p2"), domain.ErrNoOpenRoute},
		{"Loopback Without Origin", domain.LoopbackOutcome(), domain.ErrMissingOrigin},
		{"Unknown Kind", domain.RouteOutcome{Kind: "teleport"}, domain.ErrInvalidOutcome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.SubmitRoute(ctx, worldID, initial.Entry.ID, tt.outcome)
			assert.ErrorIs(t, err, tt.wantErr)

			// Failed submissions never touch the log.
			stored, err := f.store.GetEntry(ctx, initial.Entry.ID)
			require.NoError(t, err)
			assert.False(t, stored.Closed())
		})
	}
}

func TestSubmitRoute_Duplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	initial := f.install(t)

	first, err := f.engine.SubmitRoute(ctx, worldID, initial.Entry.ID, domain.ChoiceOutcome("c1", ""))
	require.NoError(t, err)

	again, err := f.engine.SubmitRoute(ctx, worldID, initial.Entry.ID, domain.ChoiceOutcome("c1", ""))
	require.NoError(t, err, "duplicate advances are absorbed")
	assert.True(t, again.Duplicate)
	assert.Equal(t, first.Entry.ID, again.Entry.ID)

	entries, err := f.store.RecentEntries(ctx, worldID, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSubmitRoute_ConcurrentSubmissionsAdvanceOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	initial := f.install(t)

	const callers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		advanced   int
		duplicates int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := f.engine.SubmitRoute(ctx, worldID, initial.Entry.ID, domain.ChoiceOutcome("c1", ""))
			mu.Lock()
			defer mu.Unlock()
			if assert.NoError(t, err) {
				if state.Duplicate {
					duplicates++
				} else {
					advanced++
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, advanced)
	assert.Equal(t, callers-1, duplicates)

	entries, err := f.store.RecentEntries(ctx, worldID, 100)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "the log must stay linear")
}

func TestSubmitRoute_Loopback(t *testing.T) {
	f := newFixture(t, nil)
	f.install(t)
	f.submit(t, domain.ChoiceOutcome("c1", ""))

	back := f.submit(t, domain.LoopbackOutcome())
	assert.Equal(t, "e1", back.Entry.Destination)
	assert.Equal(t, "e2", back.Entry.Origin)
	assert.Equal(t, "5", back.Entry.State["v-score"].Value, "loopback keeps state")
	assert.Equal(t, domain.OutcomeLoopback, back.Previous.Result.Kind)
}

// Game over restores INITIAL state and destination.
func TestSubmitRoute_GameOver(t *testing.T) {
	f := newFixture(t, nil)
	initial := f.install(t)
	f.submit(t, domain.ChoiceOutcome("c1", ""))
	f.submit(t, domain.PassthroughOutcome(""))

	restarted := f.submit(t, domain.GameOverOutcome())
	assert.Equal(t, domain.EntryRestart, restarted.Entry.Type)
	assert.Equal(t, initial.Entry.Destination, restarted.Entry.Destination)
	assert.True(t, initial.Entry.State.Equal(restarted.Entry.State))
	assert.Empty(t, restarted.Entry.Origin)
	assert.Equal(t, uint64(3), restarted.Entry.Seq)

	_, err := f.engine.SubmitRoute(context.Background(), worldID, restarted.Entry.ID, domain.LoopbackOutcome())
	assert.ErrorIs(t, err, domain.ErrMissingOrigin)
}

func TestRestart(t *testing.T) {
	f := newFixture(t, nil)
	f.install(t)
	f.submit(t, domain.ChoiceOutcome("c1", ""))

	state, err := f.engine.Restart(context.Background(), worldID)
	require.NoError(t, err)
	assert.Equal(t, "e1", state.Entry.Destination)
	assert.Equal(t, "0", state.Entry.State["v-score"].Value)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.install(t)
	f.submit(t, domain.ChoiceOutcome("c1", ""))
	f.submit(t, domain.LoopbackOutcome())

	t.Run("Newest First", func(t *testing.T) {
		history, err := f.engine.History(ctx, worldID, 0)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, []string{"e1", "e2", "e1"}, destinations(history))
		assert.Equal(t, domain.EntryInitial, history[2].Type)
	})

	t.Run("Limit", func(t *testing.T) {
		history, err := f.engine.History(ctx, worldID, 2)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})

	t.Run("Truncated At Restart", func(t *testing.T) {
		f.submit(t, domain.GameOverOutcome())
		f.submit(t, domain.ChoiceOutcome("c1", ""))

		history, err := f.engine.History(ctx, worldID, 50)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, domain.EntryRestart, history[1].Type)

		// Older entries are still stored.
		all, err := f.store.RecentEntries(ctx, worldID, 50)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})
}

func TestIntrospect(t *testing.T) {
	f := newFixture(t, nil)
	f.install(t)
	state := f.submit(t, domain.ChoiceOutcome("c1", ""))

	info, err := f.engine.Introspect(context.Background(), worldID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIdle, info.Status)
	assert.Equal(t, state.Entry.ID, info.EntryID)
	assert.Equal(t, "e2", info.Destination)
	assert.Equal(t, "5", info.State["v-score"].Value)
}

func TestUninstall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.install(t)
	f.submit(t, domain.ChoiceOutcome("c1", ""))

	require.NoError(t, f.engine.Uninstall(ctx, worldID))
	installed, err := f.engine.IsInstalled(ctx, worldID)
	require.NoError(t, err)
	assert.False(t, installed)

	state := f.install(t)
	assert.Equal(t, "e1", state.Entry.Destination)
}

func TestEngine_HooksAndSubscribers(t *testing.T) {
	var (
		mu       sync.Mutex
		advances []*domain.AdvanceEvent
		resolved []*domain.RouteEvent
		blocked  []*domain.RouteEvent
		states   []domain.SessionState
	)
	hooks := domain.LifecycleHooks{
		OnAdvance: func(_ context.Context, ev *domain.AdvanceEvent) {
			mu.Lock()
			defer mu.Unlock()
			advances = append(advances, ev)
		},
		OnRouteResolved: func(_ context.Context, ev *domain.RouteEvent) {
			mu.Lock()
			defer mu.Unlock()
			resolved = append(resolved, ev)
		},
		OnBlocked: func(_ context.Context, ev *domain.RouteEvent) {
			mu.Lock()
			defer mu.Unlock()
			blocked = append(blocked, ev)
		},
	}
	f := newFixture(t, nil,
		runtime.WithLifecycleHooks(hooks),
		runtime.WithSubscriber(func(s domain.SessionState) { states = append(states, s) }),
	)
	f.install(t)

	_, err := f.engine.SubmitRoute(context.Background(), worldID, domain.InitialEntryID(worldID), domain.ChoiceOutcome("c2", ""))
	require.Error(t, err)
	f.submit(t, domain.ChoiceOutcome("c1", ""))

	require.Len(t, advances, 1)
	assert.Equal(t, "p1", advances[0].PathID)
	assert.Equal(t, "e2", advances[0].Destination)

	require.Len(t, blocked, 1)
	assert.Equal(t, "c2", blocked[0].OriginID)
	require.Len(t, resolved, 1)
	assert.Equal(t, "p1", resolved[0].Selected)

	require.Len(t, states, 2, "install and advance are published")
	states[1].Entry.State["v-score"] = domain.VariableValue{Value: "999"}
	current, err := f.engine.Resume(context.Background(), worldID)
	require.NoError(t, err)
	assert.Equal(t, "5", current.Entry.State["v-score"].Value, "subscribers get copies")

	unsubscribe := f.engine.Subscribe(func(domain.SessionState) { t.Error("unsubscribed observer called") })
	unsubscribe()
	f.submit(t, domain.PassthroughOutcome(""))
}

type failingStore struct {
	*memory.Store
	failAppend   bool
	failClose    bool
	failBookmark bool
}

var errDisk = errors.New("disk full")

func (s *failingStore) PutEntry(ctx context.Context, entry *domain.PlaythroughEvent) error {
	if s.failAppend {
		return errDisk
	}
	return s.Store.PutEntry(ctx, entry)
}

func (s *failingStore) UpdateEntry(ctx context.Context, id string, patch domain.EntryPatch) error {
	if s.failClose && patch.Result != nil {
		return errDisk
	}
	return s.Store.UpdateEntry(ctx, id, patch)
}

func (s *failingStore) PutBookmark(ctx context.Context, bookmark *domain.Bookmark) error {
	if s.failBookmark {
		return errDisk
	}
	return s.Store.PutBookmark(ctx, bookmark)
}

func TestSubmitRoute_StoreErrorPropagates(t *testing.T) {
	ctx := context.Background()
	graph, err := memory.NewFromEntities(storyworld()...)
	require.NoError(t, err)
	store := &failingStore{Store: memory.NewStore()}
	engine := runtime.NewEngine(graph, store)

	initial, err := engine.Install(ctx, worldID, nil)
	require.NoError(t, err)

	store.failAppend = true
	_, err = engine.SubmitRoute(ctx, worldID, initial.Entry.ID, domain.ChoiceOutcome("c1", ""))
	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.ErrorIs(t, err, errDisk)
}

func TestSubmitRoute_RecoversAfterFailedWrite(t *testing.T) {
	tests := []struct {
		name          string
		fail          func(*failingStore, bool)
		wantErr       bool
		wantDuplicate bool
	}{
		{"Append Fails", func(s *failingStore, on bool) { s.failAppend = on }, true, false},
		{"Close Fails", func(s *failingStore, on bool) { s.failClose = on }, true, false},
		{"Bookmark Fails", func(s *failingStore, on bool) { s.failBookmark = on }, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			graph, err := memory.NewFromEntities(storyworld()...)
			require.NoError(t, err)
			store := &failingStore{Store: memory.NewStore()}
			engine := runtime.NewEngine(graph, store)

			initial, err := engine.Install(ctx, worldID, nil)
			require.NoError(t, err)

			tt.fail(store, true)
			_, err = engine.SubmitRoute(ctx, worldID, initial.Entry.ID, domain.ChoiceOutcome("c1", ""))
			if tt.wantErr {
				assert.ErrorIs(t, err, errDisk)
			} else {
				assert.NoError(t, err)
			}
			tt.fail(store, false)

			retry, err := engine.SubmitRoute(ctx, worldID, initial.Entry.ID, domain.ChoiceOutcome("c1", ""))
			require.NoError(t, err)
			assert.Equal(t, tt.wantDuplicate, retry.Duplicate)
			assert.Equal(t, "e2", retry.Entry.Destination)

			resumed, err := engine.Resume(ctx, worldID)
			require.NoError(t, err)
			assert.Equal(t, "e2", resumed.Entry.Destination)

			history, err := engine.History(ctx, worldID, 10)
			require.NoError(t, err)
			assert.Equal(t, []string{"e2", "e1"}, destinations(history))

			restarted, err := engine.Restart(ctx, worldID)
			require.NoError(t, err)
			assert.False(t, restarted.Duplicate)
			assert.Equal(t, domain.EntryRestart, restarted.Entry.Type)
			assert.Equal(t, "e1", restarted.Entry.Destination)
			assert.Equal(t, "0", restarted.Entry.State["v-score"].Value)
		})
	}
}

func TestSubmitRoute_TakenSuccessorIsDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	initial := f.install(t)

	require.NoError(t, f.store.PutEntry(ctx, &domain.PlaythroughEvent{
		ID:          "rival",
		WorldID:     worldID,
		Seq:         1,
		Type:        domain.EntryAdvance,
		Destination: "e2",
		Prev:        initial.Entry.ID,
	}))

	state, err := f.engine.SubmitRoute(ctx, worldID, initial.Entry.ID, domain.ChoiceOutcome("c1", ""))
	require.NoError(t, err)
	assert.True(t, state.Duplicate)

	stored, err := f.store.GetEntry(ctx, initial.Entry.ID)
	require.NoError(t, err)
	assert.False(t, stored.Closed(), "losing submission does not close the entry")
}

func destinations(entries []*domain.PlaythroughEvent) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Destination
	}
	return out
}
