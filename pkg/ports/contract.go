package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGraphStoreContract runs a suite of tests to verify that a GraphStore implementation
// adheres to the defined interface contract.
func RunGraphStoreContract(t *testing.T, store GraphStore) {
	ctx := context.Background()
	worldID := "contract-world-" + time.Now().Format("20060102150405.000000")

	scene := &domain.Scene{ID: worldID + "-scene", WorldID: worldID, Title: "Hall"}
	events := []*domain.Event{
		{ID: worldID + "-e2", WorldID: worldID, SceneID: scene.ID, Title: "Second", Content: "two"},
		{ID: worldID + "-e1", WorldID: worldID, SceneID: scene.ID, Title: "First", Content: "one"},
		{ID: worldID + "-e3", WorldID: worldID, SceneID: scene.ID, Title: "Third", Content: "three"},
	}

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, scene))
		for _, e := range events {
			require.NoError(t, store.Put(ctx, e))
		}

		got, err := store.Get(ctx, domain.KindEvent, events[0].ID)
		require.NoError(t, err)
		ev, ok := got.(*domain.Event)
		require.True(t, ok, "Get should return a pointer record")
		assert.Equal(t, events[0], ev)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, domain.KindEvent, "missing-"+worldID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Get Wrong Kind", func(t *testing.T) {
		_, err := store.Get(ctx, domain.KindChoice, events[0].ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListByParent Keeps Insertion Order", func(t *testing.T) {
		list, err := store.ListByParent(ctx, domain.KindEvent, scene.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, e := range list {
			assert.Equal(t, events[i].ID, e.EntityID())
		}

		empty, err := store.ListByParent(ctx, domain.KindEvent, "nobody-"+worldID)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("Replace Keeps Position", func(t *testing.T) {
		updated := *events[0]
		updated.Content = "two, revised"
		require.NoError(t, store.Put(ctx, &updated))

		list, err := store.ListByParent(ctx, domain.KindEvent, scene.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "two, revised", list[0].(*domain.Event).Content)
	})

	t.Run("ListByIDs Follows Requested Order", func(t *testing.T) {
		ids := []string{events[2].ID, events[0].ID}
		list, err := store.ListByIDs(ctx, domain.KindEvent, ids)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, events[2].ID, list[0].EntityID())
		assert.Equal(t, events[0].ID, list[1].EntityID())

		_, err = store.ListByIDs(ctx, domain.KindEvent, []string{events[1].ID, "missing-" + worldID})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Returned Records Are Copies", func(t *testing.T) {
		got, err := store.Get(ctx, domain.KindEvent, events[1].ID)
		require.NoError(t, err)
		got.(*domain.Event).Content = "mutated"

		again, err := store.Get(ctx, domain.KindEvent, events[1].ID)
		require.NoError(t, err)
		assert.Equal(t, "one", again.(*domain.Event).Content)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, domain.KindEvent, events[2].ID))
		_, err := store.Get(ctx, domain.KindEvent, events[2].ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		list, err := store.ListByParent(ctx, domain.KindEvent, scene.ID)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		assert.NoError(t, store.Delete(ctx, domain.KindEvent, "missing-"+worldID))
	})
}

// RunPlaythroughStoreContract runs a suite of tests to verify that a PlaythroughStore implementation
// adheres to the defined interface contract.
func RunPlaythroughStoreContract(t *testing.T, store PlaythroughStore) {
	ctx := context.Background()
	worldID := "contract-world-" + time.Now().Format("20060102150405.000000")
	now := time.Now().UTC().Truncate(time.Millisecond)

	entry := func(seq uint64, prev string) *domain.PlaythroughEvent {
		return &domain.PlaythroughEvent{
			ID:          fmt.Sprintf("%s-entry-%d", worldID, seq),
			WorldID:     worldID,
			Seq:         seq,
			Type:        domain.EntryAdvance,
			Destination: fmt.Sprintf("event-%d", seq),
			Prev:        prev,
			State: domain.VariableState{
				"v1": {Title: "score", Type: domain.VariableNumber, Value: fmt.Sprint(seq)},
			},
			UpdatedAt: now,
		}
	}

	first := entry(0, "")
	first.Type = domain.EntryInitial

	t.Run("Put and Get Entry", func(t *testing.T) {
		require.NoError(t, store.PutEntry(ctx, first))

		got, err := store.GetEntry(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Destination, got.Destination)
		assert.Equal(t, first.Type, got.Type)
		assert.True(t, first.State.Equal(got.State))
		assert.Nil(t, got.Result)
		assert.True(t, first.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("Get Non-Existent Entry", func(t *testing.T) {
		_, err := store.GetEntry(ctx, "missing-"+worldID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Result Is Written Once", func(t *testing.T) {
		result := &domain.RouteResult{Kind: domain.OutcomeChoice, ChoiceID: "c1", PathID: "p1"}
		require.NoError(t, store.UpdateEntry(ctx, first.ID, domain.EntryPatch{Result: result}))

		err := store.UpdateEntry(ctx, first.ID, domain.EntryPatch{
			Result: &domain.RouteResult{Kind: domain.OutcomeLoopback},
		})
		assert.ErrorIs(t, err, domain.ErrEntryClosed)

		got, err := store.GetEntry(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Result)
		assert.Equal(t, *result, *got.Result)
	})

	t.Run("Next May Be Set On Closed Entry", func(t *testing.T) {
		next := first.ID + "-next"
		require.NoError(t, store.UpdateEntry(ctx, first.ID, domain.EntryPatch{Next: &next}))

		got, err := store.GetEntry(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, next, got.Next)
	})

	t.Run("Update Non-Existent Entry", func(t *testing.T) {
		next := "x"
		err := store.UpdateEntry(ctx, "missing-"+worldID, domain.EntryPatch{Next: &next})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Log Does Not Branch", func(t *testing.T) {
		require.NoError(t, store.PutEntry(ctx, entry(1, first.ID)))

		fork := entry(2, first.ID)
		err := store.PutEntry(ctx, fork)
		assert.ErrorIs(t, err, domain.ErrBranchingLog)

		_, err = store.GetEntry(ctx, fork.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("RecentEntries Newest First", func(t *testing.T) {
		prev := entry(1, first.ID).ID
		for seq := uint64(2); seq <= 4; seq++ {
			e := entry(seq, prev)
			require.NoError(t, store.PutEntry(ctx, e))
			prev = e.ID
		}

		recent, err := store.RecentEntries(ctx, worldID, 3)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, uint64(4), recent[0].Seq)
		assert.Equal(t, uint64(3), recent[1].Seq)
		assert.Equal(t, uint64(2), recent[2].Seq)

		all, err := store.RecentEntries(ctx, worldID, 100)
		require.NoError(t, err)
		assert.Len(t, all, 5)

		other, err := store.RecentEntries(ctx, "other-"+worldID, 10)
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("DeleteEntry Releases Prev", func(t *testing.T) {
		prev := entry(3, "").ID
		tip := entry(4, prev)
		require.NoError(t, store.DeleteEntry(ctx, tip.ID))

		_, err := store.GetEntry(ctx, tip.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		recent, err := store.RecentEntries(ctx, worldID, 100)
		require.NoError(t, err)
		assert.Len(t, recent, 4)

		retry := entry(4, prev)
		retry.ID += "-retry"
		require.NoError(t, store.PutEntry(ctx, retry))

		assert.NoError(t, store.DeleteEntry(ctx, "missing-"+worldID))
	})

	t.Run("Bookmark", func(t *testing.T) {
		_, err := store.GetBookmark(ctx, worldID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		b := &domain.Bookmark{
			ID:        domain.AutoBookmarkID(worldID),
			WorldID:   worldID,
			EntryID:   first.ID,
			UpdatedAt: now,
		}
		require.NoError(t, store.PutBookmark(ctx, b))

		b.EntryID = entry(4, "").ID
		require.NoError(t, store.PutBookmark(ctx, b))

		got, err := store.GetBookmark(ctx, worldID)
		require.NoError(t, err)
		assert.Equal(t, b.EntryID, got.EntryID)
	})

	t.Run("Settings", func(t *testing.T) {
		_, err := store.GetSettings(ctx, worldID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		s := domain.DefaultSettings(worldID)
		s.HistoryLimit = 7
		require.NoError(t, store.PutSettings(ctx, &s))

		got, err := store.GetSettings(ctx, worldID)
		require.NoError(t, err)
		assert.Equal(t, s, *got)
	})

	t.Run("DeletePlaythrough", func(t *testing.T) {
		require.NoError(t, store.DeletePlaythrough(ctx, worldID))

		_, err := store.GetEntry(ctx, first.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = store.GetBookmark(ctx, worldID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = store.GetSettings(ctx, worldID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		recent, err := store.RecentEntries(ctx, worldID, 10)
		require.NoError(t, err)
		assert.Empty(t, recent)

		// The chain can be rebuilt after a reset.
		again := entry(0, "")
		require.NoError(t, store.PutEntry(ctx, again))
		require.NoError(t, store.PutEntry(ctx, entry(1, again.ID)))
	})
}
