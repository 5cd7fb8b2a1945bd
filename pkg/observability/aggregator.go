package observability

import (
	"context"
	"sync"

	"github.com/aretw0/tapestry/pkg/domain"
)

// DefaultWatchBuffer is the number of diffs a slow watcher may lag before diffs are dropped.
const DefaultWatchBuffer = 16

// Aggregator turns the session states published by the engine into per-World diffs
// and fans them out to watchers. Register Observe as an engine subscriber.
type Aggregator struct {
	mu       sync.Mutex
	last     map[string]*domain.PlaythroughEvent
	watchers map[string]map[chan *domain.StateDiff]struct{}
}

// NewAggregator creates a new aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		last:     make(map[string]*domain.PlaythroughEvent),
		watchers: make(map[string]map[chan *domain.StateDiff]struct{}),
	}
}

// Observe records a new session state and notifies the World's watchers.
// Watchers that are not keeping up miss the diff rather than blocking the engine.
func (a *Aggregator) Observe(state domain.SessionState) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if state.Entry == nil {
		delete(a.last, state.WorldID)
		return
	}

	prev := state.Previous
	if prev == nil {
		prev = a.last[state.WorldID]
	}
	a.last[state.WorldID] = state.Entry

	diff := domain.Diff(prev, state.Entry)
	if diff == nil {
		return
	}
	for ch := range a.watchers[state.WorldID] {
		select {
		case ch <- diff:
		default:
		}
	}
}

// Watch streams the diffs of a World until ctx is done. The first diff is the full current
// entry when one has been observed.
func (a *Aggregator) Watch(ctx context.Context, worldID string) <-chan *domain.StateDiff {
	ch := make(chan *domain.StateDiff, DefaultWatchBuffer)

	a.mu.Lock()
	if a.watchers[worldID] == nil {
		a.watchers[worldID] = make(map[chan *domain.StateDiff]struct{})
	}
	a.watchers[worldID][ch] = struct{}{}
	if last := a.last[worldID]; last != nil {
		ch <- domain.Diff(nil, last)
	}
	a.mu.Unlock()

	go func() {
		<-ctx.Done()
		a.mu.Lock()
		delete(a.watchers[worldID], ch)
		close(ch)
		a.mu.Unlock()
	}()
	return ch
}

// Seed primes the last known entry of a World, e.g. from Resume at startup.
func (a *Aggregator) Seed(entry *domain.PlaythroughEvent) {
	if entry == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last[entry.WorldID] = entry
}
