package tapestry

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/aretw0/tapestry/internal/logging"
	"github.com/aretw0/tapestry/internal/runtime"
	"github.com/aretw0/tapestry/pkg/adapters/memory"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/ports"
	"github.com/aretw0/tapestry/pkg/runner"
)

// Engine is the high-level entry point for the Tapestry library.
// It pairs a story graph with a playthrough store and wraps the session controller.
type Engine struct {
	runtime *runtime.Engine
	graph   ports.GraphStore
	store   ports.PlaythroughStore

	hooks  domain.LifecycleHooks
	logger *slog.Logger
	rand   *rand.Rand
	strict bool
}

var _ ports.SessionController = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithGraph sets the story graph store. Defaults to an in-memory graph.
func WithGraph(g ports.GraphStore) Option {
	return func(e *Engine) {
		e.graph = g
	}
}

// WithStore sets the playthrough store. Defaults to an in-memory store.
func WithStore(s ports.PlaythroughStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRand sets the source used to break ties between open paths.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rand = r
	}
}

// WithStrictRoutes rejects an advance with several open paths instead of picking one at random.
func WithStrictRoutes(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// New initializes a new Tapestry Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.graph == nil {
		e.graph = memory.NewGraph()
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLogger(e.logger),
		runtime.WithStrictRoutes(e.strict),
	}
	if e.rand != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithRand(e.rand))
	}
	e.runtime = runtime.NewEngine(e.graph, e.store, runtimeOpts...)
	return e
}

// Graph returns the story graph store, for authoring tools.
func (e *Engine) Graph() ports.GraphStore {
	return e.graph
}

// Install seeds the playthrough of a World whose graph is already stored.
func (e *Engine) Install(ctx context.Context, worldID string, settings *domain.Settings) (domain.SessionState, error) {
	return e.runtime.Install(ctx, worldID, settings)
}

// InstallBundle stores the graph of b and installs its World.
func (e *Engine) InstallBundle(ctx context.Context, b *bundle.Bundle) (domain.SessionState, error) {
	return bundle.Install(ctx, e.graph, e.runtime, b)
}

// InstallFile reads a bundle file and installs its World.
func (e *Engine) InstallFile(ctx context.Context, path string) (domain.SessionState, error) {
	b, err := bundle.ReadFile(path)
	if err != nil {
		return domain.SessionState{}, err
	}
	return e.InstallBundle(ctx, b)
}

// Export snapshots the stored graph of a World as a bundle.
func (e *Engine) Export(ctx context.Context, worldID string) (*bundle.Bundle, error) {
	return bundle.Snapshot(ctx, e.graph, worldID)
}

// Uninstall deletes the playthrough of a World.
func (e *Engine) Uninstall(ctx context.Context, worldID string) error {
	return e.runtime.Uninstall(ctx, worldID)
}

// Resume returns the current state of an installed World.
func (e *Engine) Resume(ctx context.Context, worldID string) (domain.SessionState, error) {
	return e.runtime.Resume(ctx, worldID)
}

// RenderPassage renders a log entry: text, choices, input prompt or ending.
func (e *Engine) RenderPassage(ctx context.Context, worldID, entryID string) (*domain.Passage, error) {
	return e.runtime.RenderPassage(ctx, worldID, entryID)
}

// SubmitRoute leaves the entry entryID with outcome.
func (e *Engine) SubmitRoute(ctx context.Context, worldID, entryID string, outcome domain.RouteOutcome) (domain.SessionState, error) {
	return e.runtime.SubmitRoute(ctx, worldID, entryID, outcome)
}

// Restart begins a new visible session from the initial state.
func (e *Engine) Restart(ctx context.Context, worldID string) (domain.SessionState, error) {
	return e.runtime.Restart(ctx, worldID)
}

// History returns entries of the visible session, newest first.
func (e *Engine) History(ctx context.Context, worldID string, limit int) ([]*domain.PlaythroughEvent, error) {
	return e.runtime.History(ctx, worldID, limit)
}

// Introspect exposes the current entry for diagnostics.
func (e *Engine) Introspect(ctx context.Context, worldID string) (domain.Introspection, error) {
	return e.runtime.Introspect(ctx, worldID)
}

// Subscribe registers fn for every state the engine publishes.
func (e *Engine) Subscribe(fn func(domain.SessionState)) (unsubscribe func()) {
	return e.runtime.Subscribe(fn)
}

// Play runs a text playthrough of worldID over in and out until input ends or the player quits.
func (e *Engine) Play(ctx context.Context, worldID string, in io.Reader, out io.Writer, opts ...runner.Option) error {
	base := []runner.Option{
		runner.WithEngine(e),
		runner.WithWorld(worldID),
		runner.WithLogger(e.logger),
		runner.WithIO(in, out),
	}
	return runner.NewRunner(append(base, opts...)...).Run(ctx)
}
