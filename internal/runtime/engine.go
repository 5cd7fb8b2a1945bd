package runtime

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/tapestry/internal/logging"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/ports"
)

const tracerName = "github.com/aretw0/tapestry/internal/runtime"

// Subscriber observes every SessionState produced by the engine.
// It receives copies; mutating them has no effect on the engine.
type Subscriber func(domain.SessionState)

// Engine is the narrative runtime: route resolution, effects, expressions and the playthrough log.
type Engine struct {
	graph ports.GraphReader
	store ports.PlaythroughStore

	logger *slog.Logger
	hooks  domain.LifecycleHooks
	tracer trace.Tracer

	// pick returns a uniform index in [0, n) for random tie-breaks.
	pick  func(n int) int
	now   func() time.Time
	newID func() string

	strictRoutes bool

	mu          sync.RWMutex
	status      map[string]domain.SessionStatus
	subscribers []Subscriber
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTracer overrides the OpenTelemetry tracer (default: the global provider).
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithRand injects the random source used when several Paths are open at once.
func WithRand(r *rand.Rand) EngineOption {
	return func(e *Engine) {
		if r == nil {
			return
		}
		var mu sync.Mutex
		e.pick = func(n int) int {
			mu.Lock()
			defer mu.Unlock()
			return r.IntN(n)
		}
	}
}

// WithClock overrides time.Now for entry and bookmark timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides the entry id generator (default: UUIDv7).
func WithIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithStrictRoutes makes more than one open Path for one origin fail with domain.ErrAmbiguousRoute
// instead of picking one at random.
func WithStrictRoutes(strict bool) EngineOption {
	return func(e *Engine) {
		e.strictRoutes = strict
	}
}

// WithSubscriber registers an observer of every produced SessionState.
func WithSubscriber(sub Subscriber) EngineOption {
	return func(e *Engine) {
		if sub != nil {
			e.subscribers = append(e.subscribers, sub)
		}
	}
}

var _ ports.SessionController = (*Engine)(nil)

// NewEngine creates a new engine with dependencies.
func NewEngine(graph ports.GraphReader, store ports.PlaythroughStore, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:  graph,
		store:  store,
		logger: logging.NewNop(),
		tracer: otel.Tracer(tracerName),
		pick:   rand.IntN,
		now:    time.Now,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
		status: make(map[string]domain.SessionStatus),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers an observer and returns a function removing it.
func (e *Engine) Subscribe(sub Subscriber) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers = append(e.subscribers, sub)
	idx := len(e.subscribers) - 1
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if idx < len(e.subscribers) {
			e.subscribers[idx] = nil
		}
	}
}

func (e *Engine) publish(state domain.SessionState) {
	e.mu.RLock()
	subs := make([]Subscriber, 0, len(e.subscribers))
	for _, s := range e.subscribers {
		if s != nil {
			subs = append(subs, s)
		}
	}
	e.mu.RUnlock()

	for _, sub := range subs {
		sub(copyState(state))
	}
}

func copyState(s domain.SessionState) domain.SessionState {
	s.Entry = s.Entry.Clone()
	s.Previous = s.Previous.Clone()
	return s
}

// setStatus records the transient state machine status of a World.
func (e *Engine) setStatus(worldID string, status domain.SessionStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status[worldID] = status
}

func (e *Engine) currentStatus(worldID string) (domain.SessionStatus, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.status[worldID]
	return s, ok
}

func (e *Engine) timestamp() time.Time {
	return e.now().UTC()
}
