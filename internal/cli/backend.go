package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/tapestry/internal/config"
	"github.com/aretw0/tapestry/internal/runtime"
	"github.com/aretw0/tapestry/internal/telemetry"
	"github.com/aretw0/tapestry/pkg/adapters/memory"
	"github.com/aretw0/tapestry/pkg/adapters/redis"
	"github.com/aretw0/tapestry/pkg/adapters/sqlite"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/observability"
	"github.com/aretw0/tapestry/pkg/ports"
)

// Backend is the storage a command runs against.
type Backend struct {
	Graph ports.GraphStore
	Store ports.PlaythroughStore

	closers []io.Closer
}

// OpenBackend opens the stores selected by cfg.Store.
// The redis backend keeps the playthrough in redis and the story graph in SQLite.
func OpenBackend(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch strings.ToLower(cfg.Store) {
	case config.StoreMemory:
		return &Backend{Graph: memory.NewGraph(), Store: memory.NewStore()}, nil

	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{Graph: db, Store: db, closers: []io.Closer{db}}, nil

	case config.StoreRedis:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithPrefix(cfg.RedisPrefix))
		return &Backend{Graph: db, Store: rs, closers: []io.Closer{rs, db}}, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// Close releases every opened store.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewEngine builds the session controller over b with CLI conventions:
// lifecycle events logged through logger, spans on the global tracer, strict routes from cfg.
func NewEngine(b *Backend, cfg config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) *runtime.Engine {
	all := append([]domain.LifecycleHooks{observability.LoggingHooks(logger)}, hooks...)
	return runtime.NewEngine(b.Graph, b.Store,
		runtime.WithLogger(logger),
		runtime.WithLifecycleHooks(observability.Combine(all...)),
		runtime.WithTracer(telemetry.Tracer()),
		runtime.WithStrictRoutes(cfg.StrictRoutes),
	)
}
