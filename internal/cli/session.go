package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/tapestry/internal/config"
	"github.com/aretw0/tapestry/internal/presentation/tui"
	"github.com/aretw0/tapestry/internal/runtime"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/runner"
)

// PlayOptions contains all the configuration for the play command.
type PlayOptions struct {
	WorldID    string
	BundlePath string
	Fresh      bool
	Headless   bool
	JSON       bool
	Watch      bool
	Theme      string

	In  io.Reader
	Out io.Writer
}

func (o *PlayOptions) defaults() {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
}

func (o PlayOptions) quiet() bool {
	return o.JSON || o.Headless
}

// RunSession plays one World in the terminal until the player quits or ctx is cancelled.
// With a bundle path, the bundle is installed (or its graph refreshed) first.
func RunSession(ctx context.Context, cfg config.Config, opts PlayOptions, logger *slog.Logger) error {
	opts.defaults()
	if opts.Watch {
		if opts.quiet() {
			return fmt.Errorf("--watch cannot be combined with --headless or --json")
		}
		return RunWatch(ctx, cfg, opts, logger)
	}

	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	engine := NewEngine(backend, cfg, logger)
	worldID, err := prepareWorld(ctx, backend, engine, opts)
	if err != nil {
		return err
	}

	if !opts.quiet() {
		tui.PrintBanner(opts.Out)
	}

	theme := themeOf(ctx, backend, worldID, opts.Theme)
	r := runner.NewRunner(createRunnerOptions(engine, worldID, cfg, opts, theme, logger, nil)...)
	runErr := r.Run(ctx)
	if ctx.Err() != nil && runErr == nil {
		runErr = ctx.Err()
	}

	if !opts.quiet() {
		var sig os.Signal
		if sc, ok := ctx.(*SignalContext); ok {
			sig = sc.Signal()
		}
		logCompletion(ctx, opts.Out, engine, worldID, runErr, sig)
	}
	return handleExecutionError(runErr)
}

// prepareWorld installs the bundle if one is given and checks the World is playable.
func prepareWorld(ctx context.Context, backend *Backend, engine *runtime.Engine, opts PlayOptions) (string, error) {
	var doc *bundle.Bundle
	if opts.BundlePath != "" {
		var err error
		if doc, err = InstallFile(ctx, backend, engine, opts.BundlePath, opts.Fresh); err != nil {
			return "", err
		}
	}

	worldID, err := ResolveWorld(opts.WorldID, doc)
	if err != nil {
		return "", err
	}
	installed, err := engine.IsInstalled(ctx, worldID)
	if err != nil {
		return "", err
	}
	if !installed {
		return "", fmt.Errorf("world %q: %w (run 'tapestry install <bundle>' first)", worldID, domain.ErrNotInstalled)
	}
	if doc == nil && opts.Fresh {
		if _, err := engine.Restart(ctx, worldID); err != nil {
			return "", err
		}
	}
	return worldID, nil
}

// themeOf prefers the explicit theme, then the World settings.
func themeOf(ctx context.Context, backend *Backend, worldID, explicit string) string {
	if explicit != "" {
		return explicit
	}
	s, err := backend.Store.GetSettings(ctx, worldID)
	if err != nil {
		return ""
	}
	return s.Theme
}
