package cli

import (
	"context"
	"crypto/md5"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/tapestry/internal/config"
	"github.com/aretw0/tapestry/internal/presentation/tui"
	"github.com/aretw0/tapestry/internal/runtime"
	"github.com/aretw0/tapestry/pkg/runner"
)

// WatchInterval is how often RunWatch checks the bundle file for changes.
var WatchInterval = 500 * time.Millisecond

// RunWatch plays a bundle in development mode: whenever the bundle file changes, the graph is
// reloaded and the current passage is shown again. The playthrough log is kept across reloads.
func RunWatch(ctx context.Context, cfg config.Config, opts PlayOptions, logger *slog.Logger) error {
	opts.defaults()
	if opts.BundlePath == "" {
		return errors.New("--watch requires a bundle file")
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

	tui.PrintBanner(opts.Out)
	logger.Info("Starting watcher", "path", opts.BundlePath, "world", worldID)
	printSystemMessage(opts.Out, "Watching '%s'.", opts.BundlePath)

	// One handler for every iteration, so only one reader pumps the input.
	handler := runner.NewTextHandler(opts.In, opts.Out,
		runner.WithTextHandlerRenderer(newRenderer(opts.Out, themeOf(ctx, backend, worldID, opts.Theme))))
	changes := watchFile(ctx, opts.BundlePath, WatchInterval)

	for {
		r := runner.NewRunner(createRunnerOptions(engine, worldID, cfg, opts, "", logger, handler)...)
		if !runWatchIteration(ctx, r, changes, backend, engine, opts, logger) {
			return nil
		}
		logger.Info("Watcher restarting")
	}
}

// runWatchIteration runs until the player stops, ctx ends or the bundle changes.
// It reports whether the watcher should run again.
func runWatchIteration(ctx context.Context, r *runner.Runner, changes <-chan struct{}, backend *Backend, engine *runtime.Engine, opts PlayOptions, logger *slog.Logger) bool {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(runCtx) }()

	reload := func() bool {
		printSystemMessage(opts.Out, "Change detected in '%s'.", opts.BundlePath)
		if _, err := InstallFile(ctx, backend, engine, opts.BundlePath, false); err != nil {
			logger.Error("Reload failed", "err", err)
			printSystemMessage(opts.Out, "Reload failed: %v", err)
		}
		return true
	}

	select {
	case <-ctx.Done():
		cancel()
		<-done
		return false
	case <-changes:
		cancel()
		<-done
		return reload()
	case err := <-done:
		if err == nil || errors.Is(err, io.EOF) {
			return false
		}
		if !isInterrupted(err) {
			logger.Error("Runtime error", "err", err)
			printSystemMessage(opts.Out, "Stopped: %v", err)
		}
		printSystemMessage(opts.Out, "Waiting for changes...")
		select {
		case <-ctx.Done():
			return false
		case <-changes:
			return reload()
		}
	}
}

// watchFile signals on the returned channel whenever the content of path changes.
// Unreadable files are skipped until they can be read again.
func watchFile(ctx context.Context, path string, interval time.Duration) <-chan struct{} {
	out := make(chan struct{}, 1)
	last, _ := fileHash(path)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sum, err := fileHash(path)
				if err != nil || sum == last {
					continue
				}
				last = sum
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}

func fileHash(path string) ([md5.Size]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [md5.Size]byte{}, err
	}
	return md5.Sum(data), nil
}
