package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/tapestry/internal/config"
	"github.com/aretw0/tapestry/internal/presentation/tui"
	"github.com/aretw0/tapestry/internal/runtime"
	"github.com/aretw0/tapestry/pkg/runner"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}
	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sc.sigCh)
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}

// logCompletion reports where the playthrough stopped.
func logCompletion(ctx context.Context, w io.Writer, engine *runtime.Engine, worldID string, err error, sig os.Signal) {
	// The run context may already be cancelled.
	state, rerr := engine.Resume(context.WithoutCancel(ctx), worldID)
	if rerr != nil {
		return
	}
	dest := state.Entry.Destination
	switch {
	case err == nil || errors.Is(err, io.EOF):
		printSystemMessage(w, "Bookmarked at '%s'.", dest)
	case sig == os.Interrupt:
		fmt.Fprintln(w, "[CTRL+C]")
		printSystemMessage(w, "Interrupted at '%s'.", dest)
	case sig != nil:
		fmt.Fprintln(w)
		printSystemMessage(w, "Terminated at '%s'.", dest)
	case isInterrupted(err):
		fmt.Fprintln(w)
		printSystemMessage(w, "Interrupted at '%s'.", dest)
	}
}

// createRunnerOptions prepares the functional options for the Runner.
// A nil ioHandler selects JSON lines, plain text (headless) or rendered text from opts.
func createRunnerOptions(engine *runtime.Engine, worldID string, cfg config.Config, opts PlayOptions, theme string, logger *slog.Logger, ioHandler runner.IOHandler) []runner.Option {
	rOpts := []runner.Option{
		runner.WithEngine(engine),
		runner.WithWorld(worldID),
		runner.WithLogger(logger),
		runner.WithHeadless(opts.Headless),
		runner.WithHistoryLimit(cfg.HistoryLimit),
		runner.WithIO(opts.In, opts.Out),
	}

	switch {
	case ioHandler != nil:
		rOpts = append(rOpts, runner.WithInputHandler(ioHandler))
	case opts.JSON:
		rOpts = append(rOpts, runner.WithInputHandler(runner.NewJSONHandler(opts.In, opts.Out)))
	case !opts.Headless:
		rOpts = append(rOpts, runner.WithRenderer(newRenderer(opts.Out, theme)))
	}
	return rOpts
}

// newRenderer renders passages with glamour, plain when out is not a terminal.
func newRenderer(out io.Writer, theme string) runner.ContentRenderer {
	style := theme
	if !tui.IsTerminal(out) {
		style = tui.StyleNoTTY
	}
	return tui.NewRenderer(style, tui.Width(out), tui.Profile(out))
}
