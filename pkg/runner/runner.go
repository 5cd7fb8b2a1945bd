package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/tapestry/internal/logging"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/ports"
)

// Runner drives one World's playthrough using the provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler over Input/Output is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer
	Headless bool

	HistoryLimit int

	engine  ports.SessionController
	worldID string
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plays the World until the player quits, input ends or ctx is cancelled.
// Recoverable route errors (closed choices, no open route, bad outcomes) are reported to the
// player and the passage is shown again; store and graph failures end the run.
func (r *Runner) Run(ctx context.Context) error {
	if r.engine == nil {
		return errors.New("runner: engine is required")
	}
	if r.worldID == "" {
		return errors.New("runner: world is required")
	}
	handler := r.resolveHandler()

	state, err := r.engine.Resume(ctx, r.worldID)
	if err != nil {
		return fmt.Errorf("resume %s: %w", r.worldID, err)
	}

	for {
		passage, err := r.engine.RenderPassage(ctx, r.worldID, state.Entry.ID)
		if err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if err := handler.Output(ctx, passage); err != nil {
			return fmt.Errorf("output error: %w", err)
		}

		var cmd Command
		if auto, ok := r.autoCommand(passage); ok {
			cmd = auto
		} else if r.Headless && passage.Ending {
			return nil
		} else {
			line, err := handler.Input(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("input error: %w", err)
			}
			cmd, err = ParseCommand(passage, line)
			if err != nil {
				if err := handler.SystemOutput(ctx, err.Error()); err != nil {
					return err
				}
				continue
			}
		}

		next, err := r.execute(ctx, handler, state, cmd)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if !recoverable(err) {
				return err
			}
			r.Logger.Debug("route rejected", "world", r.worldID, "entry", state.Entry.ID, "err", err)
			if err := handler.SystemOutput(ctx, err.Error()); err != nil {
				return err
			}
			continue
		}
		state = next
	}
}

// autoCommand follows a lone passthrough in headless mode.
func (r *Runner) autoCommand(p *domain.Passage) (Command, bool) {
	if !r.Headless || p.Ending || p.Passthrough == nil || p.Input != nil || len(p.Choices) > 0 {
		return Command{}, false
	}
	return route(domain.PassthroughOutcome(p.Passthrough.ID)), true
}

func (r *Runner) execute(ctx context.Context, handler IOHandler, state domain.SessionState, cmd Command) (domain.SessionState, error) {
	switch cmd.Kind {
	case CommandQuit:
		return state, io.EOF
	case CommandRestart:
		return r.engine.Restart(ctx, r.worldID)
	case CommandHistory:
		entries, err := r.engine.History(ctx, r.worldID, r.HistoryLimit)
		if err != nil {
			return state, err
		}
		return state, handler.SystemOutput(ctx, FormatHistory(entries))
	case CommandRoute:
		next, err := r.engine.SubmitRoute(ctx, r.worldID, state.Entry.ID, cmd.Outcome)
		if err != nil {
			return state, err
		}
		if next.Duplicate {
			r.Logger.Debug("entry already resolved elsewhere", "world", r.worldID, "entry", state.Entry.ID)
		}
		return next, nil
	}
	return state, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Kind)
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	r.Handler = NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer))
	return r.Handler
}

func recoverable(err error) bool {
	return errors.Is(err, domain.ErrInvalidOutcome) ||
		errors.Is(err, domain.ErrNoOpenRoute) ||
		errors.Is(err, domain.ErrAmbiguousRoute) ||
		errors.Is(err, domain.ErrMissingOrigin)
}
