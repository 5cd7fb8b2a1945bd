package runner

import (
	"io"
	"log/slog"

	"github.com/aretw0/tapestry/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithEngine configures the session controller driven by the Runner. Required.
func WithEngine(engine ports.SessionController) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithWorld selects the World to play. Required.
func WithWorld(worldID string) Option {
	return func(r *Runner) {
		r.worldID = worldID
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithIO sets the streams used by the default TextHandler.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		r.Input = in
		r.Output = out
	}
}

// WithRenderer configures the content renderer of the default TextHandler.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithHeadless makes the Runner follow lone passthroughs without waiting for input
// and return once an ending has been shown.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithHistoryLimit sets how many entries :history lists. Zero uses the World's settings.
func WithHistoryLimit(limit int) Option {
	return func(r *Runner) {
		r.HistoryLimit = limit
	}
}
