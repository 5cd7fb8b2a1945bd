package runner

import (
	"context"

	"github.com/aretw0/tapestry/pkg/domain"
)

// IOHandler defines the strategy for interacting with the player.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a rendered passage.
	Output(ctx context.Context, passage *domain.Passage) error

	// Input reads one reply line. It returns io.EOF when the input is exhausted.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, history listings) distinct from passage content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms passage markdown before it is written.
// This allows TUI rendering (markdown to ANSI) without coupling the runner to a terminal library.
type ContentRenderer func(string) (string, error)
