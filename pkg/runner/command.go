package runner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/tapestry/pkg/domain"
)

// CommandKind is what a reply line asks the runner to do.
type CommandKind string

const (
	CommandRoute   CommandKind = "route"
	CommandRestart CommandKind = "restart"
	CommandHistory CommandKind = "history"
	CommandQuit    CommandKind = "quit"
)

// Meta commands understood at any passage.
const (
	MetaBack    = ":back"
	MetaRestart = ":restart"
	MetaHistory = ":history"
	MetaQuit    = ":quit"
)

var (
	// ErrUnknownCommand is returned when a reply matches nothing the passage offers.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrChoiceClosed is returned when the player picks a choice whose paths are all closed.
	ErrChoiceClosed = errors.New("choice is not available")
	// ErrNoWayForward is returned for plain replies at a blocked passage.
	ErrNoWayForward = errors.New("no way forward: use " + MetaBack + " or " + MetaRestart)
)

// Command is a parsed reply line.
type Command struct {
	Kind CommandKind
	// Outcome is set for CommandRoute.
	Outcome domain.RouteOutcome
}

// ParseCommand maps a reply line onto what the passage offers.
//
// Meta commands win over everything. At an ending any other reply plays again. An Input
// takes the raw line. Choices are picked by number, id or title. An empty line follows the
// passthrough.
func ParseCommand(p *domain.Passage, line string) (Command, error) {
	trimmed := strings.TrimSpace(line)

	switch strings.ToLower(trimmed) {
	case "exit", "quit", ":q", MetaQuit:
		return Command{Kind: CommandQuit}, nil
	case MetaRestart:
		return Command{Kind: CommandRestart}, nil
	case MetaHistory:
		return Command{Kind: CommandHistory}, nil
	case MetaBack:
		return route(domain.LoopbackOutcome()), nil
	}
	if strings.HasPrefix(trimmed, ":") {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, trimmed)
	}

	switch {
	case p.Ending:
		return route(domain.GameOverOutcome()), nil
	case p.Input != nil:
		return route(domain.InputOutcome(line, "")), nil
	case trimmed == "" && p.Passthrough != nil:
		return route(domain.PassthroughOutcome(p.Passthrough.ID)), nil
	case len(p.Choices) > 0:
		view, err := pickChoice(p.Choices, trimmed)
		if err != nil {
			return Command{}, err
		}
		return route(ChoiceOf(view)), nil
	case p.Blocked:
		return Command{}, ErrNoWayForward
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, trimmed)
}

// ChoiceOf builds the outcome for a rendered choice, pinning the Path resolved at render time.
func ChoiceOf(view domain.ChoiceView) domain.RouteOutcome {
	pathID := ""
	if view.Path != nil {
		pathID = view.Path.ID
	}
	return domain.ChoiceOutcome(view.Choice.ID, pathID)
}

func route(outcome domain.RouteOutcome) Command {
	return Command{Kind: CommandRoute, Outcome: outcome}
}

func pickChoice(choices []domain.ChoiceView, reply string) (domain.ChoiceView, error) {
	var picked *domain.ChoiceView
	if n, err := strconv.Atoi(reply); err == nil {
		if n >= 1 && n <= len(choices) {
			picked = &choices[n-1]
		}
	} else {
		for i := range choices {
			c := choices[i].Choice
			if strings.EqualFold(c.ID, reply) || strings.EqualFold(c.Title, reply) {
				picked = &choices[i]
				break
			}
		}
	}

	if picked == nil {
		return domain.ChoiceView{}, fmt.Errorf("%w: %q is not a choice", ErrUnknownCommand, reply)
	}
	if !picked.Open {
		return domain.ChoiceView{}, fmt.Errorf("%w: %s", ErrChoiceClosed, titleOf(picked.Choice))
	}
	return *picked, nil
}

func titleOf(c *domain.Choice) string {
	if c.Title != "" {
		return c.Title
	}
	return c.ID
}
