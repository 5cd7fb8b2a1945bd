/*
Package runner implements the interactive play loop for the Tapestry runtime.

It acts as the bridge between the session controller and the outside world: it renders
the current passage through a pluggable IOHandler, reads the player's reply, turns it into
a route outcome and submits it.

# Key Components

  - Runner: the loop driving one World until the player quits or input ends.
  - IOHandler: decouples how passages are shown and replies are read.
  - TextHandler: markdown passages for interactive terminal use.
  - JSONHandler: JSON-Lines passages for scripted or piped use.
  - ParseCommand: maps a reply line onto a route outcome.

# Usage

	r := runner.NewRunner(
		runner.WithEngine(engine),
		runner.WithWorld("lantern"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
