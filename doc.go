/*
Package tapestry is a narrative runtime for branching interactive fiction.

A story is a graph of Worlds, Scenes, Events, Choices, Inputs and Paths. Paths may carry
Conditions over story Variables and Effects that change them. The runtime walks that graph
on behalf of a player and records every step in an append-only playthrough log, so a session
can be resumed, rewound with a loopback, or restarted without losing its history.

# Concept

The engine separates the story graph (what can happen) from the playthrough (what did happen).
Both live behind ports, so the same runtime can be backed by memory, SQLite or Redis and driven
by a terminal, an HTTP client or an MCP agent.

# Key Features

  - Route resolution: Conditions gate Paths, ties between open Paths are broken at random or refused in strict mode.
  - Effects: assignments and arithmetic applied in order when a Path is followed.
  - Templates: {expr} spans in passage text are evaluated against the current variables.
  - Bookmarks: one pointer per World to the open entry of the visible session.

# Usage

Load a bundle and play it in the terminal:

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/tapestry"
	)

	func main() {
		ctx := context.Background()
		eng := tapestry.New()

		state, err := eng.InstallFile(ctx, "story.yaml")
		if err != nil {
			log.Fatal(err)
		}

		if err := eng.Play(ctx, state.WorldID, os.Stdin, os.Stdout); err != nil {
			log.Fatal(err)
		}
	}

Hosts that drive the session themselves call RenderPassage and SubmitRoute in a loop instead.
*/
package tapestry
