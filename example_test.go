package tapestry_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/tapestry"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
)

const doorStory = `
world:
  id: door
  children: [{kind: scene, id: hall}]
variables:
  - {id: v-key, title: key, type: boolean, initial: "false"}
scenes:
  - id: hall
    children: [{kind: event, id: hall-start}, {kind: event, id: garden}]
events:
  - id: hall-start
    scene_id: hall
    content: "A locked door. Key in hand: {key ? 'yes' : 'no'}."
    choices: [take, open]
  - id: garden
    scene_id: hall
    content: The door swings open onto a garden.
    ending: true
choices:
  - {id: take, event_id: hall-start, title: Take the key}
  - {id: open, event_id: hall-start, title: Open the door}
paths:
  - {id: p-take, origin_id: hall-start, origin_type: choice, choice_id: take, destination_id: hall-start, destination_type: event}
  - {id: p-open, origin_id: hall-start, origin_type: choice, choice_id: open, destination_id: garden, destination_type: event}
conditions:
  - {id: c-key, path_id: p-open, variable_id: v-key, operator: "=", value: "true"}
effects:
  - {id: e-key, path_id: p-take, variable_id: v-key, operator: assign, value: "true"}
`

// ExampleEngine_SubmitRoute drives a session by hand: render the passage, pick a choice, repeat.
func ExampleEngine_SubmitRoute() {
	ctx := context.Background()

	b, err := bundle.Decode(strings.NewReader(doorStory))
	if err != nil {
		log.Fatal(err)
	}

	eng := tapestry.New()
	state, err := eng.InstallBundle(ctx, b)
	if err != nil {
		log.Fatal(err)
	}

	show := func(state domain.SessionState) {
		p, err := eng.RenderPassage(ctx, state.WorldID, state.Entry.ID)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(p.Text)
		for _, c := range p.Choices {
			fmt.Printf("  - %s (open: %v)\n", c.Choice.Title, c.Open)
		}
	}

	show(state)
	for _, choice := range []string{"take", "open"} {
		state, err = eng.SubmitRoute(ctx, "door", state.Entry.ID, domain.ChoiceOutcome(choice, ""))
		if err != nil {
			log.Fatal(err)
		}
		show(state)
	}

	// Output:
	// A locked door. Key in hand: no.
	//   - Take the key (open: true)
	//   - Open the door (open: false)
	// A locked door. Key in hand: yes.
	//   - Take the key (open: true)
	//   - Open the door (open: true)
	// The door swings open onto a garden.
}

// ExampleEngine_Play runs the text runner over scripted input.
func ExampleEngine_Play() {
	ctx := context.Background()

	b, err := bundle.Decode(strings.NewReader(doorStory))
	if err != nil {
		log.Fatal(err)
	}

	eng := tapestry.New()
	if _, err := eng.InstallBundle(ctx, b); err != nil {
		log.Fatal(err)
	}

	var out strings.Builder
	if err := eng.Play(ctx, "door", strings.NewReader("1\n2\n"), &out); err != nil {
		log.Fatal(err)
	}

	history, err := eng.History(ctx, "door", 0)
	if err != nil {
		log.Fatal(err)
	}
	for _, entry := range history {
		fmt.Println(entry.Type, entry.Destination)
	}

	// Output:
	// advance garden
	// advance hall-start
	// initial hall-start
}
