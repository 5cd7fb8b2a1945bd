/*
Package dsl provides a Go DSL for building storyworlds in code.

It is an alternative to YAML or JSON bundles for generated stories, tests and tools that want
type checking on the graph they produce. Path ids are generated; destinations resolve to an Event
or Jump when Build runs.

Example usage:

	b := dsl.New("door", "The Door")
	b.Variable("v-key", "key", domain.VariableBoolean, "false")

	hall := b.Scene("hall", "Hall")
	start := hall.Event("start").Text("A locked door.")
	start.Choice("take", "Take the key").Go("start").
		Set("v-key", domain.SetAssign, "true")
	start.Choice("open", "Open the door").Go("garden").
		When("v-key", domain.CompareEqual, "true")
	hall.Event("garden").Text("A garden.").Ending()

	world, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}
	state, err := tapestry.New().InstallBundle(ctx, world)
*/
package dsl
