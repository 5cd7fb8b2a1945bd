package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/tapestry/internal/validator"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/dsl"
)

func main() {
	target := filepath.Join("examples", "trail", "trail.yaml")
	if len(os.Args) > 1 {
		target = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		panic(err)
	}

	fmt.Printf("Generating the trail world in: %s\n", target)

	b, err := trail().Build()
	check(err)

	report := validator.Validate(b)
	for _, issue := range report.Warnings() {
		fmt.Println("warning:", issue)
	}
	check(report.Err())

	check(bundle.WriteFile(target, b))
	fmt.Println("Done. Play it with: tapestry play", target)
}

// trail exercises every route kind: choices, a gated choice, passthrough, input, a jump and an ending.
func trail() *dsl.Builder {
	b := dsl.New("trail", "The Trail").
		Variable("v-water", "water", domain.VariableNumber, "3").
		Variable("v-map", "map", domain.VariableBoolean, "false").
		Variable("v-name", "name", domain.VariableString, "hiker").
		Setting("theme", "auto")

	camp := b.Scene("camp", "Camp")
	start := camp.Event("trailhead").Title("Trailhead").
		Text("The trail starts here. Water left: {water}.\n\n{map ? 'The map is in your pack.' : 'A map is pinned to the board.'}")
	start.Choice("take-map", "Take the map").Go("trailhead").
		Set("v-map", domain.SetAssign, "true")
	start.Choice("drink", "Drink some water").Go("trailhead").
		When("v-water", domain.CompareGreater, "0").
		Set("v-water", domain.SetSubtract, "1")
	start.Choice("walk", "Start walking").Go("to-ridge").
		When("v-map", domain.CompareEqual, "true")
	camp.Jump("to-ridge", "ridge", "")

	ridge := b.Scene("ridge", "Ridge")
	ridge.Event("climb").Title("Climb").
		Text("The path climbs steeply.").
		Go("register")
	ridge.Event("register").Title("Summit Register").
		Text("A logbook waits at the summit. Sign it?").
		Input("sign", "v-name").Go("summit")
	ridge.Event("summit").Title("Summit").
		Text("{name.title()} was here. The trail ends.").
		Ending()
	return b
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
