package dsl

import (
	"fmt"

	"github.com/aretw0/tapestry/pkg/domain"
)

// EventBuilder provides a fluent API for configuring an Event.
type EventBuilder struct {
	event   *domain.Event
	builder *Builder
}

// Title sets the display title of the event.
func (e *EventBuilder) Title(title string) *EventBuilder {
	e.event.Title = title
	return e
}

// Text sets the passage template. {...} spans are evaluated at render time.
func (e *EventBuilder) Text(content string) *EventBuilder {
	e.event.Content = content
	return e
}

// Ending marks the event as an ending.
func (e *EventBuilder) Ending() *EventBuilder {
	e.event.Ending = true
	return e
}

// Go adds a passthrough Path to target, an Event or Jump id.
func (e *EventBuilder) Go(target string) *PathBuilder {
	return e.builder.path(&domain.Path{
		OriginID:      e.event.ID,
		OriginType:    domain.OriginEvent,
		DestinationID: target,
	})
}

// Choice adds a Choice to the event, in display order.
func (e *EventBuilder) Choice(id, title string) *ChoiceBuilder {
	b := e.builder
	b.claim(domain.KindChoice, id)
	c := &domain.Choice{ID: id, WorldID: b.b.World.ID, EventID: e.event.ID, Title: title}
	b.b.Choices = append(b.b.Choices, c)
	e.event.Choices = append(e.event.Choices, id)
	return &ChoiceBuilder{choice: c, event: e.event, builder: b}
}

// Input asks the player for a value, stored in variableID when set.
func (e *EventBuilder) Input(id, variableID string) *InputBuilder {
	b := e.builder
	b.claim(domain.KindInput, id)
	in := &domain.Input{ID: id, WorldID: b.b.World.ID, EventID: e.event.ID, VariableID: variableID}
	b.b.Inputs = append(b.b.Inputs, in)
	e.event.Input = id
	return &InputBuilder{input: in, event: e.event, builder: b}
}

// ChoiceBuilder adds Paths leaving through a Choice.
type ChoiceBuilder struct {
	choice  *domain.Choice
	event   *domain.Event
	builder *Builder
}

// Go adds a Path taken with this choice.
func (c *ChoiceBuilder) Go(target string) *PathBuilder {
	return c.builder.path(&domain.Path{
		OriginID:      c.event.ID,
		OriginType:    domain.OriginChoice,
		ChoiceID:      c.choice.ID,
		DestinationID: target,
	})
}

// InputBuilder adds Paths leaving through an Input.
type InputBuilder struct {
	input   *domain.Input
	event   *domain.Event
	builder *Builder
}

// Go adds a Path taken once the input is submitted.
func (i *InputBuilder) Go(target string) *PathBuilder {
	return i.builder.path(&domain.Path{
		OriginID:      i.event.ID,
		OriginType:    domain.OriginInput,
		InputID:       i.input.ID,
		DestinationID: target,
	})
}

// PathBuilder attaches Conditions and Effects to a Path.
type PathBuilder struct {
	path    *domain.Path
	builder *Builder
}

func (b *Builder) path(p *domain.Path) *PathBuilder {
	p.ID = fmt.Sprintf("p-%s-%d", p.ParentID(), len(b.paths)+1)
	p.WorldID = b.b.World.ID
	b.claim(domain.KindPath, p.ID)
	b.b.Paths = append(b.b.Paths, p)
	pb := &PathBuilder{path: p, builder: b}
	b.paths = append(b.paths, pb)
	return pb
}

// ID returns the generated Path id.
func (p *PathBuilder) ID() string {
	return p.path.ID
}

// When adds a Condition on the Variable variableID.
func (p *PathBuilder) When(variableID string, op domain.CompareOperator, value string) *PathBuilder {
	b := p.builder
	b.b.Conditions = append(b.b.Conditions, &domain.Condition{
		ID:         fmt.Sprintf("%s-c%d", p.path.ID, len(b.b.Conditions)+1),
		WorldID:    b.b.World.ID,
		PathID:     p.path.ID,
		VariableID: variableID,
		Operator:   op,
		Value:      value,
	})
	return p
}

// Any opens the Path when at least one Condition holds instead of all of them.
func (p *PathBuilder) Any() *PathBuilder {
	p.path.ConditionsType = domain.ConditionsAny
	return p
}

// Set adds an Effect applied when the Path is taken, after the effects added before it.
func (p *PathBuilder) Set(variableID string, op domain.SetOperator, value string) *PathBuilder {
	b := p.builder
	b.b.Effects = append(b.b.Effects, &domain.Effect{
		ID:         fmt.Sprintf("%s-e%d", p.path.ID, len(b.b.Effects)+1),
		WorldID:    b.b.World.ID,
		PathID:     p.path.ID,
		VariableID: variableID,
		Operator:   op,
		Value:      value,
	})
	return p
}
