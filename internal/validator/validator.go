package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/expr"
	"github.com/aretw0/tapestry/pkg/ports"
	"github.com/aretw0/tapestry/pkg/schema"
)

// Severity ranks an Issue. Errors break play; warnings only risk surprising it.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding about a record of the graph.
type Issue struct {
	Severity Severity    `json:"severity"`
	Kind     domain.Kind `json:"kind"`
	ID       string      `json:"id"`
	Message  string      `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s %q: %s", i.Severity, i.Kind, i.ID, i.Message)
}

// Report lists every Issue found in one World.
type Report struct {
	WorldID string  `json:"world_id"`
	Issues  []Issue `json:"issues"`
}

// Errors returns the issues that break play.
func (r *Report) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns the non-fatal issues.
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarning) }

func (r *Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Err summarizes the errors of the report, or returns nil when there are none.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

// ValidateWorld checks the stored graph of a World.
func ValidateWorld(ctx context.Context, reader ports.GraphReader, worldID string) (*Report, error) {
	b, err := bundle.Snapshot(ctx, reader, worldID)
	if err != nil {
		return nil, err
	}
	return Validate(b), nil
}

// Validate checks a bundle for broken references, unusable routes and unreachable Events.
func Validate(b *bundle.Bundle) *Report {
	v := newChecker(b)
	v.children()
	v.checkJumps()
	v.checkEvents()
	v.checkPaths()
	v.guards()
	v.checkVariables()
	v.reachability()
	return &Report{WorldID: b.World.ID, Issues: v.issues}
}

type checker struct {
	b      *bundle.Bundle
	issues []Issue

	folders   map[string]*domain.Folder
	scenes    map[string]*domain.Scene
	events    map[string]*domain.Event
	choices   map[string]*domain.Choice
	inputs    map[string]*domain.Input
	paths     map[string]*domain.Path
	jumps     map[string]*domain.Jump
	variables map[string]*domain.Variable

	// pathsByParent groups Paths by Choice, Input or passthrough Event.
	pathsByParent map[string][]*domain.Path
	parents       []string
	conditions    map[string]int
}

func newChecker(b *bundle.Bundle) *checker {
	c := &checker{
		b:             b,
		folders:       index(b.Folders),
		scenes:        index(b.Scenes),
		events:        index(b.Events),
		choices:       index(b.Choices),
		inputs:        index(b.Inputs),
		paths:         index(b.Paths),
		jumps:         index(b.Jumps),
		variables:     index(b.Variables),
		pathsByParent: map[string][]*domain.Path{},
		conditions:    map[string]int{},
	}
	for _, p := range b.Paths {
		if _, seen := c.pathsByParent[p.ParentID()]; !seen {
			c.parents = append(c.parents, p.ParentID())
		}
		c.pathsByParent[p.ParentID()] = append(c.pathsByParent[p.ParentID()], p)
	}
	for _, cond := range b.Conditions {
		c.conditions[cond.PathID]++
	}
	return c
}

func index[T domain.Entity](records []T) map[string]T {
	m := make(map[string]T, len(records))
	for _, r := range records {
		m[r.EntityID()] = r
	}
	return m
}

func (c *checker) errorf(kind domain.Kind, id, format string, args ...any) {
	c.issues = append(c.issues, Issue{Severity: SeverityError, Kind: kind, ID: id, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) warnf(kind domain.Kind, id, format string, args ...any) {
	c.issues = append(c.issues, Issue{Severity: SeverityWarning, Kind: kind, ID: id, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) exists(kind domain.Kind, id string) bool {
	switch kind {
	case domain.KindFolder:
		_, ok := c.folders[id]
		return ok
	case domain.KindScene:
		_, ok := c.scenes[id]
		return ok
	case domain.KindEvent:
		_, ok := c.events[id]
		return ok
	case domain.KindJump:
		_, ok := c.jumps[id]
		return ok
	}
	return false
}

func (c *checker) children() {
	check := func(kind domain.Kind, id string, refs []domain.ChildRef, allowed ...domain.ChildKind) {
		for _, ref := range refs {
			ok := false
			for _, a := range allowed {
				ok = ok || ref.Kind == a
			}
			if !ok {
				c.errorf(kind, id, "child %q of kind %q is not allowed here", ref.ID, ref.Kind)
				continue
			}
			if !c.exists(ref.EntityKind(), ref.ID) {
				c.errorf(kind, id, "child %s %q does not exist", ref.Kind, ref.ID)
			}
		}
	}

	check(domain.KindWorld, c.b.World.ID, c.b.World.Children, domain.ChildFolder, domain.ChildScene)
	for _, f := range c.b.Folders {
		check(domain.KindFolder, f.ID, f.Children, domain.ChildFolder, domain.ChildScene)
	}
	for _, s := range c.b.Scenes {
		check(domain.KindScene, s.ID, s.Children, domain.ChildEvent, domain.ChildJump)
		hasEvent := false
		for _, ref := range s.Children {
			hasEvent = hasEvent || ref.Kind == domain.ChildEvent
		}
		if !hasEvent {
			c.warnf(domain.KindScene, s.ID, "scene has no events")
		}
	}
}

func (c *checker) checkJumps() {
	if id := c.b.World.Jump; id != "" && !c.exists(domain.KindJump, id) {
		c.errorf(domain.KindWorld, c.b.World.ID, "start jump %q does not exist", id)
	}
	for _, j := range c.b.Jumps {
		if j.EventID == "" {
			switch {
			case j.SceneID == "":
				c.errorf(domain.KindJump, j.ID, "jump has neither a scene nor an event")
			case !c.exists(domain.KindScene, j.SceneID):
				c.errorf(domain.KindJump, j.ID, "target scene %q does not exist", j.SceneID)
			case c.b.FirstEvent(j.SceneID) == "":
				c.errorf(domain.KindJump, j.ID, "target scene %q has no events", j.SceneID)
			}
			continue
		}
		ev, ok := c.events[j.EventID]
		if !ok {
			c.errorf(domain.KindJump, j.ID, "target event %q does not exist", j.EventID)
			continue
		}
		if j.SceneID != "" && ev.SceneID != j.SceneID {
			c.errorf(domain.KindJump, j.ID, "target event %q is not in scene %q", j.EventID, j.SceneID)
		}
	}
}

func (c *checker) checkEvents() {
	scope := expr.NewScope(domain.NewVariableState(c.b.Variables))
	for _, ev := range c.b.Events {
		if ev.SceneID != "" && !c.exists(domain.KindScene, ev.SceneID) {
			c.errorf(domain.KindEvent, ev.ID, "scene %q does not exist", ev.SceneID)
		}
		for _, id := range ev.Choices {
			ch, ok := c.choices[id]
			switch {
			case !ok:
				c.errorf(domain.KindEvent, ev.ID, "choice %q does not exist", id)
			case ch.EventID != ev.ID:
				c.errorf(domain.KindEvent, ev.ID, "choice %q belongs to event %q", id, ch.EventID)
			}
		}
		if ev.Input != "" {
			in, ok := c.inputs[ev.Input]
			switch {
			case !ok:
				c.errorf(domain.KindEvent, ev.ID, "input %q does not exist", ev.Input)
			case in.EventID != ev.ID:
				c.errorf(domain.KindEvent, ev.ID, "input %q belongs to event %q", ev.Input, in.EventID)
			}
		}

		if !ev.Ending && !c.hasWayForward(ev) {
			c.warnf(domain.KindEvent, ev.ID, "event is not an ending and has no choices, input or passthrough")
		}

		for _, src := range expr.Sources(ev.Content) {
			if _, err := expr.Evaluate(src, scope); err != nil {
				c.warnf(domain.KindEvent, ev.ID, "{%s} renders as %s: %v", src, expr.Sentinel, err)
			}
		}
	}

	for _, ch := range c.b.Choices {
		if !c.exists(domain.KindEvent, ch.EventID) {
			c.errorf(domain.KindChoice, ch.ID, "event %q does not exist", ch.EventID)
		}
		if len(c.pathsByParent[ch.ID]) == 0 {
			c.warnf(domain.KindChoice, ch.ID, "choice has no paths and is always closed")
		}
	}
	for _, in := range c.b.Inputs {
		if !c.exists(domain.KindEvent, in.EventID) {
			c.errorf(domain.KindInput, in.ID, "event %q does not exist", in.EventID)
		}
		if in.VariableID != "" {
			if _, ok := c.variables[in.VariableID]; !ok {
				c.errorf(domain.KindInput, in.ID, "variable %q does not exist", in.VariableID)
			}
		}
	}
}

func (c *checker) hasWayForward(ev *domain.Event) bool {
	if ev.Input != "" || len(ev.Choices) > 0 {
		return true
	}
	for _, ch := range c.b.Choices {
		if ch.EventID == ev.ID {
			return true
		}
	}
	return len(c.pathsByParent[ev.ID]) > 0
}

func (c *checker) checkPaths() {
	for _, p := range c.b.Paths {
		switch p.DestinationType {
		case domain.DestinationEvent, domain.DestinationJump:
			kind := domain.KindEvent
			if p.DestinationType == domain.DestinationJump {
				kind = domain.KindJump
			}
			if p.DestinationID == "" {
				c.errorf(domain.KindPath, p.ID, "path has no destination")
			} else if !c.exists(kind, p.DestinationID) {
				c.errorf(domain.KindPath, p.ID, "destination %s %q does not exist", kind, p.DestinationID)
			}
		default:
			c.errorf(domain.KindPath, p.ID, "unknown destination type %q", p.DestinationType)
		}

		if !c.exists(domain.KindEvent, p.OriginID) {
			c.errorf(domain.KindPath, p.ID, "origin event %q does not exist", p.OriginID)
		}
		switch p.OriginType {
		case domain.OriginChoice:
			ch, ok := c.choices[p.ChoiceID]
			switch {
			case !ok:
				c.errorf(domain.KindPath, p.ID, "choice %q does not exist", p.ChoiceID)
			case ch.EventID != p.OriginID:
				c.errorf(domain.KindPath, p.ID, "choice %q is not offered by origin %q", p.ChoiceID, p.OriginID)
			}
		case domain.OriginInput:
			in, ok := c.inputs[p.InputID]
			switch {
			case !ok:
				c.errorf(domain.KindPath, p.ID, "input %q does not exist", p.InputID)
			case in.EventID != p.OriginID:
				c.errorf(domain.KindPath, p.ID, "input %q does not belong to origin %q", p.InputID, p.OriginID)
			}
		case domain.OriginEvent:
			if !p.Passthrough() {
				c.errorf(domain.KindPath, p.ID, "passthrough path carries a choice or input")
			}
		default:
			c.errorf(domain.KindPath, p.ID, "unknown origin type %q", p.OriginType)
		}

		if p.ConditionsType != "" && p.ConditionsType != domain.ConditionsAll && p.ConditionsType != domain.ConditionsAny {
			c.errorf(domain.KindPath, p.ID, "unknown conditions type %q", p.ConditionsType)
		}
		if p.Policy() == domain.ConditionsAny && c.conditions[p.ID] == 0 {
			c.warnf(domain.KindPath, p.ID, "ANY path without conditions is never open")
		}
	}

	// Several unconditional Paths from one origin are resolved at random.
	for _, parent := range c.parents {
		paths := c.pathsByParent[parent]
		open := 0
		for _, p := range paths {
			if c.conditions[p.ID] == 0 && p.Policy() == domain.ConditionsAll {
				open++
			}
		}
		if open > 1 {
			kind := domain.KindEvent
			if _, ok := c.choices[parent]; ok {
				kind = domain.KindChoice
			} else if _, ok := c.inputs[parent]; ok {
				kind = domain.KindInput
			}
			c.warnf(kind, parent, "%d unconditional paths: the route is picked at random", open)
		}
	}
}

func (c *checker) guards() {
	validCompare := map[domain.CompareOperator]bool{
		domain.CompareEqual: true, domain.CompareNotEqual: true,
		domain.CompareGreater: true, domain.CompareGreaterOrEqual: true,
		domain.CompareLess: true, domain.CompareLessOrEqual: true,
	}
	validSet := map[domain.SetOperator]bool{
		domain.SetAssign: true, domain.SetAdd: true, domain.SetSubtract: true,
		domain.SetMultiply: true, domain.SetDivide: true,
	}

	for _, cond := range c.b.Conditions {
		if _, ok := c.paths[cond.PathID]; !ok {
			c.errorf(domain.KindCondition, cond.ID, "path %q does not exist", cond.PathID)
		}
		if _, ok := c.variables[cond.VariableID]; !ok {
			c.errorf(domain.KindCondition, cond.ID, "variable %q does not exist", cond.VariableID)
		}
		if !validCompare[cond.Operator] {
			c.errorf(domain.KindCondition, cond.ID, "unknown operator %q", cond.Operator)
		}
	}
	for _, eff := range c.b.Effects {
		if _, ok := c.paths[eff.PathID]; !ok {
			c.errorf(domain.KindEffect, eff.ID, "path %q does not exist", eff.PathID)
		}
		v, ok := c.variables[eff.VariableID]
		if !ok {
			c.errorf(domain.KindEffect, eff.ID, "variable %q does not exist", eff.VariableID)
		}
		if !validSet[eff.Operator] {
			c.errorf(domain.KindEffect, eff.ID, "unknown operator %q", eff.Operator)
		} else if ok && eff.Operator != domain.SetAssign && v.Type != domain.VariableNumber {
			c.warnf(domain.KindEffect, eff.ID, "arithmetic %q on %s variable %q", eff.Operator, v.Type, v.Title)
		}
	}
}

func (c *checker) checkVariables() {
	sch, err := schema.FromVariables(c.b.Variables)
	c.validationIssues(err)

	initial := make(map[string]string, len(c.b.Variables))
	for _, v := range c.b.Variables {
		if _, ok := sch[v.ID]; ok {
			initial[v.ID] = v.Initial
		}
	}
	c.validationIssues(schema.Validate(sch, initial))

	titles := map[string]string{}
	for _, v := range c.b.Variables {
		if other, dup := titles[v.Title]; dup {
			c.warnf(domain.KindVariable, v.ID, "title %q is also used by %q", v.Title, other)
		}
		titles[v.Title] = v.ID
	}
}

func (c *checker) validationIssues(err error) {
	if err == nil {
		return
	}
	for _, e := range schema.ValidationErrors(err) {
		var ve *schema.ValidationError
		if errors.As(e, &ve) {
			c.errorf(domain.KindVariable, ve.Key, "%s", ve.Reason)
		}
	}
}

// reachability walks Paths from the starting destination and reports Events never reached.
func (c *checker) reachability() {
	start := c.b.Start()
	if start == "" {
		c.errorf(domain.KindWorld, c.b.World.ID, "no starting destination: no top-level scene with events")
		return
	}

	visited := map[string]bool{}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		ev, ok := c.events[id]
		if !ok {
			continue
		}
		origins := []string{ev.ID, ev.Input}
		for _, ch := range c.b.Choices {
			if ch.EventID == ev.ID {
				origins = append(origins, ch.ID)
			}
		}
		for _, origin := range origins {
			for _, p := range c.pathsByParent[origin] {
				if target := c.target(p); target != "" && !visited[target] {
					queue = append(queue, target)
				}
			}
		}
	}

	for _, ev := range c.b.Events {
		if !visited[ev.ID] {
			c.warnf(domain.KindEvent, ev.ID, "event is unreachable from %q", start)
		}
	}
}

func (c *checker) target(p *domain.Path) string {
	if p.DestinationType == domain.DestinationJump {
		return c.b.JumpTarget(p.DestinationID)
	}
	return p.DestinationID
}
