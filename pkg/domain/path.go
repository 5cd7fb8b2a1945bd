package domain

// OriginType identifies what a Path leaves from.
type OriginType string

const (
	// OriginEvent marks a passthrough: an automatic, choice-less transition.
	OriginEvent  OriginType = "event"
	OriginChoice OriginType = "choice"
	OriginInput  OriginType = "input"
)

// DestinationType identifies what a Path arrives at.
type DestinationType string

const (
	DestinationEvent DestinationType = "event"
	DestinationJump  DestinationType = "jump"
)

// ConditionsType is the policy combining a Path's Conditions.
type ConditionsType string

const (
	// ConditionsAll requires every Condition to hold; zero Conditions is open.
	ConditionsAll ConditionsType = "all"
	// ConditionsAny requires at least one Condition to hold; zero Conditions is closed.
	ConditionsAny ConditionsType = "any"
)

// Path is a conditional, effect-bearing edge of the story graph.
type Path struct {
	ID      string `json:"id" yaml:"id"`
	WorldID string `json:"world_id" yaml:"world_id"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`

	// OriginID is the Event the Path leaves from; ChoiceID or InputID narrow it.
	OriginID   string     `json:"origin_id" yaml:"origin_id"`
	OriginType OriginType `json:"origin_type" yaml:"origin_type"`
	ChoiceID   string     `json:"choice_id,omitempty" yaml:"choice_id,omitempty"`
	InputID    string     `json:"input_id,omitempty" yaml:"input_id,omitempty"`

	DestinationID   string          `json:"destination_id" yaml:"destination_id"`
	DestinationType DestinationType `json:"destination_type" yaml:"destination_type"`

	ConditionsType ConditionsType `json:"conditions_type,omitempty" yaml:"conditions_type,omitempty"`
}

func (p Path) EntityID() string { return p.ID }
func (p Path) EntityKind() Kind { return KindPath }

// ParentID is the Choice or Input the Path belongs to, or the origin Event for passthroughs.
func (p Path) ParentID() string {
	switch {
	case p.ChoiceID != "":
		return p.ChoiceID
	case p.InputID != "":
		return p.InputID
	default:
		return p.OriginID
	}
}

// Passthrough reports whether the Path is an automatic continue edge.
func (p Path) Passthrough() bool {
	return p.ChoiceID == "" && p.InputID == ""
}

// Policy returns the effective conditions policy (ALL when unset).
func (p Path) Policy() ConditionsType {
	if p.ConditionsType == "" {
		return ConditionsAll
	}
	return p.ConditionsType
}

// CompareOperator is the operator of a Condition.
type CompareOperator string

const (
	CompareEqual          CompareOperator = "="
	CompareNotEqual       CompareOperator = "!="
	CompareGreater        CompareOperator = ">"
	CompareGreaterOrEqual CompareOperator = ">="
	CompareLess           CompareOperator = "<"
	CompareLessOrEqual    CompareOperator = "<="
)

// Condition guards a Path: (variable, operator, literal).
type Condition struct {
	ID         string          `json:"id" yaml:"id"`
	WorldID    string          `json:"world_id" yaml:"world_id"`
	PathID     string          `json:"path_id" yaml:"path_id"`
	VariableID string          `json:"variable_id" yaml:"variable_id"`
	Operator   CompareOperator `json:"operator" yaml:"operator"`
	Value      string          `json:"value" yaml:"value"`
}

func (c Condition) EntityID() string { return c.ID }
func (c Condition) EntityKind() Kind { return KindCondition }
func (c Condition) ParentID() string { return c.PathID }

// SetOperator is the operator of an Effect.
type SetOperator string

const (
	SetAssign   SetOperator = "assign"
	SetAdd      SetOperator = "add"
	SetSubtract SetOperator = "subtract"
	SetMultiply SetOperator = "multiply"
	SetDivide   SetOperator = "divide"
)

// Effect mutates a Variable when its Path is taken: (variable, operator, literal).
// Effects of one Path apply in stored order.
type Effect struct {
	ID         string      `json:"id" yaml:"id"`
	WorldID    string      `json:"world_id" yaml:"world_id"`
	PathID     string      `json:"path_id" yaml:"path_id"`
	VariableID string      `json:"variable_id" yaml:"variable_id"`
	Operator   SetOperator `json:"operator" yaml:"operator"`
	Value      string      `json:"value" yaml:"value"`
}

func (e Effect) EntityID() string { return e.ID }
func (e Effect) EntityKind() Kind { return KindEffect }
func (e Effect) ParentID() string { return e.PathID }

// VariableType is the declared type of a Variable. Values are always stored as strings.
type VariableType string

const (
	VariableString  VariableType = "string"
	VariableNumber  VariableType = "number"
	VariableBoolean VariableType = "boolean"
	VariableImage   VariableType = "image"
	VariableURL     VariableType = "url"
)

// Variable is a typed, named value of world state.
type Variable struct {
	ID      string       `json:"id" yaml:"id"`
	WorldID string       `json:"world_id" yaml:"world_id"`
	Title   string       `json:"title" yaml:"title"`
	Type    VariableType `json:"type" yaml:"type"`
	Initial string       `json:"initial" yaml:"initial"`
}

func (v Variable) EntityID() string { return v.ID }
func (v Variable) EntityKind() Kind { return KindVariable }
func (v Variable) ParentID() string { return v.WorldID }
