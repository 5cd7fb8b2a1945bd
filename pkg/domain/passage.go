package domain

// RenderedSpan records one {...} span replaced during rendering.
type RenderedSpan struct {
	Source string `json:"source"`
	Value  string `json:"value"`
	Failed bool   `json:"failed,omitempty"`
}

// ChoiceView is a Choice as presented for the current state.
type ChoiceView struct {
	Choice *Choice `json:"choice"`
	// Open reports whether at least one Path of the Choice is traversable.
	Open bool `json:"open"`
	// Path is the Path pre-selected for this Choice, when open.
	Path *Path `json:"path,omitempty"`
}

// InputView describes the passage Input and the Variable receiving the value.
type InputView struct {
	Input    *Input    `json:"input"`
	Variable *Variable `json:"variable,omitempty"`
}

// Passage is the rendered view of one log entry.
type Passage struct {
	Entry *PlaythroughEvent `json:"entry"`
	Event *Event            `json:"event"`
	Text  string            `json:"text"`
	Spans []RenderedSpan    `json:"spans,omitempty"`

	Choices []ChoiceView `json:"choices,omitempty"`
	Input   *InputView   `json:"input,omitempty"`
	// Passthrough is the automatic continue Path, if the passage has one open.
	Passthrough *Path `json:"passthrough,omitempty"`

	Ending bool `json:"ending,omitempty"`
	// Blocked is set when the passage offers no open way forward.
	// Loopback and restart remain available.
	Blocked bool `json:"blocked,omitempty"`
}
