package expr

import (
	"regexp"
	"strings"

	"github.com/aretw0/tapestry/pkg/domain"
)

// Sentinel replaces every span that failed to evaluate.
const Sentinel = "esError"

var spanPattern = regexp.MustCompile(`\{([^{}]*)\}`)

// Rendered is a passage with every {...} span replaced.
type Rendered struct {
	Text  string
	Spans []domain.RenderedSpan
	// Errors holds one entry per span rendered as Sentinel.
	Errors []*domain.ExpressionError
}

// Render evaluates every span of content against scope.
// A failing span becomes Sentinel and never stops the rest of the passage.
func Render(content string, scope Scope) Rendered {
	var out Rendered
	text := spanPattern.ReplaceAllStringFunc(content, func(span string) string {
		src := span[1 : len(span)-1]
		value, err := Evaluate(src, scope)
		if err != nil {
			out.Errors = append(out.Errors, &domain.ExpressionError{Source: src, Err: err})
			out.Spans = append(out.Spans, domain.RenderedSpan{Source: span, Value: Sentinel, Failed: true})
			return Sentinel
		}
		out.Spans = append(out.Spans, domain.RenderedSpan{Source: span, Value: value})
		return value
	})
	out.Text = NormalizeSpace(text)
	return out
}

// Sources returns the inner source of every {...} span of content, in order.
func Sources(content string) []string {
	matches := spanPattern.FindAllStringSubmatch(content, -1)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m[1]
	}
	return out
}

// NormalizeSpace collapses every whitespace run, line breaks included, to one space and trims the result.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
