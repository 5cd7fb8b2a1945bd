package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/aretw0/tapestry/pkg/expr"
)

// Style names accepted by NewRenderer. Anything else selects the style from the terminal background.
const (
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

// NewRenderer returns a function that renders passage markdown with glamour
// and marks failed expression spans.
func NewRenderer(style string, width int, profile termenv.Profile) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch style {
	case StyleDark, StyleLight, StyleNoTTY:
		opts = append(opts, glamour.WithStandardStyle(style))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}

	r, err := glamour.NewTermRenderer(opts...)
	highlight := HighlightErrors(profile)

	return func(markdown string) (string, error) {
		if err != nil {
			return highlight(markdown), err
		}
		out, rerr := r.Render(markdown)
		if rerr != nil {
			return highlight(markdown), rerr
		}
		return highlight(out), nil
	}
}

// HighlightErrors colors every expression error sentinel in text.
// The Ascii profile leaves text unchanged.
func HighlightErrors(profile termenv.Profile) func(string) string {
	marked := profile.String(expr.Sentinel).Foreground(profile.Color("#f87171")).Bold().String()
	return func(text string) string {
		if profile == termenv.Ascii {
			return text
		}
		return strings.ReplaceAll(text, expr.Sentinel, marked)
	}
}
