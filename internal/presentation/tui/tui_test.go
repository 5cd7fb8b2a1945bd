package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tapestry/internal/presentation/tui"
	"github.com/aretw0/tapestry/pkg/expr"
)

func TestHighlightErrors(t *testing.T) {
	text := "Score: " + expr.Sentinel + "."

	assert.Equal(t, text, tui.HighlightErrors(termenv.Ascii)(text))

	colored := tui.HighlightErrors(termenv.TrueColor)(text)
	assert.NotEqual(t, text, colored)
	assert.Contains(t, colored, expr.Sentinel)
	assert.True(t, strings.HasPrefix(colored, "Score: "))
}

func TestNewRenderer(t *testing.T) {
	render := tui.NewRenderer(tui.StyleNoTTY, 60, termenv.Ascii)
	out, err := render("# Cellar\n\nYou wake in the dark.")
	require.NoError(t, err)
	assert.Contains(t, out, "Cellar")
	assert.Contains(t, out, "You wake in the dark.")
}

func TestNonTerminalWriter(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, tui.IsTerminal(&buf))
	assert.Equal(t, tui.DefaultWidth, tui.Width(&buf))
	assert.Equal(t, termenv.Ascii, tui.Profile(&buf))

	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")
	assert.NotContains(t, buf.String(), "\x1b[")
}
