package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tapestry/pkg/domain"
)

func TestTextHandler_Output(t *testing.T) {
	var out bytes.Buffer
	handler := NewTextHandler(strings.NewReader(""), &out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	require.NoError(t, handler.Output(context.Background(), &domain.Passage{Text: "Hello World"}))
	assert.Equal(t, "Rendered: Hello World\n", out.String())
}

func TestTextHandler_Input(t *testing.T) {
	var out bytes.Buffer
	handler := NewTextHandler(strings.NewReader("my reply\r\nbad\x00byte\nlast"), &out)
	ctx := context.Background()

	for _, want := range []string{"my reply", "badbyte", "last"} {
		got, err := handler.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, strings.Repeat("> ", 4), out.String())
}

func TestTextHandler_InputCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	handler := NewTextHandler(pr, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONHandler(t *testing.T) {
	var out bytes.Buffer
	handler := NewJSONHandler(strings.NewReader("\"quoted\"\nraw text\n"), &out)
	ctx := context.Background()

	require.NoError(t, handler.Output(ctx, &domain.Passage{Text: "Hi"}))
	require.NoError(t, handler.SystemOutput(ctx, "note"))
	assert.Equal(t, `{"type":"passage","passage":{"entry":null,"event":null,"text":"Hi"}}`+"\n"+
		`{"type":"system","message":"note"}`+"\n", out.String())

	got, err := handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "quoted", got)

	got, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "raw text", got)

	_, err = handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}
