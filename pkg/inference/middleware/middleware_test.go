package middleware

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/go-go-golems/buddy/pkg/inference/engine"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, sys, user string) (string, error) {
				order = append(order, name)
				return next(ctx, sys, user)
			}
		}
	}
	h := Chain(func(ctx context.Context, sys, user string) (string, error) {
		order = append(order, "engine")
		return "ok", nil
	}, mw("m1"), nil, mw("m2"))

	out, err := h(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []string{"m1", "m2", "engine"}, order)
}

func TestSystemPromptMiddleware(t *testing.T) {
	eng := engine.NewScriptedEngineFromReplies("a", "b")
	wrapped := NewEngineWithMiddleware(eng, NewSystemPromptMiddleware("  Always answer in French.  "))

	_, err := wrapped.Call(context.Background(), "BASE", "hi")
	require.NoError(t, err)
	_, err = wrapped.Call(context.Background(), "", "hi")
	require.NoError(t, err)

	calls := eng.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "BASE\n\nAlways answer in French.", calls[0].SystemPrompt)
	assert.Equal(t, "Always answer in French.", calls[1].SystemPrompt)
	assert.Equal(t, "hi", calls[0].UserMessage)
}

func TestSystemPromptMiddleware_EmptyIsNoop(t *testing.T) {
	eng := engine.NewScriptedEngineFromReplies("a")
	wrapped := NewEngineWithMiddleware(eng, NewSystemPromptMiddleware(""))
	_, err := wrapped.Call(context.Background(), "BASE", "hi")
	require.NoError(t, err)
	assert.Equal(t, "BASE", eng.Calls()[0].SystemPrompt)
}

func TestCallLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	eng := engine.NewScriptedEngine(engine.Reply(`{"response": "hi"}`), engine.Fail(errors.New("down")))
	wrapped := NewEngineWithMiddleware(eng, NewCallLoggingMiddleware(logger))

	ctx := events.WithMetadata(context.Background(), events.EventMetadata{SessionID: "s1", TurnID: "t1"})
	out, err := wrapped.Call(ctx, "sys", "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"response": "hi"}`, out)

	_, err = wrapped.Call(ctx, "sys", "hello")
	require.Error(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], `"message":"model: call completed"`)
	assert.Contains(t, lines[1], `"session_id":"s1"`)
	assert.Contains(t, lines[1], `"reply_len":18`)
	assert.Contains(t, lines[3], `"message":"model: call failed"`)
}

func TestEngineWithMiddleware_Close(t *testing.T) {
	wrapped := NewEngineWithMiddleware(engine.NewScriptedEngine())
	assert.NoError(t, wrapped.Close())
}
