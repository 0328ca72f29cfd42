package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/go-go-golems/buddy/pkg/inference/engine"
	"github.com/go-go-golems/buddy/pkg/inference/middleware"
	"github.com/go-go-golems/buddy/pkg/inference/toolloop"
	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPersister struct {
	mu      sync.Mutex
	records []TurnRecord
}

func (m *memoryPersister) PersistTurn(_ context.Context, _ string, rec TurnRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func TestToolLoopBuilder_RequiresEngine(t *testing.T) {
	_, err := NewToolLoopBuilder().Build()
	require.ErrorIs(t, err, ErrToolLoopBuilderEngineNil)

	var b *ToolLoopBuilder
	_, err = b.Build()
	require.ErrorIs(t, err, ErrToolLoopBuilderNil)
}

func TestToolLoopBuilder_RunsToolsEndToEnd(t *testing.T) {
	reg := tools.NewInMemoryToolRegistry()
	_, err := reg.RegisterTool(tools.ToolDescriptor{
		Name:        "get_lists_headers",
		Description: "List names",
		InputFormat: "{}",
	}, tools.ToolFunc(func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		return []string{"groceries"}, nil
	}))
	require.NoError(t, err)

	eng := engine.NewScriptedEngineFromReplies(
		`{"thought": "check lists", "tool_calls": [{"tool_name": "get_lists_headers", "arguments": {}}]}`,
		`{"response": "You have a groceries list."}`,
	)
	sink := &collectingSink{}
	persister := &memoryPersister{}
	s, err := NewToolLoopBuilder(
		WithEngine(eng),
		WithRegistry(reg),
		WithLoopConfig(toolloop.DefaultLoopConfig().WithMaxToolRounds(2)),
		WithEventSinks(sink),
		WithPersister(persister),
	).Build()
	require.NoError(t, err)

	s.AddNote("user prefers short answers")
	out, err := s.Submit(context.Background(), "what lists do I have?")
	require.NoError(t, err)
	assert.Equal(t, "You have a groceries list.", out.Response)
	assert.Equal(t, 2, out.ModelCalls)
	require.Len(t, out.ToolResults, 1)

	calls := eng.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "what lists do I have?\n[NOTE]: user prefers short answers", calls[0].UserMessage)
	assert.Contains(t, calls[0].SystemPrompt, "get_lists_headers")
	assert.Contains(t, calls[1].UserMessage, `"tool_results"`)

	require.Len(t, persister.records, 1)
	assert.Equal(t, "You have a groceries list.", persister.records[0].Outcome.Response)
	assert.NotEmpty(t, persister.records[0].TurnID)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	var sawFinal bool
	for _, e := range sink.events {
		if e.Type() == events.EventTypeFinal {
			sawFinal = true
			assert.Equal(t, s.SessionID, e.Metadata().SessionID)
		}
	}
	assert.True(t, sawFinal)
}

func TestToolLoopBuilder_AppliesMiddlewares(t *testing.T) {
	eng := engine.NewScriptedEngineFromReplies(`{"response": "Bonjour."}`)
	var seenTurn string
	capture := func(next middleware.HandlerFunc) middleware.HandlerFunc {
		return func(ctx context.Context, sys, user string) (string, error) {
			seenTurn = events.MetadataFromContext(ctx).TurnID
			return next(ctx, sys, user)
		}
	}
	s, err := NewToolLoopBuilder(
		WithEngine(eng),
		WithMiddlewares(middleware.NewSystemPromptMiddleware("Answer in French."), capture),
	).Build()
	require.NoError(t, err)

	out, err := s.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour.", out.Response)

	calls := eng.Calls()
	require.Len(t, calls, 1)
	assert.True(t, strings.HasSuffix(calls[0].SystemPrompt, "\n\nAnswer in French."))
	assert.NotEmpty(t, seenTurn)
}
