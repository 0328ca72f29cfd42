package ui

import (
	"io"
	"sync"

	"github.com/go-go-golems/buddy/pkg/events"
)

// TraceSink prints tool activity and alert notes as they happen, so the user
// can see what the assistant is doing between prompt and answer.
type TraceSink struct {
	mu sync.Mutex
	w  io.Writer
}

var _ events.EventSink = (*TraceSink)(nil)

func NewTraceSink(w io.Writer) *TraceSink {
	return &TraceSink{w: w}
}

func (t *TraceSink) PublishEvent(e events.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev := e.(type) {
	case *events.EventToolCallExecute:
		_, err := toolColor.Fprintf(t.w, "  ⚙ %s %s\n", ev.ToolCall.Name, ev.ToolCall.Input)
		return err
	case *events.EventToolCallExecutionResult:
		_, err := resultColor.Fprintf(t.w, "  ↳ %s [%s] %s\n", ev.ToolResult.Name, ev.ToolResult.Status, ev.ToolResult.Result)
		return err
	case *events.EventNote:
		_, err := noteColor.Fprintf(t.w, "  ✎ %s\n", ev.Text)
		return err
	}
	return nil
}
