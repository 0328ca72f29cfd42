package engine

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ScriptStep is one canned outcome of a ScriptedEngine call.
type ScriptStep struct {
	Reply string
	Err   error
}

func Reply(text string) ScriptStep {
	return ScriptStep{Reply: text}
}

func Fail(err error) ScriptStep {
	return ScriptStep{Err: err}
}

// ErrScriptExhausted is returned once every scripted step has been consumed.
var ErrScriptExhausted = errors.New("script exhausted")

// RecordedCall captures what a ScriptedEngine was asked.
type RecordedCall struct {
	SystemPrompt string
	UserMessage  string
}

// ScriptedEngine replays canned replies in order. It is used for tests and
// offline demos.
type ScriptedEngine struct {
	mu    sync.Mutex
	steps []ScriptStep
	next  int
	calls []RecordedCall
}

var _ Engine = (*ScriptedEngine)(nil)

func NewScriptedEngine(steps ...ScriptStep) *ScriptedEngine {
	return &ScriptedEngine{steps: steps}
}

// NewScriptedEngineFromReplies is a shorthand for an engine that only replies.
func NewScriptedEngineFromReplies(replies ...string) *ScriptedEngine {
	steps := make([]ScriptStep, 0, len(replies))
	for _, r := range replies {
		steps = append(steps, Reply(r))
	}
	return NewScriptedEngine(steps...)
}

// LoadScript reads a YAML list of replies.
func LoadScript(r io.Reader) (*ScriptedEngine, error) {
	var replies []string
	if err := yaml.NewDecoder(r).Decode(&replies); err != nil {
		return nil, errors.Wrap(err, "could not decode reply script")
	}
	return NewScriptedEngineFromReplies(replies...), nil
}

func (e *ScriptedEngine) Call(ctx context.Context, systemPrompt string, userMessage string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewTransportError("scripted", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, RecordedCall{SystemPrompt: systemPrompt, UserMessage: userMessage})
	if e.next >= len(e.steps) {
		return "", NewTransportError("scripted", ErrScriptExhausted)
	}
	step := e.steps[e.next]
	e.next++
	if step.Err != nil {
		return "", NewTransportError("scripted", step.Err)
	}
	return step.Reply, nil
}

// Calls returns a copy of the recorded calls.
func (e *ScriptedEngine) Calls() []RecordedCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]RecordedCall(nil), e.calls...)
}

// Remaining is the number of unconsumed steps.
func (e *ScriptedEngine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.steps) - e.next
}
