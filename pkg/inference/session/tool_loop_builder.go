package session

import (
	"context"
	"errors"

	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/go-go-golems/buddy/pkg/inference/engine"
	"github.com/go-go-golems/buddy/pkg/inference/middleware"
	"github.com/go-go-golems/buddy/pkg/inference/protocol"
	"github.com/go-go-golems/buddy/pkg/inference/toolloop"
	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/rs/zerolog/log"
)

var (
	ErrToolLoopBuilderNil       = errors.New("tool loop builder is nil")
	ErrToolLoopBuilderEngineNil = errors.New("tool loop builder engine is nil")
)

// TurnPersister stores a finished turn, for transcripts and debugging.
type TurnPersister interface {
	PersistTurn(ctx context.Context, sessionID string, rec TurnRecord) error
}

// ToolLoopBuilder wires an engine, a tool registry and the reply codec into
// a Session backed by a toolloop.Loop.
//
// This is the standard builder used by the chat and ask commands.
type ToolLoopBuilder struct {
	// Engine is the provider engine (Gemini/OpenAI/Claude/scripted).
	Engine engine.Engine

	// Middlewares wrap every model call made by the loop.
	Middlewares []middleware.Middleware

	// Registry holds the tools offered to the model. An empty registry is used when nil.
	Registry tools.ToolRegistry

	DispatchConfig *tools.DispatchConfig
	LoopConfig     *toolloop.LoopConfig
	Codec          *protocol.Codec

	// EventSinks are attached to every turn context.
	EventSinks []events.EventSink

	SnapshotHook toolloop.SnapshotHook

	// Persister is invoked after every turn, failed turns included.
	Persister TurnPersister
}

// Build validates the builder and returns a fresh session.
func (b *ToolLoopBuilder) Build() (*Session, error) {
	loop, err := b.BuildLoop()
	if err != nil {
		return nil, err
	}
	var runner TurnRunner = loop
	s := NewSession(nil, b.EventSinks...)
	if b.Persister != nil {
		runner = &persistingRunner{inner: loop, persister: b.Persister, sessionID: s.SessionID}
	}
	s.runner = runner
	return s, nil
}

// BuildLoop returns the configured loop without a session around it.
func (b *ToolLoopBuilder) BuildLoop() (*toolloop.Loop, error) {
	if b == nil {
		return nil, ErrToolLoopBuilderNil
	}
	if b.Engine == nil {
		return nil, ErrToolLoopBuilderEngineNil
	}

	registry := b.Registry
	if registry == nil {
		registry = tools.NewInMemoryToolRegistry()
	}
	dispatchCfg := tools.DefaultDispatchConfig()
	if b.DispatchConfig != nil {
		dispatchCfg = *b.DispatchConfig
	}
	loopCfg := toolloop.DefaultLoopConfig()
	if b.LoopConfig != nil {
		loopCfg = *b.LoopConfig
	}

	eng := b.Engine
	if len(b.Middlewares) > 0 {
		eng = middleware.NewEngineWithMiddleware(eng, b.Middlewares...)
	}

	opts := []toolloop.Option{
		toolloop.WithEngine(eng),
		toolloop.WithRegistry(registry),
		toolloop.WithDispatcher(tools.NewDefaultToolDispatcher(dispatchCfg)),
		toolloop.WithLoopConfig(loopCfg),
	}
	if b.Codec != nil {
		opts = append(opts, toolloop.WithCodec(b.Codec))
	}
	if b.SnapshotHook != nil {
		opts = append(opts, toolloop.WithSnapshotHook(b.SnapshotHook))
	}
	return toolloop.New(opts...), nil
}

type persistingRunner struct {
	inner     TurnRunner
	persister TurnPersister
	sessionID string
}

func (r *persistingRunner) RunTurn(ctx context.Context, input string) (*toolloop.Outcome, error) {
	out, err := r.inner.RunTurn(ctx, input)
	rec := TurnRecord{TurnID: TurnIDFromContext(ctx), Input: input, Outcome: out, Err: err}
	// best-effort
	if perr := r.persister.PersistTurn(ctx, r.sessionID, rec); perr != nil {
		log.Warn().Err(perr).Str("session_id", r.sessionID).Msg("session: failed to persist turn")
	}
	return out, err
}
