package session

import (
	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/go-go-golems/buddy/pkg/inference/engine"
	"github.com/go-go-golems/buddy/pkg/inference/middleware"
	"github.com/go-go-golems/buddy/pkg/inference/protocol"
	"github.com/go-go-golems/buddy/pkg/inference/toolloop"
	"github.com/go-go-golems/buddy/pkg/inference/tools"
)

type ToolLoopBuilderOption func(*ToolLoopBuilder)

// NewToolLoopBuilder creates a builder configured by opts.
func NewToolLoopBuilder(opts ...ToolLoopBuilderOption) *ToolLoopBuilder {
	b := &ToolLoopBuilder{}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func WithEngine(eng engine.Engine) ToolLoopBuilderOption {
	return func(b *ToolLoopBuilder) { b.Engine = eng }
}

// WithMiddlewares appends engine middleware; the first one runs outermost.
func WithMiddlewares(mws ...middleware.Middleware) ToolLoopBuilderOption {
	return func(b *ToolLoopBuilder) { b.Middlewares = append(b.Middlewares, mws...) }
}

func WithRegistry(reg tools.ToolRegistry) ToolLoopBuilderOption {
	return func(b *ToolLoopBuilder) { b.Registry = reg }
}

func WithDispatchConfig(cfg tools.DispatchConfig) ToolLoopBuilderOption {
	return func(b *ToolLoopBuilder) { b.DispatchConfig = &cfg }
}

func WithLoopConfig(cfg toolloop.LoopConfig) ToolLoopBuilderOption {
	return func(b *ToolLoopBuilder) { b.LoopConfig = &cfg }
}

func WithCodec(c *protocol.Codec) ToolLoopBuilderOption {
	return func(b *ToolLoopBuilder) { b.Codec = c }
}

// WithEventSinks appends sinks; it can be passed more than once.
func WithEventSinks(sinks ...events.EventSink) ToolLoopBuilderOption {
	return func(b *ToolLoopBuilder) { b.EventSinks = append(b.EventSinks, sinks...) }
}

func WithSnapshotHook(hook toolloop.SnapshotHook) ToolLoopBuilderOption {
	return func(b *ToolLoopBuilder) { b.SnapshotHook = hook }
}

func WithPersister(p TurnPersister) ToolLoopBuilderOption {
	return func(b *ToolLoopBuilder) { b.Persister = p }
}
