package middleware

import (
	"context"
	"io"

	"github.com/go-go-golems/buddy/pkg/inference/engine"
)

// HandlerFunc performs one model call.
type HandlerFunc func(ctx context.Context, systemPrompt string, userMessage string) (string, error)

// Middleware wraps a HandlerFunc with additional functionality.
// Middleware are applied in order: Chain(m1, m2, m3) results in m1(m2(m3(handler))).
type Middleware func(HandlerFunc) HandlerFunc

// Chain composes multiple middleware into a single HandlerFunc.
func Chain(handler HandlerFunc, middlewares ...Middleware) HandlerFunc {
	// Apply middlewares in reverse order so they execute in correct order
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			handler = middlewares[i](handler)
		}
	}
	return handler
}

// EngineWithMiddleware wraps an Engine with a middleware chain.
type EngineWithMiddleware struct {
	inner   engine.Engine
	handler HandlerFunc
}

var _ engine.Engine = (*EngineWithMiddleware)(nil)

func NewEngineWithMiddleware(e engine.Engine, middlewares ...Middleware) *EngineWithMiddleware {
	return &EngineWithMiddleware{
		inner:   e,
		handler: Chain(e.Call, middlewares...),
	}
}

// Call runs the middleware chain followed by the underlying engine.
func (e *EngineWithMiddleware) Call(ctx context.Context, systemPrompt string, userMessage string) (string, error) {
	return e.handler(ctx, systemPrompt, userMessage)
}

// Close closes the wrapped engine when it holds resources.
func (e *EngineWithMiddleware) Close() error {
	if c, ok := e.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
