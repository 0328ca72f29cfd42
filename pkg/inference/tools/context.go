package tools

import "context"

type currentInvocationKey struct{}

// Invocation identifies the request a tool is currently executing.
type Invocation struct {
	ID    string
	Index int
	Name  string
}

// WithCurrentInvocation annotates context with the invocation being executed.
func WithCurrentInvocation(ctx context.Context, inv Invocation) context.Context {
	return context.WithValue(ctx, currentInvocationKey{}, inv)
}

// CurrentInvocationFromContext returns the current invocation if available.
func CurrentInvocationFromContext(ctx context.Context) (Invocation, bool) {
	if ctx == nil {
		return Invocation{}, false
	}
	inv, ok := ctx.Value(currentInvocationKey{}).(Invocation)
	return inv, ok
}
