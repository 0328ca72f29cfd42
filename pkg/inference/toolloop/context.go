package toolloop

import (
	"context"

	"github.com/go-go-golems/buddy/pkg/inference/tools"
)

// Snapshot captures the turn at one phase: "pre_call", "post_call" or "post_tools".
type Snapshot struct {
	Phase   string
	Call    int
	State   State
	Input   string
	Raw     string
	Results []tools.ToolExecutionResult
}

// SnapshotHook observes a turn while it runs. It must not block for long.
type SnapshotHook func(ctx context.Context, snap Snapshot)

type snapshotHookKey struct{}

// WithTurnSnapshotHook attaches a snapshot hook to the context.
func WithTurnSnapshotHook(ctx context.Context, hook SnapshotHook) context.Context {
	if hook == nil {
		return ctx
	}
	return context.WithValue(ctx, snapshotHookKey{}, hook)
}

// SnapshotHookFromContext returns the snapshot hook attached to the context, if any.
func SnapshotHookFromContext(ctx context.Context) (SnapshotHook, bool) {
	h, ok := ctx.Value(snapshotHookKey{}).(SnapshotHook)
	return h, ok && h != nil
}
