package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ToolDispatcher executes a batch of invocation requests against a registry.
// Implementations must return exactly one result per request, in request order.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, requests []ToolInvocationRequest, registry ToolRegistry) []ToolExecutionResult
}

// DefaultToolDispatcher runs requests one after the other. It keeps no state
// between batches.
type DefaultToolDispatcher struct {
	config DispatchConfig
}

var _ ToolDispatcher = (*DefaultToolDispatcher)(nil)

func NewDefaultToolDispatcher(cfg DispatchConfig) *DefaultToolDispatcher {
	return &DefaultToolDispatcher{config: cfg}
}

func (d *DefaultToolDispatcher) Dispatch(ctx context.Context, requests []ToolInvocationRequest, registry ToolRegistry) []ToolExecutionResult {
	results := make([]ToolExecutionResult, 0, len(requests))
	for i, req := range requests {
		start := time.Now()
		res := d.dispatchOne(ctx, i, req, registry)
		res.Duration = time.Since(start)
		results = append(results, res)
	}
	return results
}

func (d *DefaultToolDispatcher) dispatchOne(ctx context.Context, index int, req ToolInvocationRequest, registry ToolRegistry) ToolExecutionResult {
	inv := Invocation{ID: uuid.NewString(), Index: index, Name: req.ToolName}
	logger := log.With().Str("tool", req.ToolName).Int("index", index).Str("invocation_id", inv.ID).Logger()

	if req.Malformed != "" {
		logger.Warn().Str("reason", req.Malformed).Msg("Rejecting malformed tool call")
		return errorResult(req.ToolName, req.Malformed)
	}

	args := req.Arguments
	if args == nil {
		args = map[string]interface{}{}
	}
	serialized, err := json.Marshal(args)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not serialize tool arguments")
		return errorResult(req.ToolName, fmt.Sprintf("could not serialize arguments: %v", err))
	}

	handle, ok := registry.Resolve(req.ToolName)
	if !ok {
		nf := &ToolNotFoundError{Name: req.ToolName}
		logger.Warn().Msg("Requested tool is not registered")
		return errorResult(req.ToolName, nf.Error())
	}
	if !d.config.IsToolAllowed(req.ToolName) {
		logger.Warn().Msg("Requested tool is not allowed")
		return errorResult(req.ToolName, fmt.Sprintf("tool not allowed: %s", req.ToolName))
	}

	ctx = WithCurrentInvocation(ctx, inv)
	events.PublishEventToContext(ctx, events.NewToolCallExecuteEvent(
		events.MetadataFromContext(ctx),
		events.ToolCall{ID: inv.ID, Name: req.ToolName, Input: string(serialized)},
	))

	logger.Info().RawJSON("arguments", serialized).Msg("Executing tool")
	output, err := d.execute(ctx, handle, serialized)

	var res ToolExecutionResult
	if err != nil {
		execErr := &ToolExecutionError{Name: req.ToolName, Err: err}
		logger.Error().Err(err).Msg("Tool execution failed")
		res = errorResult(req.ToolName, execErr.Error())
	} else {
		logger.Debug().Interface("output", output).Msg("Tool execution succeeded")
		res = successResult(req.ToolName, output)
	}

	events.PublishEventToContext(ctx, events.NewToolCallExecutionResultEvent(
		events.MetadataFromContext(ctx),
		events.ToolResult{ID: inv.ID, Name: req.ToolName, Status: string(res.Status), Result: outputString(res.Output)},
	))
	return res
}

func (d *DefaultToolDispatcher) execute(ctx context.Context, handle *Handle, args json.RawMessage) (output interface{}, err error) {
	if d.config.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.ExecutionTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = errors.Errorf("panic: %v", r)
		}
	}()

	output, err = handle.Execute(ctx, args)
	if err == nil {
		// the output has to survive the trip back to the model
		if _, merr := json.Marshal(output); merr != nil {
			return nil, errors.Wrap(merr, "tool returned a value that is not JSON-compatible")
		}
	}
	return output, err
}

func outputString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
