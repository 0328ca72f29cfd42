package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/invopop/jsonschema"
)

// ToolDescriptor is the static metadata of a tool, as shown to the model.
type ToolDescriptor struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	// InputFormat is a free-form hint describing the expected arguments.
	// It is rendered into the prompt and never enforced mechanically.
	InputFormat string             `json:"input_format" yaml:"input_format"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty" yaml:"-"`
}

// Tool is the one capability every tool implements.
//
// args is the JSON serialization of the invocation's argument mapping. The
// returned value must be JSON-compatible. Any error is reported back to the
// model as a failed result and never aborts the batch.
type Tool interface {
	Execute(ctx context.Context, args json.RawMessage) (interface{}, error)
}

// ToolFunc adapts an ordinary function to the Tool interface.
type ToolFunc func(ctx context.Context, args json.RawMessage) (interface{}, error)

func (f ToolFunc) Execute(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return f(ctx, args)
}

// ToolInvocationRequest is one entry of a turn response's tool_calls.
type ToolInvocationRequest struct {
	ToolName  string                 `json:"tool_name"`
	Arguments map[string]interface{} `json:"arguments"`
	// Malformed is set when the entry could not be decoded; the dispatcher
	// reports it as a failed result without resolving the tool.
	Malformed string `json:"-"`
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ToolExecutionResult is produced once per ToolInvocationRequest, in request order.
type ToolExecutionResult struct {
	ToolName string      `json:"tool_name" yaml:"tool_name"`
	Status   Status      `json:"status" yaml:"status"`
	Output   interface{} `json:"output" yaml:"output"`

	Duration time.Duration `json:"-" yaml:"-"`
}

func (r ToolExecutionResult) Failed() bool {
	return r.Status == StatusError
}

func successResult(name string, output interface{}) ToolExecutionResult {
	return ToolExecutionResult{ToolName: name, Status: StatusSuccess, Output: output}
}

func errorResult(name string, msg string) ToolExecutionResult {
	return ToolExecutionResult{ToolName: name, Status: StatusError, Output: msg}
}
