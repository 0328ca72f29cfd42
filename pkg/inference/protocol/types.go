package protocol

import (
	"github.com/go-go-golems/buddy/pkg/inference/tools"
)

// TurnResponse is the decoded form of one model reply.
type TurnResponse struct {
	// Thought is diagnostic only and never shown to the user.
	Thought   string                        `json:"thought,omitempty"`
	Response  string                        `json:"response,omitempty"`
	End       bool                          `json:"end,omitempty"`
	ToolCalls []tools.ToolInvocationRequest `json:"tool_calls"`
}

func (r *TurnResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// IsEmpty reports a reply that carries neither a response nor tool calls.
func (r *TurnResponse) IsEmpty() bool {
	return r.Response == "" && !r.HasToolCalls()
}
