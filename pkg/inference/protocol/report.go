package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/pkg/errors"
)

const toolReportHeader = "Tools were invoked. Their output has not been passed to the user. " +
	"Check that every tool succeeded and call failed ones again if needed, then answer the user."

type toolReport struct {
	ToolResults []tools.ToolExecutionResult `json:"tool_results"`
}

// RenderToolReport builds the next model input from a batch of results.
func (c *Codec) RenderToolReport(results []tools.ToolExecutionResult) (string, error) {
	if results == nil {
		results = []tools.ToolExecutionResult{}
	}
	b, err := json.MarshalIndent(toolReport{ToolResults: results}, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "could not serialize tool results")
	}
	return toolReportHeader + "\n" + string(b), nil
}

// RenderCorrection builds the corrective input sent after an unreadable reply.
func (c *Codec) RenderCorrection(perr *ProtocolError) string {
	switch perr.Kind {
	case KindEmptyResponse:
		return "CRITICAL: Your last reply had neither a response nor tool calls. " +
			"Resend it as raw JSON with a non-empty \"response\" or at least one entry in \"tool_calls\"."
	case KindMalformedJSON:
		fallthrough
	default:
		return fmt.Sprintf("CRITICAL: Failed to parse JSON response. Error: %s\n"+
			"Resend the same content as a single raw JSON object following the RESPONSE FORMAT, "+
			"with no text before or after it.", perr.Reason)
	}
}

// maxEchoedReply bounds how much of one model reply is replayed in a follow-up.
const maxEchoedReply = 4000

// Exchange is one step of a turn after the first model call: the model's raw
// reply and the message the loop answered it with.
type Exchange struct {
	Reply   string
	Message string
}

// RenderFollowUp builds the input for the next model call of a turn. The
// transport keeps no history, so the user's request and every earlier
// exchange of the turn are replayed before the newest message.
func (c *Codec) RenderFollowUp(request string, history []Exchange) string {
	var sb strings.Builder
	sb.WriteString("USER REQUEST:\n")
	sb.WriteString(request)
	sb.WriteString("\n")
	for i, ex := range history {
		fmt.Fprintf(&sb, "\nYOUR REPLY #%d:\n%s\n", i+1, truncateReply(ex.Reply))
		if i < len(history)-1 {
			fmt.Fprintf(&sb, "\nFOLLOW-UP #%d:\n%s\n", i+1, ex.Message)
		}
	}
	if len(history) > 0 {
		sb.WriteString("\n")
		sb.WriteString(history[len(history)-1].Message)
	}
	return sb.String()
}

func truncateReply(raw string) string {
	if len(raw) <= maxEchoedReply {
		return raw
	}
	return raw[:maxEchoedReply] + "\n...(truncated)"
}
