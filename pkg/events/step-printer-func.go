package events

import (
	"fmt"
	"io"

	"github.com/ThreeDotsLabs/watermill/message"
	"gopkg.in/yaml.v3"
)

// StepPrinterFunc renders session events in a compact human-readable trace.
func StepPrinterFunc(name string, w io.Writer) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		defer msg.Ack()

		e, err := NewEventFromJson(msg.Payload)
		if err != nil {
			return err
		}

		prefix := "[event]"
		if name != "" {
			prefix = fmt.Sprintf("[%s]", name)
		}

		switch p_ := e.(type) {
		case *EventTurnStart:
			_, err = fmt.Fprintf(w, "%s turn started\n", prefix)
		case *EventModelReply:
			_, err = fmt.Fprintf(w, "%s model reply #%d (%d bytes)\n", prefix, p_.Call, len(p_.Raw))
		case *EventProtocolError:
			_, err = fmt.Fprintf(w, "%s protocol error %s (attempt %d): %s\n", prefix, p_.Kind, p_.Attempt, p_.Reason)
		case *EventStateChange:
			_, err = fmt.Fprintf(w, "%s %s -> %s\n", prefix, p_.From, p_.To)
		case *EventToolCallExecute:
			err = printYAML(w, prefix+" tool call", p_.ToolCall)
		case *EventToolCallExecutionResult:
			err = printYAML(w, prefix+" tool result", p_.ToolResult)
		case *EventNote:
			_, err = fmt.Fprintf(w, "%s note queued: %s\n", prefix, p_.Text)
		case *EventError:
			_, err = fmt.Fprintf(w, "%s error: %s\n", prefix, p_.ErrorString)
		case *EventFinal:
			_, err = fmt.Fprintf(w, "%s final response (end=%v)\n", prefix, p_.End)
		}

		return err
	}
}

func printYAML(w io.Writer, header string, v interface{}) error {
	v_, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s:\n%s", header, v_)
	return err
}
