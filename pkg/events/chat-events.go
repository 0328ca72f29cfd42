package events

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EventType string

const (
	// A new external input entered the session
	EventTypeTurnStart EventType = "turn-start"
	// The model returned raw text (before decoding)
	EventTypeModelReply EventType = "model-reply"
	// The reply could not be decoded into a turn response
	EventTypeProtocolError EventType = "protocol-error"
	// The conversation loop moved to a new state
	EventTypeStateChange EventType = "state-change"

	// Execution-phase events (we are actually executing tools locally)
	EventTypeToolCallExecute         EventType = "tool-call-execute"
	EventTypeToolCallExecutionResult EventType = "tool-call-execution-result"

	// A user-facing response was emitted
	EventTypeFinal EventType = "final"
	EventTypeError EventType = "error"

	// Out-of-band note queued for the next turn
	EventTypeNote EventType = "note"
)

type Event interface {
	Type() EventType
	Metadata() EventMetadata
	Payload() []byte
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Metadata_ EventMetadata `json:"meta,omitempty"`

	// store payload if the event was deserialized from JSON (see NewEventFromJson), not further used
	payload []byte
}

func (e *EventImpl) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", string(e.Type_))
	ev.Object("meta", e.Metadata_)
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Metadata() EventMetadata {
	return e.Metadata_
}

func (e *EventImpl) Payload() []byte {
	return e.payload
}

// SetPayload stores the raw JSON payload on the event implementation.
func (e *EventImpl) SetPayload(b []byte) {
	e.payload = b
}

var _ Event = &EventImpl{}

type EventTurnStart struct {
	EventImpl
	Input string `json:"input"`
}

func NewTurnStartEvent(metadata EventMetadata, input string) *EventTurnStart {
	return &EventTurnStart{
		EventImpl: EventImpl{Type_: EventTypeTurnStart, Metadata_: metadata},
		Input:     input,
	}
}

var _ Event = &EventTurnStart{}

type EventModelReply struct {
	EventImpl
	Raw string `json:"raw"`
	// Call is the 1-based index of the model call within the turn
	Call int `json:"call"`
}

func NewModelReplyEvent(metadata EventMetadata, raw string, call int) *EventModelReply {
	return &EventModelReply{
		EventImpl: EventImpl{Type_: EventTypeModelReply, Metadata_: metadata},
		Raw:       raw,
		Call:      call,
	}
}

var _ Event = &EventModelReply{}

type EventProtocolError struct {
	EventImpl
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
	Attempt int    `json:"attempt"`
}

func NewProtocolErrorEvent(metadata EventMetadata, kind string, reason string, attempt int) *EventProtocolError {
	return &EventProtocolError{
		EventImpl: EventImpl{Type_: EventTypeProtocolError, Metadata_: metadata},
		Kind:      kind,
		Reason:    reason,
		Attempt:   attempt,
	}
}

var _ Event = &EventProtocolError{}

type EventStateChange struct {
	EventImpl
	From string `json:"from"`
	To   string `json:"to"`
}

func NewStateChangeEvent(metadata EventMetadata, from, to string) *EventStateChange {
	return &EventStateChange{
		EventImpl: EventImpl{Type_: EventTypeStateChange, Metadata_: metadata},
		From:      from,
		To:        to,
	}
}

var _ Event = &EventStateChange{}

type ToolCall struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Input string `json:"input" yaml:"input"`
}

// EventToolCallExecute captures the intent to execute a tool locally
type EventToolCallExecute struct {
	EventImpl
	ToolCall ToolCall `json:"tool_call"`
}

func NewToolCallExecuteEvent(metadata EventMetadata, toolCall ToolCall) *EventToolCallExecute {
	return &EventToolCallExecute{
		EventImpl: EventImpl{Type_: EventTypeToolCallExecute, Metadata_: metadata},
		ToolCall:  toolCall,
	}
}

var _ Event = &EventToolCallExecute{}

type ToolResult struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Result string `json:"result" yaml:"result"`
}

// EventToolCallExecutionResult captures the result of executing a tool locally
type EventToolCallExecutionResult struct {
	EventImpl
	ToolResult ToolResult `json:"tool_result"`
}

func NewToolCallExecutionResultEvent(metadata EventMetadata, toolResult ToolResult) *EventToolCallExecutionResult {
	return &EventToolCallExecutionResult{
		EventImpl:  EventImpl{Type_: EventTypeToolCallExecutionResult, Metadata_: metadata},
		ToolResult: toolResult,
	}
}

var _ Event = &EventToolCallExecutionResult{}

type EventFinal struct {
	EventImpl
	Text string `json:"text"`
	End  bool   `json:"end,omitempty"`
}

func NewFinalEvent(metadata EventMetadata, text string, end bool) *EventFinal {
	return &EventFinal{
		EventImpl: EventImpl{Type_: EventTypeFinal, Metadata_: metadata},
		Text:      text,
		End:       end,
	}
}

var _ Event = &EventFinal{}

type EventError struct {
	EventImpl
	ErrorString string `json:"error_string"`
}

func NewErrorEvent(metadata EventMetadata, err error) *EventError {
	return &EventError{
		EventImpl:   EventImpl{Type_: EventTypeError, Metadata_: metadata},
		ErrorString: err.Error(),
	}
}

var _ Event = &EventError{}

type EventNote struct {
	EventImpl
	Text string `json:"text"`
}

func NewNoteEvent(metadata EventMetadata, text string) *EventNote {
	return &EventNote{
		EventImpl: EventImpl{Type_: EventTypeNote, Metadata_: metadata},
		Text:      text,
	}
}

var _ Event = &EventNote{}

// EventMetadata contains all the information that is passed along with watermill message,
// specific to chat sessions.
type EventMetadata struct {
	ID uuid.UUID `json:"message_id" yaml:"message_id" mapstructure:"message_id"`
	// Correlation identifiers
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty" mapstructure:"session_id"`
	TurnID    string `json:"turn_id,omitempty" yaml:"turn_id,omitempty" mapstructure:"turn_id"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`
	// Extra carries provider-specific/context values
	Extra map[string]interface{} `json:"extra,omitempty" yaml:"extra,omitempty" mapstructure:"extra"`
}

func (em EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	e.Str("message_id", em.ID.String())
	if em.SessionID != "" {
		e.Str("session_id", em.SessionID)
	}
	if em.TurnID != "" {
		e.Str("turn_id", em.TurnID)
	}
	if em.Model != "" {
		e.Str("model", em.Model)
	}
	if len(em.Extra) > 0 {
		e.Interface("extra", em.Extra)
	}
}

func NewEventFromJson(b []byte) (Event, error) {
	var e *EventImpl
	err := json.Unmarshal(b, &e)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("empty event payload")
	}

	e.payload = b

	switch e.Type_ {
	case EventTypeTurnStart:
		return toTypedEventOrError[EventTurnStart](e)
	case EventTypeModelReply:
		return toTypedEventOrError[EventModelReply](e)
	case EventTypeProtocolError:
		return toTypedEventOrError[EventProtocolError](e)
	case EventTypeStateChange:
		return toTypedEventOrError[EventStateChange](e)
	case EventTypeToolCallExecute:
		return toTypedEventOrError[EventToolCallExecute](e)
	case EventTypeToolCallExecutionResult:
		return toTypedEventOrError[EventToolCallExecutionResult](e)
	case EventTypeFinal:
		return toTypedEventOrError[EventFinal](e)
	case EventTypeError:
		return toTypedEventOrError[EventError](e)
	case EventTypeNote:
		return toTypedEventOrError[EventNote](e)
	}

	return e, nil
}

func toTypedEventOrError[T any, PT interface {
	*T
	Event
	SetPayload([]byte)
}](e Event) (Event, error) {
	ret, ok := ToTypedEvent[T](e)
	if !ok || ret == nil {
		return nil, fmt.Errorf("could not cast event to %T", ret)
	}
	PT(ret).SetPayload(e.Payload())
	return PT(ret), nil
}

func ToTypedEvent[T any](e Event) (*T, bool) {
	var ret *T
	err := json.Unmarshal(e.Payload(), &ret)
	if err != nil {
		return nil, false
	}

	return ret, true
}
