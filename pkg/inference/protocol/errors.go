package protocol

import "fmt"

type ErrorKind string

const (
	// KindMalformedJSON means no JSON object could be located or parsed.
	KindMalformedJSON ErrorKind = "MALFORMED_JSON"
	// KindEmptyResponse means the reply decoded but had no response and no tool calls.
	KindEmptyResponse ErrorKind = "EMPTY_RESPONSE"
)

// ProtocolError is a recoverable failure to read a model reply.
type ProtocolError struct {
	Kind   ErrorKind
	Reason string
	// Raw is the reply as received.
	Raw   string
	cause error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.cause
}

func NewEmptyResponseError(raw string) *ProtocolError {
	return &ProtocolError{
		Kind:   KindEmptyResponse,
		Reason: "reply has neither a response nor tool calls",
		Raw:    raw,
	}
}

func malformed(raw string, reason string, cause error) *ProtocolError {
	return &ProtocolError{Kind: KindMalformedJSON, Reason: reason, Raw: raw, cause: cause}
}
