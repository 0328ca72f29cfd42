package engine

import (
	"context"
	"fmt"
)

// Engine is the language-model transport. It has no knowledge of the reply
// protocol and returns the model's text verbatim.
type Engine interface {
	Call(ctx context.Context, systemPrompt string, userMessage string) (string, error)
}

// TransportError reports that the model could not be reached or refused the
// request (network, authentication, quota). It is fatal for the current turn.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func NewTransportError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Provider: provider, Err: err}
}
