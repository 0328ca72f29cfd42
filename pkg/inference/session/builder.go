package session

import (
	"context"

	"github.com/go-go-golems/buddy/pkg/inference/toolloop"
)

// TurnRunner runs one blocking turn for an input that already carries the
// session notes. *toolloop.Loop is the standard implementation.
type TurnRunner interface {
	RunTurn(ctx context.Context, input string) (*toolloop.Outcome, error)
}

var _ TurnRunner = (*toolloop.Loop)(nil)
