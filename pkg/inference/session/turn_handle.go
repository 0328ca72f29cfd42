package session

import (
	"context"
	"errors"
	"time"

	"github.com/go-go-golems/buddy/pkg/inference/toolloop"
)

var ErrTurnHandleNil = errors.New("turn handle is nil")

// TurnHandle tracks one turn started by Session.StartTurn.
type TurnHandle struct {
	SessionID string
	TurnID    string

	// Input is what the model received: the user's text followed by the
	// notes drained for this turn.
	Input string
	// Notes are the session notes folded into Input.
	Notes []string

	started time.Time
	done    chan struct{}
	cancel  context.CancelFunc

	// written once before done is closed
	out      *toolloop.Outcome
	err      error
	finished time.Time
}

func newTurnHandle(sessionID, turnID, input string, notes []string, cancel context.CancelFunc) *TurnHandle {
	return &TurnHandle{
		SessionID: sessionID,
		TurnID:    turnID,
		Input:     input,
		Notes:     notes,
		started:   time.Now(),
		done:      make(chan struct{}),
		cancel:    cancel,
	}
}

// finish is called exactly once, by the goroutine running the turn.
func (h *TurnHandle) finish(out *toolloop.Outcome, err error) {
	h.out, h.err, h.finished = out, err, time.Now()
	close(h.done)
	// release the turn context
	h.cancel()
}

// Cancel aborts the model call or tool currently running. It is safe to call
// at any time, including after the turn finished.
func (h *TurnHandle) Cancel() {
	if h != nil && h.cancel != nil {
		h.cancel()
	}
}

// Wait blocks until the turn finished and returns its outcome.
func (h *TurnHandle) Wait() (*toolloop.Outcome, error) {
	if h == nil {
		return nil, ErrTurnHandleNil
	}
	<-h.done
	return h.out, h.err
}

// Done is closed once the turn finished.
func (h *TurnHandle) Done() <-chan struct{} {
	return h.done
}

func (h *TurnHandle) IsRunning() bool {
	if h == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// EndsSession reports whether the finished turn asked to end the session.
// It is false while the turn runs and for failed turns.
func (h *TurnHandle) EndsSession() bool {
	if h.IsRunning() || h.err != nil || h.out == nil {
		return false
	}
	return h.out.End
}

// Elapsed is the turn's wall time so far, or its total once finished.
func (h *TurnHandle) Elapsed() time.Duration {
	if h.IsRunning() {
		return time.Since(h.started)
	}
	return h.finished.Sub(h.started)
}
