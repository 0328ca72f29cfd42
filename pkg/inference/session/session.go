package session

import (
	"context"
	"strings"
	"sync"

	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/go-go-golems/buddy/pkg/inference/toolloop"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionBusy     = errors.New("session already has an active turn")
	ErrSessionEnded    = errors.New("session has ended")
	ErrSessionNoRunner = errors.New("session has no turn runner")
)

// TurnRecord is one finished turn kept in the session history.
type TurnRecord struct {
	TurnID  string
	Input   string
	Outcome *toolloop.Outcome
	Err     error
}

// Session is a long-lived conversation. It runs at most one turn at a time
// and owns the queue of notes that are attached to the next turn's input.
type Session struct {
	SessionID string

	runner TurnRunner
	sinks  []events.EventSink

	mu     sync.Mutex
	active *TurnHandle
	ended  bool
	turns  []TurnRecord

	notesMu sync.Mutex
	notes   []string
}

// NewSession creates a session around runner with a fresh session id.
func NewSession(runner TurnRunner, sinks ...events.EventSink) *Session {
	return &Session{
		SessionID: uuid.NewString(),
		runner:    runner,
		sinks:     sinks,
	}
}

// AddNote queues text for the next turn. It may be called from any goroutine,
// including while a turn is running.
func (s *Session) AddNote(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.notesMu.Lock()
	s.notes = append(s.notes, text)
	s.notesMu.Unlock()

	log.Debug().Str("session_id", s.SessionID).Str("note", text).Msg("session: note queued")
	ctx := WithSessionMeta(events.WithEventSinks(context.Background(), s.sinks...), s.SessionID, "")
	events.PublishEventToContext(ctx, events.NewNoteEvent(events.MetadataFromContext(ctx), text))
}

// PendingNotes returns a copy of the queued notes without draining them.
func (s *Session) PendingNotes() []string {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()
	return append([]string(nil), s.notes...)
}

func (s *Session) drainNotes() []string {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()
	notes := s.notes
	s.notes = nil
	return notes
}

// ComposeInput appends each note to input as a "[NOTE]: " line.
func ComposeInput(input string, notes []string) string {
	if len(notes) == 0 {
		return input
	}
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, "[NOTE]: "+n)
	}
	if input == "" {
		return strings.Join(lines, "\n")
	}
	return input + "\n" + strings.Join(lines, "\n")
}

// IsRunning reports whether a turn is in flight.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil && s.active.IsRunning()
}

// Ended reports whether the model has closed the conversation.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Turns returns the finished turns, oldest first.
func (s *Session) Turns() []TurnRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TurnRecord(nil), s.turns...)
}

// StartTurn drains the note queue into input and starts the turn in the
// background. Only one turn may be active at a time.
func (s *Session) StartTurn(ctx context.Context, input string) (*TurnHandle, error) {
	if s == nil {
		return nil, errors.New("session is nil")
	}
	if s.runner == nil {
		return nil, ErrSessionNoRunner
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil, ErrSessionEnded
	}
	if s.active != nil && s.active.IsRunning() {
		s.mu.Unlock()
		return nil, ErrSessionBusy
	}

	notes := s.drainNotes()
	full := ComposeInput(input, notes)
	turnID := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)
	runCtx = WithSessionMeta(runCtx, s.SessionID, turnID)
	if len(s.sinks) > 0 {
		runCtx = events.WithEventSinks(runCtx, s.sinks...)
	}
	handle := newTurnHandle(s.SessionID, turnID, full, notes, cancel)
	s.active = handle
	s.mu.Unlock()

	log.Debug().
		Str("session_id", s.SessionID).
		Str("turn_id", turnID).
		Int("input_len", len(full)).
		Msg("session: turn started")

	go func() {
		out, err := s.runner.RunTurn(runCtx, full)

		s.mu.Lock()
		s.turns = append(s.turns, TurnRecord{TurnID: turnID, Input: full, Outcome: out, Err: err})
		if err == nil && out != nil && out.End {
			s.ended = true
		}
		s.mu.Unlock()

		handle.finish(out, err)
	}()

	return handle, nil
}

// Submit runs one turn and waits for it.
func (s *Session) Submit(ctx context.Context, input string) (*toolloop.Outcome, error) {
	h, err := s.StartTurn(ctx, input)
	if err != nil {
		return nil, err
	}
	return h.Wait()
}
