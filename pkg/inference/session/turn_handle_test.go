package session

import (
	"context"
	"testing"
	"time"

	"github.com/go-go-golems/buddy/pkg/inference/toolloop"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnHandle_CarriesDrainedNotes(t *testing.T) {
	release := make(chan struct{})
	s := NewSession(fakeRunner(func(ctx context.Context, input string) (*toolloop.Outcome, error) {
		<-release
		return &toolloop.Outcome{Response: "ok"}, nil
	}))
	s.AddNote("ALERT: dentist")

	h, err := s.StartTurn(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"ALERT: dentist"}, h.Notes)
	assert.Equal(t, "hi\n[NOTE]: ALERT: dentist", h.Input)
	assert.Equal(t, s.SessionID, h.SessionID)
	assert.NotEmpty(t, h.TurnID)

	assert.True(t, h.IsRunning())
	assert.False(t, h.EndsSession())
	time.Sleep(5 * time.Millisecond)
	assert.Greater(t, h.Elapsed(), time.Duration(0))

	close(release)
	_, err = h.Wait()
	require.NoError(t, err)
	assert.False(t, h.IsRunning())
	assert.False(t, h.EndsSession())

	total := h.Elapsed()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, total, h.Elapsed())
}

func TestTurnHandle_EndsSession(t *testing.T) {
	s := NewSession(fakeRunner(func(ctx context.Context, input string) (*toolloop.Outcome, error) {
		return &toolloop.Outcome{Response: "bye", End: true}, nil
	}))
	h, err := s.StartTurn(context.Background(), "goodbye")
	require.NoError(t, err)
	<-h.Done()
	assert.True(t, h.EndsSession())
	assert.True(t, s.Ended())
}

func TestTurnHandle_FailedTurnDoesNotEndSession(t *testing.T) {
	s := NewSession(fakeRunner(func(ctx context.Context, input string) (*toolloop.Outcome, error) {
		return &toolloop.Outcome{End: true}, errors.New("transport down")
	}))
	h, err := s.StartTurn(context.Background(), "x")
	require.NoError(t, err)
	_, err = h.Wait()
	require.Error(t, err)
	assert.False(t, h.EndsSession())
	assert.False(t, s.Ended())
}

func TestTurnHandle_Nil(t *testing.T) {
	var h *TurnHandle
	_, err := h.Wait()
	require.ErrorIs(t, err, ErrTurnHandleNil)
	assert.False(t, h.IsRunning())
	h.Cancel()
}
