package session

import (
	"context"
	"testing"

	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/stretchr/testify/require"
)

func TestWithSessionMeta_SetsValuesAndEventMetadata(t *testing.T) {
	ctx := WithSessionMeta(context.Background(), "sess-1", "turn-1")
	require.Equal(t, "sess-1", SessionIDFromContext(ctx))
	require.Equal(t, "turn-1", TurnIDFromContext(ctx))

	meta := events.MetadataFromContext(ctx)
	require.Equal(t, "sess-1", meta.SessionID)
	require.Equal(t, "turn-1", meta.TurnID)
}

func TestSessionMeta_MissingValues(t *testing.T) {
	require.Equal(t, "", SessionIDFromContext(context.Background()))
	require.Equal(t, "", TurnIDFromContext(context.Background()))
}
