package claude

import (
	"testing"

	"github.com/go-go-golems/buddy/pkg/steps/ai/settings"
	"github.com/go-go-golems/buddy/pkg/steps/ai/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	s := settings.NewStepSettings()
	apiType := types.ApiTypeClaude
	model := "claude-3-5-haiku-latest"
	s.Chat.ApiType = &apiType
	s.Chat.Engine = &model

	_, err := NewEngine(s)
	require.Error(t, err)

	s.API.APIKeys[apiType.ApiKeyName()] = "key"
	e, err := NewEngine(s)
	require.NoError(t, err)

	params := e.makeParams("sys", "hello")
	assert.Equal(t, int64(defaultMaxTokens), params.MaxTokens.Value)
	require.Len(t, params.System.Value, 1)
	assert.Len(t, params.Messages.Value, 1)
}
