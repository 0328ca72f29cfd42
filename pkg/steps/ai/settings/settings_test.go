package settings

import (
	"strings"
	"testing"
	"time"

	"github.com/go-go-golems/buddy/pkg/steps/ai/types"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStepSettings_Defaults(t *testing.T) {
	s := NewStepSettings()
	assert.Equal(t, types.ApiTypeGemini, s.ApiType())
	require.NotNil(t, s.Chat.Engine)
	assert.Equal(t, DefaultEngine, *s.Chat.Engine)
	assert.False(t, s.Gemini.ChatMode)
	assert.Equal(t, 60*time.Second, *s.Client.Timeout)
}

func TestNewStepSettingsFromYAML(t *testing.T) {
	s, err := NewStepSettingsFromYAML(strings.NewReader(`
chat:
  api_type: openai
  engine: gpt-4o-mini
  max_response_tokens: 512
client:
  timeout: 12
api:
  api_keys:
    openai-api-key: sk-test
gemini:
  chat_mode: true
`))
	require.NoError(t, err)
	assert.Equal(t, types.ApiTypeOpenAI, s.ApiType())
	assert.Equal(t, "gpt-4o-mini", *s.Chat.Engine)
	assert.Equal(t, 512, *s.Chat.MaxResponseTokens)
	assert.Equal(t, 12*time.Second, *s.Client.Timeout)
	assert.Equal(t, "sk-test", s.API.APIKey(types.ApiTypeOpenAI))
	assert.True(t, s.Gemini.ChatMode)
}

func TestUpdateFromViper(t *testing.T) {
	v := viper.New()
	v.Set("ai.api-type", "Claude")
	v.Set("ai.model", "claude-3-5-haiku-latest")
	v.Set("ai.api-key", "k-1")
	v.Set("ai.base-url", "http://localhost:9999")
	v.Set("ai.temperature", 0.2)
	v.Set("ai.max-tokens", 300)
	v.Set("ai.timeout", "5s")

	s, err := NewStepSettingsFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, types.ApiTypeClaude, s.ApiType())
	assert.Equal(t, "claude-3-5-haiku-latest", *s.Chat.Engine)
	assert.Equal(t, "k-1", s.API.APIKey(types.ApiTypeClaude))
	assert.Equal(t, "http://localhost:9999", s.API.BaseURL(types.ApiTypeClaude))
	assert.InDelta(t, 0.2, *s.Chat.Temperature, 1e-9)
	assert.Equal(t, 300, *s.Chat.MaxResponseTokens)
	assert.Equal(t, 5*time.Second, *s.Client.Timeout)
}

func TestUpdateFromViper_FallsBackToEnvironmentKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	s, err := NewStepSettingsFromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.API.APIKey(types.ApiTypeGemini))
}

func TestClone_IsIndependent(t *testing.T) {
	s := NewStepSettings()
	s.API.APIKeys["gemini-api-key"] = "a"

	c := s.Clone()
	c.API.APIKeys["gemini-api-key"] = "b"
	*c.Chat.Engine = "other"

	assert.Equal(t, "a", s.API.APIKey(types.ApiTypeGemini))
	assert.Equal(t, DefaultEngine, *s.Chat.Engine)
}
