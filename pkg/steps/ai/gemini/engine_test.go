package gemini

import (
	"testing"

	"github.com/go-go-golems/buddy/pkg/steps/ai/settings"
	genai "github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine_RequiresAPIKey(t *testing.T) {
	s := settings.NewStepSettings()
	_, err := NewEngine(s)
	require.Error(t, err)

	s.API.APIKeys["gemini-api-key"] = "k"
	e, err := NewEngine(s)
	require.NoError(t, err)
	assert.False(t, e.chatMode())

	s.Gemini.ChatMode = true
	e, err = NewEngine(s)
	require.NoError(t, err)
	assert.True(t, e.chatMode())
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"response":`), genai.Text(` "hi"}`)}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	assert.Equal(t, `{"response": "hi"}`, responseText(resp))
}
