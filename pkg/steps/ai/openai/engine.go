package openai

import (
	"context"
	"net/http"

	"github.com/go-go-golems/buddy/pkg/inference/engine"
	"github.com/go-go-golems/buddy/pkg/steps/ai/settings"
	"github.com/go-go-golems/buddy/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

// Engine talks to the OpenAI chat completions API, or any compatible
// endpoint (ollama, vLLM) when a base URL is configured.
type Engine struct {
	settings *settings.StepSettings
	client   *go_openai.Client
}

var _ engine.Engine = (*Engine)(nil)

func NewEngine(s *settings.StepSettings) (*Engine, error) {
	if s == nil || s.Chat == nil || s.Chat.Engine == nil {
		return nil, errors.New("no engine specified")
	}
	apiKey := s.API.APIKey(types.ApiTypeOpenAI)
	baseURL := s.API.BaseURL(types.ApiTypeOpenAI)
	if apiKey == "" && baseURL == "" {
		return nil, errors.Errorf("missing API key %s", types.ApiTypeOpenAI.ApiKeyName())
	}

	config := go_openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if s.Client != nil && s.Client.Timeout != nil {
		config.HTTPClient = &http.Client{Timeout: *s.Client.Timeout}
	}

	return &Engine{
		settings: s.Clone(),
		client:   go_openai.NewClientWithConfig(config),
	}, nil
}

func (e *Engine) makeRequest(systemPrompt string, userMessage string) go_openai.ChatCompletionRequest {
	chat := e.settings.Chat
	req := go_openai.ChatCompletionRequest{
		Model: *chat.Engine,
		Messages: []go_openai.ChatCompletionMessage{
			{Role: go_openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: go_openai.ChatMessageRoleUser, Content: userMessage},
		},
	}
	if chat.Temperature != nil {
		req.Temperature = float32(*chat.Temperature)
	}
	if chat.MaxResponseTokens != nil {
		req.MaxTokens = *chat.MaxResponseTokens
	}
	if chat.JSONMode {
		req.ResponseFormat = &go_openai.ChatCompletionResponseFormat{
			Type: go_openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

func (e *Engine) Call(ctx context.Context, systemPrompt string, userMessage string) (string, error) {
	req := e.makeRequest(systemPrompt, userMessage)
	log.Debug().Str("model", req.Model).Int("input_len", len(userMessage)).Msg("Calling OpenAI chat completion")

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", engine.NewTransportError(string(types.ApiTypeOpenAI), err)
	}
	if len(resp.Choices) == 0 {
		return "", engine.NewTransportError(string(types.ApiTypeOpenAI), errors.New("no choices in response"))
	}

	log.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("OpenAI chat completion done")
	return resp.Choices[0].Message.Content, nil
}
