package claude

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-go-golems/buddy/pkg/inference/engine"
	"github.com/go-go-golems/buddy/pkg/steps/ai/settings"
	"github.com/go-go-golems/buddy/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultMaxTokens = 1024

// Engine talks to the Anthropic messages API.
type Engine struct {
	settings *settings.StepSettings
	client   *anthropic.Client
}

var _ engine.Engine = (*Engine)(nil)

func NewEngine(s *settings.StepSettings) (*Engine, error) {
	if s == nil || s.Chat == nil || s.Chat.Engine == nil {
		return nil, errors.New("no engine specified")
	}
	apiKey := s.API.APIKey(types.ApiTypeClaude)
	if apiKey == "" {
		return nil, errors.Errorf("missing API key %s", types.ApiTypeClaude.ApiKeyName())
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := s.API.BaseURL(types.ApiTypeClaude); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if s.Client != nil && s.Client.Timeout != nil {
		opts = append(opts, option.WithRequestTimeout(*s.Client.Timeout))
	}

	return &Engine{
		settings: s.Clone(),
		client:   anthropic.NewClient(opts...),
	}, nil
}

func (e *Engine) makeParams(systemPrompt string, userMessage string) anthropic.MessageNewParams {
	chat := e.settings.Chat
	maxTokens := defaultMaxTokens
	if chat.MaxResponseTokens != nil {
		maxTokens = *chat.MaxResponseTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(*chat.Engine)),
		MaxTokens: anthropic.F(int64(maxTokens)),
		System:    anthropic.F([]anthropic.TextBlockParam{anthropic.NewTextBlock(systemPrompt)}),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		}),
	}
	if chat.Temperature != nil {
		params.Temperature = anthropic.F(*chat.Temperature)
	}
	return params
}

func (e *Engine) Call(ctx context.Context, systemPrompt string, userMessage string) (string, error) {
	params := e.makeParams(systemPrompt, userMessage)
	log.Debug().Str("model", *e.settings.Chat.Engine).Int("input_len", len(userMessage)).Msg("Calling Claude messages API")

	msg, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return "", engine.NewTransportError(string(types.ApiTypeClaude), err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	log.Debug().
		Int64("input_tokens", msg.Usage.InputTokens).
		Int64("output_tokens", msg.Usage.OutputTokens).
		Str("stop_reason", string(msg.StopReason)).
		Msg("Claude message done")
	return sb.String(), nil
}
