package gemini

import (
	"context"
	"strings"
	"sync"

	"github.com/go-go-golems/buddy/pkg/inference/engine"
	"github.com/go-go-golems/buddy/pkg/steps/ai/settings"
	"github.com/go-go-golems/buddy/pkg/steps/ai/types"
	genai "github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Engine talks to the Gemini API. In chat mode the first call starts a
// stateful chat bound to that call's system prompt; later calls only send the
// user message.
type Engine struct {
	settings *settings.StepSettings

	mu     sync.Mutex
	client *genai.Client
	chat   *genai.ChatSession
}

var _ engine.Engine = (*Engine)(nil)

func NewEngine(s *settings.StepSettings) (*Engine, error) {
	if s == nil || s.Chat == nil || s.Chat.Engine == nil {
		return nil, errors.New("no engine specified")
	}
	if s.API.APIKey(types.ApiTypeGemini) == "" {
		return nil, errors.Errorf("missing API key %s", types.ApiTypeGemini.ApiKeyName())
	}
	return &Engine{settings: s.Clone()}, nil
}

func (e *Engine) ensureClient(ctx context.Context) (*genai.Client, error) {
	if e.client != nil {
		return e.client, nil
	}
	opts := []option.ClientOption{option.WithAPIKey(e.settings.API.APIKey(types.ApiTypeGemini))}
	if baseURL := e.settings.API.BaseURL(types.ApiTypeGemini); baseURL != "" {
		opts = append(opts, option.WithEndpoint(baseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gemini client")
	}
	e.client = client
	return client, nil
}

func (e *Engine) newModel(client *genai.Client, systemPrompt string) *genai.GenerativeModel {
	chat := e.settings.Chat
	model := client.GenerativeModel(*chat.Engine)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	if chat.Temperature != nil {
		model.SetTemperature(float32(*chat.Temperature))
	}
	if chat.MaxResponseTokens != nil {
		model.SetMaxOutputTokens(int32(*chat.MaxResponseTokens))
	}
	if chat.JSONMode {
		model.ResponseMIMEType = "application/json"
	}
	return model
}

func (e *Engine) chatMode() bool {
	return e.settings.Gemini != nil && e.settings.Gemini.ChatMode
}

func (e *Engine) Call(ctx context.Context, systemPrompt string, userMessage string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.settings.Client != nil && e.settings.Client.Timeout != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *e.settings.Client.Timeout)
		defer cancel()
	}

	client, err := e.ensureClient(ctx)
	if err != nil {
		return "", engine.NewTransportError(string(types.ApiTypeGemini), err)
	}

	log.Debug().
		Str("model", *e.settings.Chat.Engine).
		Bool("chat_mode", e.chatMode()).
		Int("input_len", len(userMessage)).
		Msg("Calling Gemini")

	var resp *genai.GenerateContentResponse
	if e.chatMode() {
		if e.chat == nil {
			log.Debug().Msg("Starting new Gemini chat session with system prompt")
			e.chat = e.newModel(client, systemPrompt).StartChat()
		}
		resp, err = e.chat.SendMessage(ctx, genai.Text(userMessage))
	} else {
		resp, err = e.newModel(client, systemPrompt).GenerateContent(ctx, genai.Text(userMessage))
	}
	if err != nil {
		return "", engine.NewTransportError(string(types.ApiTypeGemini), err)
	}

	text := responseText(resp)
	if text == "" {
		return "", engine.NewTransportError(string(types.ApiTypeGemini), errors.New("no response text received from Gemini"))
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		// the first candidate with content is the answer
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	e.chat = nil
	return err
}
