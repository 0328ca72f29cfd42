package settings

import (
	"github.com/go-go-golems/buddy/pkg/helpers"
	"github.com/go-go-golems/buddy/pkg/steps/ai/types"
	"github.com/huandu/go-clone"
)

const (
	DefaultApiType     = types.ApiTypeGemini
	DefaultEngine      = "gemini-2.5-flash"
	DefaultTemperature = 0.7
)

type ChatSettings struct {
	Engine            *string        `yaml:"engine,omitempty"`
	ApiType           *types.ApiType `yaml:"api_type,omitempty"`
	MaxResponseTokens *int           `yaml:"max_response_tokens,omitempty"`
	Temperature       *float64       `yaml:"temperature,omitempty"`
	// JSONMode asks providers that support it to constrain output to a JSON object.
	JSONMode bool `yaml:"json_mode,omitempty"`
}

func NewChatSettings() *ChatSettings {
	apiType := DefaultApiType
	return &ChatSettings{
		Engine:      helpers.StringPointer(DefaultEngine),
		ApiType:     &apiType,
		Temperature: helpers.Float64Pointer(DefaultTemperature),
	}
}

func (s *ChatSettings) Clone() *ChatSettings {
	return clone.Clone(s).(*ChatSettings)
}
