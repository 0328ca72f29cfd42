package factory

import (
	"os"
	"strings"

	"github.com/go-go-golems/buddy/pkg/inference/engine"
	"github.com/go-go-golems/buddy/pkg/steps/ai/claude"
	"github.com/go-go-golems/buddy/pkg/steps/ai/gemini"
	"github.com/go-go-golems/buddy/pkg/steps/ai/openai"
	"github.com/go-go-golems/buddy/pkg/steps/ai/settings"
	"github.com/go-go-golems/buddy/pkg/steps/ai/types"
	"github.com/pkg/errors"
)

// EngineFactory creates transports based on provider settings.
type EngineFactory interface {
	// CreateEngine picks the provider from settings.Chat.ApiType.
	CreateEngine(settings *settings.StepSettings) (engine.Engine, error)
	SupportedProviders() []string
	DefaultProvider() string
}

type StandardEngineFactory struct{}

var _ EngineFactory = (*StandardEngineFactory)(nil)

func NewStandardEngineFactory() *StandardEngineFactory {
	return &StandardEngineFactory{}
}

// CreateEngine builds an engine from a private copy of s, so later changes to
// s do not reach a running session.
func (f *StandardEngineFactory) CreateEngine(s *settings.StepSettings) (engine.Engine, error) {
	if s == nil {
		return nil, errors.New("settings cannot be nil")
	}
	s = s.Clone()

	provider := strings.ToLower(string(s.ApiType()))
	switch types.ApiType(provider) {
	case types.ApiTypeGemini:
		return gemini.NewEngine(s)
	case types.ApiTypeOpenAI:
		return openai.NewEngine(s)
	case types.ApiTypeClaude, "anthropic":
		return claude.NewEngine(s)
	case types.ApiTypeScripted:
		return newScriptedEngine(s)
	default:
		supported := strings.Join(f.SupportedProviders(), ", ")
		return nil, errors.Errorf("unsupported provider %s. Supported providers: %s", provider, supported)
	}
}

func newScriptedEngine(s *settings.StepSettings) (engine.Engine, error) {
	if s.Script == nil {
		return engine.NewScriptedEngine(), nil
	}
	if s.Script.File == "" {
		return engine.NewScriptedEngineFromReplies(s.Script.Replies...), nil
	}
	f, err := os.Open(s.Script.File)
	if err != nil {
		return nil, errors.Wrap(err, "could not open reply script")
	}
	defer f.Close()
	return engine.LoadScript(f)
}

func (f *StandardEngineFactory) SupportedProviders() []string {
	return []string{
		string(types.ApiTypeGemini),
		string(types.ApiTypeOpenAI),
		string(types.ApiTypeClaude),
		"anthropic", // alias for claude
		string(types.ApiTypeScripted),
	}
}

func (f *StandardEngineFactory) DefaultProvider() string {
	return string(settings.DefaultApiType)
}

// NewEngineFromStepSettings is a shorthand for the standard factory.
func NewEngineFromStepSettings(s *settings.StepSettings) (engine.Engine, error) {
	return NewStandardEngineFactory().CreateEngine(s)
}
