package settings

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-go-golems/buddy/pkg/steps/ai/settings/gemini"
	"github.com/go-go-golems/buddy/pkg/steps/ai/types"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type ScriptSettings struct {
	// File is a YAML list of canned replies.
	File    string   `yaml:"file,omitempty"`
	Replies []string `yaml:"replies,omitempty"`
}

type StepSettings struct {
	Chat   *ChatSettings    `yaml:"chat,omitempty"`
	API    *APISettings     `yaml:"api,omitempty"`
	Client *ClientSettings  `yaml:"client,omitempty"`
	Gemini *gemini.Settings `yaml:"gemini,omitempty"`
	Script *ScriptSettings  `yaml:"script,omitempty"`
}

func NewStepSettings() *StepSettings {
	return &StepSettings{
		Chat:   NewChatSettings(),
		API:    NewAPISettings(),
		Client: NewClientSettings(),
		Gemini: gemini.NewSettings(),
		Script: &ScriptSettings{},
	}
}

func NewStepSettingsFromYAML(s io.Reader) (*StepSettings, error) {
	ret := NewStepSettings()
	if err := yaml.NewDecoder(s).Decode(ret); err != nil {
		return nil, errors.Wrap(err, "could not decode AI settings")
	}
	return ret, nil
}

// providerKeyEnv lists the conventional environment variables holding API keys.
var providerKeyEnv = map[types.ApiType][]string{
	types.ApiTypeGemini: {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	types.ApiTypeOpenAI: {"OPENAI_API_KEY"},
	types.ApiTypeClaude: {"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
}

// UpdateFromViper overrides settings with the "ai.*" keys that are set.
func (ss *StepSettings) UpdateFromViper(v *viper.Viper) error {
	if v.IsSet("ai.settings-file") && v.GetString("ai.settings-file") != "" {
		f, err := os.Open(v.GetString("ai.settings-file"))
		if err != nil {
			return errors.Wrap(err, "could not open AI settings file")
		}
		defer f.Close()
		fromFile, err := NewStepSettingsFromYAML(f)
		if err != nil {
			return err
		}
		*ss = *fromFile
	}
	ss.ensureSections()

	if v.IsSet("ai.api-type") {
		apiType := types.ApiType(strings.ToLower(v.GetString("ai.api-type")))
		ss.Chat.ApiType = &apiType
	}
	if v.IsSet("ai.model") {
		model := v.GetString("ai.model")
		ss.Chat.Engine = &model
	}
	if v.IsSet("ai.temperature") {
		t := v.GetFloat64("ai.temperature")
		ss.Chat.Temperature = &t
	}
	if v.IsSet("ai.max-tokens") && v.GetInt("ai.max-tokens") > 0 {
		n := v.GetInt("ai.max-tokens")
		ss.Chat.MaxResponseTokens = &n
	}
	if v.IsSet("ai.json-mode") {
		ss.Chat.JSONMode = v.GetBool("ai.json-mode")
	}
	if v.IsSet("ai.chat-mode") {
		ss.Gemini.ChatMode = v.GetBool("ai.chat-mode")
	}
	if v.IsSet("ai.timeout") {
		d := v.GetDuration("ai.timeout")
		secs := int(d / time.Second)
		ss.Client.Timeout = &d
		ss.Client.TimeoutSeconds = &secs
	}
	if v.IsSet("ai.script-file") {
		ss.Script.File = v.GetString("ai.script-file")
	}

	apiType := ss.ApiType()
	if key := v.GetString("ai.api-key"); key != "" {
		ss.API.APIKeys[apiType.ApiKeyName()] = key
	}
	if ss.API.APIKey(apiType) == "" {
		for _, env := range providerKeyEnv[apiType] {
			if key := os.Getenv(env); key != "" {
				ss.API.APIKeys[apiType.ApiKeyName()] = key
				break
			}
		}
	}
	if url := v.GetString("ai.base-url"); url != "" {
		ss.API.BaseUrls[apiType.BaseURLName()] = url
	}

	return nil
}

// ensureSections fills sections a settings file may have left empty.
func (ss *StepSettings) ensureSections() {
	if ss.API == nil {
		ss.API = NewAPISettings()
	}
	if ss.API.APIKeys == nil {
		ss.API.APIKeys = map[string]string{}
	}
	if ss.API.BaseUrls == nil {
		ss.API.BaseUrls = map[string]string{}
	}
	if ss.Chat == nil {
		ss.Chat = NewChatSettings()
	}
	if ss.Client == nil {
		ss.Client = NewClientSettings()
	}
	if ss.Gemini == nil {
		ss.Gemini = gemini.NewSettings()
	}
	if ss.Script == nil {
		ss.Script = &ScriptSettings{}
	}
}

// NewStepSettingsFromViper builds settings from defaults overlaid with viper values.
func NewStepSettingsFromViper(v *viper.Viper) (*StepSettings, error) {
	ret := NewStepSettings()
	if err := ret.UpdateFromViper(v); err != nil {
		return nil, err
	}
	return ret, nil
}

func (ss *StepSettings) ApiType() types.ApiType {
	if ss.Chat == nil || ss.Chat.ApiType == nil {
		return DefaultApiType
	}
	return *ss.Chat.ApiType
}

func (ss *StepSettings) Clone() *StepSettings {
	return clone.Clone(ss).(*StepSettings)
}

// GetMetadata returns the settings relevant for logging. Secrets are left out.
func (ss *StepSettings) GetMetadata() map[string]interface{} {
	metadata := map[string]interface{}{
		"ai-api-type": string(ss.ApiType()),
	}
	if ss.Chat != nil {
		if ss.Chat.Engine != nil {
			metadata["ai-engine"] = *ss.Chat.Engine
		}
		if ss.Chat.MaxResponseTokens != nil {
			metadata["ai-max-response-tokens"] = *ss.Chat.MaxResponseTokens
		}
		if ss.Chat.Temperature != nil {
			metadata["ai-temperature"] = *ss.Chat.Temperature
		}
	}
	if ss.Client != nil && ss.Client.Timeout != nil {
		metadata["timeout"] = ss.Client.Timeout.String()
	}
	if ss.Gemini != nil {
		metadata["gemini-chat-mode"] = ss.Gemini.ChatMode
	}
	return metadata
}
