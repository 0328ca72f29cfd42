package gemini

import (
	"github.com/huandu/go-clone"
)

type Settings struct {
	// ChatMode keeps one stateful chat per engine, created with the first
	// system prompt. Otherwise every call is independent.
	ChatMode bool `yaml:"chat_mode,omitempty" mapstructure:"chat-mode"`
}

func NewSettings() *Settings {
	return &Settings{}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}
