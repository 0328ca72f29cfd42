package cmds

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settingsFlags maps persistent flag names to the config keys they override.
var settingsFlags = map[string]string{
	"ai-api-type":            "ai.api-type",
	"ai-model":               "ai.model",
	"ai-temperature":         "ai.temperature",
	"ai-max-tokens":          "ai.max-tokens",
	"ai-api-key":             "ai.api-key",
	"ai-base-url":            "ai.base-url",
	"ai-chat-mode":           "ai.chat-mode",
	"ai-json-mode":           "ai.json-mode",
	"ai-timeout":             "ai.timeout",
	"ai-script-file":         "ai.script-file",
	"ai-settings-file":       "ai.settings-file",
	"max-corrective-retries": "loop.max-corrective-retries",
	"max-tool-rounds":        "loop.max-tool-rounds",
	"tool-timeout":           "loop.tool-timeout",
	"allowed-tools":          "loop.allowed-tools",
	"live-context":           "prompt.live-context",
	"extra-instructions":     "prompt.extra-instructions",
}

// AddSettingsFlags declares the flags shared by every command that talks
// to a model.
func AddSettingsFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.String("ai-api-type", "", "Model provider (gemini, openai, claude, scripted)")
	fs.String("ai-model", "", "Model name (default gemini-2.5-flash)")
	fs.Float64("ai-temperature", 0.7, "Sampling temperature")
	fs.Int("ai-max-tokens", 0, "Maximum response tokens (0: provider default)")
	fs.String("ai-api-key", "", "API key for the selected provider")
	fs.String("ai-base-url", "", "Base URL override for the selected provider")
	fs.Bool("ai-chat-mode", false, "Keep a stateful Gemini chat instead of stateless calls")
	fs.Bool("ai-json-mode", false, "Ask the provider for JSON output")
	fs.Duration("ai-timeout", 0, "Transport timeout (0: default)")
	fs.String("ai-script-file", "", "YAML list of canned replies for the scripted provider")
	fs.String("ai-settings-file", "", "YAML file with AI settings")

	fs.Int("max-corrective-retries", 3, "Consecutive unreadable replies tolerated per turn")
	fs.Int("max-tool-rounds", 10, "Tool rounds allowed per turn (0: no limit)")
	fs.Duration("tool-timeout", 0, "Per-tool execution timeout (default 30s)")
	fs.StringSlice("allowed-tools", nil, "Only allow these tools to run")
	fs.Bool("live-context", true, "Add the current time and the user profile to the system prompt")
	fs.String("extra-instructions", "", "Text appended to the system prompt of every model call")

	fs.String("data-dir", "", "Directory for lists.json and events.json (default ~/.buddy/data)")
}

// BindSettingsFlags binds the settings flags to their nested config keys.
func BindSettingsFlags(v *viper.Viper, cmd *cobra.Command) error {
	fs := cmd.PersistentFlags()
	for flag, key := range settingsFlags {
		f := fs.Lookup(flag)
		if f == nil {
			return errors.Errorf("flag %s is not declared", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "could not bind flag %s", flag)
		}
	}
	return nil
}
