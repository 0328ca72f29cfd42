package types

type ApiType string

const (
	ApiTypeGemini ApiType = "gemini"
	ApiTypeOpenAI ApiType = "openai"
	ApiTypeClaude ApiType = "claude"
	// ApiTypeScripted replays canned replies and never leaves the process.
	ApiTypeScripted ApiType = "scripted"
)

// ApiKeyName is the key under which a provider's API key is stored.
func (a ApiType) ApiKeyName() string {
	return string(a) + "-api-key"
}

func (a ApiType) BaseURLName() string {
	return string(a) + "-base-url"
}
