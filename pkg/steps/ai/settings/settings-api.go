package settings

import (
	"github.com/go-go-golems/buddy/pkg/steps/ai/types"
	"github.com/huandu/go-clone"
)

// APISettings holds credentials and endpoints keyed by "<provider>-api-key"
// and "<provider>-base-url".
type APISettings struct {
	APIKeys  map[string]string `yaml:"api_keys,omitempty"`
	BaseUrls map[string]string `yaml:"base_urls,omitempty"`
}

func NewAPISettings() *APISettings {
	return &APISettings{
		APIKeys:  map[string]string{},
		BaseUrls: map[string]string{},
	}
}

func (a *APISettings) Clone() *APISettings {
	return clone.Clone(a).(*APISettings)
}

func (a *APISettings) APIKey(apiType types.ApiType) string {
	if a == nil {
		return ""
	}
	return a.APIKeys[apiType.ApiKeyName()]
}

func (a *APISettings) BaseURL(apiType types.ApiType) string {
	if a == nil {
		return ""
	}
	return a.BaseUrls[apiType.BaseURLName()]
}
