package tools

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Validator is implemented by typed tool configuration records.
type Validator interface {
	Validate() error
}

// DecodeConfig decodes a raw configuration record into a typed struct.
// Unknown keys and mistyped values are rejected.
func DecodeConfig(tool string, raw map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		TagName:     "mapstructure",
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return errors.Wrap(err, "could not create config decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return &ConfigurationError{Tool: tool, Reason: "could not decode configuration", Err: err}
	}
	if v, ok := out.(Validator); ok {
		if err := v.Validate(); err != nil {
			var cerr *ConfigurationError
			if errors.As(err, &cerr) {
				if cerr.Tool == "" {
					cerr.Tool = tool
				}
				return cerr
			}
			return &ConfigurationError{Tool: tool, Err: err}
		}
	}
	return nil
}

// Register decodes and validates raw into C, builds the tool and registers it.
// C is a struct type; Validate may be declared on *C.
// Configuration problems are reported before the tool is constructed.
func Register[C any](r ToolRegistry, desc ToolDescriptor, raw map[string]interface{}, build func(cfg C) (Tool, error)) (*Handle, error) {
	var cfg C
	if err := DecodeConfig(desc.Name, raw, &cfg); err != nil {
		return nil, err
	}
	tool, err := build(cfg)
	if err != nil {
		return nil, &ConfigurationError{Tool: desc.Name, Reason: "could not build tool", Err: err}
	}
	return r.RegisterTool(desc, tool)
}

// DispatchConfig controls how the dispatcher runs invocations.
type DispatchConfig struct {
	ExecutionTimeout time.Duration `json:"execution_timeout" yaml:"execution_timeout"`
	// nil means all tools are allowed
	AllowedTools []string `json:"allowed_tools" yaml:"allowed_tools"`
}

func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		ExecutionTimeout: 30 * time.Second,
	}
}

func (c DispatchConfig) WithExecutionTimeout(timeout time.Duration) DispatchConfig {
	c.ExecutionTimeout = timeout
	return c
}

func (c DispatchConfig) WithAllowedTools(names []string) DispatchConfig {
	c.AllowedTools = names
	return c
}

func (c DispatchConfig) IsToolAllowed(name string) bool {
	if c.AllowedTools == nil {
		return true
	}
	for _, allowed := range c.AllowedTools {
		if allowed == name {
			return true
		}
	}
	return false
}
