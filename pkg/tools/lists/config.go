package lists

import (
	"github.com/go-go-golems/buddy/pkg/inference/tools"
)

// FileConfig is shared by every list tool.
type FileConfig struct {
	ListFilePath string `mapstructure:"list_file_path" yaml:"list_file_path"`
}

func (c *FileConfig) validateFile(tool string) error {
	if c.ListFilePath == "" {
		return tools.NewConfigurationError(tool, "list_file_path", "is required")
	}
	return nil
}

func (c *FileConfig) Validate() error {
	return c.validateFile("")
}

type AddConfig struct {
	FileConfig      `mapstructure:",squash" yaml:",inline"`
	DefaultListName string `mapstructure:"default_list_name" yaml:"default_list_name"`
	MaxListSize     int    `mapstructure:"max_list_size" yaml:"max_list_size"`
}

func (c *AddConfig) Validate() error {
	if err := c.validateFile(AddToListName); err != nil {
		return err
	}
	if c.DefaultListName == "" {
		return tools.NewConfigurationError(AddToListName, "default_list_name", "is required")
	}
	if c.MaxListSize <= 0 {
		return tools.NewConfigurationError(AddToListName, "max_list_size", "must be greater than 0")
	}
	return nil
}

type RemoveConfig struct {
	FileConfig        `mapstructure:",squash" yaml:",inline"`
	AllowAuditLogging bool `mapstructure:"allow_audit_logging" yaml:"allow_audit_logging"`
}

func (c *RemoveConfig) Validate() error {
	return c.validateFile(RemoveFromListName)
}
