package cmds

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-go-golems/buddy/pkg/inference/session"
	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type transcriptEntry struct {
	SessionID   string                      `yaml:"session_id"`
	TurnID      string                      `yaml:"turn_id"`
	At          time.Time                   `yaml:"at"`
	Input       string                      `yaml:"input"`
	Thought     string                      `yaml:"thought,omitempty"`
	Response    string                      `yaml:"response,omitempty"`
	End         bool                        `yaml:"end,omitempty"`
	ModelCalls  int                         `yaml:"model_calls"`
	ToolResults []tools.ToolExecutionResult `yaml:"tool_results,omitempty"`
	Error       string                      `yaml:"error,omitempty"`
}

// yamlTranscript appends one YAML document per turn to a file.
type yamlTranscript struct {
	mu   sync.Mutex
	path string
}

var _ session.TurnPersister = (*yamlTranscript)(nil)

func newYAMLTranscript(path string) (*yamlTranscript, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "could not create transcript directory")
	}
	return &yamlTranscript{path: path}, nil
}

func (t *yamlTranscript) PersistTurn(_ context.Context, sessionID string, rec session.TurnRecord) error {
	entry := transcriptEntry{
		SessionID: sessionID,
		TurnID:    rec.TurnID,
		At:        time.Now(),
		Input:     rec.Input,
	}
	if rec.Outcome != nil {
		entry.Thought = rec.Outcome.Thought
		entry.Response = rec.Outcome.Response
		entry.End = rec.Outcome.End
		entry.ModelCalls = rec.Outcome.ModelCalls
		entry.ToolResults = rec.Outcome.ToolResults
	}
	if rec.Err != nil {
		entry.Error = rec.Err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString("---\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(entry); err != nil {
		return err
	}
	return enc.Close()
}
