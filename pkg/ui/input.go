package ui

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// Prompt reads user input with line editing and history. It implements
// session.InputSource.
type Prompt struct {
	rl *readline.Instance
}

type PromptConfig struct {
	HistoryFile string
	Stdin       io.ReadCloser
	Stdout      io.Writer
}

func NewPrompt(cfg PromptConfig) (*Prompt, error) {
	if cfg.HistoryFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create history directory")
		}
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            color.GreenString("➤ "),
		HistoryFile:       cfg.HistoryFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "bye",
		Stdin:             cfg.Stdin,
		Stdout:            cfg.Stdout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create readline instance")
	}
	return &Prompt{rl: rl}, nil
}

// NextInput returns the next line. Ctrl+C, Ctrl+D, "exit" and "quit" end
// the input with io.EOF.
func (p *Prompt) NextInput(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", err
	}
	line = strings.TrimRight(line, " \t")
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return "", io.EOF
	}
	return line, nil
}

// Stdout is the writer that keeps the prompt line intact while other
// goroutines print.
func (p *Prompt) Stdout() io.Writer {
	return p.rl.Stdout()
}

func (p *Prompt) Close() error {
	return p.rl.Close()
}

// DefaultHistoryFile returns ~/.buddy/history, or a relative path when the
// home directory is unknown.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".buddy", "history")
}
