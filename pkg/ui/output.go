package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

var (
	responseColor = color.New(color.FgBlue)
	errorColor    = color.New(color.FgRed)
	toolColor     = color.New(color.FgGreen)
	resultColor   = color.New(color.FgMagenta)
	noteColor     = color.New(color.FgYellow)
)

// Output prints turn results to a terminal. It implements session.OutputSink.
type Output struct {
	w        io.Writer
	markdown bool
	style    string
}

type OutputOption func(*Output)

// WithMarkdown renders responses through glamour with the given style
// ("dark", "light", "notty", ...).
func WithMarkdown(style string) OutputOption {
	return func(o *Output) {
		o.markdown = true
		if style != "" {
			o.style = style
		}
	}
}

func NewOutput(w io.Writer, opts ...OutputOption) *Output {
	o := &Output{w: w, style: "dark"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Output) render(text string) string {
	if !o.markdown {
		return text
	}
	styled, err := glamour.Render(text, o.style)
	if err != nil {
		log.Debug().Err(err).Msg("Could not render markdown, printing raw text")
		return text
	}
	return strings.TrimRight(styled, "\n")
}

func (o *Output) EmitResponse(_ context.Context, text string) error {
	if o.markdown {
		_, err := fmt.Fprintln(o.w, o.render(text))
		return err
	}
	_, err := responseColor.Fprintln(o.w, text)
	return err
}

// EmitError prints the failure and keeps the session going.
func (o *Output) EmitError(_ context.Context, err error) error {
	_, werr := errorColor.Fprintf(o.w, "error: %v\n", err)
	return werr
}
