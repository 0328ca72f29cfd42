package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// InputSource yields user input one message at a time. It returns io.EOF
// once no more input is available.
type InputSource interface {
	NextInput(ctx context.Context) (string, error)
}

// OutputSink receives the user-facing result of each turn.
//
// EmitError decides whether a failed turn stops the session: returning nil
// keeps reading input, returning an error ends Run with it.
type OutputSink interface {
	EmitResponse(ctx context.Context, text string) error
	EmitError(ctx context.Context, err error) error
}

// Run reads input until the source is exhausted, the context is canceled or
// the model ends the conversation. Blank input is skipped.
func (s *Session) Run(ctx context.Context, in InputSource, out OutputSink) error {
	if in == nil || out == nil {
		return errors.New("session run needs an input source and an output sink")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := in.NextInput(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		outcome, err := s.Submit(ctx, text)
		if err != nil {
			if errors.Is(err, ErrSessionEnded) {
				return nil
			}
			if err := out.EmitError(ctx, err); err != nil {
				return err
			}
			continue
		}
		if err := out.EmitResponse(ctx, outcome.Response); err != nil {
			return err
		}
		if outcome.End {
			return nil
		}
	}
}

type lineInput struct {
	scanner *bufio.Scanner
}

// NewLineInput reads one message per line from r.
func NewLineInput(r io.Reader) InputSource {
	return &lineInput{scanner: bufio.NewScanner(r)}
}

func (l *lineInput) NextInput(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return l.scanner.Text(), nil
}

type writerOutput struct {
	w io.Writer
}

// NewWriterOutput writes each response on its own line and stops the
// session on the first failed turn.
func NewWriterOutput(w io.Writer) OutputSink {
	return &writerOutput{w: w}
}

func (o *writerOutput) EmitResponse(_ context.Context, text string) error {
	_, err := fmt.Fprintln(o.w, text)
	return err
}

func (o *writerOutput) EmitError(_ context.Context, err error) error {
	return err
}
