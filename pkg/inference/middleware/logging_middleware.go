package middleware

import (
	"context"
	"time"

	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewCallLoggingMiddleware logs every model call with its size and latency.
// Session and turn ids are taken from the event metadata in ctx.
func NewCallLoggingMiddleware(logger zerolog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, systemPrompt string, userMessage string) (string, error) {
			lg := logger
			// fall back to global if uninitialized
			if lg.GetLevel() == zerolog.NoLevel {
				lg = log.Logger
			}
			meta := events.MetadataFromContext(ctx)
			lg = lg.With().
				Str("session_id", meta.SessionID).
				Str("turn_id", meta.TurnID).
				Int("system_prompt_len", len(systemPrompt)).
				Int("input_len", len(userMessage)).
				Logger()

			lg.Debug().Msg("model: call starting")
			start := time.Now()
			reply, err := next(ctx, systemPrompt, userMessage)
			elapsed := time.Since(start)
			if err != nil {
				lg.Error().Err(err).Dur("elapsed", elapsed).Msg("model: call failed")
				return reply, err
			}
			lg.Info().Dur("elapsed", elapsed).Int("reply_len", len(reply)).Msg("model: call completed")
			return reply, nil
		}
	}
}
