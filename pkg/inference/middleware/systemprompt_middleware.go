package middleware

import (
	"context"
	"strings"
)

// NewSystemPromptMiddleware appends extra instructions to the system prompt,
// separated by a blank line. An empty prompt leaves calls untouched.
func NewSystemPromptMiddleware(prompt string) Middleware {
	prompt = strings.TrimSpace(prompt)
	return func(next HandlerFunc) HandlerFunc {
		if prompt == "" {
			return next
		}
		return func(ctx context.Context, systemPrompt string, userMessage string) (string, error) {
			if systemPrompt == "" {
				return next(ctx, prompt, userMessage)
			}
			return next(ctx, systemPrompt+"\n\n"+prompt, userMessage)
		}
	}
}
