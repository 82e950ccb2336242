package ai

import (
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.ChatService = (*OpenAIChat)(nil)

// NewOpenRouterChat builds a chat service against OpenRouter, which
// speaks the exact same wire protocol as OpenAI's chat completions
// endpoint, just with a different default base URL and model
// namespacing (e.g. "anthropic/claude-3.5-sonnet"). Reusing
// OpenAIChat directly avoids duplicating the request/response types.
func NewOpenRouterChat(apiKey, model, baseURL string) (*OpenAIChat, error) {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return NewOpenAIChat(apiKey, model, baseURL)
}
