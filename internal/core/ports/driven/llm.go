package driven

import "context"

// ChatService is a single provider's chat-completion capability, used
// by the gateway to implement Summarize/ExtractKeywords (spec 4.3) and
// by the metadata generator (C6) for schema-constrained generation.
type ChatService interface {
	// Complete sends messages and returns the model's text response.
	// opts may request JSON-schema-constrained output; providers that
	// don't support it best-effort prompt for JSON and the caller
	// parses defensively.
	Complete(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	Model() string
	HealthCheck(ctx context.Context) error
	Close() error
}

// ChatMessage is one turn of a chat-completion request.
type ChatMessage struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// ChatOptions configures a single Complete call.
type ChatOptions struct {
	MaxTokens      int
	Temperature    float64
	JSONSchemaHint string // best-effort instruction when structured output isn't natively supported
}
