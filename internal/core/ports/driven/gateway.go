package driven

import "context"

// LLMGateway is the uniform capability surface from spec 4.3: three
// operations backed by provider selection and deterministic fallback.
// Higher layers (document/search/metadata services) depend on this,
// never on a specific provider's EmbeddingService/ChatService.
type LLMGateway interface {
	// Embed returns one vector per input text, nil for empty input.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedOne is a convenience wrapper for a single text (e.g. a query).
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// Summarize returns a bounded summary, or the original text
	// verbatim when it's shorter than the configured minimum.
	Summarize(ctx context.Context, text string, maxLength int) (string, error)

	// ExtractKeywords returns up to max de-duplicated keywords, ordered
	// by descending importance.
	ExtractKeywords(ctx context.Context, text string, max int) ([]string, error)

	// Degraded reports whether the gateway is currently serving any
	// operation from a fallback path rather than a real provider.
	Degraded() bool

	Dimensions() int
	Close() error
}
