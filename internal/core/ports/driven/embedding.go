package driven

import "context"

// EmbeddingService is a single provider's embedding capability. The
// gateway (internal/adapters/driven/ai) wraps one of these per
// provider behind degraded-mode fallback; this interface is what a
// provider adapter implements.
type EmbeddingService interface {
	// Embed returns one vector per input text. Inputs are already
	// cleaned (whitespace-collapsed, truncated) by the gateway.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	Model() string
	HealthCheck(ctx context.Context) error
	Close() error
}
