package driving

import (
	"context"

	"github.com/ragforge/ragcore/internal/core/domain"
)

// SearchService performs semantic, lexical, and hybrid retrieval over
// the embedded corpus (C8).
type SearchService interface {
	// Search runs a similarity search over embeddings, applying the
	// overfetch-then-filter strategy of spec 4.6 (k=2*limit,
	// similarity_threshold) and the usage_score/combined_score ranking.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error)

	// HybridSearch fuses semantic and lexical results, deduped by
	// document id, weighted by opts.SemanticWeight/TextWeight.
	HybridSearch(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error)

	// FacetedSearch narrows Search by the given facet filters.
	FacetedSearch(ctx context.Context, query string, facets domain.FacetFilters, opts domain.SearchOptions) (*domain.SearchResult, error)

	// GetContext assembles a context window from the top search hits,
	// suitable for direct inclusion in an LLM prompt.
	GetContext(ctx context.Context, query string, opts domain.SearchOptions) (*GetContextResult, error)

	// EnhancePrompt splices retrieved context into a user prompt.
	EnhancePrompt(ctx context.Context, prompt string, opts domain.SearchOptions) (*EnhancePromptResult, error)
}
