package driven

import (
	"context"
	"time"

	"github.com/ragforge/ragcore/internal/core/domain"
)

// VectorSearch exposes the vector/lexical query primitives spec 6
// requires of the storage layer: cosine nearest-neighbor and
// tokenized full-text search. The search service (C8) composes these
// primitives with usage re-ranking and hybrid fusion; this port does
// not rank or fuse. Two real backends exist: postgres (pgvector +
// tsvector, the default) and vespa (an external ANN+BM25 engine, used
// when VESPA_URL is configured), matching the donor's pattern of an
// optional infra component with a simpler built-in fallback.
type VectorSearch interface {
	// IndexEmbedding makes an embedding discoverable by nearest-neighbor
	// and lexical queries. For the postgres backend this is a no-op:
	// EmbeddingStore.Save already wrote the indexed row.
	IndexEmbedding(ctx context.Context, e *domain.Embedding, doc *domain.Document) error

	// NearestNeighbors returns up to k embedding ids ordered by
	// ascending cosine distance, restricted by filters.
	NearestNeighbors(ctx context.Context, queryVector []float32, k int, filters domain.Filters) ([]Candidate, error)

	// LexicalSearch performs a tokenized full-text match across
	// document title and chunk content, ranked by the backend's text
	// relevance. AI-metadata fields (summary, keywords, description)
	// are not searched.
	LexicalSearch(ctx context.Context, query string, limit int, filters domain.Filters) ([]Candidate, error)

	DeleteByDocument(ctx context.Context, documentID string) error

	HealthCheck(ctx context.Context) error
}

// Candidate is one row returned by a vector/lexical query primitive.
// It carries everything the ranking stage needs to build a domain.Hit
// without a further per-candidate lookup, mirroring the single joined
// query a real postgres/vespa backend runs across embeddings and
// documents. The search service attaches usage/combined scores on top.
type Candidate struct {
	EmbeddingID       string
	Content           string
	DocumentID        string
	DocumentTitle     string
	DocumentLocation  string
	DocumentCreatedAt time.Time
	ChunkIndex        int
	EmbeddingModel    string
	UsageCount        int
	ReturnedAt        *time.Time
	Metadata          map[string]any

	Distance float64 // cosine distance; 0 for pure lexical hits
	TextRank float64 // backend text-relevance score; 0 for pure vector hits
}
