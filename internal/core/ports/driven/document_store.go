package driven

import (
	"context"

	"github.com/ragforge/ragcore/internal/core/domain"
)

// DocumentStore persists Documents: transactional CRUD plus the
// cascade-delete and atomic-batch-update primitives spec 6 requires
// of the storage layer (C2).
type DocumentStore interface {
	Save(ctx context.Context, doc *domain.Document) error
	SaveBatch(ctx context.Context, docs []*domain.Document) error
	Get(ctx context.Context, id string) (*domain.Document, error)
	GetByLocationAndHash(ctx context.Context, location, contentHash string) (*domain.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]*domain.Document, error)

	// UpdateStatus performs the document's status transition, enforcing
	// invariant 1 (pending -> processing -> {processed, error}).
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error

	// UpdateMetadata merges metadata into the document's AI-derived
	// Metadata namespace (invariant 6: never touches FileMetadata).
	UpdateMetadata(ctx context.Context, id string, metadata domain.Metadata) error

	// Delete removes a document and, per invariant 4, cascades to its
	// content records and their embeddings.
	Delete(ctx context.Context, id string) error

	Count(ctx context.Context) (int, error)
}

// DocumentFilter narrows ListDocuments results.
type DocumentFilter struct {
	DocumentType domain.DocumentType
	Status       domain.DocumentStatus
	Limit        int
	Offset       int
}

// ContentStore persists the modality-specific content children of a
// Document (TextContent/ImageContent/AudioContent).
type ContentStore interface {
	SaveText(ctx context.Context, c *domain.TextContent) error
	SaveImage(ctx context.Context, c *domain.ImageContent) error
	SaveAudio(ctx context.Context, c *domain.AudioContent) error

	GetTextByDocument(ctx context.Context, documentID string) ([]*domain.TextContent, error)
	GetImagesByDocument(ctx context.Context, documentID string) ([]*domain.ImageContent, error)
	GetAudioByDocument(ctx context.Context, documentID string) ([]*domain.AudioContent, error)

	// DeleteByDocument removes all content rows for a document; the
	// document service calls it before DocumentStore.Delete.
	DeleteByDocument(ctx context.Context, documentID string) error
}

// EmbeddingStore persists Embedding rows and the per-search usage
// bookkeeping the search engine needs (spec 4.6 step 6: a single
// atomic batch update per search, not per-hit).
type EmbeddingStore interface {
	Save(ctx context.Context, e *domain.Embedding) error
	SaveBatch(ctx context.Context, embeddings []*domain.Embedding) error
	GetByEmbeddable(ctx context.Context, embeddableType domain.EmbeddableType, embeddableID string) ([]*domain.Embedding, error)
	CountByDocument(ctx context.Context, documentID string) (int, error)

	// RecordUsageBatch increments usage_count and sets returned_at=now
	// for every embedding id in one atomic statement.
	RecordUsageBatch(ctx context.Context, embeddingIDs []string) error

	DeleteByDocument(ctx context.Context, documentID string) error
}
