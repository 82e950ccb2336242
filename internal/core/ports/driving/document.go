package driving

import (
	"context"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

// DocumentService provides document lifecycle operations over the
// ingested corpus: lookup, listing, metadata update, and deletion.
type DocumentService interface {
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetWithContent retrieves a document with its modality-specific
	// content children (text/image/audio).
	GetWithContent(ctx context.Context, id string) (*domain.DocumentWithContent, error)

	List(ctx context.Context, filter driven.DocumentFilter) ([]*domain.Document, error)

	// UpdateMetadata merges caller-supplied metadata into the document's
	// Metadata; keys the document already holds keep their values.
	UpdateMetadata(ctx context.Context, id string, metadata domain.Metadata) error

	// Delete removes a document and cascades to its content and
	// embeddings (invariant 4).
	Delete(ctx context.Context, id string) error

	Count(ctx context.Context) (int, error)
}
