package services

import (
	"context"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
	"github.com/ragforge/ragcore/internal/core/ports/driving"
)

var _ driving.DocumentService = (*documentService)(nil)

// documentService implements DocumentService over the storage ports.
type documentService struct {
	documentStore  driven.DocumentStore
	contentStore   driven.ContentStore
	embeddingStore driven.EmbeddingStore
	vectorSearch   driven.VectorSearch
}

func NewDocumentService(
	documentStore driven.DocumentStore,
	contentStore driven.ContentStore,
	embeddingStore driven.EmbeddingStore,
	vectorSearch driven.VectorSearch,
) driving.DocumentService {
	return &documentService{
		documentStore:  documentStore,
		contentStore:   contentStore,
		embeddingStore: embeddingStore,
		vectorSearch:   vectorSearch,
	}
}

func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

func (s *documentService) GetWithContent(ctx context.Context, id string) (*domain.DocumentWithContent, error) {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	text, err := s.contentStore.GetTextByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := s.contentStore.GetImagesByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	audio, err := s.contentStore.GetAudioByDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.DocumentWithContent{
		Document: doc,
		Text:     text,
		Images:   images,
		Audio:    audio,
	}, nil
}

func (s *documentService) List(ctx context.Context, filter driven.DocumentFilter) ([]*domain.Document, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.documentStore.List(ctx, filter)
}

func (s *documentService) UpdateMetadata(ctx context.Context, id string, metadata domain.Metadata) error {
	return s.documentStore.UpdateMetadata(ctx, id, metadata)
}

// Delete removes a document and cascades to content and embeddings
// (invariant 4). The embedding-store and vector-index deletes run
// before the content and document deletes, so a failure there leaves
// the document in place to retry the delete.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if _, err := s.documentStore.Get(ctx, id); err != nil {
		return err
	}
	if err := s.embeddingStore.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	if s.vectorSearch != nil {
		if err := s.vectorSearch.DeleteByDocument(ctx, id); err != nil {
			return err
		}
	}
	if err := s.contentStore.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	return s.documentStore.Delete(ctx, id)
}

func (s *documentService) Count(ctx context.Context) (int, error) {
	return s.documentStore.Count(ctx)
}
