package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/ragforge/ragcore/internal/core/domain"
)

// MockEmbeddingStore is an in-memory test double for driven.EmbeddingStore.
type MockEmbeddingStore struct {
	mu         sync.RWMutex
	embeddings map[string]*domain.Embedding
	byEmbeddable map[string][]*domain.Embedding
}

func NewMockEmbeddingStore() *MockEmbeddingStore {
	return &MockEmbeddingStore{
		embeddings:   make(map[string]*domain.Embedding),
		byEmbeddable: make(map[string][]*domain.Embedding),
	}
}

func (m *MockEmbeddingStore) Save(ctx context.Context, e *domain.Embedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := string(e.EmbeddableType) + ":" + e.EmbeddableID
	for _, existing := range m.byEmbeddable[key] {
		if existing.ChunkIndex == e.ChunkIndex {
			return domain.NewError(domain.KindStorage, "embedding_store.Save", "duplicate chunk_index for embeddable", domain.ErrAlreadyExists)
		}
	}
	m.embeddings[e.ID] = e
	m.byEmbeddable[key] = append(m.byEmbeddable[key], e)
	return nil
}

func (m *MockEmbeddingStore) SaveBatch(ctx context.Context, embeddings []*domain.Embedding) error {
	for _, e := range embeddings {
		if err := m.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockEmbeddingStore) GetByEmbeddable(ctx context.Context, embeddableType domain.EmbeddableType, embeddableID string) ([]*domain.Embedding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byEmbeddable[string(embeddableType)+":"+embeddableID], nil
}

func (m *MockEmbeddingStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, e := range m.embeddings {
		if e.DocumentID == documentID {
			count++
		}
	}
	return count, nil
}

func (m *MockEmbeddingStore) RecordUsageBatch(ctx context.Context, embeddingIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, id := range embeddingIDs {
		if e, ok := m.embeddings[id]; ok {
			e.UsageCount++
			e.ReturnedAt = &now
		}
	}
	return nil
}

func (m *MockEmbeddingStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.embeddings {
		if e.DocumentID == documentID {
			delete(m.embeddings, id)
			key := string(e.EmbeddableType) + ":" + e.EmbeddableID
			delete(m.byEmbeddable, key)
		}
	}
	return nil
}

func (m *MockEmbeddingStore) All() []*domain.Embedding {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Embedding, 0, len(m.embeddings))
	for _, e := range m.embeddings {
		out = append(out, e)
	}
	return out
}
