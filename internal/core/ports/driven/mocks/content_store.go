package mocks

import (
	"context"
	"sync"

	"github.com/ragforge/ragcore/internal/core/domain"
)

// MockContentStore is an in-memory test double for driven.ContentStore.
type MockContentStore struct {
	mu     sync.RWMutex
	text   map[string][]*domain.TextContent
	images map[string][]*domain.ImageContent
	audio  map[string][]*domain.AudioContent
}

func NewMockContentStore() *MockContentStore {
	return &MockContentStore{
		text:   make(map[string][]*domain.TextContent),
		images: make(map[string][]*domain.ImageContent),
		audio:  make(map[string][]*domain.AudioContent),
	}
}

func (m *MockContentStore) SaveText(ctx context.Context, c *domain.TextContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text[c.DocumentID] = append(m.text[c.DocumentID], c)
	return nil
}

func (m *MockContentStore) SaveImage(ctx context.Context, c *domain.ImageContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[c.DocumentID] = append(m.images[c.DocumentID], c)
	return nil
}

func (m *MockContentStore) SaveAudio(ctx context.Context, c *domain.AudioContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audio[c.DocumentID] = append(m.audio[c.DocumentID], c)
	return nil
}

func (m *MockContentStore) GetTextByDocument(ctx context.Context, documentID string) ([]*domain.TextContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text[documentID], nil
}

func (m *MockContentStore) GetImagesByDocument(ctx context.Context, documentID string) ([]*domain.ImageContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.images[documentID], nil
}

func (m *MockContentStore) GetAudioByDocument(ctx context.Context, documentID string) ([]*domain.AudioContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.audio[documentID], nil
}

func (m *MockContentStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.text, documentID)
	delete(m.images, documentID)
	delete(m.audio, documentID)
	return nil
}
