package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

// MockVectorSearch is an in-memory test double for driven.VectorSearch.
// It computes real cosine distances over indexed vectors rather than
// faking rank order, so ranking-sensitive tests exercise real math.
type MockVectorSearch struct {
	mu   sync.RWMutex
	byID map[string]indexedEmbedding
}

type indexedEmbedding struct {
	vector         []float32
	content        string
	docID          string
	docTitle       string
	docLocation    string
	docCreatedAt   time.Time
	chunkIndex     int
	embeddingModel string
	usageCount     int
	returnedAt     *time.Time
	metadata       map[string]any
	filters        domain.Filters
}

func NewMockVectorSearch() *MockVectorSearch {
	return &MockVectorSearch{byID: make(map[string]indexedEmbedding)}
}

func (m *MockVectorSearch) IndexEmbedding(ctx context.Context, e *domain.Embedding, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[e.ID] = indexedEmbedding{
		vector:         e.Vector,
		content:        e.Content,
		docID:          doc.ID,
		docTitle:       doc.Title,
		docLocation:    doc.Location,
		docCreatedAt:   doc.CreatedAt,
		chunkIndex:     e.ChunkIndex,
		embeddingModel: e.EmbeddingModel,
		usageCount:     e.UsageCount,
		returnedAt:     e.ReturnedAt,
		metadata:       e.Metadata,
		filters: domain.Filters{
			DocumentType:   doc.DocumentType,
			EmbeddingModel: e.EmbeddingModel,
			DocumentID:     doc.ID,
		},
	}
	return nil
}

func (m *MockVectorSearch) NearestNeighbors(ctx context.Context, queryVector []float32, k int, filters domain.Filters) ([]driven.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []driven.Candidate
	for id, ie := range m.byID {
		if !matchesFilters(ie.filters, filters) {
			continue
		}
		out = append(out, m.toCandidate(id, ie, domain.CosineDistance(queryVector, ie.vector), 0))
	}
	sortCandidatesByDistance(out)
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (m *MockVectorSearch) LexicalSearch(ctx context.Context, query string, limit int, filters domain.Filters) ([]driven.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	var out []driven.Candidate
	for id, ie := range m.byID {
		if !matchesFilters(ie.filters, filters) {
			continue
		}
		haystack := strings.ToLower(ie.docTitle + " " + ie.content)
		if strings.Contains(haystack, q) {
			out = append(out, m.toCandidate(id, ie, 0, 1))
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockVectorSearch) toCandidate(id string, ie indexedEmbedding, distance, textRank float64) driven.Candidate {
	return driven.Candidate{
		EmbeddingID:       id,
		Content:           ie.content,
		DocumentID:        ie.docID,
		DocumentTitle:     ie.docTitle,
		DocumentLocation:  ie.docLocation,
		DocumentCreatedAt: ie.docCreatedAt,
		ChunkIndex:        ie.chunkIndex,
		EmbeddingModel:    ie.embeddingModel,
		UsageCount:        ie.usageCount,
		ReturnedAt:        ie.returnedAt,
		Metadata:          ie.metadata,
		Distance:          distance,
		TextRank:          textRank,
	}
}

func (m *MockVectorSearch) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ie := range m.byID {
		if ie.docID == documentID {
			delete(m.byID, id)
		}
	}
	return nil
}

func (m *MockVectorSearch) HealthCheck(ctx context.Context) error { return nil }

func matchesFilters(have, want domain.Filters) bool {
	if want.DocumentType != "" && have.DocumentType != want.DocumentType {
		return false
	}
	if want.EmbeddingModel != "" && have.EmbeddingModel != want.EmbeddingModel {
		return false
	}
	if want.DocumentID != "" && have.DocumentID != want.DocumentID {
		return false
	}
	return true
}

func sortCandidatesByDistance(c []driven.Candidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].Distance < c[j-1].Distance; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}
