package mocks

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

// MockEmbeddingService is a test double for driven.EmbeddingService.
type MockEmbeddingService struct {
	dimensions int
	model      string
	failNext   bool
}

func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 384,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.failNext {
		m.failNext = false
		return nil, context.DeadlineExceeded
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.generateEmbedding(text)
	}
	return result, nil
}

func (m *MockEmbeddingService) Dimensions() int { return m.dimensions }
func (m *MockEmbeddingService) Model() string   { return m.model }

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error { return nil }
func (m *MockEmbeddingService) Close() error                          { return nil }

// generateEmbedding produces a deterministic pseudo-vector from a
// hash of text, the same FNV-seeded generator the gateway's fallback
// path uses but without its -0.5 centering.
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		seed = seed*1103515245 + 12345
		embedding[i] = float32(seed%1000) / 1000.0
	}
	return embedding
}

func (m *MockEmbeddingService) SetFailNext(fail bool) { m.failNext = fail }
func (m *MockEmbeddingService) SetDimensions(dim int) { m.dimensions = dim }

// MockChatService is a test double for driven.ChatService. By default
// it echoes a canned summary/keyword-ish response; tests can override
// ResponseFn for specific assertions.
type MockChatService struct {
	model      string
	ResponseFn func(messages []driven.ChatMessage) (string, error)
}

func NewMockChatService(model string) *MockChatService {
	return &MockChatService{model: model}
}

func (m *MockChatService) Complete(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if m.ResponseFn != nil {
		return m.ResponseFn(messages)
	}
	var last string
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	return strings.TrimSpace(last), nil
}

func (m *MockChatService) Model() string                         { return m.model }
func (m *MockChatService) HealthCheck(ctx context.Context) error { return nil }
func (m *MockChatService) Close() error                          { return nil }
