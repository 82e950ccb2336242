package services

import (
	"context"
	"testing"
	"time"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven/mocks"
	"github.com/ragforge/ragcore/internal/runtime"
)

func createTestServices(embeddingService *mocks.MockEmbeddingService) *runtime.Services {
	config := domain.NewRuntimeConfig("postgres", "postgres")
	services := runtime.NewServices(config)
	if embeddingService != nil {
		services.SetEmbeddingService(embeddingService)
	}
	return services
}

func indexEmbedding(t *testing.T, vs *mocks.MockVectorSearch, es *mocks.MockEmbeddingStore, doc *domain.Document, id string, content string, vector []float32) {
	t.Helper()
	e := &domain.Embedding{
		ID:             id,
		EmbeddableType: domain.EmbeddableText,
		EmbeddableID:   doc.ID,
		DocumentID:     doc.ID,
		Content:        content,
		Vector:         vector,
		EmbeddingModel: "mock-embedding-model",
	}
	_ = es.Save(context.Background(), e)
	_ = vs.IndexEmbedding(context.Background(), e, doc)
}

func TestSearchService_Search_LexicalFallback(t *testing.T) {
	vectorSearch := mocks.NewMockVectorSearch()
	embeddingStore := mocks.NewMockEmbeddingStore()
	// No embedding service configured: Search must degrade to lexical.
	runtimeServices := createTestServices(nil)
	svc := NewSearchService(vectorSearch, embeddingStore, runtimeServices)

	doc := &domain.Document{ID: "doc-123", Title: "Go Programming Guide"}
	indexEmbedding(t, vectorSearch, embeddingStore, doc, "emb-1", "This is a test document about Go programming", nil)
	indexEmbedding(t, vectorSearch, embeddingStore, doc, "emb-2", "Another chunk about Python programming", nil)

	result, err := svc.Search(context.Background(), "Go", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Query != "Go" {
		t.Errorf("expected query 'Go', got %s", result.Query)
	}
	if len(result.Results) != 2 {
		t.Errorf("expected 2 results for 'Go' (the title matches both chunks), got %d", len(result.Results))
	}
}

func TestSearchService_Search_Semantic(t *testing.T) {
	vectorSearch := mocks.NewMockVectorSearch()
	embeddingStore := mocks.NewMockEmbeddingStore()
	embeddingService := mocks.NewMockEmbeddingService()
	embeddingService.SetDimensions(4)
	runtimeServices := createTestServices(embeddingService)
	svc := NewSearchService(vectorSearch, embeddingStore, runtimeServices)

	doc := &domain.Document{ID: "doc-123", Title: "Test Document"}
	// Same content as the query produces the same deterministic mock
	// vector, guaranteeing a similarity of 1.0 and a pass of the
	// default 0.7 threshold.
	indexEmbedding(t, vectorSearch, embeddingStore, doc, "emb-1", "exact match content", mockVector(embeddingService, "exact match content"))

	result, err := svc.Search(context.Background(), "exact match content", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(result.Results))
	}
	if result.Results[0].Similarity < 0.99 {
		t.Errorf("expected near-1.0 similarity for identical vectors, got %f", result.Results[0].Similarity)
	}
}

func mockVector(svc *mocks.MockEmbeddingService, text string) []float32 {
	vecs, _ := svc.Embed(context.Background(), []string{text})
	return vecs[0]
}

func TestSearchService_Search_LimitEnforcement(t *testing.T) {
	vectorSearch := mocks.NewMockVectorSearch()
	embeddingStore := mocks.NewMockEmbeddingStore()
	runtimeServices := createTestServices(nil)
	svc := NewSearchService(vectorSearch, embeddingStore, runtimeServices)

	doc := &domain.Document{ID: "doc-123", Title: "Test Document"}
	for i := 0; i < 150; i++ {
		indexEmbedding(t, vectorSearch, embeddingStore, doc, generateID(), "Test content for searching", nil)
	}

	result, err := svc.Search(context.Background(), "Test", domain.SearchOptions{Limit: 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Results) > 100 {
		t.Errorf("expected at most 100 results, got %d", len(result.Results))
	}

	result, err = svc.Search(context.Background(), "Test", domain.SearchOptions{Limit: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Results) > 10 {
		t.Errorf("expected at most 10 results with default limit, got %d", len(result.Results))
	}
}

func TestSearchService_Search_DocumentIDFilter(t *testing.T) {
	vectorSearch := mocks.NewMockVectorSearch()
	embeddingStore := mocks.NewMockEmbeddingStore()
	runtimeServices := createTestServices(nil)
	svc := NewSearchService(vectorSearch, embeddingStore, runtimeServices)

	doc1 := &domain.Document{ID: "doc-1", Title: "Doc One"}
	doc2 := &domain.Document{ID: "doc-2", Title: "Doc Two"}
	indexEmbedding(t, vectorSearch, embeddingStore, doc1, "emb-1", "Test content for source 1", nil)
	indexEmbedding(t, vectorSearch, embeddingStore, doc2, "emb-2", "Test content for source 2", nil)
	indexEmbedding(t, vectorSearch, embeddingStore, doc1, "emb-3", "More test content for source 1", nil)

	result, err := svc.Search(context.Background(), "Test", domain.SearchOptions{
		Limit:   10,
		Filters: domain.Filters{DocumentID: "doc-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Results) != 2 {
		t.Errorf("expected 2 results for doc-1, got %d", len(result.Results))
	}
}

func TestSearchService_HybridSearch_FusesAndDedupes(t *testing.T) {
	vectorSearch := mocks.NewMockVectorSearch()
	embeddingStore := mocks.NewMockEmbeddingStore()
	embeddingService := mocks.NewMockEmbeddingService()
	embeddingService.SetDimensions(4)
	runtimeServices := createTestServices(embeddingService)
	svc := NewSearchService(vectorSearch, embeddingStore, runtimeServices)

	doc := &domain.Document{ID: "doc-123", Title: "Hybrid search content"}
	indexEmbedding(t, vectorSearch, embeddingStore, doc, "emb-1", "hybrid search content", mockVector(embeddingService, "hybrid search content"))

	result, err := svc.HybridSearch(context.Background(), "hybrid search content", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Results) != 1 {
		t.Fatalf("expected the semantic and lexical hit to dedupe into 1 result, got %d", len(result.Results))
	}
	if len(result.Results[0].SearchTypes) != 2 {
		t.Errorf("expected both search types recorded on the fused hit, got %v", result.Results[0].SearchTypes)
	}
}

func TestSearchService_GetContext(t *testing.T) {
	vectorSearch := mocks.NewMockVectorSearch()
	embeddingStore := mocks.NewMockEmbeddingStore()
	runtimeServices := createTestServices(nil)
	svc := NewSearchService(vectorSearch, embeddingStore, runtimeServices)

	doc := &domain.Document{ID: "doc-123", Title: "Test Document"}
	indexEmbedding(t, vectorSearch, embeddingStore, doc, "emb-1", "Some retrievable context", nil)

	result, err := svc.GetContext(context.Background(), "retrievable", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CombinedContext != "Some retrievable context" {
		t.Errorf("expected context to equal the matched hit's content, got %q", result.CombinedContext)
	}
	if result.TotalChunks != 1 {
		t.Errorf("expected 1 chunk, got %d", result.TotalChunks)
	}
	if result.ContextChunks[0].Source != "Test Document" {
		t.Errorf("expected chunk source to be the document title, got %q", result.ContextChunks[0].Source)
	}
}

func TestSearchService_EnhancePrompt(t *testing.T) {
	vectorSearch := mocks.NewMockVectorSearch()
	embeddingStore := mocks.NewMockEmbeddingStore()
	runtimeServices := createTestServices(nil)
	svc := NewSearchService(vectorSearch, embeddingStore, runtimeServices)

	doc := &domain.Document{ID: "doc-123", Title: "Test Document"}
	indexEmbedding(t, vectorSearch, embeddingStore, doc, "emb-1", "Some retrievable context", nil)

	result, err := svc.EnhancePrompt(context.Background(), "retrievable", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Prompt == "retrievable" {
		t.Error("expected prompt to be enhanced with context")
	}
	if result.ContextCount != 1 {
		t.Errorf("expected context_count 1, got %d", result.ContextCount)
	}
}

func TestSearchService_EnhancePrompt_NoContextReturnsPromptVerbatim(t *testing.T) {
	vectorSearch := mocks.NewMockVectorSearch()
	embeddingStore := mocks.NewMockEmbeddingStore()
	runtimeServices := createTestServices(nil)
	svc := NewSearchService(vectorSearch, embeddingStore, runtimeServices)

	result, err := svc.EnhancePrompt(context.Background(), "nothing indexed matches this", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Prompt != "nothing indexed matches this" {
		t.Errorf("expected original prompt verbatim, got %q", result.Prompt)
	}
	if result.ContextCount != 0 {
		t.Errorf("expected context_count 0, got %d", result.ContextCount)
	}
}

func TestSearchService_FacetedSearch(t *testing.T) {
	vectorSearch := mocks.NewMockVectorSearch()
	embeddingStore := mocks.NewMockEmbeddingStore()
	runtimeServices := createTestServices(nil)
	svc := NewSearchService(vectorSearch, embeddingStore, runtimeServices)

	doc := &domain.Document{ID: "doc-123", Title: "Test Document"}
	indexEmbedding(t, vectorSearch, embeddingStore, doc, "emb-1", "Faceted test content", nil)

	result, err := svc.FacetedSearch(context.Background(), "Faceted", domain.FacetFilters{Classification: "none-matches"}, domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Results) != 0 {
		t.Errorf("expected facet filter to exclude the only hit, got %d results", len(result.Results))
	}
}

func TestSearchService_RecordsUsage(t *testing.T) {
	vectorSearch := mocks.NewMockVectorSearch()
	embeddingStore := mocks.NewMockEmbeddingStore()
	runtimeServices := createTestServices(nil)
	svc := NewSearchService(vectorSearch, embeddingStore, runtimeServices)

	doc := &domain.Document{ID: "doc-123", Title: "Test Document"}
	indexEmbedding(t, vectorSearch, embeddingStore, doc, "emb-1", "Usage tracked content", nil)

	_, err := svc.Search(context.Background(), "Usage", domain.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := embeddingStore.All()
	if len(all) != 1 || all[0].UsageCount != 1 {
		t.Errorf("expected usage count to be recorded, got %+v", all)
	}
	if all[0].ReturnedAt == nil || time.Since(*all[0].ReturnedAt) > time.Minute {
		t.Error("expected returned_at to be set to roughly now")
	}
}
