package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ragforge/ragcore/internal/adapters/driven/ai"
	"github.com/ragforge/ragcore/internal/chunker"
	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven/mocks"
	"github.com/ragforge/ragcore/internal/core/services"
	"github.com/ragforge/ragcore/internal/parser"
	"github.com/ragforge/ragcore/internal/runtime"
)

func TestHandleAddDocument_InvalidJSON(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("POST", "/api/v1/documents", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()

	server.handleAddDocument(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleAddDocument_MissingSource(t *testing.T) {
	server := &Server{}

	body, _ := json.Marshal(addDocumentRequest{Title: "empty"})
	req := httptest.NewRequest("POST", "/api/v1/documents", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	server.handleAddDocument(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleSearch_InvalidJSON(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("POST", "/api/v1/search", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()

	server.handleSearch(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	server := &Server{}

	body, _ := json.Marshal(searchRequest{Query: ""})
	req := httptest.NewRequest("POST", "/api/v1/search", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	server.handleSearch(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != "query is required" {
		t.Errorf("expected error %q, got %q", "query is required", resp.Error)
	}
}

func TestHandleDeleteDocument_NotFound(t *testing.T) {
	server := newIntegrationServer(t)

	req := httptest.NewRequest("DELETE", "/api/v1/documents/missing", nil)
	req.SetPathValue("id", "missing")
	rr := httptest.NewRecorder()

	server.handleDeleteDocument(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

// newIntegrationServer builds a Server over a real client assembled
// from in-memory test doubles, for handlers whose behavior depends on
// actually reaching the client façade.
func newIntegrationServer(t *testing.T) *Server {
	t.Helper()
	cl, err := services.NewClient(context.Background(), services.ClientConfig{
		DocumentStore:     mocks.NewMockDocumentStore(),
		ContentStore:      mocks.NewMockContentStore(),
		EmbeddingStore:    mocks.NewMockEmbeddingStore(),
		VectorSearch:      mocks.NewMockVectorSearch(),
		TaskQueue:         mocks.NewMockTaskQueue(),
		Lock:              mocks.NewMockDistributedLock(),
		Parsers:           parser.DefaultRegistry(),
		Chunker:           chunker.New(),
		Services:          runtime.NewServices(domain.NewRuntimeConfig("postgres", "postgres")),
		Factory:           ai.NewFactory(),
		Config:            domain.DefaultConfig(),
		RunnerConcurrency: 1,
	})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return NewServer(DefaultConfig(), cl, nil)
}
