package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/swaggo/swag"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
	"github.com/ragforge/ragcore/internal/core/ports/driving"
)

// ErrorResponse represents an API error response.
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"document not found"`
}

// StatusResponse represents a simple status response.
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response.
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// handleHealth godoc
// @Summary      Health check
// @Description  Reports whether storage, the embedding/chat gateway, and the task queue are reachable
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.client.Healthy(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleVersion godoc
// @Summary      Get API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleSwagger serves the OpenAPI description that package docs
// registers with swag; it is a fixed template, not rebuilt from the
// annotations above each handler at startup.
func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	spec := swag.GetSwagger("swagger")
	if spec == nil {
		writeError(w, http.StatusNotFound, "no swagger spec registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(spec.ReadDoc()))
}

// handleStats godoc
// @Summary      Runtime statistics
// @Description  Document/embedding counts and the status of the storage, queue, and AI backends
// @Tags         Health
// @Produce      json
// @Success      200  {object}  domain.Stats
// @Router       /stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.client.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to gather stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// addDocumentRequest is the JSON body for POST /documents.
type addDocumentRequest struct {
	Location     string          `json:"location"`
	Content      string          `json:"content"`
	Title        string          `json:"title"`
	DocumentType string          `json:"document_type"`
	Metadata     domain.Metadata `json:"metadata"`
}

// handleAddDocument godoc
// @Summary      Ingest a document
// @Description  Ingests a document from either a filesystem location or inline content. Processing runs asynchronously; poll /documents/{id}/status.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        request  body      addDocumentRequest  true  "Document source"
// @Success      202      {object}  driving.AddDocumentResult
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /documents [post]
func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Location == "" && req.Content == "" {
		writeError(w, http.StatusBadRequest, "one of location or content is required")
		return
	}

	result, err := s.client.AddDocument(r.Context(), driving.AddDocumentInput{
		Location:     req.Location,
		Blob:         []byte(req.Content),
		DocumentType: domain.DocumentType(req.DocumentType),
		Title:        req.Title,
		Metadata:     req.Metadata,
	})
	if err != nil {
		writeDomainError(w, err, "failed to add document")
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// addDirectoryRequest is the JSON body for POST /documents/directory.
type addDirectoryRequest struct {
	Path          string `json:"path"`
	Recursive     bool   `json:"recursive"`
	IncludeImages bool   `json:"include_images"`
}

// handleAddDirectory godoc
// @Summary      Ingest a directory
// @Description  Walks a directory and ingests every file; image files are skipped unless include_images is set. If interrupted, the response carries a resume_token usable against /documents/directory/resume.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        request  body      addDirectoryRequest  true  "Directory to walk"
// @Success      202      {object}  driving.AddDirectoryResult
// @Failure      400      {object}  ErrorResponse
// @Router       /documents/directory [post]
func (s *Server) handleAddDirectory(w http.ResponseWriter, r *http.Request) {
	var req addDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	result, err := s.client.AddDirectory(r.Context(), req.Path, req.Recursive, req.IncludeImages)
	if err != nil && result == nil {
		writeDomainError(w, err, "failed to walk directory")
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// resumeDirectoryRequest is the JSON body for POST /documents/directory/resume.
type resumeDirectoryRequest struct {
	ResumeToken string `json:"resume_token"`
}

// handleResumeDirectory godoc
// @Summary      Resume an interrupted directory ingestion
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        request  body      resumeDirectoryRequest  true  "Resume token from a prior directory walk"
// @Success      202      {object}  driving.AddDirectoryResult
// @Failure      400      {object}  ErrorResponse
// @Router       /documents/directory/resume [post]
func (s *Server) handleResumeDirectory(w http.ResponseWriter, r *http.Request) {
	var req resumeDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ResumeToken == "" {
		writeError(w, http.StatusBadRequest, "resume_token is required")
		return
	}

	result, err := s.client.ResumeDirectory(r.Context(), req.ResumeToken)
	if err != nil && result == nil {
		writeDomainError(w, err, "failed to resume directory walk")
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// handleGetDocument godoc
// @Summary      Get a document
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := s.client.GetDocument(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get document")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDocumentStatus godoc
// @Summary      Get a document's processing status
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /documents/{id}/status [get]
func (s *Server) handleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status, err := s.client.DocumentStatus(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get document status")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: string(status)})
}

// handleDeleteDocument godoc
// @Summary      Delete a document
// @Description  Cascades to its content, embeddings, and vector search index entries.
// @Tags         Documents
// @Param        id   path  string  true  "Document ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.client.DeleteDocument(r.Context(), id); err != nil {
		writeDomainError(w, err, "failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListDocuments godoc
// @Summary      List documents
// @Tags         Documents
// @Produce      json
// @Param        document_type  query     string  false  "Filter by document type"
// @Param        status         query     string  false  "Filter by processing status"
// @Param        limit          query     int     false  "Max results"
// @Param        offset         query     int     false  "Result offset"
// @Success      200            {array}   domain.Document
// @Failure      500            {object}  ErrorResponse
// @Router       /documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := driven.DocumentFilter{
		DocumentType: domain.DocumentType(q.Get("document_type")),
		Status:       domain.DocumentStatus(q.Get("status")),
		Limit:        atoiOr(q.Get("limit"), 0),
		Offset:       atoiOr(q.Get("offset"), 0),
	}

	docs, err := s.client.ListDocuments(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// searchRequest is the JSON body shared by the search endpoints.
type searchRequest struct {
	Query               string         `json:"query"`
	Limit               int            `json:"limit"`
	SimilarityThreshold float64        `json:"similarity_threshold"`
	SemanticWeight      float64        `json:"semantic_weight"`
	TextWeight          float64        `json:"text_weight"`
	Filters             domain.Filters `json:"filters"`
}

func (req searchRequest) toOptions() domain.SearchOptions {
	opts := domain.DefaultSearchOptions()
	if req.Limit > 0 {
		opts.Limit = req.Limit
	}
	if req.SimilarityThreshold > 0 {
		opts.SimilarityThreshold = req.SimilarityThreshold
	}
	if req.SemanticWeight > 0 {
		opts.SemanticWeight = req.SemanticWeight
	}
	if req.TextWeight > 0 {
		opts.TextWeight = req.TextWeight
	}
	opts.Filters = req.Filters
	return opts
}

// handleSearch godoc
// @Summary      Search documents
// @Description  Runs the semantic ranking pipeline described in spec 4.6, falling back to lexical-only ranking when no embedding capability is available.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      searchRequest  true  "Search query"
// @Success      200      {object}  domain.SearchResult
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.client.Search(r.Context(), req.Query, req.toOptions())
	if err != nil {
		writeDomainError(w, err, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleHybridSearch godoc
// @Summary      Hybrid search
// @Description  Fuses semantic and lexical candidates weighted by semantic_weight/text_weight.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      searchRequest  true  "Search query"
// @Success      200      {object}  domain.SearchResult
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /search/hybrid [post]
func (s *Server) handleHybridSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.client.HybridSearch(r.Context(), req.Query, req.toOptions())
	if err != nil {
		writeDomainError(w, err, "hybrid search failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetContext godoc
// @Summary      Get retrieval context for a query
// @Description  Returns the hits backing a query's retrieval context, individually and concatenated.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      searchRequest  true  "Search query"
// @Success      200      {object}  driving.GetContextResult
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /search/context [post]
func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.client.GetContext(r.Context(), req.Query, req.toOptions())
	if err != nil {
		writeDomainError(w, err, "failed to build context")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// enhancePromptRequest is the JSON body for POST /search/enhance-prompt.
type enhancePromptRequest struct {
	Prompt string `json:"prompt"`
	searchRequest
}

// handleEnhancePrompt godoc
// @Summary      Splice retrieval context into a prompt
// @Description  Substitutes retrieved context into the prompt template; returns the prompt verbatim with context_count 0 if nothing was found.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      enhancePromptRequest  true  "Prompt and search query"
// @Success      200      {object}  driving.EnhancePromptResult
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /search/enhance-prompt [post]
func (s *Server) handleEnhancePrompt(w http.ResponseWriter, r *http.Request) {
	var req enhancePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	result, err := s.client.EnhancePrompt(r.Context(), req.Prompt, req.toOptions())
	if err != nil {
		writeDomainError(w, err, "failed to enhance prompt")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps a domain.Error's Kind, or one of the sentinel
// errors, to an HTTP status. Anything unrecognized is a 500.
func writeDomainError(w http.ResponseWriter, err error, fallbackMessage string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, domain.ErrAlreadyExists) {
		writeError(w, http.StatusConflict, "already exists")
		return
	}

	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindConfiguration:
			writeError(w, http.StatusBadRequest, de.Message)
			return
		case domain.KindParse:
			writeError(w, http.StatusUnprocessableEntity, de.Message)
			return
		}
	}

	writeError(w, http.StatusInternalServerError, fallbackMessage)
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}
