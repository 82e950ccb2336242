package vespa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.VectorSearch = (*VectorSearch)(nil)

// VectorSearch implements driven.VectorSearch using Vespa, the
// optional ANN+BM25 backend for deployments that outgrow the postgres
// default.
type VectorSearch struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds Vespa connection configuration.
type Config struct {
	// BaseURL is the Vespa endpoint (e.g., http://localhost:8080).
	BaseURL string

	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{BaseURL: baseURL, Timeout: 30 * time.Second}
}

// NewVectorSearch creates a new Vespa-backed VectorSearch.
func NewVectorSearch(cfg Config) *VectorSearch {
	return &VectorSearch{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type vespaDocument struct {
	Fields vespaFields `json:"fields"`
}

type vespaFields struct {
	ID                string         `json:"id"`
	EmbeddableType    string         `json:"embeddable_type"`
	EmbeddableID      string         `json:"embeddable_id"`
	DocumentID        string         `json:"document_id"`
	DocumentTitle     string         `json:"document_title"`
	DocumentLocation  string         `json:"document_location"`
	DocumentCreatedAt int64          `json:"document_created_at"`
	ChunkIndex        int            `json:"chunk_index"`
	Content           string         `json:"content"`
	Embedding         []float32      `json:"embedding,omitempty"`
	EmbeddingModel    string         `json:"embedding_model"`
	UsageCount        int            `json:"usage_count"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// IndexEmbedding pushes one embedding into Vespa's document store.
// Unlike the postgres backend, Vespa's own index is the source of
// truth for search, so this call is required (not a no-op).
func (s *VectorSearch) IndexEmbedding(ctx context.Context, e *domain.Embedding, doc *domain.Document) error {
	vdoc := vespaDocument{
		Fields: vespaFields{
			ID:                e.ID,
			EmbeddableType:    string(e.EmbeddableType),
			EmbeddableID:      e.EmbeddableID,
			DocumentID:        e.DocumentID,
			DocumentTitle:     doc.Title,
			DocumentLocation:  doc.Location,
			DocumentCreatedAt: doc.CreatedAt.Unix(),
			ChunkIndex:        e.ChunkIndex,
			Content:           e.Content,
			Embedding:         e.Vector,
			EmbeddingModel:    e.EmbeddingModel,
			UsageCount:        e.UsageCount,
			Metadata:          e.Metadata,
		},
	}

	body, err := json.Marshal(vdoc)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/document/v1/ragcore/embedding/docid/%s", s.baseURL, e.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vespa index failed: %s - %s", resp.Status, string(respBody))
	}
	return nil
}

// NearestNeighbors runs Vespa's nearestNeighbor operator ranked by the
// "semantic" profile's closeness score.
func (s *VectorSearch) NearestNeighbors(ctx context.Context, queryVector []float32, k int, filters domain.Filters) ([]driven.Candidate, error) {
	yql := fmt.Sprintf("select * from embedding where %s", combineWithFilter("({targetHits:%d}nearestNeighbor(embedding,query_embedding))", filters, k))
	searchReq := map[string]interface{}{
		"yql":                      yql,
		"hits":                     k,
		"input.query(query_embedding)": queryVector,
		"ranking.profile":          "semantic",
	}
	resp, err := s.search(ctx, searchReq)
	if err != nil {
		return nil, err
	}
	return candidatesFromHits(resp, true), nil
}

// LexicalSearch runs Vespa's BM25 ranking profile over title+content.
func (s *VectorSearch) LexicalSearch(ctx context.Context, query string, limit int, filters domain.Filters) ([]driven.Candidate, error) {
	escaped := strings.ReplaceAll(query, "\"", "\\\"")
	condition := fmt.Sprintf("(content contains \"%s\" or document_title contains \"%s\")", escaped, escaped)
	yql := fmt.Sprintf("select * from embedding where %s", combineWithFilter(condition, filters, 0))
	searchReq := map[string]interface{}{
		"yql":             yql,
		"hits":            limit,
		"ranking.profile": "bm25",
	}
	resp, err := s.search(ctx, searchReq)
	if err != nil {
		return nil, err
	}
	return candidatesFromHits(resp, false), nil
}

func combineWithFilter(condition string, filters domain.Filters, targetHits int) string {
	if strings.Contains(condition, "%d") {
		condition = fmt.Sprintf(condition, targetHits)
	}
	var extra []string
	if filters.DocumentID != "" {
		extra = append(extra, fmt.Sprintf("document_id contains \"%s\"", filters.DocumentID))
	}
	if filters.EmbeddingModel != "" {
		extra = append(extra, fmt.Sprintf("embedding_model contains \"%s\"", filters.EmbeddingModel))
	}
	if len(extra) == 0 {
		return condition
	}
	return condition + " and " + strings.Join(extra, " and ")
}

func (s *VectorSearch) search(ctx context.Context, searchReq map[string]interface{}) (*vespaSearchResponse, error) {
	body, err := json.Marshal(searchReq)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/search/", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vespa search failed: %s - %s", resp.Status, string(respBody))
	}

	var searchResp vespaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, err
	}
	return &searchResp, nil
}

func candidatesFromHits(resp *vespaSearchResponse, isVector bool) []driven.Candidate {
	out := make([]driven.Candidate, 0, len(resp.Root.Children))
	for _, hit := range resp.Root.Children {
		c := driven.Candidate{
			EmbeddingID:       hit.Fields.ID,
			Content:           hit.Fields.Content,
			DocumentID:        hit.Fields.DocumentID,
			DocumentTitle:     hit.Fields.DocumentTitle,
			DocumentLocation:  hit.Fields.DocumentLocation,
			DocumentCreatedAt: time.Unix(hit.Fields.DocumentCreatedAt, 0).UTC(),
			ChunkIndex:        hit.Fields.ChunkIndex,
			EmbeddingModel:    hit.Fields.EmbeddingModel,
			UsageCount:        hit.Fields.UsageCount,
			Metadata:          hit.Fields.Metadata,
		}
		if isVector {
			c.Distance = 1 - hit.Relevance
		} else {
			c.TextRank = hit.Relevance
		}
		out = append(out, c)
	}
	return out
}

type vespaSearchResponse struct {
	Root struct {
		Fields struct {
			TotalCount int64 `json:"totalCount"`
		} `json:"fields"`
		Children []struct {
			Relevance float64     `json:"relevance"`
			Fields    vespaFields `json:"fields"`
		} `json:"children"`
	} `json:"root"`
}

// DeleteByDocument deletes all embeddings for a document via Vespa's
// delete-by-selection document/v1 API.
func (s *VectorSearch) DeleteByDocument(ctx context.Context, documentID string) error {
	selection := fmt.Sprintf("embedding.document_id==\"%s\"", documentID)
	endpoint := fmt.Sprintf("%s/document/v1/ragcore/embedding/docid/?selection=%s&cluster=ragcore",
		s.baseURL, url.QueryEscape(selection))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vespa delete by selection failed: %s - %s", resp.Status, string(respBody))
	}
	return nil
}

func (s *VectorSearch) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/state/v1/health", s.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vespa health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vespa unhealthy: %s", resp.Status)
	}
	return nil
}
