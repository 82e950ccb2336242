package domain

import (
	"math"
	"time"
)

// SearchMode selects which retrieval strategy a search call runs.
type SearchMode string

const (
	SearchModeSemantic SearchMode = "semantic"
	SearchModeLexical  SearchMode = "lexical"
	SearchModeHybrid   SearchMode = "hybrid"
)

// Filters restrict the candidate set before nearest-neighbor lookup,
// per spec 4.6 step 1.
type Filters struct {
	DocumentType   DocumentType `json:"document_type,omitempty"`
	Classification string       `json:"classification,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
	EmbeddingModel string       `json:"embedding_model,omitempty"`
	DocumentID     string       `json:"document_id,omitempty"`
}

// SearchOptions configures a search/search_similar_content/hybrid_search call.
type SearchOptions struct {
	Limit               int      `json:"limit"`
	SimilarityThreshold  float64  `json:"similarity_threshold"`
	Filters              Filters  `json:"filters"`
	SemanticWeight       float64  `json:"semantic_weight"`
	TextWeight           float64  `json:"text_weight"`
}

// DefaultSearchOptions mirrors the defaults named in spec 4.6.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:               10,
		SimilarityThreshold: 0.7,
		SemanticWeight:      0.7,
		TextWeight:          0.3,
	}
}

// Hit is one ranked search result, carrying every field spec 4.6 names.
type Hit struct {
	EmbeddingID       string         `json:"embedding_id"`
	Content           string         `json:"content"`
	DocumentID        string         `json:"document_id"`
	DocumentTitle     string         `json:"document_title"`
	DocumentLocation  string         `json:"document_location"`
	DocumentCreatedAt time.Time      `json:"document_created_at"`
	ChunkIndex        int            `json:"chunk_index"`
	Similarity        float64        `json:"similarity"`
	Distance          float64        `json:"distance"`
	UsageScore        float64        `json:"usage_score"`
	CombinedScore     float64        `json:"combined_score"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	SearchTypes       []SearchMode   `json:"search_types,omitempty"`
}

// SearchResult is the top-level response of Client.Search.
type SearchResult struct {
	Query        string `json:"query"`
	Results      []Hit  `json:"results"`
	TotalResults int    `json:"total_results"`
}

// FacetFilters narrows faceted_search per spec 4.6: keyword filters
// are AND-of-substring matches against metadata.keywords, classification
// is exact match, tags are array-contains, dates filter created_at.
type FacetFilters struct {
	Keywords       []string   `json:"keywords,omitempty"`
	Classification string     `json:"classification,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	CreatedAfter   *time.Time `json:"created_after,omitempty"`
	CreatedBefore  *time.Time `json:"created_before,omitempty"`
}

// CosineSimilarity returns dot(a,b) / (||a|| * ||b||), or 0 for
// nil/zero-magnitude/mismatched-length inputs, per spec 4.6.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// CosineDistance is 1 - CosineSimilarity, the metric nearest-neighbor
// queries are expressed over.
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// UsageScore implements the frequency/recency blend from spec 4.6.
// A nil returnedAt or zero usageCount yields 0, matching "if
// usage_count == 0 or returned_at is null -> usage_score = 0".
func UsageScore(usageCount int, returnedAt *time.Time, now time.Time) float64 {
	if usageCount == 0 || returnedAt == nil {
		return 0
	}
	frequencyScore := math.Log(float64(usageCount)+1) / math.Log(100)
	if frequencyScore > 1.0 {
		frequencyScore = 1.0
	}
	daysSince := now.Sub(*returnedAt).Hours() / 24
	recencyScore := math.Exp(-daysSince / 30)
	return 0.7*frequencyScore + 0.3*recencyScore
}
