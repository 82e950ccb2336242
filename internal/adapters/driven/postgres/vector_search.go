package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.VectorSearch = (*VectorSearch)(nil)

// VectorSearch implements driven.VectorSearch directly on top of
// EmbeddingStore's table using pgvector for nearest-neighbor distance
// and tsvector for lexical ranking. This is the default backend;
// vespa is the optional alternative for larger deployments.
type VectorSearch struct {
	db *DB
}

// NewVectorSearch creates a new VectorSearch.
func NewVectorSearch(db *DB) *VectorSearch {
	return &VectorSearch{db: db}
}

// IndexEmbedding is a no-op: EmbeddingStore.Save already wrote the row
// that NearestNeighbors and LexicalSearch query against.
func (s *VectorSearch) IndexEmbedding(ctx context.Context, e *domain.Embedding, doc *domain.Document) error {
	return nil
}

func filterClause(filters domain.Filters, startArg int) (string, []any) {
	var clauses []string
	var args []any
	n := startArg

	if filters.DocumentType != "" {
		clauses = append(clauses, "d.document_type = $"+itoa(n))
		args = append(args, string(filters.DocumentType))
		n++
	}
	if filters.EmbeddingModel != "" {
		clauses = append(clauses, "e.embedding_model = $"+itoa(n))
		args = append(args, filters.EmbeddingModel)
		n++
	}
	if filters.DocumentID != "" {
		clauses = append(clauses, "e.document_id = $"+itoa(n))
		args = append(args, filters.DocumentID)
		n++
	}
	if filters.Classification != "" {
		clauses = append(clauses, "d.metadata->>'classification' = $"+itoa(n))
		args = append(args, filters.Classification)
		n++
	}
	if len(filters.Tags) > 0 {
		clauses = append(clauses, "d.metadata->'tags' ?| $"+itoa(n))
		args = append(args, pq.StringArray(filters.Tags))
		n++
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// NearestNeighbors returns up to k embedding ids ordered by ascending
// cosine distance (pgvector's <=> operator).
func (s *VectorSearch) NearestNeighbors(ctx context.Context, queryVector []float32, k int, filters domain.Filters) ([]driven.Candidate, error) {
	clause, filterArgs := filterClause(filters, 3)
	query := `
		SELECT e.id, e.content, e.document_id, d.title, d.location, d.created_at, e.chunk_index, e.embedding_model,
			e.usage_count, e.returned_at, e.metadata, e.embedding_vector <=> $1 AS distance
		FROM embeddings e
		JOIN documents d ON d.id = e.document_id
		WHERE true` + clause + `
		ORDER BY distance ASC
		LIMIT $2
	`
	args := append([]any{toVector(queryVector), k}, filterArgs...)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows, true)
}

// LexicalSearch performs a tsvector full-text match against document
// title and chunk content, ranked by ts_rank. AI-metadata fields
// (summary, keywords, description) are not searched.
func (s *VectorSearch) LexicalSearch(ctx context.Context, query string, limit int, filters domain.Filters) ([]driven.Candidate, error) {
	clause, filterArgs := filterClause(filters, 3)
	sqlQuery := `
		SELECT e.id, e.content, e.document_id, d.title, d.location, d.created_at, e.chunk_index, e.embedding_model,
			e.usage_count, e.returned_at, e.metadata,
			ts_rank(to_tsvector('english', d.title || ' ' || e.content), to_tsquery('english', $1)) AS rank
		FROM embeddings e
		JOIN documents d ON d.id = e.document_id
		WHERE to_tsvector('english', d.title || ' ' || e.content) @@ to_tsquery('english', $1)` + clause + `
		ORDER BY rank DESC
		LIMIT $2
	`
	args := append([]any{toTSQuery(query), limit}, filterArgs...)
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows, false)
}

// toTSQuery turns free text into an OR'd tsquery so any shared word
// matches, mirroring the donor's tolerant lexical search behavior.
func toTSQuery(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = sanitizeTSTerm(w)
	}
	return strings.Join(words, " | ")
}

func sanitizeTSTerm(w string) string {
	return strings.Map(func(r rune) rune {
		if r == '\'' || r == ':' || r == '&' || r == '|' || r == '!' {
			return -1
		}
		return r
	}, w)
}

func scanCandidates(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}, isVector bool) ([]driven.Candidate, error) {
	var out []driven.Candidate
	for rows.Next() {
		var c driven.Candidate
		var metadata []byte
		var score float64
		var returnedAt sql.NullTime
		if err := rows.Scan(&c.EmbeddingID, &c.Content, &c.DocumentID, &c.DocumentTitle, &c.DocumentLocation, &c.DocumentCreatedAt,
			&c.ChunkIndex, &c.EmbeddingModel, &c.UsageCount, &returnedAt, &metadata, &score); err != nil {
			return nil, err
		}
		c.ReturnedAt = TimePtr(returnedAt)
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return nil, err
		}
		if isVector {
			c.Distance = score
		} else {
			c.TextRank = score
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *VectorSearch) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE document_id = $1`, documentID)
	return err
}

func (s *VectorSearch) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
