package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.EmbeddingStore = (*EmbeddingStore)(nil)

// EmbeddingStore implements driven.EmbeddingStore using PostgreSQL with
// the pgvector extension for the embedding_vector column.
type EmbeddingStore struct {
	db *DB
}

// NewEmbeddingStore creates a new EmbeddingStore.
func NewEmbeddingStore(db *DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

// toVector pads or truncates v to the schema's fixed pgvector width so
// models with smaller declared dimensions (domain.ModelDimensions) can
// still be stored in the same column.
func toVector(v []float32) pgvector.Vector {
	const width = 1536
	if len(v) == width {
		return pgvector.NewVector(v)
	}
	padded := make([]float32, width)
	copy(padded, v)
	return pgvector.NewVector(padded)
}

func (s *EmbeddingStore) Save(ctx context.Context, e *domain.Embedding) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO embeddings (id, embeddable_type, embeddable_id, document_id, chunk_index, content, embedding_vector, embedding_model, usage_count, returned_at, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding_vector = EXCLUDED.embedding_vector,
			embedding_model = EXCLUDED.embedding_model,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		e.ID, string(e.EmbeddableType), e.EmbeddableID, e.DocumentID, e.ChunkIndex, e.Content,
		toVector(e.Vector), e.EmbeddingModel, e.UsageCount, NullTime(e.ReturnedAt), metadata, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (s *EmbeddingStore) SaveBatch(ctx context.Context, embeddings []*domain.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO embeddings (id, embeddable_type, embeddable_id, document_id, chunk_index, content, embedding_vector, embedding_model, usage_count, returned_at, metadata, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				embedding_vector = EXCLUDED.embedding_vector,
				embedding_model = EXCLUDED.embedding_model,
				metadata = EXCLUDED.metadata,
				updated_at = EXCLUDED.updated_at
		`
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range embeddings {
			metadata, err := json.Marshal(e.Metadata)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				e.ID, string(e.EmbeddableType), e.EmbeddableID, e.DocumentID, e.ChunkIndex, e.Content,
				toVector(e.Vector), e.EmbeddingModel, e.UsageCount, NullTime(e.ReturnedAt), metadata, e.CreatedAt, e.UpdatedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *EmbeddingStore) GetByEmbeddable(ctx context.Context, embeddableType domain.EmbeddableType, embeddableID string) ([]*domain.Embedding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, embeddable_type, embeddable_id, document_id, chunk_index, content, embedding_vector, embedding_model, usage_count, returned_at, metadata, created_at, updated_at
		FROM embeddings WHERE embeddable_type = $1 AND embeddable_id = $2 ORDER BY chunk_index ASC
	`, string(embeddableType), embeddableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Embedding
	for rows.Next() {
		e, err := scanEmbedding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEmbedding(row interface{ Scan(dest ...any) error }) (*domain.Embedding, error) {
	var e domain.Embedding
	var vec pgvector.Vector
	var returnedAt sql.NullTime
	var metadata []byte
	err := row.Scan(
		&e.ID, &e.EmbeddableType, &e.EmbeddableID, &e.DocumentID, &e.ChunkIndex, &e.Content,
		&vec, &e.EmbeddingModel, &e.UsageCount, &returnedAt, &metadata, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s := vec.Slice()
	n := domain.DimensionFor(e.EmbeddingModel)
	if n > len(s) {
		n = len(s)
	}
	e.Vector = s[:n]
	e.ReturnedAt = TimePtr(returnedAt)
	if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *EmbeddingStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM embeddings WHERE document_id = $1`, documentID).Scan(&count)
	return count, err
}

// RecordUsageBatch increments usage_count and sets returned_at=now for
// every embedding id in one statement, matching spec 4.6 step 6's
// requirement of a single atomic update per search rather than one
// per hit.
func (s *EmbeddingStore) RecordUsageBatch(ctx context.Context, embeddingIDs []string) error {
	if len(embeddingIDs) == 0 {
		return nil
	}
	placeholders := make([]string, len(embeddingIDs))
	args := make([]any, len(embeddingIDs)+1)
	args[0] = time.Now()
	for i, id := range embeddingIDs {
		placeholders[i] = placeholder(i + 2)
		args[i+1] = id
	}
	query := `UPDATE embeddings SET usage_count = usage_count + 1, returned_at = $1 WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *EmbeddingStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE document_id = $1`, documentID)
	return err
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
