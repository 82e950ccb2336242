package postgres

import (
	"context"
	"database/sql"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.ContentStore = (*ContentStore)(nil)

// ContentStore implements driven.ContentStore using PostgreSQL.
type ContentStore struct {
	db *DB
}

// NewContentStore creates a new ContentStore.
func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

func (s *ContentStore) SaveText(ctx context.Context, c *domain.TextContent) error {
	query := `
		INSERT INTO text_contents (id, document_id, content, embedding_model, chunk_size, overlap, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding_model = EXCLUDED.embedding_model,
			chunk_size = EXCLUDED.chunk_size,
			overlap = EXCLUDED.overlap,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, c.ID, c.DocumentID, c.Content, c.EmbeddingModel, c.ChunkSize, c.Overlap, c.CreatedAt, c.UpdatedAt)
	return err
}

func (s *ContentStore) SaveImage(ctx context.Context, c *domain.ImageContent) error {
	query := `
		INSERT INTO image_contents (id, document_id, description, alt_text, image_blob, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			description = EXCLUDED.description,
			alt_text = EXCLUDED.alt_text,
			image_blob = EXCLUDED.image_blob,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, c.ID, c.DocumentID, c.Description, c.AltText, c.ImageBlob, c.CreatedAt, c.UpdatedAt)
	return err
}

func (s *ContentStore) SaveAudio(ctx context.Context, c *domain.AudioContent) error {
	query := `
		INSERT INTO audio_contents (id, document_id, transcript, duration_seconds, sample_rate, audio_blob, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			transcript = EXCLUDED.transcript,
			duration_seconds = EXCLUDED.duration_seconds,
			sample_rate = EXCLUDED.sample_rate,
			audio_blob = EXCLUDED.audio_blob,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, c.ID, c.DocumentID, c.Transcript, c.Duration, c.SampleRate, c.AudioBlob, c.CreatedAt, c.UpdatedAt)
	return err
}

func (s *ContentStore) GetTextByDocument(ctx context.Context, documentID string) ([]*domain.TextContent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, embedding_model, chunk_size, overlap, created_at, updated_at
		FROM text_contents WHERE document_id = $1 ORDER BY created_at ASC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.TextContent
	for rows.Next() {
		var c domain.TextContent
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Content, &c.EmbeddingModel, &c.ChunkSize, &c.Overlap, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *ContentStore) GetImagesByDocument(ctx context.Context, documentID string) ([]*domain.ImageContent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, description, alt_text, image_blob, created_at, updated_at
		FROM image_contents WHERE document_id = $1 ORDER BY created_at ASC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ImageContent
	for rows.Next() {
		var c domain.ImageContent
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Description, &c.AltText, &c.ImageBlob, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *ContentStore) GetAudioByDocument(ctx context.Context, documentID string) ([]*domain.AudioContent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, transcript, duration_seconds, sample_rate, audio_blob, created_at, updated_at
		FROM audio_contents WHERE document_id = $1 ORDER BY created_at ASC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AudioContent
	for rows.Next() {
		var c domain.AudioContent
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Transcript, &c.Duration, &c.SampleRate, &c.AudioBlob, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// DeleteByDocument removes all content rows for a document across the
// three modality tables. The documents table's ON DELETE CASCADE would
// do this too, but the ingestion pipeline calls it directly when
// re-ingesting a document in place without deleting the document row.
func (s *ContentStore) DeleteByDocument(ctx context.Context, documentID string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"text_contents", "image_contents", "audio_contents"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE document_id = $1`, documentID); err != nil {
				return err
			}
		}
		return nil
	})
}
