package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return err
	}
	fileMetadata, err := json.Marshal(doc.FileMetadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (id, location, title, document_type, status, content_hash, metadata, file_metadata, file_blob, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			location = EXCLUDED.location,
			title = EXCLUDED.title,
			document_type = EXCLUDED.document_type,
			status = EXCLUDED.status,
			content_hash = EXCLUDED.content_hash,
			metadata = EXCLUDED.metadata,
			file_metadata = EXCLUDED.file_metadata,
			file_blob = EXCLUDED.file_blob,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		doc.ID, doc.Location, doc.Title, string(doc.DocumentType), string(doc.Status),
		doc.ContentHash, metadata, fileMetadata, doc.FileBlob, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

func (s *DocumentStore) SaveBatch(ctx context.Context, docs []*domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO documents (id, location, title, document_type, status, content_hash, metadata, file_metadata, file_blob, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				location = EXCLUDED.location,
				title = EXCLUDED.title,
				document_type = EXCLUDED.document_type,
				status = EXCLUDED.status,
				content_hash = EXCLUDED.content_hash,
				metadata = EXCLUDED.metadata,
				file_metadata = EXCLUDED.file_metadata,
				file_blob = EXCLUDED.file_blob,
				updated_at = EXCLUDED.updated_at
		`
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, doc := range docs {
			metadata, err := json.Marshal(doc.Metadata)
			if err != nil {
				return err
			}
			fileMetadata, err := json.Marshal(doc.FileMetadata)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				doc.ID, doc.Location, doc.Title, string(doc.DocumentType), string(doc.Status),
				doc.ContentHash, metadata, fileMetadata, doc.FileBlob, doc.CreatedAt, doc.UpdatedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanDocument(row interface {
	Scan(dest ...any) error
}) (*domain.Document, error) {
	var doc domain.Document
	var metadata, fileMetadata []byte
	err := row.Scan(
		&doc.ID, &doc.Location, &doc.Title, &doc.DocumentType, &doc.Status,
		&doc.ContentHash, &metadata, &fileMetadata, &doc.FileBlob, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fileMetadata, &doc.FileMetadata); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `
		SELECT id, location, title, document_type, status, content_hash, metadata, file_metadata, file_blob, created_at, updated_at
		FROM documents WHERE id = $1
	`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

func (s *DocumentStore) GetByLocationAndHash(ctx context.Context, location, contentHash string) (*domain.Document, error) {
	query := `
		SELECT id, location, title, document_type, status, content_hash, metadata, file_metadata, file_blob, created_at, updated_at
		FROM documents WHERE location = $1 AND content_hash = $2
	`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, location, contentHash))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

func (s *DocumentStore) List(ctx context.Context, filter driven.DocumentFilter) ([]*domain.Document, error) {
	query := `
		SELECT id, location, title, document_type, status, content_hash, metadata, file_metadata, file_blob, created_at, updated_at
		FROM documents
		WHERE ($1 = '' OR document_type = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, query, string(filter.DocumentType), string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *DocumentStore) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	result, err := s.db.ExecContext(ctx, `UPDATE documents SET status = $1, updated_at = now() WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

func (s *DocumentStore) UpdateMetadata(ctx context.Context, id string, metadata domain.Metadata) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	merged := existing.Metadata.MergeOver(metadata)
	encoded, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `UPDATE documents SET metadata = $1, updated_at = now() WHERE id = $2`, encoded, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// Delete removes a document; the text/image/audio content tables and
// the embeddings table cascade via ON DELETE CASCADE.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&count)
	return count, err
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
