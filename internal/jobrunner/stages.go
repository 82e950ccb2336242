package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ragforge/ragcore/internal/core/domain"
)

// extractText implements spec 4.5's extract_text stage. It is a
// no-op if a TextContent already exists (idempotent retry after a
// partial run), and gracefully no-ops if the document has since been
// deleted.
func (r *Runner) extractText(ctx context.Context, task *domain.Task) error {
	doc, err := r.documentStore.Get(ctx, task.DocumentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	existing, err := r.contentStore.GetTextByDocument(ctx, doc.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return r.enqueueNext(ctx, task.Stage, doc.ID)
	}

	if len(doc.FileBlob) == 0 {
		return fmt.Errorf("jobrunner: extract_text precondition failed: document %s has no file attached", doc.ID)
	}

	if err := r.documentStore.UpdateStatus(ctx, doc.ID, domain.StatusProcessing); err != nil {
		return err
	}

	parser := r.parsers.Get(extensionOf(doc.Location))
	result, err := parser.Parse(doc.Location, doc.FileBlob)
	if err != nil {
		return domain.NewError(domain.KindParse, "jobrunner.extractText", "parse failed", err)
	}
	if result.Content == "" {
		return domain.NewError(domain.KindParse, "jobrunner.extractText", "extraction produced empty content", nil)
	}

	chunking, _ := r.configSnapshot()
	now := time.Now()
	text := &domain.TextContent{
		ID:         domain.GenerateID(),
		DocumentID: doc.ID,
		Content:    result.Content,
		ChunkSize:  chunking.ChunkSize,
		Overlap:    chunking.Overlap,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.contentStore.SaveText(ctx, text); err != nil {
		return err
	}

	if doc.Title == "" && result.Title != "" {
		// Title backfill happens via UpdateMetadata-adjacent bookkeeping
		// is out of scope here; the client façade sets it at ingestion
		// time instead, so extract_text only ever writes content.
		_ = result.Title
	}

	return r.enqueueNext(ctx, task.Stage, doc.ID)
}

// generateMetadata implements spec 4.5's generate_metadata stage: a
// no-op if the document's schema-required fields are already present,
// otherwise the Metadata Generator's result is merged in.
func (r *Runner) generateMetadata(ctx context.Context, task *domain.Task) error {
	doc, err := r.documentStore.Get(ctx, task.DocumentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	content, err := r.contentPreview(ctx, doc.ID)
	if err != nil {
		return err
	}

	generated, _, err := r.metadata.Generate(ctx, doc.DocumentType, content, doc.FileMetadata, doc.Metadata)
	if err != nil {
		return err
	}

	if err := r.documentStore.UpdateMetadata(ctx, doc.ID, generated); err != nil {
		return err
	}

	return r.enqueueNext(ctx, task.Stage, doc.ID)
}

// generateEmbeddings implements spec 4.5's generate_embeddings stage:
// a no-op if the document already has embeddings (idempotent retry),
// otherwise every TextContent is chunked and embedded, one Embedding
// row per chunk. A chunk the gateway can't embed (nil vector) is
// skipped rather than failing the whole document.
func (r *Runner) generateEmbeddings(ctx context.Context, task *domain.Task) error {
	_, err, _ := r.embedSF.Do(task.DocumentID, func() (interface{}, error) {
		return nil, r.runGenerateEmbeddings(ctx, task)
	})
	return err
}

func (r *Runner) runGenerateEmbeddings(ctx context.Context, task *domain.Task) error {
	doc, err := r.documentStore.Get(ctx, task.DocumentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	count, err := r.embeddingStore.CountByDocument(ctx, doc.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return r.finishDocument(ctx, doc.ID)
	}

	texts, err := r.contentStore.GetTextByDocument(ctx, doc.ID)
	if err != nil {
		return err
	}

	chunking, embeddingModel := r.configSnapshot()
	chunkSize := task.ChunkSize
	if chunkSize <= 0 {
		chunkSize = chunking.ChunkSize
	}
	overlap := task.Overlap
	if overlap <= 0 {
		overlap = chunking.Overlap
	}

	gateway := r.services.Gateway()
	if gateway == nil {
		return domain.NewError(domain.KindEmbedding, "jobrunner.generateEmbeddings", "no embedding gateway configured", domain.ErrUnavailable)
	}

	model := embeddingModel
	if gateway.Degraded() {
		model = "fallback/deterministic"
	}

	for _, tc := range texts {
		chunks := r.chunker.Chunk(tc.Content, chunkSize, overlap)
		if len(chunks) == 0 {
			continue
		}

		vectors, err := gateway.Embed(ctx, chunks)
		if err != nil {
			return domain.NewError(domain.KindEmbedding, "jobrunner.generateEmbeddings", "embed call failed", err)
		}

		now := time.Now()
		for i, vec := range vectors {
			if vec == nil {
				continue
			}
			emb := &domain.Embedding{
				ID:             domain.GenerateID(),
				EmbeddableType: domain.EmbeddableText,
				EmbeddableID:   tc.ID,
				DocumentID:     doc.ID,
				ChunkIndex:     i,
				Content:        chunks[i],
				Vector:         vec,
				EmbeddingModel: model,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := r.embeddingStore.Save(ctx, emb); err != nil {
				return err
			}
			if r.vectorSearch != nil {
				if err := r.vectorSearch.IndexEmbedding(ctx, emb, doc); err != nil {
					return err
				}
			}
		}
	}

	return r.finishDocument(ctx, doc.ID)
}

func (r *Runner) finishDocument(ctx context.Context, documentID string) error {
	return r.documentStore.UpdateStatus(ctx, documentID, domain.StatusProcessed)
}

// contentPreview concatenates a document's text content (capped) for
// use as the metadata generator's prompt input.
func (r *Runner) contentPreview(ctx context.Context, documentID string) (string, error) {
	texts, err := r.contentStore.GetTextByDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	var preview string
	for _, t := range texts {
		preview += t.Content + "\n"
		if len(preview) > 2000 {
			break
		}
	}
	if len(preview) > 2000 {
		preview = preview[:2000]
	}
	return preview, nil
}

func extensionOf(location string) string {
	for i := len(location) - 1; i >= 0 && location[i] != '/'; i-- {
		if location[i] == '.' {
			return location[i:]
		}
	}
	return location
}
