package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
	"github.com/ragforge/ragcore/internal/runtime"
)

// MetadataService implements the Metadata Generator (C6): it builds a
// schema-constrained prompt per document_type, asks the chat service
// for JSON matching that schema, validates the response, and merges
// it over any caller-set metadata.
type MetadataService struct {
	services *runtime.Services
	logger   *slog.Logger
}

func NewMetadataService(services *runtime.Services, logger *slog.Logger) *MetadataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataService{services: services, logger: logger}
}

// Generate runs the Metadata Generator for one document. Per spec
// 4.4's generate_metadata semantics, it is a no-op if every required
// field named by the document's schema is already present in
// existing (the caller can set metadata ahead of ingestion to skip
// generation entirely). fileMetadata carries the system-derived file
// metadata (size, dimensions, duration, ...) the prompt includes for
// PDFs and image/audio media.
func (m *MetadataService) Generate(ctx context.Context, docType domain.DocumentType, content string, fileMetadata domain.FileMetadata, existing domain.Metadata) (domain.Metadata, []domain.ValidationWarning, error) {
	schema := domain.SchemaFor(docType)
	if hasAllRequired(schema, existing) {
		return existing, nil, nil
	}

	raw, err := m.generateCandidate(ctx, schema, content, fileMetadata)
	if err != nil {
		m.logger.Warn("metadata generation degraded to heuristic extraction", "document_type", docType, "error", err)
		raw = m.heuristicCandidate(ctx, schema, content)
	}

	cleaned, warnings := schema.Validate(raw)
	for _, w := range warnings {
		m.logger.Warn("metadata validation warning", "field", w.Field, "reason", w.Reason)
	}

	return existing.MergeOver(cleaned), warnings, nil
}

func hasAllRequired(schema domain.MetadataSchema, metadata domain.Metadata) bool {
	for _, field := range schema.RequiredFields() {
		if _, ok := metadata[field]; !ok {
			return false
		}
	}
	return true
}

// generateCandidate prompts the chat service for schema-shaped JSON.
func (m *MetadataService) generateCandidate(ctx context.Context, schema domain.MetadataSchema, content string, fileMetadata domain.FileMetadata) (domain.Metadata, error) {
	chat := m.services.ChatService()
	if chat == nil {
		return nil, domain.NewError(domain.KindGeneration, "metadata.generateCandidate", "no chat service configured", domain.ErrUnavailable)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: "You extract structured metadata from document content and respond with a single JSON object and nothing else."},
		{Role: "user", Content: promptFor(schema, content, fileMetadata)},
	}
	resp, err := chat.Complete(ctx, messages, driven.ChatOptions{
		MaxTokens:      512,
		JSONSchemaHint: schemaHint(schema),
	})
	if err != nil {
		return nil, err
	}

	var candidate domain.Metadata
	if err := json.Unmarshal([]byte(extractJSON(resp)), &candidate); err != nil {
		return nil, domain.NewError(domain.KindGeneration, "metadata.generateCandidate", "response was not valid JSON", err)
	}
	return candidate, nil
}

// promptFor builds the metadata-generation prompt: the schema's
// document type and required fields, the file metadata for types
// where the content alone doesn't describe the source (PDFs and
// image/audio media), and a content preview capped at ~2000 chars.
func promptFor(schema domain.MetadataSchema, content string, fileMetadata domain.FileMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document type: %s\n", schema.DocumentType)
	b.WriteString("Required fields: ")
	b.WriteString(strings.Join(schema.RequiredFields(), ", "))

	if len(fileMetadata) > 0 && needsFileMetadata(schema.DocumentType) {
		if raw, err := json.Marshal(fileMetadata); err == nil {
			b.WriteString("\n\nFile metadata:\n")
			b.Write(raw)
		}
	}

	b.WriteString("\n\nContent:\n")
	if len(content) > 2000 {
		content = content[:2000]
	}
	b.WriteString(content)
	return b.String()
}

// needsFileMetadata reports whether a document type's content alone
// doesn't describe the source well enough, so the prompt should also
// carry the caller-supplied file metadata (size, dimensions, duration).
func needsFileMetadata(docType domain.DocumentType) bool {
	switch docType {
	case domain.DocumentTypePDF, domain.DocumentTypeImage, domain.DocumentTypeAudio:
		return true
	default:
		return false
	}
}

func schemaHint(schema domain.MetadataSchema) string {
	parts := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		desc := f.Name
		if len(f.Enum) > 0 {
			desc += " (one of: " + strings.Join(f.Enum, ", ") + ")"
		}
		if f.IsArray {
			desc += " (array)"
		}
		parts = append(parts, desc)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// extractJSON trims a response down to its outermost {...} block, in
// case the model wrapped the object in prose despite instructions.
func extractJSON(resp string) string {
	start := strings.IndexByte(resp, '{')
	end := strings.LastIndexByte(resp, '}')
	if start == -1 || end == -1 || end < start {
		return resp
	}
	return resp[start : end+1]
}

// heuristicCandidate produces a best-effort metadata candidate without
// an LLM, using the gateway's deterministic fallback summarizer and
// keyword extractor so generate_metadata never hard-fails (spec 4.4's
// "fallback never surfaces as an error" contract shared with C5).
func (m *MetadataService) heuristicCandidate(ctx context.Context, schema domain.MetadataSchema, content string) domain.Metadata {
	out := domain.Metadata{"classification": "other"}
	gw := m.services.Gateway()
	if gw == nil {
		return out
	}
	if summary, err := gw.Summarize(ctx, content, 500); err == nil {
		out["summary"] = summary
	}
	if keywords, err := gw.ExtractKeywords(ctx, content, 10); err == nil {
		out["keywords"] = keywords
	}
	return out
}
