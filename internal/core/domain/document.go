package domain

import "time"

// DocumentType drives parser, chunker, and metadata-schema selection.
type DocumentType string

const (
	DocumentTypeText     DocumentType = "text"
	DocumentTypeImage    DocumentType = "image"
	DocumentTypeAudio    DocumentType = "audio"
	DocumentTypePDF      DocumentType = "pdf"
	DocumentTypeDOCX     DocumentType = "docx"
	DocumentTypeHTML     DocumentType = "html"
	DocumentTypeMarkdown DocumentType = "markdown"
	DocumentTypeMixed    DocumentType = "mixed"
)

// DocumentStatus is the document's ingestion-pipeline lifecycle state.
// It transitions only along pending -> processing -> {processed, error}.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusError      DocumentStatus = "error"
)

// CanTransitionTo reports whether moving from s to next is a legal
// status transition under invariant 1.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusProcessed || next == StatusError
	default:
		return false
	}
}

// FileMetadata is system-derived metadata about the source file: size,
// MIME type, dimensions, duration, and similar facts. It never shares
// keys with the AI-derived Metadata namespace (invariant 6).
type FileMetadata map[string]any

// Document is one ingested source, the root of the polymorphic content
// tree described by invariant 4 (cascade delete) and invariant 5
// (Metadata conforms to the schema of DocumentType).
type Document struct {
	ID           string         `json:"id"`
	Location     string         `json:"location"`
	Title        string         `json:"title"`
	DocumentType DocumentType   `json:"document_type"`
	Status       DocumentStatus `json:"status"`
	ContentHash  string         `json:"content_hash"`
	Metadata     Metadata       `json:"metadata"`
	FileMetadata FileMetadata   `json:"file_metadata"`
	FileBlob     []byte         `json:"file_blob,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Metadata is AI-derived, schema-tagged metadata (see MetadataSchema).
// It is disjoint from FileMetadata (invariant 6): callers must never
// write file-derived facts into this map or vice versa.
type Metadata map[string]any

// Clone returns a shallow copy suitable for merge-over semantics
// (caller-set values win) without mutating the receiver.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MergeOver returns a new Metadata containing generated's keys,
// overwritten by any key already present in m (the caller-set values).
// Per spec 4.4, "generated metadata is merged over existing metadata
// (caller-set values win)".
func (m Metadata) MergeOver(generated Metadata) Metadata {
	out := generated.Clone()
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TextContent is the text-modality child of a Document.
type TextContent struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	Content        string    `json:"content"`
	EmbeddingModel string    `json:"embedding_model"`
	ChunkSize      int       `json:"chunk_size"`
	Overlap        int       `json:"overlap"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ImageContent is the image-modality child of a Document.
type ImageContent struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Description string    `json:"description"`
	AltText     string    `json:"alt_text"`
	ImageBlob   []byte    `json:"image_blob,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AudioContent is the audio-modality child of a Document.
type AudioContent struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Transcript string    `json:"transcript"`
	Duration   float64   `json:"duration_seconds"`
	SampleRate int       `json:"sample_rate"`
	AudioBlob  []byte    `json:"audio_blob,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DocumentWithContent bundles a Document with its modality-specific
// content children, mirroring the donor's DocumentWithChunks shape.
type DocumentWithContent struct {
	Document *Document       `json:"document"`
	Text     []*TextContent  `json:"text,omitempty"`
	Images   []*ImageContent `json:"images,omitempty"`
	Audio    []*AudioContent `json:"audio,omitempty"`
}
