package driving

import (
	"context"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

// AddDocumentInput carries the inputs to Client.AddDocument: either a
// file path (Location) or raw bytes (Blob) plus the caller-asserted
// DocumentType and any caller-set Metadata that should win merges
// against AI-generated metadata.
type AddDocumentInput struct {
	Location     string
	Blob         []byte
	DocumentType domain.DocumentType
	Title        string
	Metadata     domain.Metadata
}

// AddDocumentResult reports the outcome of one AddDocument call, per
// spec 4.7: on failure Success is false and Message explains why;
// AddDocument also returns the error alongside the result.
type AddDocumentResult struct {
	Success          bool
	DocumentID       string
	Title            string
	DocumentType     domain.DocumentType
	ContentLength    int
	EmbeddingsQueued bool
	Message          string
	Document         *domain.Document
}

// AddDirectoryResult reports the per-file outcome of a directory walk,
// since a partial failure in one file must not abort the whole batch.
// ResumeToken is set only when the walk stopped early because ctx was
// canceled; passing it to ResumeDirectory picks the walk back up from
// the last file it finished, even from a different process.
type AddDirectoryResult struct {
	Added       []*AddDocumentResult
	Failed      map[string]error
	ResumeToken string
}

// ContextChunk is one retrieved chunk backing a GetContext result.
type ContextChunk struct {
	Content    string
	Source     string
	Similarity float64
	ChunkIndex int
}

// GetContextResult is spec 4.7's get_context response: the chunks
// retrieved, their concatenation, and how many chunks contributed.
type GetContextResult struct {
	ContextChunks   []ContextChunk
	CombinedContext string
	TotalChunks     int
}

// EnhancePromptResult is spec 4.7's enhance_prompt response.
// ContextCount is 0 when no context was found, in which case Prompt
// is the original prompt, returned verbatim.
type EnhancePromptResult struct {
	Prompt       string
	ContextCount int
}

// Client is the single façade (C9) applications embed: ingestion,
// search, document management, and runtime configuration.
type Client interface {
	AddDocument(ctx context.Context, in AddDocumentInput) (*AddDocumentResult, error)
	AddText(ctx context.Context, text, title string, metadata domain.Metadata) (*AddDocumentResult, error)
	// includeImages opts into ingesting image files the walk finds;
	// by default they're skipped since AddDocument has no use for a
	// raw image's bytes without an AI vision path to describe it.
	AddDirectory(ctx context.Context, dirPath string, recursive, includeImages bool) (*AddDirectoryResult, error)
	// ResumeDirectory continues a directory walk that stopped early,
	// using a ResumeToken a prior AddDirectory call returned.
	ResumeDirectory(ctx context.Context, resumeToken string) (*AddDirectoryResult, error)

	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error)
	SearchSimilarContent(ctx context.Context, embeddableType domain.EmbeddableType, embeddableID string, opts domain.SearchOptions) (*domain.SearchResult, error)
	HybridSearch(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error)
	GetContext(ctx context.Context, query string, opts domain.SearchOptions) (*GetContextResult, error)
	EnhancePrompt(ctx context.Context, prompt string, opts domain.SearchOptions) (*EnhancePromptResult, error)

	DocumentStatus(ctx context.Context, id string) (domain.DocumentStatus, error)
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	UpdateDocument(ctx context.Context, id string, metadata domain.Metadata) error
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, filter driven.DocumentFilter) ([]*domain.Document, error)

	Stats(ctx context.Context) (*domain.Stats, error)
	Healthy(ctx context.Context) bool

	Configure(ctx context.Context, cfg *domain.Config) error
	ResetConfiguration(ctx context.Context) error
}
