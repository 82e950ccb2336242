package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ragforge/ragcore/internal/adapters/driven/ai"
	"github.com/ragforge/ragcore/internal/capability"
	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
	"github.com/ragforge/ragcore/internal/core/ports/driving"
	"github.com/ragforge/ragcore/internal/jobrunner"
	"github.com/ragforge/ragcore/internal/runtime"
	"golang.org/x/crypto/blake2b"
)

var _ driving.Client = (*client)(nil)

// client is the single façade (C9) applications embed: ingestion,
// search, document management, and runtime (re)configuration. It
// composes the lower-level services rather than reimplementing them,
// the same role the donor's HTTP handlers played over its services,
// minus the HTTP transport.
type client struct {
	documentService driving.DocumentService
	searchService   driving.SearchService
	metadata        *MetadataService

	documentStore  driven.DocumentStore
	contentStore   driven.ContentStore
	embeddingStore driven.EmbeddingStore
	vectorSearch   driven.VectorSearch
	taskQueue      driven.TaskQueue
	parsers        driven.ParserRegistry
	chunker        driven.Chunker

	runner   *jobrunner.Runner
	services *runtime.Services
	factory  driven.AIServiceFactory
	tokens   *capability.Issuer

	config *domain.Config
	logger *slog.Logger
}

// ClientConfig wires every dependency Client needs. Callers assemble
// this once at process start from the chosen storage/queue backends.
type ClientConfig struct {
	DocumentStore  driven.DocumentStore
	ContentStore   driven.ContentStore
	EmbeddingStore driven.EmbeddingStore
	VectorSearch   driven.VectorSearch
	TaskQueue      driven.TaskQueue
	Lock           driven.DistributedLock
	Parsers        driven.ParserRegistry
	Chunker        driven.Chunker
	Services       *runtime.Services
	Factory        driven.AIServiceFactory
	Config         *domain.Config
	Logger         *slog.Logger
	RunnerConcurrency int
	// CapabilitySecret signs AddDirectory resume tokens. It must stay
	// stable across restarts for ResumeDirectory to verify tokens a
	// prior process issued; an empty value falls back to a fixed
	// development secret and logs a warning.
	CapabilitySecret []byte
}

// NewClient builds the façade and the job runner behind it, applying
// cfg.Config's AI provider settings immediately so the gateway is
// live before the first document is added.
func NewClient(ctx context.Context, cfg ClientConfig) (driving.Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	conf := cfg.Config
	if conf == nil {
		conf = domain.DefaultConfig()
	}
	factory := cfg.Factory
	if factory == nil {
		factory = ai.NewFactory()
	}
	secret := cfg.CapabilitySecret
	if len(secret) == 0 {
		logger.Warn("no capability secret configured, using insecure development default")
		secret = []byte("ragcore-development-capability-secret")
	}

	metadataSvc := NewMetadataService(cfg.Services, logger)
	documentSvc := NewDocumentService(cfg.DocumentStore, cfg.ContentStore, cfg.EmbeddingStore, cfg.VectorSearch)
	searchSvc := NewSearchService(cfg.VectorSearch, cfg.EmbeddingStore, cfg.Services)

	runner := jobrunner.New(jobrunner.Config{
		TaskQueue:      cfg.TaskQueue,
		Lock:           cfg.Lock,
		DocumentStore:  cfg.DocumentStore,
		ContentStore:   cfg.ContentStore,
		EmbeddingStore: cfg.EmbeddingStore,
		VectorSearch:   cfg.VectorSearch,
		Parsers:        cfg.Parsers,
		Chunker:        cfg.Chunker,
		Metadata:       metadataSvc,
		Services:       cfg.Services,
		Chunking:       conf.Chunking,
		EmbeddingModel: conf.DefaultEmbeddingProvider,
		Logger:         logger,
		Concurrency:    cfg.RunnerConcurrency,
	})

	c := &client{
		documentService: documentSvc,
		searchService:   searchSvc,
		metadata:        metadataSvc,
		documentStore:   cfg.DocumentStore,
		contentStore:    cfg.ContentStore,
		embeddingStore:  cfg.EmbeddingStore,
		vectorSearch:    cfg.VectorSearch,
		taskQueue:       cfg.TaskQueue,
		parsers:         cfg.Parsers,
		chunker:         cfg.Chunker,
		runner:          runner,
		services:        cfg.Services,
		factory:         factory,
		tokens:          capability.NewIssuer(secret, 0),
		config:          conf,
		logger:          logger,
	}

	if err := c.applyProviders(ctx, conf); err != nil {
		logger.Warn("starting with degraded AI providers", "error", err)
	}

	runner.Start(ctx)

	return c, nil
}

func (c *client) AddDocument(ctx context.Context, in driving.AddDocumentInput) (*driving.AddDocumentResult, error) {
	blob := in.Blob
	if blob == nil && in.Location != "" {
		data, err := os.ReadFile(in.Location)
		if err != nil {
			return &driving.AddDocumentResult{Message: "failed to read file: " + err.Error()},
				domain.NewError(domain.KindDocument, "client.AddDocument", "failed to read file", err)
		}
		blob = data
	}
	if len(blob) == 0 {
		return &driving.AddDocumentResult{Message: "no content supplied (location and blob both empty)"},
			domain.NewError(domain.KindDocument, "client.AddDocument", "no content supplied (location and blob both empty)", domain.ErrInvalidInput)
	}

	hash := contentHash(blob)
	if existing, err := c.documentStore.GetByLocationAndHash(ctx, in.Location, hash); err == nil {
		return documentAddedResult(existing, false, "document already ingested"), nil
	}

	docType := in.DocumentType
	if docType == "" {
		docType = inferDocumentType(in.Location)
	}

	title := in.Title
	if title == "" {
		title = titleFromLocation(in.Location)
	}

	doc := &domain.Document{
		ID:           domain.GenerateID(),
		Location:     in.Location,
		Title:        title,
		DocumentType: docType,
		Status:       domain.StatusPending,
		ContentHash:  hash,
		Metadata:     in.Metadata,
		FileMetadata: domain.FileMetadata{"size_bytes": len(blob)},
		FileBlob:     blob,
	}
	if err := c.documentStore.Save(ctx, doc); err != nil {
		return &driving.AddDocumentResult{Message: "failed to save document: " + err.Error()}, err
	}

	if err := c.taskQueue.Enqueue(ctx, domain.NewTask(doc.ID, domain.StageExtractText)); err != nil {
		return &driving.AddDocumentResult{DocumentID: doc.ID, Message: "failed to queue processing: " + err.Error()}, err
	}

	return documentAddedResult(doc, true, "document queued for processing"), nil
}

// documentAddedResult builds the add_document response record (spec
// 4.7). embeddingsQueued is false for an already-ingested document
// returned from the dedup path, since no new processing task exists.
func documentAddedResult(doc *domain.Document, embeddingsQueued bool, message string) *driving.AddDocumentResult {
	return &driving.AddDocumentResult{
		Success:          true,
		DocumentID:       doc.ID,
		Title:            doc.Title,
		DocumentType:     doc.DocumentType,
		ContentLength:    len(doc.FileBlob),
		EmbeddingsQueued: embeddingsQueued,
		Message:          message,
		Document:         doc,
	}
}

func (c *client) AddText(ctx context.Context, text, title string, metadata domain.Metadata) (*driving.AddDocumentResult, error) {
	return c.AddDocument(ctx, driving.AddDocumentInput{
		Blob:         []byte(text),
		DocumentType: domain.DocumentTypeText,
		Title:        title,
		Metadata:     metadata,
	})
}

// AddDirectory walks dirPath, adding every file it can read as a
// document. A per-file failure is recorded in Failed rather than
// aborting the walk, since one malformed file shouldn't block the
// rest of a batch import. If ctx is canceled mid-walk, the walk stops
// and the result carries a signed ResumeToken that ResumeDirectory
// can use to pick the walk back up, including from a fresh process.
func (c *client) AddDirectory(ctx context.Context, dirPath string, recursive, includeImages bool) (*driving.AddDirectoryResult, error) {
	return c.walkDirectory(ctx, dirPath, "", recursive, includeImages)
}

// ResumeDirectory continues a walk a ResumeToken describes, skipping
// every path up to and including the cursor it was issued at.
func (c *client) ResumeDirectory(ctx context.Context, resumeToken string) (*driving.AddDirectoryResult, error) {
	claims, err := c.tokens.Parse(resumeToken)
	if err != nil {
		return nil, domain.NewError(domain.KindDocument, "client.ResumeDirectory", "invalid or expired resume token", err)
	}
	return c.walkDirectory(ctx, claims.DirPath, claims.Cursor, claims.Recursive, claims.IncludeImages)
}

// walkDirectory is the shared implementation behind AddDirectory and
// ResumeDirectory. afterCursor, when non-empty, skips every path that
// sorts at or before it; WalkDir visits paths in lexical order so a
// cursor unambiguously marks how far a prior walk got. Image files are
// skipped by default, matching AddDocument's lack of a vision path to
// make use of raw image bytes; includeImages opts back in.
func (c *client) walkDirectory(ctx context.Context, dirPath, afterCursor string, recursive, includeImages bool) (*driving.AddDirectoryResult, error) {
	result := &driving.AddDirectoryResult{Failed: make(map[string]error)}
	var lastPath string

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			result.Failed[path] = err
			return nil
		}
		if d.IsDir() {
			if !recursive && path != dirPath {
				return filepath.SkipDir
			}
			return nil
		}
		if afterCursor != "" && path <= afterCursor {
			return nil
		}
		if !includeImages && inferDocumentType(path) == domain.DocumentTypeImage {
			return nil
		}

		added, addErr := c.AddDocument(ctx, driving.AddDocumentInput{Location: path})
		if addErr != nil {
			result.Failed[path] = addErr
		} else {
			result.Added = append(result.Added, added)
		}
		lastPath = path
		return nil
	}

	err := filepath.WalkDir(dirPath, walkFn)
	if err != nil {
		cursor := afterCursor
		if lastPath != "" {
			cursor = lastPath
		}
		token, tokenErr := c.tokens.Issue(dirPath, cursor, recursive, includeImages)
		if tokenErr == nil {
			result.ResumeToken = token
		} else {
			c.logger.Error("failed to issue directory walk resume token", "error", tokenErr)
		}
		return result, err
	}
	return result, nil
}

func (c *client) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	return c.searchService.Search(ctx, query, opts)
}

// SearchSimilarContent finds content similar to an existing
// embeddable by averaging its chunk vectors and running the same
// nearest-neighbor primitive Search uses, excluding the source
// embeddable's own chunks from the results.
func (c *client) SearchSimilarContent(ctx context.Context, embeddableType domain.EmbeddableType, embeddableID string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	embeddings, err := c.embeddingStore.GetByEmbeddable(ctx, embeddableType, embeddableID)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, domain.NewError(domain.KindSearch, "client.SearchSimilarContent", "embeddable has no embeddings", domain.ErrNotFound)
	}

	vector := averageVectors(embeddings)
	opts = withSearchDefaults(opts)

	candidates, err := c.vectorSearch.NearestNeighbors(ctx, vector, opts.Limit*2, opts.Filters)
	if err != nil {
		return nil, err
	}

	own := make(map[string]bool, len(embeddings))
	for _, e := range embeddings {
		own[e.ID] = true
	}

	hits := make([]domain.Hit, 0, len(candidates))
	for _, cand := range candidates {
		if own[cand.EmbeddingID] {
			continue
		}
		similarity := 1 - cand.Distance
		if similarity < opts.SimilarityThreshold {
			continue
		}
		hits = append(hits, domain.Hit{
			EmbeddingID:      cand.EmbeddingID,
			Content:          cand.Content,
			DocumentID:       cand.DocumentID,
			DocumentTitle:    cand.DocumentTitle,
			DocumentLocation: cand.DocumentLocation,
			ChunkIndex:       cand.ChunkIndex,
			Similarity:       similarity,
			Distance:         cand.Distance,
			CombinedScore:    similarity,
			Metadata:         cand.Metadata,
			SearchTypes:      []domain.SearchMode{domain.SearchModeSemantic},
		})
	}
	if len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}

	return &domain.SearchResult{Results: hits, TotalResults: len(hits)}, nil
}

func (c *client) HybridSearch(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	return c.searchService.HybridSearch(ctx, query, opts)
}

func (c *client) GetContext(ctx context.Context, query string, opts domain.SearchOptions) (*driving.GetContextResult, error) {
	return c.searchService.GetContext(ctx, query, opts)
}

func (c *client) EnhancePrompt(ctx context.Context, prompt string, opts domain.SearchOptions) (*driving.EnhancePromptResult, error) {
	return c.searchService.EnhancePrompt(ctx, prompt, opts)
}

func (c *client) DocumentStatus(ctx context.Context, id string) (domain.DocumentStatus, error) {
	doc, err := c.documentService.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Status, nil
}

func (c *client) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return c.documentService.Get(ctx, id)
}

func (c *client) UpdateDocument(ctx context.Context, id string, metadata domain.Metadata) error {
	return c.documentService.UpdateMetadata(ctx, id, metadata)
}

func (c *client) DeleteDocument(ctx context.Context, id string) error {
	return c.documentService.Delete(ctx, id)
}

func (c *client) ListDocuments(ctx context.Context, filter driven.DocumentFilter) ([]*domain.Document, error) {
	return c.documentService.List(ctx, filter)
}

func (c *client) Stats(ctx context.Context) (*domain.Stats, error) {
	docCount, err := c.documentService.Count(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int)
	for _, status := range []domain.DocumentStatus{domain.StatusPending, domain.StatusProcessing, domain.StatusProcessed, domain.StatusError} {
		docs, err := c.documentService.List(ctx, driven.DocumentFilter{Status: status, Limit: 1})
		if err == nil && len(docs) > 0 {
			byStatus[string(status)] = len(docs)
		}
	}

	gw := c.services.Gateway()
	return &domain.Stats{
		DocumentCount:      docCount,
		DocumentsByStatus:  byStatus,
		Degraded:           gw == nil || gw.Degraded(),
		EmbeddingAvailable: gw != nil,
		LLMAvailable:       gw != nil,
	}, nil
}

func (c *client) Healthy(ctx context.Context) bool {
	if _, err := c.documentService.Count(ctx); err != nil {
		return false
	}
	if err := c.vectorSearch.HealthCheck(ctx); err != nil {
		return false
	}
	if err := c.taskQueue.Ping(ctx); err != nil {
		return false
	}
	return true
}

// Configure replaces the active configuration: it builds new
// embedding/chat services from cfg's provider settings, swaps in a new
// gateway, updates the job runner's chunking and embedding-model
// defaults, and replaces c.config. A provider that fails to build is
// logged and left on the gateway's fallback path; it is not returned
// as an error.
func (c *client) Configure(ctx context.Context, cfg *domain.Config) error {
	if err := c.applyProviders(ctx, cfg); err != nil {
		c.logger.Warn("configured with degraded AI providers", "error", err)
	}
	c.runner.UpdateConfig(cfg.Chunking, cfg.DefaultEmbeddingProvider)
	c.config = cfg.Clone()
	return nil
}

func (c *client) ResetConfiguration(ctx context.Context) error {
	return c.Configure(ctx, domain.DefaultConfig())
}

// applyProviders builds an embedding/chat service pair from cfg and
// installs a fresh gateway wrapping them. A provider that fails to
// construct degrades that capability rather than failing Configure
// outright, matching the gateway's own "never hard-fail" contract.
func (c *client) applyProviders(ctx context.Context, cfg *domain.Config) error {
	var embedding driven.EmbeddingService
	var chat driven.ChatService
	var errs []string

	if cfg.DefaultEmbeddingProvider != "" {
		provider, _, _ := strings.Cut(cfg.DefaultEmbeddingProvider, "/")
		svc, err := c.factory.CreateEmbeddingService(cfg.DefaultEmbeddingProvider, cfg.Credentials[domain.Provider(provider)])
		if err != nil {
			errs = append(errs, fmt.Sprintf("embedding: %v", err))
		} else {
			embedding = svc
		}
	}
	if cfg.DefaultChatProvider != "" {
		provider, _, _ := strings.Cut(cfg.DefaultChatProvider, "/")
		svc, err := c.factory.CreateChatService(cfg.DefaultChatProvider, cfg.Credentials[domain.Provider(provider)])
		if err != nil {
			errs = append(errs, fmt.Sprintf("chat: %v", err))
		} else {
			chat = svc
		}
	}

	c.services.SetEmbeddingService(embedding)
	c.services.SetChatService(chat)
	c.services.SetGateway(ai.NewGateway(embedding, chat, cfg.Summarization, c.logger))

	if len(errs) > 0 {
		return domain.NewError(domain.KindConfiguration, "client.applyProviders", strings.Join(errs, "; "), nil)
	}
	return nil
}

// contentHash fingerprints a document's bytes for re-ingestion
// detection. blake2b rather than sha256 to match this corpus's
// existing use of x/crypto for content fingerprinting.
func contentHash(blob []byte) string {
	sum := blake2b.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

func titleFromLocation(location string) string {
	if location == "" {
		return ""
	}
	base := filepath.Base(location)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}

func inferDocumentType(location string) domain.DocumentType {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".pdf":
		return domain.DocumentTypePDF
	case ".docx":
		return domain.DocumentTypeDOCX
	case ".html", ".htm":
		return domain.DocumentTypeHTML
	case ".md", ".markdown":
		return domain.DocumentTypeMarkdown
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return domain.DocumentTypeImage
	case ".mp3", ".wav", ".flac", ".ogg":
		return domain.DocumentTypeAudio
	default:
		return domain.DocumentTypeText
	}
}

func withSearchDefaults(opts domain.SearchOptions) domain.SearchOptions {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = 0.7
	}
	return opts
}

func averageVectors(embeddings []*domain.Embedding) []float32 {
	if len(embeddings) == 0 {
		return nil
	}
	dims := len(embeddings[0].Vector)
	out := make([]float32, dims)
	for _, e := range embeddings {
		for i := 0; i < dims && i < len(e.Vector); i++ {
			out[i] += e.Vector[i]
		}
	}
	for i := range out {
		out[i] /= float32(len(embeddings))
	}
	return out
}
