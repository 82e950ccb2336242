package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
	"github.com/ragforge/ragcore/internal/core/ports/driving"
	"github.com/ragforge/ragcore/internal/runtime"
)

var _ driving.SearchService = (*searchService)(nil)

// searchService implements SearchService (C8): semantic/lexical/hybrid
// retrieval with usage-aware ranking. AI services are read dynamically
// from runtime.Services since Client.Configure can swap them.
type searchService struct {
	vectorSearch   driven.VectorSearch
	embeddingStore driven.EmbeddingStore
	services       *runtime.Services
}

func NewSearchService(
	vectorSearch driven.VectorSearch,
	embeddingStore driven.EmbeddingStore,
	services *runtime.Services,
) driving.SearchService {
	return &searchService{
		vectorSearch:   vectorSearch,
		embeddingStore: embeddingStore,
		services:       services,
	}
}

// Search runs spec 4.6's semantic ranking pipeline: embed the query,
// overfetch k=2*limit nearest neighbors, filter by similarity
// threshold, rank by combined_score, record usage, and trim to limit.
func (s *searchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	opts = s.withDefaults(opts)

	queryVector, err := s.embedQuery(ctx, query)
	if err != nil {
		return s.lexicalOnly(ctx, query, opts)
	}

	candidates, err := s.vectorSearch.NearestNeighbors(ctx, queryVector, opts.Limit*2, opts.Filters)
	if err != nil {
		return nil, err
	}

	hits := s.rank(candidates, opts, []domain.SearchMode{domain.SearchModeSemantic})
	hits = filterBySimilarity(hits, opts.SimilarityThreshold)
	sortByCombinedScoreDesc(hits)
	if len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}

	s.recordUsage(ctx, hits)

	return &domain.SearchResult{Query: query, Results: hits, TotalResults: len(hits)}, nil
}

// HybridSearch fuses semantic and lexical candidates, deduped by
// document id, weighted by SemanticWeight/TextWeight (spec 4.6).
func (s *searchService) HybridSearch(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	opts = s.withDefaults(opts)

	var semanticHits, lexicalHits []domain.Hit

	if queryVector, err := s.embedQuery(ctx, query); err == nil {
		candidates, err := s.vectorSearch.NearestNeighbors(ctx, queryVector, opts.Limit*2, opts.Filters)
		if err == nil {
			semanticHits = s.rank(candidates, opts, []domain.SearchMode{domain.SearchModeSemantic})
		}
	}

	lexCandidates, err := s.vectorSearch.LexicalSearch(ctx, query, opts.Limit*2, opts.Filters)
	if err == nil {
		lexicalHits = s.rank(lexCandidates, opts, []domain.SearchMode{domain.SearchModeLexical})
	}

	fused := fuseHybrid(semanticHits, lexicalHits, opts.SemanticWeight, opts.TextWeight)
	fused = filterBySimilarity(fused, opts.SimilarityThreshold)
	sortByCombinedScoreDesc(fused)
	if len(fused) > opts.Limit {
		fused = fused[:opts.Limit]
	}

	s.recordUsage(ctx, fused)

	return &domain.SearchResult{Query: query, Results: fused, TotalResults: len(fused)}, nil
}

// FacetedSearch narrows Search's results by the given facet filters,
// applied after ranking since facets match against metadata the
// storage layer's query primitives don't natively filter on.
func (s *searchService) FacetedSearch(ctx context.Context, query string, facets domain.FacetFilters, opts domain.SearchOptions) (*domain.SearchResult, error) {
	result, err := s.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	result.Results = applyFacets(result.Results, facets)
	result.TotalResults = len(result.Results)
	return result, nil
}

// promptTemplate is the default splice point for EnhancePrompt: it
// substitutes {{prompt}} and {{context}} rather than hardcoding a
// fixed layout, so a caller-supplied template could drop in later
// without changing the retrieval side.
const promptTemplate = "{{prompt}}\n\nContext:\n{{context}}"

// GetContext assembles a context window from the top search hits. It
// returns each contributing chunk individually (content, source,
// similarity, chunk_index) alongside the concatenation a caller can
// splice directly into a prompt.
func (s *searchService) GetContext(ctx context.Context, query string, opts domain.SearchOptions) (*driving.GetContextResult, error) {
	result, err := s.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	chunks := make([]driving.ContextChunk, len(result.Results))
	var combined strings.Builder
	for i, hit := range result.Results {
		source := hit.DocumentTitle
		if source == "" {
			source = hit.DocumentLocation
		}
		chunks[i] = driving.ContextChunk{
			Content:    hit.Content,
			Source:     source,
			Similarity: hit.Similarity,
			ChunkIndex: hit.ChunkIndex,
		}
		if i > 0 {
			combined.WriteString("\n\n")
		}
		combined.WriteString(hit.Content)
	}

	return &driving.GetContextResult{
		ContextChunks:   chunks,
		CombinedContext: combined.String(),
		TotalChunks:     len(chunks),
	}, nil
}

// EnhancePrompt splices retrieved context into promptTemplate. When no
// context is found, it returns prompt verbatim with ContextCount 0
// rather than substituting an empty context block.
func (s *searchService) EnhancePrompt(ctx context.Context, prompt string, opts domain.SearchOptions) (*driving.EnhancePromptResult, error) {
	ctxResult, err := s.GetContext(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	if ctxResult.TotalChunks == 0 {
		return &driving.EnhancePromptResult{Prompt: prompt, ContextCount: 0}, nil
	}

	enhanced := strings.NewReplacer("{{prompt}}", prompt, "{{context}}", ctxResult.CombinedContext).Replace(promptTemplate)
	return &driving.EnhancePromptResult{Prompt: enhanced, ContextCount: ctxResult.TotalChunks}, nil
}

func (s *searchService) withDefaults(opts domain.SearchOptions) domain.SearchOptions {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = 0.7
	}
	if opts.SemanticWeight == 0 && opts.TextWeight == 0 {
		opts.SemanticWeight, opts.TextWeight = 0.7, 0.3
	}
	return opts
}

func (s *searchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if gw := s.services.Gateway(); gw != nil {
		return gw.EmbedOne(ctx, query)
	}
	emb := s.services.EmbeddingService()
	if emb == nil {
		return nil, domain.NewError(domain.KindSearch, "search.embedQuery", "no embedding service configured", domain.ErrUnavailable)
	}
	vectors, err := emb.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// lexicalOnly degrades Search to lexical-only ranking when no
// embedding capability is available, per the runtime's degraded-mode
// contract (domain.RuntimeConfig.EffectiveSearchMode).
func (s *searchService) lexicalOnly(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	candidates, err := s.vectorSearch.LexicalSearch(ctx, query, opts.Limit*2, opts.Filters)
	if err != nil {
		return nil, err
	}
	hits := s.rank(candidates, opts, []domain.SearchMode{domain.SearchModeLexical})
	sortByCombinedScoreDesc(hits)
	if len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	s.recordUsage(ctx, hits)
	return &domain.SearchResult{Query: query, Results: hits, TotalResults: len(hits)}, nil
}

func (s *searchService) rank(candidates []driven.Candidate, opts domain.SearchOptions, types []domain.SearchMode) []domain.Hit {
	lexical := len(types) == 1 && types[0] == domain.SearchModeLexical

	hits := make([]domain.Hit, 0, len(candidates))
	now := time.Now()
	for _, c := range candidates {
		similarity := 1 - c.Distance
		if lexical {
			similarity = normalizeTextRank(c.TextRank)
		}
		usageScore := domain.UsageScore(c.UsageCount, c.ReturnedAt, now)
		hits = append(hits, domain.Hit{
			EmbeddingID:       c.EmbeddingID,
			Content:           c.Content,
			DocumentID:        c.DocumentID,
			DocumentTitle:     c.DocumentTitle,
			DocumentLocation:  c.DocumentLocation,
			DocumentCreatedAt: c.DocumentCreatedAt,
			ChunkIndex:        c.ChunkIndex,
			Similarity:        similarity,
			Distance:          c.Distance,
			UsageScore:        usageScore,
			CombinedScore:     similarity + usageScore,
			Metadata:          c.Metadata,
			SearchTypes:       types,
		})
	}
	return hits
}

func (s *searchService) recordUsage(ctx context.Context, hits []domain.Hit) {
	if len(hits) == 0 {
		return
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.EmbeddingID
	}
	_ = s.embeddingStore.RecordUsageBatch(ctx, ids)
}

// normalizeTextRank maps a backend's unbounded text-relevance score
// into the same [0,1] similarity space semantic hits use, so
// filterBySimilarity and fuseHybrid's scoring treat both search modes
// consistently instead of every lexical hit reading as a perfect match.
func normalizeTextRank(rank float64) float64 {
	if rank > 1 {
		return 1
	}
	if rank < 0 {
		return 0
	}
	return rank
}

func filterBySimilarity(hits []domain.Hit, threshold float64) []domain.Hit {
	out := make([]domain.Hit, 0, len(hits))
	for _, h := range hits {
		if h.Similarity >= threshold {
			out = append(out, h)
		}
	}
	return out
}

func sortByCombinedScoreDesc(hits []domain.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].CombinedScore > hits[j].CombinedScore
	})
}

// fuseHybrid merges semantic and lexical hit lists, deduped by
// document id, scoring each surviving hit as
// semanticWeight*combined_semantic + textWeight*combined_lexical.
func fuseHybrid(semantic, lexical []domain.Hit, semanticWeight, textWeight float64) []domain.Hit {
	byDoc := make(map[string]*domain.Hit)
	order := make([]string, 0)

	for _, h := range semantic {
		h := h
		h.CombinedScore = semanticWeight * h.CombinedScore
		h.SearchTypes = []domain.SearchMode{domain.SearchModeSemantic}
		byDoc[h.DocumentID] = &h
		order = append(order, h.DocumentID)
	}
	for _, h := range lexical {
		if existing, ok := byDoc[h.DocumentID]; ok {
			existing.CombinedScore += textWeight * h.CombinedScore
			existing.SearchTypes = append(existing.SearchTypes, domain.SearchModeLexical)
			continue
		}
		h := h
		h.CombinedScore = textWeight * h.CombinedScore
		h.SearchTypes = []domain.SearchMode{domain.SearchModeLexical}
		byDoc[h.DocumentID] = &h
		order = append(order, h.DocumentID)
	}

	out := make([]domain.Hit, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, docID := range order {
		if seen[docID] {
			continue
		}
		seen[docID] = true
		out = append(out, *byDoc[docID])
	}
	return out
}

func applyFacets(hits []domain.Hit, facets domain.FacetFilters) []domain.Hit {
	out := make([]domain.Hit, 0, len(hits))
	for _, h := range hits {
		if !matchesFacets(h, facets) {
			continue
		}
		out = append(out, h)
	}
	return out
}

func matchesFacets(h domain.Hit, facets domain.FacetFilters) bool {
	if facets.Classification != "" {
		if cls, _ := h.Metadata["classification"].(string); cls != facets.Classification {
			return false
		}
	}
	if len(facets.Keywords) > 0 {
		keywords, _ := h.Metadata["keywords"].([]string)
		for _, want := range facets.Keywords {
			if !containsSubstring(keywords, want) {
				return false
			}
		}
	}
	if len(facets.Tags) > 0 {
		tags, _ := h.Metadata["tags"].([]string)
		for _, want := range facets.Tags {
			if !containsString(tags, want) {
				return false
			}
		}
	}
	if facets.CreatedAfter != nil && h.DocumentCreatedAt.Before(*facets.CreatedAfter) {
		return false
	}
	if facets.CreatedBefore != nil && h.DocumentCreatedAt.After(*facets.CreatedBefore) {
		return false
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// containsSubstring reports whether any element of haystack contains
// needle as a substring, matching spec 4.6's AND-of-substring keyword
// filter (as opposed to tags, which are array-contains exact matches).
func containsSubstring(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
