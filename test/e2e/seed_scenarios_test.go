// Package e2e runs the seed scenarios from spec 8 end to end against
// an in-memory client built from the same in-memory test doubles the
// unit suites use, rather than against real storage.
package e2e

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/ragforge/ragcore/internal/adapters/driven/ai"
	"github.com/ragforge/ragcore/internal/chunker"
	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
	"github.com/ragforge/ragcore/internal/core/ports/driven/mocks"
	"github.com/ragforge/ragcore/internal/core/ports/driving"
	"github.com/ragforge/ragcore/internal/core/services"
	"github.com/ragforge/ragcore/internal/parser"
	"github.com/ragforge/ragcore/internal/runtime"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// world carries everything a scenario's steps read or mutate. One is
// built fresh per scenario by the Before hook.
type world struct {
	cl           driving.Client
	embStore     *mocks.MockEmbeddingStore
	contentStore *mocks.MockContentStore
	lastDoc      *domain.Document
	lastErr      error

	lastSearch *domain.SearchResult

	chunks []string

	searchSvc driving.SearchService
	fusionVS  *fusionVectorSearch

	rankVS  *mocks.MockVectorSearch
	rankVec []float32
}

func (w *world) reset() {
	*w = world{}
}

var wordPattern = regexp.MustCompile(`[a-zA-Z]+`)

// bowEmbedding is a deterministic bag-of-words embedding stub: each
// word hashes into one of a small number of buckets, so two texts
// that share vocabulary get a real cosine similarity above zero
// instead of the gateway's hash-of-the-whole-string fallback vector,
// which carries no relationship between related texts at all.
type bowEmbedding struct{}

func (b *bowEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = bowVector(t)
	}
	return out, nil
}

func (b *bowEmbedding) Dimensions() int                       { return 32 }
func (b *bowEmbedding) Model() string                         { return "test-bow" }
func (b *bowEmbedding) HealthCheck(ctx context.Context) error { return nil }
func (b *bowEmbedding) Close() error                          { return nil }

func bowVector(text string) []float32 {
	vec := make([]float32, 32)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%32]++
	}
	return vec
}

// bowFactory hands out a bowEmbedding regardless of credentials, so
// scenarios that need a meaningful similarity signal don't have to
// route through a real provider. Chat stays unconfigured, same as
// the real factory with no credentials, so summarization still
// exercises the frequency-based fallback.
type bowFactory struct{}

func (f *bowFactory) CreateEmbeddingService(providerModel string, creds domain.ProviderCredentials) (driven.EmbeddingService, error) {
	return &bowEmbedding{}, nil
}

func (f *bowFactory) CreateChatService(providerModel string, creds domain.ProviderCredentials) (driven.ChatService, error) {
	return nil, domain.NewError(domain.KindConfiguration, "bowFactory.CreateChatService", "chat not configured", domain.ErrUnavailable)
}

func (w *world) newClient(factory driven.AIServiceFactory) error {
	embStore := mocks.NewMockEmbeddingStore()
	contentStore := mocks.NewMockContentStore()
	w.embStore = embStore
	w.contentStore = contentStore

	cfg := domain.DefaultConfig()

	cl, err := services.NewClient(context.Background(), services.ClientConfig{
		DocumentStore:     mocks.NewMockDocumentStore(),
		ContentStore:      contentStore,
		EmbeddingStore:    embStore,
		VectorSearch:      mocks.NewMockVectorSearch(),
		TaskQueue:         mocks.NewMockTaskQueue(),
		Lock:              mocks.NewMockDistributedLock(),
		Parsers:           parser.DefaultRegistry(),
		Chunker:           chunker.New(),
		Services:          runtime.NewServices(domain.NewRuntimeConfig("postgres", "postgres")),
		Factory:           factory,
		Config:            cfg,
		Logger:            quietLogger(),
		RunnerConcurrency: 2,
	})
	if err != nil {
		return err
	}
	w.cl = cl
	return nil
}

// freshClient backs embeddings with bowFactory, giving scenarios a
// similarity signal that actually reflects shared vocabulary.
func (w *world) freshClient() error {
	return w.newClient(&bowFactory{})
}

// freshClientNoCreds routes through the real AI factory with
// domain.DefaultConfig's empty credential set, exercising the
// gateway's true degraded-mode fallback path end to end.
func (w *world) freshClientNoCreds() error {
	return w.newClient(ai.NewFactory())
}

func (w *world) addDocument(title, content string) error {
	result, err := w.cl.AddDocument(context.Background(), driving.AddDocumentInput{
		Blob:         []byte(content),
		Title:        title,
		DocumentType: domain.DocumentTypeText,
	})
	if result != nil {
		w.lastDoc = result.Document
	}
	w.lastErr = err
	return err
}

func (w *world) addLongDocument(title string) error {
	sentence := "The quick brown fox jumps over the lazy dog. "
	return w.addDocument(title, strings.Repeat(sentence, 8))
}

func (w *world) addRunDocument(title string, n int, ch string) error {
	return w.addDocument(title, strings.Repeat(ch, n))
}

func (w *world) configureChunking(chunkSize, overlap int) error {
	cfg := domain.DefaultConfig()
	cfg.Chunking = domain.ChunkingConfig{ChunkSize: chunkSize, Overlap: overlap}
	return w.cl.Configure(context.Background(), cfg)
}

// waitProcessed polls document status, since the job runner processes
// asynchronously off the mock task queue.
func (w *world) waitProcessed() error {
	if w.lastErr != nil {
		return w.lastErr
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, err := w.cl.DocumentStatus(context.Background(), w.lastDoc.ID)
		if err != nil {
			return err
		}
		if status == domain.StatusProcessed || status == domain.StatusError {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("document %s did not finish processing in time", w.lastDoc.ID)
}

func (w *world) assertStatus(want string) error {
	status, err := w.cl.DocumentStatus(context.Background(), w.lastDoc.ID)
	if err != nil {
		return err
	}
	if string(status) != want {
		return fmt.Errorf("expected status %q, got %q", want, status)
	}
	return nil
}

func (w *world) assertEmbeddingAtLeast(n int) error {
	count, err := w.embStore.CountByDocument(context.Background(), w.lastDoc.ID)
	if err != nil {
		return err
	}
	if count < n {
		return fmt.Errorf("expected at least %d embeddings, got %d", n, count)
	}
	return nil
}

func (w *world) assertEmbeddingCount(n int) error {
	count, err := w.embStore.CountByDocument(context.Background(), w.lastDoc.ID)
	if err != nil {
		return err
	}
	if count != n {
		return fmt.Errorf("expected exactly %d embeddings, got %d", n, count)
	}
	return nil
}

func (w *world) deleteDocument() error {
	return w.cl.DeleteDocument(context.Background(), w.lastDoc.ID)
}

func (w *world) assertTextContentCount(n int) error {
	texts, err := w.contentStore.GetTextByDocument(context.Background(), w.lastDoc.ID)
	if err != nil {
		return err
	}
	if len(texts) != n {
		return fmt.Errorf("expected exactly %d text content records, got %d", n, len(texts))
	}
	return nil
}

func (w *world) search(query string) error {
	// withDefaults treats an exact-zero threshold as "unset" and
	// substitutes 0.7, so a permissive threshold has to be a small
	// positive value instead of 0.
	opts := domain.DefaultSearchOptions()
	opts.SimilarityThreshold = 0.01
	result, err := w.cl.Search(context.Background(), query, opts)
	w.lastSearch = result
	return err
}

func (w *world) assertResultContains(substr string, minSim float64) error {
	if w.lastSearch == nil {
		return fmt.Errorf("no search result recorded")
	}
	for _, hit := range w.lastSearch.Results {
		if strings.Contains(hit.Content, substr) && hit.Similarity >= minSim {
			return nil
		}
	}
	return fmt.Errorf("no hit contains %q with similarity >= %v among %d hits", substr, minSim, len(w.lastSearch.Results))
}

func (w *world) assertSummaryNonEmpty() error {
	doc, err := w.cl.GetDocument(context.Background(), w.lastDoc.ID)
	if err != nil {
		return err
	}
	summary, _ := doc.Metadata["summary"].(string)
	if summary == "" {
		return fmt.Errorf("expected non-empty summary")
	}
	return nil
}

func (w *world) assertSummaryAtMost(max int) error {
	doc, err := w.cl.GetDocument(context.Background(), w.lastDoc.ID)
	if err != nil {
		return err
	}
	summary, _ := doc.Metadata["summary"].(string)
	if len(summary) > max {
		return fmt.Errorf("summary is %d characters, want at most %d", len(summary), max)
	}
	return nil
}

// --- chunk boundary scenario ---

func (w *world) freshChunker() error {
	w.chunks = nil
	return nil
}

func (w *world) chunkRun(n int, ch string, chunkSize, overlap int) error {
	text := strings.Repeat(ch, n)
	w.chunks = chunker.New().Chunk(text, chunkSize, overlap)
	return nil
}

func (w *world) assertChunksAtLeast(n int) error {
	if len(w.chunks) < n {
		return fmt.Errorf("expected at least %d chunks, got %d", n, len(w.chunks))
	}
	return nil
}

func (w *world) assertFirstChunkAtMost(n int) error {
	if len(w.chunks) == 0 {
		return fmt.Errorf("no chunks produced")
	}
	if len(w.chunks[0]) > n {
		return fmt.Errorf("first chunk is %d characters, want at most %d", len(w.chunks[0]), n)
	}
	return nil
}

func (w *world) assertOverlap(head, tail int) error {
	if len(w.chunks) < 2 {
		return fmt.Errorf("expected at least 2 chunks to compare overlap, got %d", len(w.chunks))
	}
	first, second := w.chunks[0], w.chunks[1]
	if len(first) < tail || len(second) < head {
		return fmt.Errorf("chunks too short to compare %d/%d character overlap", head, tail)
	}
	if first[len(first)-tail:] != second[:head] {
		return fmt.Errorf("chunk overlap mismatch")
	}
	return nil
}

// --- usage ranking scenario, against a real searchService over the
// shared mock vector search/embedding store so real rank math runs ---

func (w *world) rankingSearchService() error {
	vs := mocks.NewMockVectorSearch()
	embStore := mocks.NewMockEmbeddingStore()
	embed := mocks.NewMockEmbeddingService()
	svcs := runtime.NewServices(domain.NewRuntimeConfig("postgres", "postgres"))
	svcs.SetEmbeddingService(embed)

	// Both candidates get the exact same vector as the query, so they
	// tie on similarity and only usage_score should separate them.
	vec, err := embed.Embed(context.Background(), []string{"anything"})
	if err != nil {
		return err
	}

	index := func(id, docID string) {
		_ = vs.IndexEmbedding(context.Background(), &domain.Embedding{
			ID: id, EmbeddableType: domain.EmbeddableText, EmbeddableID: docID,
			DocumentID: docID, Content: id, Vector: vec[0], EmbeddingModel: "mock",
		}, &domain.Document{ID: docID, Title: docID})
	}
	index("frequent-embedding", "frequent")
	index("unused-embedding", "unused")

	w.embStore = embStore
	w.searchSvc = services.NewSearchService(vs, embStore, svcs)
	w.rankVS = vs
	w.rankVec = vec[0]
	return nil
}

func (w *world) setCandidateUsageReturnedNow(name string, count int) error {
	// Search reads usage from the vector search's candidates, so the
	// candidate is re-indexed carrying the usage count and timestamp.
	now := time.Now()
	return w.rankVS.IndexEmbedding(context.Background(), &domain.Embedding{
		ID: name + "-embedding", EmbeddableType: domain.EmbeddableText, EmbeddableID: name,
		DocumentID: name, Content: name + "-embedding", Vector: w.rankVec, EmbeddingModel: "mock",
		UsageCount: count, ReturnedAt: &now,
	}, &domain.Document{ID: name, Title: name})
}

func (w *world) setCandidateUsageZero(name string, count int) error {
	// count is always 0 in this scenario's step text; nothing to record.
	return nil
}

func (w *world) searchRanking(query string) error {
	result, err := w.searchSvc.Search(context.Background(), query, domain.DefaultSearchOptions())
	w.lastSearch = result
	return err
}

func (w *world) assertRanksAbove(top, bottom string) error {
	if w.lastSearch == nil {
		return fmt.Errorf("no search result recorded")
	}
	topIdx, bottomIdx := -1, -1
	for i, hit := range w.lastSearch.Results {
		if hit.DocumentID == top || hit.Content == top {
			topIdx = i
		}
		if hit.DocumentID == bottom || hit.Content == bottom {
			bottomIdx = i
		}
	}
	if topIdx == -1 || bottomIdx == -1 {
		return fmt.Errorf("expected both %q and %q in results, got %d hits", top, bottom, len(w.lastSearch.Results))
	}
	if topIdx >= bottomIdx {
		return fmt.Errorf("expected %q (index %d) to rank above %q (index %d)", top, topIdx, bottom, bottomIdx)
	}
	return nil
}

// --- hybrid fusion scenario, against a stub vector search that keeps
// the semantic and lexical candidate sets disjoint by construction ---

type fusionVectorSearch struct {
	semantic []driven.Candidate
	lexical  []driven.Candidate
}

func (f *fusionVectorSearch) IndexEmbedding(ctx context.Context, e *domain.Embedding, doc *domain.Document) error {
	return nil
}
func (f *fusionVectorSearch) NearestNeighbors(ctx context.Context, queryVector []float32, k int, filters domain.Filters) ([]driven.Candidate, error) {
	return f.semantic, nil
}
func (f *fusionVectorSearch) LexicalSearch(ctx context.Context, query string, limit int, filters domain.Filters) ([]driven.Candidate, error) {
	return f.lexical, nil
}
func (f *fusionVectorSearch) DeleteByDocument(ctx context.Context, documentID string) error { return nil }
func (f *fusionVectorSearch) HealthCheck(ctx context.Context) error                          { return nil }

func (w *world) fusionSemanticHit(docID string, similarity float64) error {
	if w.fusionVS == nil {
		w.fusionVS = &fusionVectorSearch{}
	}
	w.fusionVS.semantic = append(w.fusionVS.semantic, driven.Candidate{
		EmbeddingID: docID + "-semantic", DocumentID: docID, Content: "neural networks paper",
		Distance: 1 - similarity,
	})
	return nil
}

func (w *world) fusionLexicalHit(docID string) error {
	if w.fusionVS == nil {
		w.fusionVS = &fusionVectorSearch{}
	}
	w.fusionVS.lexical = append(w.fusionVS.lexical, driven.Candidate{
		EmbeddingID: docID + "-lexical", DocumentID: docID, Content: "neural networks article",
		TextRank: 1,
	})
	return nil
}

func (w *world) hybridSearch(query string, semanticWeight, textWeight float64) error {
	embStore := mocks.NewMockEmbeddingStore()
	embed := mocks.NewMockEmbeddingService()
	svcs := runtime.NewServices(domain.NewRuntimeConfig("postgres", "postgres"))
	svcs.SetEmbeddingService(embed)

	svc := services.NewSearchService(w.fusionVS, embStore, svcs)
	opts := domain.SearchOptions{Limit: 10, SimilarityThreshold: 0.7, SemanticWeight: semanticWeight, TextWeight: textWeight}
	result, err := svc.HybridSearch(context.Background(), query, opts)
	w.lastSearch = result
	return err
}

func (w *world) assertEachOnce(a, b string) error {
	if w.lastSearch == nil {
		return fmt.Errorf("no search result recorded")
	}
	counts := map[string]int{}
	for _, hit := range w.lastSearch.Results {
		counts[hit.DocumentID]++
	}
	for _, id := range []string{a, b} {
		if counts[id] != 1 {
			return fmt.Errorf("expected %q to appear exactly once, appeared %d times", id, counts[id])
		}
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	w := &world{}
	ctx.Before(func(goctx context.Context, sc *godog.Scenario) (context.Context, error) {
		w.reset()
		return goctx, nil
	})

	ctx.Step(`^a fresh client with default configuration$`, w.freshClient)
	ctx.Step(`^a fresh client with default configuration and no provider credentials$`, w.freshClientNoCreds)
	ctx.Step(`^chunking is configured with chunk_size (\d+) and overlap (\d+)$`, w.configureChunking)
	ctx.Step(`^I add a document titled "([^"]*)" with content "([^"]*)"$`, w.addDocument)
	ctx.Step(`^I add a document titled "([^"]*)" with content long enough to summarize$`, w.addLongDocument)
	ctx.Step(`^I add a document titled "([^"]*)" with a run of (\d+) "([A-Za-z])" characters$`, w.addRunDocument)
	ctx.Step(`^the document finishes processing$`, w.waitProcessed)
	ctx.Step(`^the document status is "([^"]*)"$`, w.assertStatus)
	ctx.Step(`^the document has exactly (\d+) text content records?$`, w.assertTextContentCount)
	ctx.Step(`^the document has at least (\d+) embeddings?$`, w.assertEmbeddingAtLeast)
	ctx.Step(`^the document has exactly (\d+) embeddings?$`, w.assertEmbeddingCount)
	ctx.Step(`^I delete the document$`, w.deleteDocument)
	ctx.Step(`^I search for "([^"]*)"$`, w.search)
	ctx.Step(`^a result's content contains "([^"]*)" with similarity at least ([0-9.]+)$`, w.assertResultContains)
	ctx.Step(`^the document's metadata summary is non-empty$`, w.assertSummaryNonEmpty)
	ctx.Step(`^the document's metadata summary is at most (\d+) characters$`, w.assertSummaryAtMost)

	ctx.Step(`^a sliding window chunker$`, w.freshChunker)
	ctx.Step(`^I chunk a run of (\d+) "([A-Za-z])" characters with chunk_size (\d+) and overlap (\d+)$`, w.chunkRun)
	ctx.Step(`^at least (\d+) chunks are produced$`, w.assertChunksAtLeast)
	ctx.Step(`^the first chunk is at most (\d+) characters long$`, w.assertFirstChunkAtMost)
	ctx.Step(`^the first (\d+) characters of chunk 2 equal the last (\d+) characters of chunk 1$`, w.assertOverlap)

	ctx.Step(`^a search service backed by two equally similar candidates$`, w.rankingSearchService)
	ctx.Step(`^candidate "([^"]*)" has usage_count (\d+) and was returned just now$`, w.setCandidateUsageReturnedNow)
	ctx.Step(`^candidate "([^"]*)" has usage_count (\d+)$`, w.setCandidateUsageZero)
	ctx.Step(`^I search that service for "([^"]*)"$`, w.searchRanking)
	ctx.Step(`^"([^"]*)" ranks above "([^"]*)"$`, w.assertRanksAbove)

	ctx.Step(`^a search service with a semantic hit on document "([^"]*)" at similarity ([0-9.]+)$`, w.fusionSemanticHit)
	ctx.Step(`^a lexical hit ranked first on document "([^"]*)"$`, w.fusionLexicalHit)
	ctx.Step(`^I run a hybrid search for "([^"]*)" with semantic weight ([0-9.]+) and text weight ([0-9.]+)$`, w.hybridSearch)
	ctx.Step(`^each of "([^"]*)" and "([^"]*)" appears exactly once$`, w.assertEachOnce)
}

func TestSeedScenarios(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format: "pretty",
			Paths:  []string{"../features/seed_scenarios.feature"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
