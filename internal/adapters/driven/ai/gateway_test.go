package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

type stubEmbedding struct {
	vectors [][]float32
	err     error
	closed  bool
}

func (s *stubEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors, nil
}
func (s *stubEmbedding) Dimensions() int                      { return 3 }
func (s *stubEmbedding) Model() string                        { return "stub" }
func (s *stubEmbedding) HealthCheck(ctx context.Context) error { return nil }
func (s *stubEmbedding) Close() error                          { s.closed = true; return nil }

type stubChat struct {
	response string
	err      error
}

func (s *stubChat) Complete(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}
func (s *stubChat) Model() string                        { return "stub-chat" }
func (s *stubChat) HealthCheck(ctx context.Context) error { return nil }
func (s *stubChat) Close() error                          { return nil }

func TestGateway_Embed_UsesProviderWhenHealthy(t *testing.T) {
	emb := &stubEmbedding{vectors: [][]float32{{1, 2, 3}}}
	gw := NewGateway(emb, nil, domain.DefaultSummarizationConfig(), nil)

	out, err := gw.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0][0] != 1 {
		t.Errorf("expected provider vector passed through, got %v", out)
	}
	if gw.Degraded() {
		t.Error("expected gateway not degraded when provider succeeds")
	}
}

func TestGateway_Embed_FallsBackOnProviderError(t *testing.T) {
	emb := &stubEmbedding{err: errors.New("boom")}
	gw := NewGateway(emb, nil, domain.DefaultSummarizationConfig(), nil)

	out, err := gw.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("fallback must never surface an error, got %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected one vector per input, got %d", len(out))
	}
	if !gw.Degraded() {
		t.Error("expected gateway marked degraded after provider failure")
	}
}

func TestGateway_Embed_NoProviderConfigured(t *testing.T) {
	gw := NewGateway(nil, nil, domain.DefaultSummarizationConfig(), nil)

	out, err := gw.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || len(out[0]) != fallbackDimensions {
		t.Errorf("expected fallback vector of dimension %d, got %d", fallbackDimensions, len(out[0]))
	}
	if !gw.Degraded() {
		t.Error("expected gateway degraded with no embedding provider configured")
	}
}

func TestGateway_Embed_Deterministic(t *testing.T) {
	gw := NewGateway(nil, nil, domain.DefaultSummarizationConfig(), nil)

	a, _ := gw.EmbedOne(context.Background(), "the quick brown fox")
	b, _ := gw.EmbedOne(context.Background(), "the quick brown fox")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected deterministic fallback vector, differs at index %d", i)
		}
	}
}

func TestGateway_Summarize_ShortTextPassesThrough(t *testing.T) {
	gw := NewGateway(nil, nil, domain.DefaultSummarizationConfig(), nil)

	text := "short text"
	out, err := gw.Summarize(context.Background(), text, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != text {
		t.Errorf("expected text under min length returned verbatim, got %q", out)
	}
}

func TestGateway_Summarize_UsesChatProvider(t *testing.T) {
	chat := &stubChat{response: "a crisp summary"}
	cfg := domain.DefaultSummarizationConfig()
	cfg.MinContentLength = 1
	gw := NewGateway(nil, chat, cfg, nil)

	out, err := gw.Summarize(context.Background(), "some long piece of text that exceeds the minimum", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "a crisp summary" {
		t.Errorf("expected chat provider's summary, got %q", out)
	}
}

func TestGateway_Summarize_FallsBackOnChatError(t *testing.T) {
	chat := &stubChat{err: errors.New("boom")}
	cfg := domain.DefaultSummarizationConfig()
	cfg.MinContentLength = 1
	gw := NewGateway(nil, chat, cfg, nil)

	longText := "Sentence one is here. Sentence two follows it. Sentence three wraps up the thought."
	out, err := gw.Summarize(context.Background(), longText, 100)
	if err != nil {
		t.Fatalf("fallback must never surface an error, got %v", err)
	}
	if out == "" {
		t.Error("expected non-empty frequency-based fallback summary")
	}
}

func TestGateway_ExtractKeywords_FallbackDeduplicates(t *testing.T) {
	gw := NewGateway(nil, nil, domain.DefaultSummarizationConfig(), nil)

	keywords, err := gw.ExtractKeywords(context.Background(), "search search search engine engine ranking", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := map[string]bool{}
	for _, k := range keywords {
		if seen[k] {
			t.Fatalf("expected deduplicated keywords, got duplicate %q in %v", k, keywords)
		}
		seen[k] = true
	}
	if len(keywords) == 0 {
		t.Error("expected at least one keyword")
	}
}

func TestGateway_Close_ClosesProvider(t *testing.T) {
	emb := &stubEmbedding{}
	gw := NewGateway(emb, nil, domain.DefaultSummarizationConfig(), nil)

	if err := gw.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !emb.closed {
		t.Error("expected embedding provider to be closed")
	}
}
