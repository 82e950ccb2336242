package ai

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.LLMGateway = (*Gateway)(nil)

// Gateway implements driven.LLMGateway (spec 4.3): a uniform
// embed/summarize/extract_keywords surface backed by whichever
// provider the caller configured, falling back to deterministic,
// network-free implementations whenever the provider is absent or a
// call to it fails. The fallback path never surfaces as an error.
type Gateway struct {
	embedding driven.EmbeddingService // nil if not configured
	chat      driven.ChatService      // nil if not configured
	cfg       domain.SummarizationConfig
	logger    *slog.Logger
	degraded  atomic.Bool
}

// NewGateway builds a Gateway from already-constructed provider
// services; either may be nil, in which case that capability always
// runs through the fallback path.
func NewGateway(embedding driven.EmbeddingService, chat driven.ChatService, cfg domain.SummarizationConfig, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{embedding: embedding, chat: chat, cfg: cfg, logger: logger}
	g.degraded.Store(embedding == nil)
	return g
}

// embedInputMaxChars caps cleaned text before it reaches a provider
// or the fallback path (spec 4.3: "truncate at ~8000 characters").
const embedInputMaxChars = 8000

func (g *Gateway) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = cleanEmbedInput(t)
	}

	if g.embedding != nil {
		vectors, err := g.embedding.Embed(ctx, cleaned)
		if err == nil {
			return vectors, nil
		}
		g.logger.Warn("embedding provider failed, falling back to deterministic vectors", "error", err)
		g.degraded.Store(true)
	}

	vectors := make([][]float32, len(cleaned))
	for i, t := range cleaned {
		vectors[i] = pseudoEmbed(t)
	}
	return vectors, nil
}

// cleanEmbedInput collapses runs of whitespace to a single space and
// truncates to embedInputMaxChars, per spec 4.3's embedding input
// cleaning step.
func cleanEmbedInput(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) > embedInputMaxChars {
		cleaned = cleaned[:embedInputMaxChars]
	}
	return cleaned
}

func (g *Gateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

func (g *Gateway) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = g.cfg.MaxLength
	}
	if !g.cfg.Enabled {
		return text, nil
	}
	if len(text) <= g.cfg.MinContentLength {
		return text, nil
	}

	if g.chat != nil {
		prompt := []driven.ChatMessage{
			{Role: "system", Content: "Summarize the following text concisely."},
			{Role: "user", Content: text},
		}
		summary, err := g.chat.Complete(ctx, prompt, driven.ChatOptions{MaxTokens: maxLength / 3})
		if err == nil {
			return summary, nil
		}
		g.logger.Warn("chat provider failed, falling back to frequency summarizer", "error", err)
		g.degraded.Store(true)
	}

	return frequencySummarize(text, maxLength), nil
}

func (g *Gateway) ExtractKeywords(ctx context.Context, text string, max int) ([]string, error) {
	if max <= 0 {
		max = g.cfg.MaxKeywords
	}

	if g.chat != nil {
		prompt := []driven.ChatMessage{
			{Role: "system", Content: "Extract the most important keywords from the text as a comma-separated list, nothing else."},
			{Role: "user", Content: text},
		}
		raw, err := g.chat.Complete(ctx, prompt, driven.ChatOptions{MaxTokens: 256})
		if err == nil {
			keywords := splitKeywords(raw, max)
			if len(keywords) > 0 {
				return keywords, nil
			}
		} else {
			g.logger.Warn("chat provider failed, falling back to frequency keywords", "error", err)
			g.degraded.Store(true)
		}
	}

	return frequencyKeywords(text, max), nil
}

func (g *Gateway) Degraded() bool { return g.degraded.Load() }

func (g *Gateway) Dimensions() int {
	if g.embedding != nil {
		return g.embedding.Dimensions()
	}
	return fallbackDimensions
}

func (g *Gateway) Close() error {
	var firstErr error
	if g.embedding != nil {
		if err := g.embedding.Close(); err != nil {
			firstErr = err
		}
	}
	if g.chat != nil {
		if err := g.chat.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func splitKeywords(raw string, max int) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		lower := strings.ToLower(strings.TrimSpace(part))
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, lower)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
