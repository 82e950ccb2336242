package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*GoogleEmbedding)(nil)
var _ driven.ChatService = (*GoogleChat)(nil)

// GoogleEmbedding implements driven.EmbeddingService against the
// Gemini API's embedContent/batchEmbedContents endpoints, which
// authenticate via a query-string API key rather than a header.
type GoogleEmbedding struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	client     *http.Client
}

func NewGoogleEmbedding(apiKey, model, baseURL string) (*GoogleEmbedding, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google: API key is required")
	}
	if model == "" {
		model = "text-embedding-004"
	}
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GoogleEmbedding{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: 768,
		client:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type googleEmbedRequest struct {
	Requests []googleEmbedOne `json:"requests"`
}

type googleEmbedOne struct {
	Model   string            `json:"model"`
	Content googleContent     `json:"content"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (e *GoogleEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqs := make([]googleEmbedOne, len(texts))
	for i, t := range texts {
		reqs[i] = googleEmbedOne{
			Model:   "models/" + e.model,
			Content: googleContent{Parts: []googlePart{{Text: t}}},
		}
	}
	body, err := json.Marshal(googleEmbedRequest{Requests: reqs})
	if err != nil {
		return nil, fmt.Errorf("google: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", e.baseURL, e.model, e.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("google: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("google: read response: %w", err)
	}
	var parsed googleEmbedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("google: parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("google: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google: status %d", resp.StatusCode)
	}

	embeddings := make([][]float32, len(texts))
	for i, d := range parsed.Embeddings {
		if i < len(embeddings) {
			embeddings[i] = d.Values
		}
	}
	return embeddings, nil
}

func (e *GoogleEmbedding) Dimensions() int { return e.dimensions }
func (e *GoogleEmbedding) Model() string   { return e.model }

func (e *GoogleEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.Embed(ctx, []string{"health check"})
	return err
}

func (e *GoogleEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// GoogleChat implements driven.ChatService against Gemini's
// generateContent endpoint.
type GoogleChat struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGoogleChat(apiKey, model, baseURL string) (*GoogleChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google: API key is required")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GoogleChat{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type googleGenerateRequest struct {
	Contents         []googleContent        `json:"contents"`
	SystemInstruction *googleContent        `json:"systemInstruction,omitempty"`
	GenerationConfig googleGenerationConfig `json:"generationConfig,omitempty"`
}

type googleGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type googleGenerateResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *GoogleChat) Complete(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var system *googleContent
	contents := make([]googleContent, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = &googleContent{Parts: []googlePart{{Text: m.Content}}}
			continue
		}
		contents = append(contents, googleContent{Parts: []googlePart{{Text: m.Content}}})
	}
	if opts.JSONSchemaHint != "" {
		hint := googlePart{Text: "Respond with JSON only, matching this shape: " + opts.JSONSchemaHint}
		if system == nil {
			system = &googleContent{Parts: []googlePart{hint}}
		} else {
			system.Parts = append(system.Parts, hint)
		}
	}

	body, err := json.Marshal(googleGenerateRequest{
		Contents:          contents,
		SystemInstruction: system,
		GenerationConfig: googleGenerationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("google chat: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("google chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("google chat: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("google chat: read response: %w", err)
	}
	var parsed googleGenerateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("google chat: parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("google chat: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google chat: status %d", resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("google chat: empty response")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func (c *GoogleChat) Model() string { return c.model }

func (c *GoogleChat) HealthCheck(ctx context.Context) error {
	_, err := c.Complete(ctx, []driven.ChatMessage{{Role: "user", Content: "ping"}}, driven.ChatOptions{MaxTokens: 5})
	return err
}

func (c *GoogleChat) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
