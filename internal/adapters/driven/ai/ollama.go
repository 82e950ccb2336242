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

var _ driven.EmbeddingService = (*OllamaEmbedding)(nil)
var _ driven.ChatService = (*OllamaChat)(nil)

// OllamaEmbedding talks to a self-hosted Ollama server's /api/embed
// endpoint. Unlike the other providers, Ollama requires no API key
// (domain.Provider.RequiresAPIKey excludes it).
type OllamaEmbedding struct {
	model      string
	baseURL    string
	dimensions int
	client     *http.Client
}

func NewOllamaEmbedding(model, baseURL string) (*OllamaEmbedding, error) {
	if model == "" {
		model = "nomic-embed-text"
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaEmbedding{
		model:      model,
		baseURL:    baseURL,
		dimensions: 768,
		client:     &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func (e *OllamaEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama: read response: %w", err)
	}
	var parsed ollamaEmbedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("ollama: parse response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("ollama: %s", parsed.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: status %d", resp.StatusCode)
	}
	if len(parsed.Embeddings) > 0 {
		e.dimensions = len(parsed.Embeddings[0])
	}
	return parsed.Embeddings, nil
}

func (e *OllamaEmbedding) Dimensions() int { return e.dimensions }
func (e *OllamaEmbedding) Model() string   { return e.model }

func (e *OllamaEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.Embed(ctx, []string{"health check"})
	return err
}

func (e *OllamaEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// OllamaChat talks to Ollama's /api/chat endpoint with streaming
// disabled so the response arrives as a single JSON object.
type OllamaChat struct {
	model   string
	baseURL string
	client  *http.Client
}

func NewOllamaChat(model, baseURL string) (*OllamaChat, error) {
	if model == "" {
		model = "llama3.2"
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaChat{
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 180 * time.Second},
	}, nil
}

type ollamaChatRequest struct {
	Model    string            `json:"model"`
	Messages []chatMessageWire `json:"messages"`
	Stream   bool              `json:"stream"`
	Options  ollamaOptions     `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaChatResponse struct {
	Message chatMessageWire `json:"message"`
	Error   string          `json:"error,omitempty"`
}

func (c *OllamaChat) Complete(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: toWireMessages(messages, opts.JSONSchemaHint),
		Stream:   false,
		Options:  ollamaOptions{Temperature: opts.Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama chat: read response: %w", err)
	}
	var parsed ollamaChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("ollama chat: parse response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama chat: %s", parsed.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama chat: status %d", resp.StatusCode)
	}
	return parsed.Message.Content, nil
}

func (c *OllamaChat) Model() string { return c.model }

func (c *OllamaChat) HealthCheck(ctx context.Context) error {
	_, err := c.Complete(ctx, []driven.ChatMessage{{Role: "user", Content: "ping"}}, driven.ChatOptions{MaxTokens: 5})
	return err
}

func (c *OllamaChat) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
