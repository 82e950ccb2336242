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

var _ driven.EmbeddingService = (*AzureEmbedding)(nil)
var _ driven.ChatService = (*AzureChat)(nil)

// azureAPIVersion is pinned rather than configurable: the request/
// response shape this adapter parses is tied to it.
const azureAPIVersion = "2024-06-01"

// AzureEmbedding talks to an Azure OpenAI deployment. Azure addresses
// models by deployment name in the URL path and authenticates with an
// "api-key" header instead of a bearer token, so it can't just reuse
// OpenAIEmbedding with a different base URL.
type AzureEmbedding struct {
	apiKey     string
	deployment string
	baseURL    string
	dimensions int
	client     *http.Client
}

func NewAzureEmbedding(apiKey, deployment, baseURL string) (*AzureEmbedding, error) {
	if apiKey == "" || baseURL == "" {
		return nil, fmt.Errorf("azure: API key and resource base URL are required")
	}
	if deployment == "" {
		deployment = "text-embedding-3-small"
	}
	dimensions, ok := openAIModelDimensions[deployment]
	if !ok {
		dimensions = 1536
	}
	return &AzureEmbedding{
		apiKey:     apiKey,
		deployment: deployment,
		baseURL:    baseURL,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (e *AzureEmbedding) url() string {
	return fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s", e.baseURL, e.deployment, azureAPIVersion)
}

func (e *AzureEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingRequest{Input: texts, Model: e.deployment})
	if err != nil {
		return nil, fmt.Errorf("azure: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("azure: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("azure: read response: %w", err)
	}
	var embResp embeddingResponse
	if err := json.Unmarshal(raw, &embResp); err != nil {
		return nil, fmt.Errorf("azure: parse response: %w", err)
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("azure: %s", embResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("azure: status %d", resp.StatusCode)
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range embResp.Data {
		if d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}
	return embeddings, nil
}

func (e *AzureEmbedding) Dimensions() int { return e.dimensions }
func (e *AzureEmbedding) Model() string   { return e.deployment }

func (e *AzureEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.Embed(ctx, []string{"health check"})
	return err
}

func (e *AzureEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// AzureChat is the chat-completions counterpart of AzureEmbedding.
type AzureChat struct {
	apiKey     string
	deployment string
	baseURL    string
	client     *http.Client
}

func NewAzureChat(apiKey, deployment, baseURL string) (*AzureChat, error) {
	if apiKey == "" || baseURL == "" {
		return nil, fmt.Errorf("azure: API key and resource base URL are required")
	}
	if deployment == "" {
		deployment = "gpt-4o-mini"
	}
	return &AzureChat{
		apiKey:     apiKey,
		deployment: deployment,
		baseURL:    baseURL,
		client:     &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (c *AzureChat) url() string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", c.baseURL, c.deployment, azureAPIVersion)
}

func (c *AzureChat) Complete(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Messages:    toWireMessages(messages, opts.JSONSchemaHint),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("azure chat: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("azure chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("azure chat: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("azure chat: read response: %w", err)
	}
	var chatResp chatCompletionResponse
	if err := json.Unmarshal(raw, &chatResp); err != nil {
		return "", fmt.Errorf("azure chat: parse response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("azure chat: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("azure chat: status %d", resp.StatusCode)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("azure chat: empty response")
	}
	return chatResp.Choices[0].Message.Content, nil
}

func (c *AzureChat) Model() string { return c.deployment }

func (c *AzureChat) HealthCheck(ctx context.Context) error {
	_, err := c.Complete(ctx, []driven.ChatMessage{{Role: "user", Content: "ping"}}, driven.ChatOptions{MaxTokens: 5})
	return err
}

func (c *AzureChat) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
