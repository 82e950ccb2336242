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

var _ driven.EmbeddingService = (*HuggingFaceEmbedding)(nil)

// HuggingFaceEmbedding calls the Hugging Face Inference API's
// feature-extraction pipeline, which returns each input's raw vector
// (or, for some models, a per-token matrix we mean-pool).
type HuggingFaceEmbedding struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	client     *http.Client
}

func NewHuggingFaceEmbedding(apiKey, model, baseURL string) (*HuggingFaceEmbedding, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("huggingface: API key is required")
	}
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co/pipeline/feature-extraction"
	}
	return &HuggingFaceEmbedding{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: 384,
		client:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type huggingFaceRequest struct {
	Inputs  []string `json:"inputs"`
	Options struct {
		WaitForModel bool `json:"wait_for_model"`
	} `json:"options"`
}

func (e *HuggingFaceEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := huggingFaceRequest{Inputs: texts}
	reqBody.Options.WaitForModel = true
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("huggingface: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/"+e.model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("huggingface: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("huggingface: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface: status %d: %s", resp.StatusCode, string(raw))
	}

	// The API returns either []float32 per input (sentence-embedding
	// models) or [][]float32 per input (token-level models, needing
	// mean-pooling); try the simple shape first.
	var flat [][]float32
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) == len(texts) {
		if len(flat) > 0 {
			e.dimensions = len(flat[0])
		}
		return flat, nil
	}

	var nested [][][]float32
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("huggingface: parse response: %w", err)
	}
	result := make([][]float32, len(nested))
	for i, tokens := range nested {
		result[i] = meanPool(tokens)
	}
	if len(result) > 0 {
		e.dimensions = len(result[0])
	}
	return result, nil
}

// meanPool averages a token-level embedding matrix into one vector,
// the standard pooling strategy for sentence-transformer models that
// return per-token output.
func meanPool(tokens [][]float32) []float32 {
	if len(tokens) == 0 {
		return nil
	}
	dims := len(tokens[0])
	sum := make([]float32, dims)
	for _, tok := range tokens {
		for i, v := range tok {
			if i < dims {
				sum[i] += v
			}
		}
	}
	for i := range sum {
		sum[i] /= float32(len(tokens))
	}
	return sum
}

func (e *HuggingFaceEmbedding) Dimensions() int { return e.dimensions }
func (e *HuggingFaceEmbedding) Model() string   { return e.model }

func (e *HuggingFaceEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.Embed(ctx, []string{"health check"})
	return err
}

func (e *HuggingFaceEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
