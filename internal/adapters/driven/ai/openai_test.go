package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

func TestNewOpenAIEmbedding_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedding("", "text-embedding-3-small", "")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNewOpenAIEmbedding_Defaults(t *testing.T) {
	svc, err := NewOpenAIEmbedding("sk-test", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.model != "text-embedding-3-small" {
		t.Errorf("expected default model, got %s", svc.model)
	}
	if svc.baseURL != "https://api.openai.com/v1" {
		t.Errorf("expected default base URL, got %s", svc.baseURL)
	}
}

func TestOpenAIEmbedding_Dimensions(t *testing.T) {
	cases := map[string]int{
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"unknown-model":          1536,
	}
	for model, want := range cases {
		svc, err := NewOpenAIEmbedding("sk-test", model, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.Dimensions() != want {
			t.Errorf("%s: expected %d dimensions, got %d", model, want, svc.Dimensions())
		}
	}
}

func TestOpenAIEmbedding_Embed_EmptyInput(t *testing.T) {
	svc, _ := NewOpenAIEmbedding("sk-test", "", "")
	result, err := svc.Embed(context.Background(), nil)
	if err != nil || result != nil {
		t.Errorf("expected nil, nil for empty input, got %v, %v", result, err)
	}
}

func TestOpenAIEmbedding_Embed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("expected Authorization header")
		}
		resp := embeddingResponse{Data: []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}{
			{Index: 0, Embedding: []float32{0.1, 0.2}},
			{Index: 1, Embedding: []float32{0.3, 0.4}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-test", "", server.URL)
	result, err := svc.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 || result[0][0] != 0.1 {
		t.Errorf("unexpected result: %v", result)
	}
}

func TestOpenAIEmbedding_Embed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(embeddingResponse{Error: &apiError{Message: "bad key"}})
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-bad", "", server.URL)
	_, err := svc.Embed(context.Background(), []string{"a"})
	if err == nil {
		t.Error("expected error for API error response")
	}
}

func TestOpenAIChat_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := chatCompletionResponse{Choices: []struct {
			Message chatMessageWire `json:"message"`
		}{{Message: chatMessageWire{Role: "assistant", Content: "hi there"}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	chat, err := NewOpenAIChat("sk-test", "", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := chat.Complete(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hello"}}, driven.ChatOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hi there" {
		t.Errorf("expected %q, got %q", "hi there", out)
	}
}

func TestOpenAIChat_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatCompletionResponse{})
	}))
	defer server.Close()

	chat, _ := NewOpenAIChat("sk-test", "", server.URL)
	_, err := chat.Complete(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hello"}}, driven.ChatOptions{})
	if err == nil {
		t.Error("expected error for empty choices")
	}
}
