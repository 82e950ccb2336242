package ai

import (
	"testing"

	"github.com/ragforge/ragcore/internal/core/domain"
)

func TestFactory_CreateEmbeddingService_MalformedSpec(t *testing.T) {
	f := NewFactory()
	_, err := f.CreateEmbeddingService("not-a-provider-model", domain.ProviderCredentials{})
	if err == nil {
		t.Error("expected error for malformed provider/model spec")
	}
}

func TestFactory_CreateEmbeddingService_UnknownProvider(t *testing.T) {
	f := NewFactory()
	_, err := f.CreateEmbeddingService("unknown/model", domain.ProviderCredentials{APIKey: "x"})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactory_CreateEmbeddingService_MissingAPIKey(t *testing.T) {
	f := NewFactory()
	_, err := f.CreateEmbeddingService("openai/text-embedding-3-small", domain.ProviderCredentials{})
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestFactory_CreateEmbeddingService_Ollama_NoAPIKeyRequired(t *testing.T) {
	f := NewFactory()
	svc, err := f.CreateEmbeddingService("ollama/nomic-embed-text", domain.ProviderCredentials{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc == nil {
		t.Error("expected non-nil service for ollama without API key")
	}
}

func TestFactory_CreateEmbeddingService_AnthropicHasNoEmbedding(t *testing.T) {
	f := NewFactory()
	_, err := f.CreateEmbeddingService("anthropic/claude-3-5-sonnet-20241022", domain.ProviderCredentials{APIKey: "x"})
	if err == nil {
		t.Error("expected error: anthropic has no embedding capability")
	}
}

func TestFactory_CreateChatService_OpenAI(t *testing.T) {
	f := NewFactory()
	svc, err := f.CreateChatService("openai/gpt-4o-mini", domain.ProviderCredentials{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc == nil || svc.Model() != "gpt-4o-mini" {
		t.Errorf("expected chat service for gpt-4o-mini, got %v", svc)
	}
}

func TestFactory_CreateChatService_OpenRouter(t *testing.T) {
	f := NewFactory()
	svc, err := f.CreateChatService("openrouter/anthropic/claude-3.5-sonnet", domain.ProviderCredentials{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc == nil {
		t.Error("expected non-nil chat service for openrouter")
	}
}

func TestFactory_CreateChatService_MissingAPIKey(t *testing.T) {
	f := NewFactory()
	_, err := f.CreateChatService("anthropic/claude-3-5-sonnet-20241022", domain.ProviderCredentials{})
	if err == nil {
		t.Error("expected error for missing API key")
	}
}
