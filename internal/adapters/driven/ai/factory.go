package ai

import (
	"fmt"
	"strings"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory constructs provider-backed services from a "provider/model"
// string (spec 4.3), e.g. "openai/text-embedding-3-small".
type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func splitProviderModel(providerModel string) (domain.Provider, string, error) {
	parts := strings.SplitN(providerModel, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", domain.NewError(domain.KindConfiguration, "ai.Factory", fmt.Sprintf("malformed provider/model spec %q", providerModel), nil)
	}
	provider := domain.Provider(parts[0])
	if !provider.IsValid() {
		return "", "", domain.NewError(domain.KindConfiguration, "ai.Factory", fmt.Sprintf("unknown provider %q", provider), nil)
	}
	return provider, parts[1], nil
}

func (f *Factory) CreateEmbeddingService(providerModel string, creds domain.ProviderCredentials) (driven.EmbeddingService, error) {
	provider, model, err := splitProviderModel(providerModel)
	if err != nil {
		return nil, err
	}
	if provider.RequiresAPIKey() && creds.APIKey == "" {
		return nil, domain.NewError(domain.KindConfiguration, "ai.Factory", fmt.Sprintf("%s requires an API key", provider), nil)
	}

	switch provider {
	case domain.ProviderOpenAI:
		return NewOpenAIEmbedding(creds.APIKey, model, creds.BaseURL)
	case domain.ProviderAzure:
		return NewAzureEmbedding(creds.APIKey, model, creds.BaseURL)
	case domain.ProviderGoogle:
		return NewGoogleEmbedding(creds.APIKey, model, creds.BaseURL)
	case domain.ProviderOllama:
		return NewOllamaEmbedding(model, creds.BaseURL)
	case domain.ProviderHuggingFace:
		return NewHuggingFaceEmbedding(creds.APIKey, model, creds.BaseURL)
	default:
		return nil, domain.NewError(domain.KindConfiguration, "ai.Factory", fmt.Sprintf("%s has no embedding capability", provider), nil)
	}
}

func (f *Factory) CreateChatService(providerModel string, creds domain.ProviderCredentials) (driven.ChatService, error) {
	provider, model, err := splitProviderModel(providerModel)
	if err != nil {
		return nil, err
	}
	if provider.RequiresAPIKey() && creds.APIKey == "" {
		return nil, domain.NewError(domain.KindConfiguration, "ai.Factory", fmt.Sprintf("%s requires an API key", provider), nil)
	}

	switch provider {
	case domain.ProviderOpenAI:
		return NewOpenAIChat(creds.APIKey, model, creds.BaseURL)
	case domain.ProviderAzure:
		return NewAzureChat(creds.APIKey, model, creds.BaseURL)
	case domain.ProviderAnthropic:
		return NewAnthropicChat(creds.APIKey, model, creds.BaseURL)
	case domain.ProviderGoogle:
		return NewGoogleChat(creds.APIKey, model, creds.BaseURL)
	case domain.ProviderOllama:
		return NewOllamaChat(model, creds.BaseURL)
	case domain.ProviderOpenRouter:
		return NewOpenRouterChat(creds.APIKey, model, creds.BaseURL)
	default:
		return nil, domain.NewError(domain.KindConfiguration, "ai.Factory", fmt.Sprintf("%s has no chat capability", provider), nil)
	}
}
