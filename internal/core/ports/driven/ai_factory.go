package driven

import "github.com/ragforge/ragcore/internal/core/domain"

// AIServiceFactory constructs provider-backed EmbeddingService/ChatService
// instances from a "provider/model" spec, returning a typed
// "not configured" error (domain.KindConfiguration) the gateway routes
// to its fallback path rather than propagating, per spec 4.3.
type AIServiceFactory interface {
	CreateEmbeddingService(providerModel string, creds domain.ProviderCredentials) (EmbeddingService, error)
	CreateChatService(providerModel string, creds domain.ProviderCredentials) (ChatService, error)
}
