package runtime

import (
	"context"
	"sync"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

// Services holds references to dynamically configurable AI services.
// Embedding and chat services can be swapped at runtime.
// ValidateAndSetEmbedding/ValidateAndSetChat health-check the new
// service before swapping; the Set* methods, which Client.Configure
// uses, swap without a check. Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	config *domain.RuntimeConfig

	embeddingService driven.EmbeddingService
	chatService      driven.ChatService
	gateway          driven.LLMGateway
}

// NewServices creates a new Services registry.
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{config: config}
}

// Config returns the runtime capability tracker.
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil).
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// ChatService returns the current chat service (may be nil).
func (s *Services) ChatService() driven.ChatService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatService
}

// Gateway returns the unified LLM gateway, if configured to use one
// instead of separate embedding/chat services.
func (s *Services) Gateway() driven.LLMGateway {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gateway
}

// SetEmbeddingService updates the embedding service, closing the old
// one and refreshing the runtime's embedding-available flag.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}
	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetChatService updates the chat service, closing the old one and
// refreshing the runtime's LLM-available flag.
func (s *Services) SetChatService(svc driven.ChatService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatService != nil {
		_ = s.chatService.Close()
	}
	s.chatService = svc
	s.config.SetLLMAvailable(svc != nil)
}

// SetGateway installs a unified gateway and marks both capability
// flags from its Degraded state (a degraded gateway still answers,
// just via the deterministic fallback path, so it is not "unavailable").
func (s *Services) SetGateway(gw driven.LLMGateway) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gateway != nil {
		_ = s.gateway.Close()
	}
	s.gateway = gw
	s.config.SetEmbeddingAvailable(gw != nil)
	s.config.SetLLMAvailable(gw != nil)
	if gw != nil {
		s.config.SetDegraded(gw.Degraded())
	}
}

// Close shuts down all services.
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.chatService != nil {
		_ = s.chatService.Close()
		s.chatService = nil
	}
	if s.gateway != nil {
		_ = s.gateway.Close()
		s.gateway = nil
	}

	s.config.SetEmbeddingAvailable(false)
	s.config.SetLLMAvailable(false)

	return nil
}

// ValidateAndSetEmbedding health-checks svc before swapping it in,
// so a bad Configure call never replaces a working service with a
// broken one.
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}
	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}
	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetChat health-checks svc before swapping it in.
func (s *Services) ValidateAndSetChat(ctx context.Context, svc driven.ChatService) error {
	if svc == nil {
		s.SetChatService(nil)
		return nil
	}
	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}
	s.SetChatService(svc)
	return nil
}
