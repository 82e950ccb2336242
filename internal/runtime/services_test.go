package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
	"github.com/ragforge/ragcore/internal/core/ports/driven/mocks"
)

// chatServiceCloseTracker wraps MockChatService to track Close calls
// and inject a HealthCheck failure, since MockChatService always
// reports healthy.
type chatServiceCloseTracker struct {
	*mocks.MockChatService
	healthErr error
	closed    bool
}

func (c *chatServiceCloseTracker) HealthCheck(ctx context.Context) error { return c.healthErr }
func (c *chatServiceCloseTracker) Close() error                          { c.closed = true; return nil }

type embeddingCloseTracker struct {
	*mocks.MockEmbeddingService
	healthErr error
	closed    bool
}

func (e *embeddingCloseTracker) HealthCheck(ctx context.Context) error { return e.healthErr }
func (e *embeddingCloseTracker) Close() error                          { e.closed = true; return nil }

func newEmbeddingTracker() *embeddingCloseTracker {
	return &embeddingCloseTracker{MockEmbeddingService: mocks.NewMockEmbeddingService()}
}

func newChatTracker() *chatServiceCloseTracker {
	return &chatServiceCloseTracker{MockChatService: mocks.NewMockChatService("test-llm")}
}

var _ driven.EmbeddingService = (*embeddingCloseTracker)(nil)
var _ driven.ChatService = (*chatServiceCloseTracker)(nil)

func TestNewServices(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres", "postgres")
	services := NewServices(config)

	if services == nil {
		t.Fatal("expected non-nil services")
	}
	if services.Config() != config {
		t.Error("expected config to match")
	}
}

func TestServices_EmbeddingService(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres", "postgres")
	services := NewServices(config)

	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service initially")
	}

	mock := newEmbeddingTracker()
	services.SetEmbeddingService(mock)

	if services.EmbeddingService() == nil {
		t.Error("expected non-nil embedding service after set")
	}
	if !config.EmbeddingAvailable() {
		t.Error("expected embedding to be available")
	}

	services.SetEmbeddingService(nil)
	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service after clearing")
	}
	if config.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable")
	}
	if !mock.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_ChatService(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres", "postgres")
	services := NewServices(config)

	if services.ChatService() != nil {
		t.Error("expected nil chat service initially")
	}

	mock := newChatTracker()
	services.SetChatService(mock)

	if services.ChatService() == nil {
		t.Error("expected non-nil chat service after set")
	}
	if !config.LLMAvailable() {
		t.Error("expected LLM to be available")
	}

	services.SetChatService(nil)
	if services.ChatService() != nil {
		t.Error("expected nil chat service after clearing")
	}
	if config.LLMAvailable() {
		t.Error("expected LLM to be unavailable")
	}
	if !mock.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_ValidateAndSetEmbedding(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres", "postgres")
	services := NewServices(config)
	ctx := context.Background()

	t.Run("successful validation", func(t *testing.T) {
		mock := newEmbeddingTracker()
		if err := services.ValidateAndSetEmbedding(ctx, mock); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if services.EmbeddingService() == nil {
			t.Error("expected embedding service to be set")
		}
	})

	t.Run("failed validation", func(t *testing.T) {
		mock := newEmbeddingTracker()
		mock.healthErr = errors.New("connection failed")
		if err := services.ValidateAndSetEmbedding(ctx, mock); err == nil {
			t.Error("expected error")
		}
		if !mock.closed {
			t.Error("expected failed service to be closed")
		}
	})

	t.Run("nil service", func(t *testing.T) {
		if err := services.ValidateAndSetEmbedding(ctx, nil); err != nil {
			t.Errorf("unexpected error for nil service: %v", err)
		}
	})
}

func TestServices_ValidateAndSetChat(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres", "postgres")
	services := NewServices(config)
	ctx := context.Background()

	t.Run("successful validation", func(t *testing.T) {
		mock := newChatTracker()
		if err := services.ValidateAndSetChat(ctx, mock); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if services.ChatService() == nil {
			t.Error("expected chat service to be set")
		}
	})

	t.Run("failed validation", func(t *testing.T) {
		mock := newChatTracker()
		mock.healthErr = errors.New("connection failed")
		if err := services.ValidateAndSetChat(ctx, mock); err == nil {
			t.Error("expected error")
		}
		if !mock.closed {
			t.Error("expected failed service to be closed")
		}
	})

	t.Run("nil service", func(t *testing.T) {
		if err := services.ValidateAndSetChat(ctx, nil); err != nil {
			t.Errorf("unexpected error for nil service: %v", err)
		}
	})
}

func TestServices_Close(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres", "postgres")
	services := NewServices(config)

	embMock := newEmbeddingTracker()
	chatMock := newChatTracker()

	services.SetEmbeddingService(embMock)
	services.SetChatService(chatMock)

	if err := services.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !embMock.closed {
		t.Error("expected embedding service to be closed")
	}
	if !chatMock.closed {
		t.Error("expected chat service to be closed")
	}
}

func TestServices_ReplaceService_ClosesOld(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres", "postgres")
	services := NewServices(config)

	old := newEmbeddingTracker()
	next := newEmbeddingTracker()

	services.SetEmbeddingService(old)
	services.SetEmbeddingService(next)

	if !old.closed {
		t.Error("expected old service to be closed when replaced")
	}
	if next.closed {
		t.Error("expected new service to remain open")
	}
}
