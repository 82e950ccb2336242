package driven

import (
	"context"

	"github.com/ragforge/ragcore/internal/core/domain"
)

// TaskQueue queues the {doc_id, stage} messages the job runner (C7)
// consumes. Implementations: redis (preferred) or postgres (fallback),
// matching the donor's dual-backend queue pattern.
type TaskQueue interface {
	Enqueue(ctx context.Context, task *domain.Task) error
	EnqueueBatch(ctx context.Context, tasks []*domain.Task) error

	// DequeueWithTimeout waits up to timeout for a task, returning
	// nil, nil if none became available.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	Ack(ctx context.Context, taskID string) error
	Nack(ctx context.Context, taskID string, reason string) error

	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	Stats(ctx context.Context) (*QueueStats, error)

	Ping(ctx context.Context) error
	Close() error
}

// QueueStats summarizes queue depth for the health-check surface.
type QueueStats struct {
	PendingCount    int64 `json:"pending_count"`
	ProcessingCount int64 `json:"processing_count"`
	FailedCount     int64 `json:"failed_count"`
}
