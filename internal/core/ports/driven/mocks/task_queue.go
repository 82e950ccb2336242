package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

// MockTaskQueue is an in-memory, FIFO test double for driven.TaskQueue.
type MockTaskQueue struct {
	mu      sync.Mutex
	tasks   map[string]*domain.Task
	pending chan *domain.Task
	nacked  []string
}

func NewMockTaskQueue() *MockTaskQueue {
	return &MockTaskQueue{
		tasks:   make(map[string]*domain.Task),
		pending: make(chan *domain.Task, 4096),
	}
}

func (q *MockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	q.mu.Lock()
	q.tasks[task.ID] = task
	q.mu.Unlock()
	q.pending <- task
	return nil
}

func (q *MockTaskQueue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	for _, t := range tasks {
		if err := q.Enqueue(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (q *MockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	select {
	case task := <-q.pending:
		return task, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Duration(timeout) * time.Second):
		return nil, nil
	}
}

func (q *MockTaskQueue) Ack(ctx context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.tasks, taskID)
	return nil
}

func (q *MockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nacked = append(q.nacked, taskID)
	return nil
}

func (q *MockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[taskID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

func (q *MockTaskQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return &driven.QueueStats{PendingCount: int64(len(q.pending))}, nil
}

func (q *MockTaskQueue) Ping(ctx context.Context) error { return nil }
func (q *MockTaskQueue) Close() error                   { return nil }

// Nacked reports task IDs Nack has been called with, for assertions.
func (q *MockTaskQueue) Nacked() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.nacked...)
}
