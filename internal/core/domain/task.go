package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// GenerateID creates a unique random identifier.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Stage identifies one of the three ordered ingestion-pipeline jobs
// from spec 4.5. Jobs for the same document must run in this order.
type Stage string

const (
	StageExtractText        Stage = "extract_text"
	StageGenerateMetadata   Stage = "generate_metadata"
	StageGenerateEmbeddings Stage = "generate_embeddings"
)

// Stages lists the pipeline in execution order.
var Stages = []Stage{StageExtractText, StageGenerateMetadata, StageGenerateEmbeddings}

// Next returns the stage that follows s, or "" if s is the last stage.
func (s Stage) Next() Stage {
	for i, st := range Stages {
		if st == s && i+1 < len(Stages) {
			return Stages[i+1]
		}
	}
	return ""
}

// TaskStatus is the current state of a queued Task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task is a queued {doc_id, stage} message consumed by the job runner
// (spec 9's design note: "background jobs map to a worker pool
// consuming a queue of {doc_id, stage} messages").
type Task struct {
	ID           string     `json:"id"`
	DocumentID   string     `json:"document_id"`
	Stage        Stage      `json:"stage"`
	ChunkSize    int        `json:"chunk_size,omitempty"`
	Overlap      int        `json:"overlap,omitempty"`
	Status       TaskStatus `json:"status"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ScheduledFor time.Time  `json:"scheduled_for"`
}

// NewTask creates a pending task for the given document/stage pair.
func NewTask(documentID string, stage Stage) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		DocumentID:   documentID,
		Stage:        stage,
		Status:       TaskStatusPending,
		MaxAttempts:  3,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// CanRetry reports whether the task has attempts remaining.
func (t *Task) CanRetry() bool { return t.Attempts < t.MaxAttempts }

// IsReady reports whether the task is due for processing.
func (t *Task) IsReady() bool {
	return t.Status == TaskStatusPending && time.Now().After(t.ScheduledFor)
}

// MarkProcessing transitions the task into the processing state.
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Attempts++
}

// MarkCompleted transitions the task into the completed state.
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.Error = ""
}

// MarkFailed transitions the task into the failed state.
func (t *Task) MarkFailed(err string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.UpdatedAt = now
	t.Error = err
}

// Retry resets the task to pending with exponential backoff.
func (t *Task) Retry(err string) {
	now := time.Now()
	t.Status = TaskStatusPending
	t.UpdatedAt = now
	t.Error = err
	backoff := time.Duration(1<<t.Attempts) * time.Second
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	t.ScheduledFor = now.Add(backoff)
}

// TaskResult is the outcome of processing a single Task.
type TaskResult struct {
	TaskID   string        `json:"task_id"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}
