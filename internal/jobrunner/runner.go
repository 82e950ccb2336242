package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
	"github.com/ragforge/ragcore/internal/runtime"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// MetadataGenerator is the subset of the Metadata Generator (C6) the
// runner needs. Declared here rather than imported from services to
// avoid a jobrunner<->services import cycle; services.MetadataService
// satisfies it without change.
type MetadataGenerator interface {
	Generate(ctx context.Context, docType domain.DocumentType, content string, fileMetadata domain.FileMetadata, existing domain.Metadata) (domain.Metadata, []domain.ValidationWarning, error)
}

// Runner drains the ingestion pipeline's task queue and executes the
// three ordered stages (C7): extract_text, generate_metadata,
// generate_embeddings. Structured after the donor's worker pool: a
// fixed number of goroutines each loop dequeue-process-ack/nack, but
// a document-scoped lock keeps the three stages for one document from
// ever running concurrently with each other while documents still
// process in parallel.
type Runner struct {
	taskQueue     driven.TaskQueue
	lock          driven.DistributedLock
	documentStore driven.DocumentStore
	contentStore  driven.ContentStore
	embeddingStore driven.EmbeddingStore
	vectorSearch  driven.VectorSearch
	parsers       driven.ParserRegistry
	chunker       driven.Chunker
	metadata      MetadataGenerator
	services      *runtime.Services
	chunking      domain.ChunkingConfig
	embeddingModel string
	logger        *slog.Logger

	concurrency    int
	dequeueTimeout int

	// embedSF collapses duplicate concurrent generate_embeddings runs
	// for the same document into one, on top of the per-document
	// distributed lock: the lock keeps stages from overlapping across
	// processes, singleflight keeps a second in-process worker that
	// raced for the same document from redoing the embed calls.
	embedSF singleflight.Group

	mu      sync.RWMutex
	running bool
	group   *errgroup.Group
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config wires every dependency a Runner needs.
type Config struct {
	TaskQueue      driven.TaskQueue
	Lock           driven.DistributedLock
	DocumentStore  driven.DocumentStore
	ContentStore   driven.ContentStore
	EmbeddingStore driven.EmbeddingStore
	VectorSearch   driven.VectorSearch
	Parsers        driven.ParserRegistry
	Chunker        driven.Chunker
	Metadata       MetadataGenerator
	Services       *runtime.Services
	Chunking       domain.ChunkingConfig
	EmbeddingModel string
	Logger         *slog.Logger
	Concurrency    int
	DequeueTimeout int
}

func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}
	chunking := cfg.Chunking
	if chunking.ChunkSize <= 0 {
		chunking = domain.DefaultChunkingConfig()
	}

	return &Runner{
		taskQueue:      cfg.TaskQueue,
		lock:           cfg.Lock,
		documentStore:  cfg.DocumentStore,
		contentStore:   cfg.ContentStore,
		embeddingStore: cfg.EmbeddingStore,
		vectorSearch:   cfg.VectorSearch,
		parsers:        cfg.Parsers,
		chunker:        cfg.Chunker,
		metadata:       cfg.Metadata,
		services:       cfg.Services,
		chunking:       chunking,
		embeddingModel: cfg.EmbeddingModel,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// UpdateConfig swaps the chunking defaults and embedding model a
// Client.Configure call supplies, without requiring the runner to
// stop. Zero values leave the corresponding field unchanged.
func (r *Runner) UpdateConfig(chunking domain.ChunkingConfig, embeddingModel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chunking.ChunkSize > 0 {
		r.chunking = chunking
	}
	if embeddingModel != "" {
		r.embeddingModel = embeddingModel
	}
}

func (r *Runner) configSnapshot() (domain.ChunkingConfig, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chunking, r.embeddingModel
}

// Start launches r.concurrency worker goroutines under an errgroup,
// bounding the per-document-parallel fan-out the concurrency contract
// allows (spec 5). Workers never return an error from processLoop
// (task-level failures are Nack'd, not propagated), so g.Wait() in
// Stop only ever blocks on the workers observing stopCh/ctx.Done.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	group, groupCtx := errgroup.WithContext(ctx)
	r.group = group
	r.mu.Unlock()

	r.logger.Info("job runner starting", "concurrency", r.concurrency)

	for i := 0; i < r.concurrency; i++ {
		workerID := i
		group.Go(func() error {
			r.processLoop(groupCtx, workerID)
			return nil
		})
	}

	go func() {
		_ = group.Wait()
		close(r.doneCh)
	}()
}

func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	close(r.stopCh)
	r.mu.Unlock()

	<-r.doneCh

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	r.logger.Info("job runner stopped")
}

func (r *Runner) processLoop(ctx context.Context, workerID int) {
	logger := r.logger.With("worker_id", workerID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		default:
		}

		task, err := r.taskQueue.DequeueWithTimeout(ctx, r.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("dequeue failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		r.processTask(ctx, task, logger)
	}
}

// lockName scopes the per-document serialization lock named in the
// concurrency contract (spec 5: jobs for the same document never
// overlap, jobs across documents may).
func lockName(documentID string) string { return "jobrunner:doc:" + documentID }

func (r *Runner) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "document_id", task.DocumentID, "stage", task.Stage)

	acquired, err := r.lock.Acquire(ctx, lockName(task.DocumentID), 2*time.Minute)
	if err != nil {
		logger.Error("lock acquire failed", "error", err)
		_ = r.taskQueue.Nack(ctx, task.ID, err.Error())
		return
	}
	if !acquired {
		// Another stage for this document is in flight; retry shortly
		// rather than running concurrently with it.
		_ = r.taskQueue.Nack(ctx, task.ID, "document locked, retrying")
		return
	}
	defer r.lock.Release(ctx, lockName(task.DocumentID))

	start := time.Now()
	err = r.dispatch(ctx, task)
	duration := time.Since(start)

	if err != nil {
		logger.Error("stage failed", "duration", duration, "error", err)
		r.markDocumentError(ctx, task.DocumentID, err)
		if nackErr := r.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("nack failed", "error", nackErr)
		}
		return
	}

	logger.Info("stage completed", "duration", duration)
	if ackErr := r.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("ack failed", "error", ackErr)
	}
}

func (r *Runner) dispatch(ctx context.Context, task *domain.Task) error {
	switch task.Stage {
	case domain.StageExtractText:
		return r.extractText(ctx, task)
	case domain.StageGenerateMetadata:
		return r.generateMetadata(ctx, task)
	case domain.StageGenerateEmbeddings:
		return r.generateEmbeddings(ctx, task)
	default:
		return fmt.Errorf("jobrunner: unknown stage %q", task.Stage)
	}
}

// markDocumentError moves the document to StatusError per the
// concurrency contract: "on any job failure, the document moves to
// error and subsequent jobs for that document are not scheduled."
// A document that vanished mid-pipeline is not itself an error.
func (r *Runner) markDocumentError(ctx context.Context, documentID string, cause error) {
	if errors.Is(cause, domain.ErrNotFound) {
		return
	}
	if err := r.documentStore.UpdateStatus(ctx, documentID, domain.StatusError); err != nil {
		r.logger.Error("failed to mark document error", "document_id", documentID, "error", err)
	}
}

// enqueueNext schedules the stage that follows the one just
// completed, if any remain.
func (r *Runner) enqueueNext(ctx context.Context, current domain.Stage, documentID string) error {
	next := current.Next()
	if next == "" {
		return nil
	}
	return r.taskQueue.Enqueue(ctx, domain.NewTask(documentID, next))
}
