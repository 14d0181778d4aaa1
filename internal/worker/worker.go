// Package worker consumes the generation queue: it runs jobs against the
// provider, records their outcome, and delivers results back to users.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/genstudio-io/genstudio-be/internal/delivery"
	"github.com/genstudio-io/genstudio-be/internal/diagnostics"
	"github.com/genstudio-io/genstudio-be/internal/domain"
	"github.com/genstudio-io/genstudio-be/shared/rabbitmq"
)

// Store is the persistence surface the worker needs.
type Store interface {
	ClaimJob(ctx context.Context, jobID int64) (*domain.Job, error)
	CompleteJob(ctx context.Context, jobID int64, result *domain.Result) error
	FailJob(ctx context.Context, jobID int64, message string) error
	SetDeliveryFailed(ctx context.Context, jobID int64, failed bool) error
	JobByID(ctx context.Context, jobID int64) (*domain.Job, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)
	ListActiveUsers(ctx context.Context) ([]domain.User, error)
	DeactivateUser(ctx context.Context, userID int64) error
}

// Generator runs a generation request to completion.
type Generator interface {
	Submit(ctx context.Context, payload domain.RequestPayload) (*domain.Result, error)
}

// Deliverer pushes results and messages to users.
type Deliverer interface {
	Deliver(ctx context.Context, user *domain.User, job *domain.Job) bool
	SendText(ctx context.Context, externalID int64, text string) bool
}

var _ Deliverer = (*delivery.Service)(nil)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Store         Store
	Generator     Generator
	Deliverer     Deliverer
	RabbitClient  *rabbitmq.Client
	Recorder      *diagnostics.Recorder
	Concurrency   int
	PrefetchCount int
	JobTimeout    time.Duration
}

// Worker represents the background generation worker
type Worker struct {
	logger        *slog.Logger
	store         Store
	generator     Generator
	deliverer     Deliverer
	rabbitClient  *rabbitmq.Client
	recorder      *diagnostics.Recorder
	concurrency   int
	prefetchCount int
	jobTimeout    time.Duration
	workerID      string
	tasksChan     chan *taskMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = diagnostics.NewRecorder()
	}
	return &Worker{
		logger:        cfg.Logger,
		store:         cfg.Store,
		generator:     cfg.Generator,
		deliverer:     cfg.Deliverer,
		rabbitClient:  cfg.RabbitClient,
		recorder:      recorder,
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		jobTimeout:    cfg.JobTimeout,
		workerID:      fmt.Sprintf("worker-%s", uuid.New().String()[:8]),
		tasksChan:     make(chan *taskMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing until the context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	w.spawnPool(ctx)
	w.runDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...",
		slog.String("worker_id", w.workerID),
	)
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}

// Recorder exposes the failure window for health probes.
func (w *Worker) Recorder() *diagnostics.Recorder {
	return w.recorder
}
