// Package worker implements the background job processor.
//
// Jobs live in the jobs table and are claimed atomically with
// FOR UPDATE SKIP LOCKED, so multiple worker goroutines (or multiple
// processes) can poll the same queue safely.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pinmark/pinmark/internal/metrics"
	"github.com/pinmark/pinmark/internal/repository"
)

// Worker manages background job processing with concurrent pollers.
type Worker struct {
	queries  *repository.Queries
	handlers map[string]JobHandler
	config   Config
	logger   *slog.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New creates a Worker. Start it with Start() and stop it with Stop().
func New(queries *repository.Queries, config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		queries:  queries,
		handlers: make(map[string]JobHandler),
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Register adds a job handler. The handler's Type() must be unique.
// Call this before Start().
func (w *Worker) Register(handler JobHandler) {
	jobType := handler.Type()
	if _, exists := w.handlers[jobType]; exists {
		w.logger.Warn("overwriting existing handler", "job_type", jobType)
	}
	w.handlers[jobType] = handler
	w.logger.Debug("registered job handler", "job_type", jobType)
}

// Start begins processing jobs with the configured concurrency.
// Stale jobs left running by a crashed worker are recovered first.
func (w *Worker) Start(ctx context.Context) {
	if err := w.recoverStaleJobs(ctx); err != nil {
		w.logger.Error("failed to recover stale jobs", "error", err)
	}

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i+1)
	}

	w.logger.Info("worker started", "concurrency", w.config.Concurrency)
}

// Stop signals all pollers to stop and waits for them up to the configured
// shutdown timeout.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker")
	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("worker shutdown timeout exceeded, some jobs may still be running")
	}
}

func (w *Worker) recoverStaleJobs(ctx context.Context) error {
	count, err := w.queries.RecoverStaleJobs(ctx, w.config.StaleJobThreshold)
	if err != nil {
		return fmt.Errorf("recover stale jobs: %w", err)
	}
	if count > 0 {
		w.logger.Warn("recovered stale jobs", "count", count, "threshold", w.config.StaleJobThreshold)
	}
	return nil
}

// runWorker polls for jobs until stopCh is closed.
func (w *Worker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	logger := w.logger.With("worker_id", workerID)
	logger.Debug("poller started")

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			logger.Debug("poller stopping")
			return
		case <-ticker.C:
			if err := w.processNextJob(ctx, logger); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue // queue empty
				}
				logger.Error("failed to process job", "error", err)
			}
		}
	}
}

// processNextJob claims and executes a single job.
// Returns sql.ErrNoRows when the queue is empty.
func (w *Worker) processNextJob(ctx context.Context, logger *slog.Logger) error {
	job, err := w.queries.ClaimNextJob(ctx)
	if err != nil {
		return err
	}

	logger = logger.With("job_id", job.ID, "job_type", job.Type, "attempt", job.Attempts)
	logger.Info("processing job")

	start := time.Now()
	err = w.executeJob(ctx, job)
	metrics.JobDuration.WithLabelValues(job.Type).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error("job failed", "error", err)
		metrics.JobsTotal.WithLabelValues(job.Type, "failed").Inc()
		w.markJobFailed(ctx, job, err, logger)
		return nil
	}

	logger.Info("job completed")
	metrics.JobsTotal.WithLabelValues(job.Type, "completed").Inc()
	if err := w.queries.CompleteJob(ctx, job.ID); err != nil {
		logger.Error("failed to mark job as completed", "error", err)
		return err
	}

	return nil
}

// executeJob runs the handler for the job under the job timeout.
func (w *Worker) executeJob(ctx context.Context, job repository.Job) error {
	handler, ok := w.handlers[job.Type]
	if !ok {
		return NewPermanentError(fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	return handler.Handle(jobCtx, job.Payload)
}

// markJobFailed records the failure. Permanent errors exhaust the job
// immediately by scheduling with zero remaining backoff budget; retryable
// errors get a linear backoff scaled by the attempt count.
func (w *Worker) markJobFailed(ctx context.Context, job repository.Job, jobErr error, logger *slog.Logger) {
	backoff := w.config.RetryBackoff * time.Duration(job.Attempts)
	if IsPermanent(jobErr) {
		// Force exhaustion: FailJob marks the job failed once attempts
		// reach max_attempts, which a permanent error should emulate.
		if err := w.queries.ExhaustJob(ctx, job.ID, jobErr.Error()); err != nil {
			logger.Error("failed to mark job as permanently failed", "error", err)
		}
		return
	}

	metrics.JobRetriesTotal.WithLabelValues(job.Type).Inc()
	if err := w.queries.FailJob(ctx, job.ID, jobErr.Error(), backoff); err != nil {
		logger.Error("failed to record job failure", "error", err)
	}
}
