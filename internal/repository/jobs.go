package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job statuses
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// Job is a row in the background job queue.
type Job struct {
	ID          uuid.UUID
	Type        string
	Payload     json.RawMessage
	Status      string
	Attempts    int
	MaxAttempts int
	LastError   string
	RunAt       time.Time
	CreatedAt   time.Time
}

// EnqueueJob inserts a pending job.
func (q *Queries) EnqueueJob(ctx context.Context, jobType string, payload json.RawMessage, maxAttempts int) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO jobs (type, payload, max_attempts)
		VALUES ($1, $2, $3)
		RETURNING id`,
		jobType, payload, maxAttempts).Scan(&id)
	return id, err
}

// ClaimNextJob atomically claims the oldest runnable pending job.
// Returns sql.ErrNoRows when the queue is empty.
func (q *Queries) ClaimNextJob(ctx context.Context) (Job, error) {
	var (
		j         Job
		lastError sql.NullString
	)
	err := q.db.QueryRowContext(ctx, `
		UPDATE jobs SET status = $1, started_at = now(), attempts = attempts + 1
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = $2 AND run_at <= now()
			ORDER BY run_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, type, payload, status, attempts, max_attempts, last_error, run_at, created_at`,
		JobStatusRunning, JobStatusPending).
		Scan(&j.ID, &j.Type, &j.Payload, &j.Status, &j.Attempts, &j.MaxAttempts, &lastError, &j.RunAt, &j.CreatedAt)
	if lastError.Valid {
		j.LastError = lastError.String
	}
	return j, err
}

// CompleteJob marks a job done.
func (q *Queries) CompleteJob(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET status = $2, finished_at = now() WHERE id = $1`,
		id, JobStatusDone)
	return err
}

// FailJob records a failure. Jobs with attempts remaining are rescheduled
// with a linear backoff; exhausted jobs are marked failed.
func (q *Queries) FailJob(ctx context.Context, id uuid.UUID, jobErr string, backoff time.Duration) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = CASE WHEN attempts >= max_attempts THEN $3 ELSE $4 END,
			last_error = $2,
			run_at = now() + $5 * INTERVAL '1 second',
			finished_at = CASE WHEN attempts >= max_attempts THEN now() ELSE NULL END
		WHERE id = $1`,
		id, jobErr, JobStatusFailed, JobStatusPending, int(backoff.Seconds()))
	return err
}

// ExhaustJob marks a job failed regardless of attempts remaining.
// Used for permanent errors that retrying cannot fix.
func (q *Queries) ExhaustJob(ctx context.Context, id uuid.UUID, jobErr string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET status = $2, last_error = $3, finished_at = now() WHERE id = $1`,
		id, JobStatusFailed, jobErr)
	return err
}

// RecoverStaleJobs resets jobs stuck in running longer than threshold.
// Handles workers that crashed mid-job.
func (q *Queries) RecoverStaleJobs(ctx context.Context, threshold time.Duration) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET status = $1, started_at = NULL
		WHERE status = $2 AND started_at < now() - $3 * INTERVAL '1 second'`,
		JobStatusPending, JobStatusRunning, int(threshold.Seconds()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
