package worker

import (
	"context"
	"errors"
)

// JobHandler is implemented once per job type.
type JobHandler interface {
	// Type returns the job type identifier this handler processes.
	// It must match the type column in the jobs table.
	Type() string

	// Handle executes the job. The payload is raw JSON from the database.
	// Return a PermanentError (via NewPermanentError) to skip retries.
	Handle(ctx context.Context, payload []byte) error
}

// PermanentError wraps an error to indicate it should not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError marks an error as not worth retrying.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent checks if an error chain contains a PermanentError.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}
