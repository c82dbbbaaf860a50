package executor

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError reports a single attempt that exceeded its deadline
type TimeoutError struct {
	Attempt int
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("attempt %d timed out after %s", e.Attempt, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// BackendError reports a negative acknowledgement from the data store
type BackendError struct {
	Attempt int
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("attempt %d failed: %v", e.Attempt, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ExhaustedRetriesError is returned once every allowed attempt has failed.
// Err is the error of the last attempt.
type ExhaustedRetriesError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("backend query failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Err
}

// CancellationError is returned when the caller's context ends before a result is available
type CancellationError struct {
	Err error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("backend query cancelled: %v", e.Err)
}

func (e *CancellationError) Unwrap() error {
	return e.Err
}
