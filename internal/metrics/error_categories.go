package metrics

import (
	"context"
	"errors"
	"net"
)

// ErrorCategory represents a categorized error type for backend attempts
type ErrorCategory string

const (
	// NoError indicates a successful attempt
	NoError ErrorCategory = "none"

	// TimeoutError indicates the attempt exceeded its deadline
	TimeoutError ErrorCategory = "timeout"

	// CancelledError indicates the caller went away
	CancelledError ErrorCategory = "cancelled"

	// NetworkError indicates transport level issues (connection resets, DNS, etc.)
	NetworkError ErrorCategory = "network_error"

	// BackendError indicates the data store answered with a negative acknowledgement
	BackendError ErrorCategory = "backend_error"
)

// CategorizeError takes an error and returns the appropriate ErrorCategory
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return NoError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError
	}

	if errors.Is(err, context.Canceled) {
		return CancelledError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return TimeoutError
		}
		return NetworkError
	}

	return BackendError
}
