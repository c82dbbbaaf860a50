package executor

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"go-catalog-cache/internal/interfaces"
	"go-catalog-cache/internal/metrics"
)

// Ensure Executor implements interfaces.QueryExecutor
var _ interfaces.QueryExecutor = (*Executor)(nil)

// Executor runs backend fetches under a per-attempt deadline with exponential backoff retries
type Executor struct {
	policy RetryPolicy
	logger *zap.Logger
}

// New creates an Executor for the given policy
func New(policy RetryPolicy, logger *zap.Logger) *Executor {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BackoffMultiplier < 1 {
		policy.BackoffMultiplier = 1
	}
	if policy.AttemptTimeout <= 0 {
		policy.AttemptTimeout = DefaultRetryPolicy().AttemptTimeout
	}
	return &Executor{
		policy: policy,
		logger: logger,
	}
}

// Policy returns the retry policy in effect
func (e *Executor) Policy() RetryPolicy {
	return e.policy
}

// Do runs fetch until it succeeds, the retries are exhausted or ctx ends.
// It returns either the fetched data, an *ExhaustedRetriesError or a *CancellationError.
func (e *Executor) Do(ctx context.Context, op string, fetch interfaces.FetchFunc) (interface{}, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		metrics.ObserveBackendQuery("cancelled", time.Since(start))
		return nil, &CancellationError{Err: err}
	}

	var (
		result   interface{}
		attempts int
		lastErr  error
	)

	operation := func() error {
		attempts++
		data, err := e.attempt(ctx, attempts, fetch)
		metrics.RecordBackendAttempt(err)
		if err == nil {
			result = data
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(&CancellationError{Err: ctxErr})
		}
		lastErr = err
		return err
	}

	notify := func(err error, wait time.Duration) {
		metrics.RecordBackendRetry()
		e.logger.Warn("Backend query attempt failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", e.policy.MaxAttempts()),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	err := backoff.RetryNotify(operation, e.newBackOff(ctx), notify)
	if err == nil {
		metrics.ObserveBackendQuery("success", time.Since(start))
		return result, nil
	}

	var cancelErr *CancellationError
	if errors.As(err, &cancelErr) {
		metrics.ObserveBackendQuery("cancelled", time.Since(start))
		return nil, cancelErr
	}
	// ctx ended while sleeping between attempts
	if ctxErr := ctx.Err(); ctxErr != nil {
		metrics.ObserveBackendQuery("cancelled", time.Since(start))
		return nil, &CancellationError{Err: ctxErr}
	}

	metrics.ObserveBackendQuery("exhausted", time.Since(start))
	e.logger.Error("Backend query failed, retries exhausted",
		zap.String("op", op),
		zap.Int("attempts", attempts),
		zap.Error(lastErr))
	return nil, &ExhaustedRetriesError{Attempts: attempts, Err: lastErr}
}

// attempt runs fetch once under the per-attempt deadline. An attempt that ignores its
// context is abandoned when the deadline passes.
func (e *Executor) attempt(ctx context.Context, n int, fetch interfaces.FetchFunc) (interface{}, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.policy.AttemptTimeout)
	defer cancel()

	type outcome struct {
		data interface{}
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		data, err := fetch(attemptCtx)
		done <- outcome{data: data, err: err}
	}()

	select {
	case out := <-done:
		if out.err == nil {
			return out.data, nil
		}
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Attempt: n, Timeout: e.policy.AttemptTimeout}
		}
		return nil, &BackendError{Attempt: n, Err: out.err}
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &TimeoutError{Attempt: n, Timeout: e.policy.AttemptTimeout}
	}
}

func (e *Executor) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = e.policy.BackoffBase
	exp.Multiplier = e.policy.BackoffMultiplier
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.MaxInterval = time.Duration(math.MaxInt64)
	if e.policy.MaxBackoff > 0 {
		exp.MaxInterval = e.policy.MaxBackoff
	}
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(e.policy.MaxRetries)), ctx)
}
