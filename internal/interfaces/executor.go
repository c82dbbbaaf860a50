package interfaces

import "context"

// FetchFunc performs one backend fetch and returns the decoded payload
type FetchFunc func(ctx context.Context) (interface{}, error)

// QueryExecutor runs a fetch with bounded latency and bounded retries
type QueryExecutor interface {
	Do(ctx context.Context, op string, fetch FetchFunc) (interface{}, error)
}
