package interfaces

import (
	"context"

	"go-catalog-cache/internal/models"
)

// ReadThroughCache serves values for a key, fetching through fetch when needed
type ReadThroughCache interface {
	Fetch(ctx context.Context, key string, ttl models.TTL, fetch FetchFunc) (interface{}, models.CacheStatus, error)
}
