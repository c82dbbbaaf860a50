package interfaces

import (
	"context"

	"go-catalog-cache/internal/models"
)

//go:generate mockgen -package=mock -source=backend.go -destination=mock/backend.go

// Backend is the remote catalog data store
type Backend interface {
	// ExecuteQuery runs q and returns the matching rows plus the total row count.
	// queryKey identifies the query shape for logging and tracing only.
	ExecuteQuery(ctx context.Context, queryKey string, q models.BackendQuery) (*models.QueryResult, error)
}
