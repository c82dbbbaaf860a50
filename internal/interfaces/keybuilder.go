package interfaces

import "go-catalog-cache/internal/models"

// KeyBuilder canonizes catalog requests into deterministic cache keys
type KeyBuilder interface {
	// BuildList returns the key of a filtered listing of resource
	BuildList(resource string, opts models.QueryOptions) (string, error)
	// BuildDetail returns the key of a single resource item
	BuildDetail(resource, id string) (string, error)
}
