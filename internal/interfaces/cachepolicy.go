package interfaces

import "go-catalog-cache/internal/models"

//go:generate mockgen -package=mock -source=cachepolicy.go -destination=mock/cachepolicy.go

// TTLPolicy resolves the freshness window configured for an entity class
type TTLPolicy interface {
	Resolve(class models.EntityClass) models.TTL
}
