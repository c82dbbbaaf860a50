package cache_rules

import (
	"go-catalog-cache/internal/models"
)

// DefaultSection is the ttl_defaults entry used for classes without their own window
const DefaultSection = "default"

// CacheRulesConfig represents the cache rules configuration
type CacheRulesConfig struct {
	// TTLDefaults is keyed by entity class name or DefaultSection
	TTLDefaults map[string]models.TTL `yaml:"ttl_defaults"`
}
