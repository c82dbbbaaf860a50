package cache_rules

import (
	"time"

	"go.uber.org/zap"

	"go-catalog-cache/internal/interfaces"
	"go-catalog-cache/internal/models"
)

// CacheConfig implements the TTLPolicy interface
type CacheConfig struct {
	config *CacheRulesConfig
	logger *zap.Logger
}

// Ensure CacheConfig implements the TTLPolicy interface
var _ interfaces.TTLPolicy = (*CacheConfig)(nil)

// NewCacheConfig creates a new CacheConfig instance
func NewCacheConfig(config *CacheRulesConfig, logger *zap.Logger) *CacheConfig {
	if config == nil {
		panic("config cannot be nil")
	}
	return &CacheConfig{
		config: config,
		logger: logger,
	}
}

// Resolve implements TTLPolicy interface
func (cr *CacheConfig) Resolve(class models.EntityClass) models.TTL {
	if len(cr.config.TTLDefaults) == 0 {
		return FallbackTTL(class)
	}

	// Try class-specific config first
	if ttl, ok := cr.lookupTTL(string(class)); ok {
		return ttl
	}

	// Fall back to default config
	if ttl, ok := cr.lookupTTL(DefaultSection); ok {
		if cr.logger != nil {
			cr.logger.Debug("No TTL configured for entity class, using default",
				zap.String("class", string(class)))
		}
		return ttl
	}

	return FallbackTTL(class)
}

// lookupTTL looks up a usable TTL window from config
func (cr *CacheConfig) lookupTTL(key string) (models.TTL, bool) {
	ttl, ok := cr.config.TTLDefaults[key]
	if !ok || ttl.Validate() != nil {
		return models.TTL{}, false
	}
	return ttl, true
}

// Classes returns the entity classes with an explicit window
func (cr *CacheConfig) Classes() []models.EntityClass {
	classes := make([]models.EntityClass, 0, len(cr.config.TTLDefaults))
	for _, class := range models.AllEntityClasses {
		if _, ok := cr.config.TTLDefaults[string(class)]; ok {
			classes = append(classes, class)
		}
	}
	return classes
}

// FallbackTTL provides TTL windows when config is not available
func FallbackTTL(class models.EntityClass) models.TTL {
	fallbackTTLs := map[models.EntityClass]models.TTL{
		models.EntityClassProductList:   {Fresh: 30 * time.Second, Stale: 5 * time.Minute},
		models.EntityClassProductDetail: {Fresh: time.Minute, Stale: 10 * time.Minute},
		models.EntityClassCategoryList:  {Fresh: 5 * time.Minute, Stale: time.Hour},
		models.EntityClassPlatformList:  {Fresh: 5 * time.Minute, Stale: time.Hour},
		models.EntityClassBanners:       {Fresh: 2 * time.Minute, Stale: 30 * time.Minute},
	}

	if ttl, ok := fallbackTTLs[class]; ok {
		return ttl
	}

	return models.TTL{Fresh: 30 * time.Second, Stale: 5 * time.Minute}
}
