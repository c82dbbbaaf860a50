package cache_rules

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"go-catalog-cache/internal/models"
)

// LoadCacheRulesConfig loads cache rules from a YAML file and returns a TTL policy
func LoadCacheRulesConfig(rulesPath string, logger *zap.Logger) (*CacheConfig, error) {
	logger.Info("Loading cache rules config", zap.String("path", rulesPath))

	file, err := os.Open(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache rules file: %w", err)
	}
	defer file.Close()

	var config CacheRulesConfig
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML cache rules: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("cache rules validation failed: %w", err)
	}

	logger.Info("Cache rules config loaded successfully", zap.Int("sections", len(config.TTLDefaults)))

	return NewCacheConfig(&config, logger), nil
}

// validateConfig validates the cache rules configuration structure
func validateConfig(config *CacheRulesConfig) error {
	if len(config.TTLDefaults) == 0 {
		return fmt.Errorf("missing ttl_defaults section")
	}

	// Check for default TTL section
	if _, ok := config.TTLDefaults[DefaultSection]; !ok {
		return fmt.Errorf("missing ttl_defaults.default section")
	}

	for key, ttl := range config.TTLDefaults {
		if key != DefaultSection && !models.EntityClass(key).Valid() {
			return fmt.Errorf("unknown entity class %q in ttl_defaults", key)
		}
		if err := ttl.Validate(); err != nil {
			return fmt.Errorf("ttl_defaults.%s: %w", key, err)
		}
	}

	return nil
}
