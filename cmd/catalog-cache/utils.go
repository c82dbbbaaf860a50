package main

import (
	"os"
	"strings"

	"go.uber.org/zap"
)

// GetBackendURL returns the catalog data store URL with the following priority:
// 1. CATALOG_BACKEND_URL environment variable
// 2. configured value
func GetBackendURL(configured string, logger *zap.Logger) string {
	if backendURL := os.Getenv("CATALOG_BACKEND_URL"); backendURL != "" {
		logger.Debug("Using backend URL from environment variable")
		return backendURL
	}
	return configured
}

// GetBackendAPIKey returns the data store API key with the following priority:
// 1. CATALOG_BACKEND_API_KEY environment variable
// 2. CATALOG_BACKEND_KEY_FILE file content
// 3. configured value
func GetBackendAPIKey(configured string, logger *zap.Logger) string {
	// Priority 1: Environment variable
	if apiKey := os.Getenv("CATALOG_BACKEND_API_KEY"); apiKey != "" {
		logger.Debug("Using backend API key from environment variable")
		return apiKey
	}

	// Priority 2: Configurable key file path
	keyFile := os.Getenv("CATALOG_BACKEND_KEY_FILE")
	if keyFile == "" {
		keyFile = "/app/.backend-key"
	}

	if content, err := os.ReadFile(keyFile); err == nil {
		apiKey := strings.TrimSpace(string(content))
		if len(apiKey) > 0 {
			logger.Debug("Using backend API key from key file", zap.String("file", keyFile))
			return apiKey
		}
	} else {
		logger.Debug("Backend key file not found or empty", zap.String("file", keyFile))
	}

	// Priority 3: Configured value
	return configured
}
