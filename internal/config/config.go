package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"go-catalog-cache/internal/executor"
)

const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
)

var validate = validator.New()

// Config represents the main configuration structure
type Config struct {
	Server  ServerConfig          `yaml:"server"`
	Backend BackendConfig         `yaml:"backend"`
	Retry   *executor.RetryPolicy `yaml:"retry" validate:"required"`
	Warmup  WarmupConfig          `yaml:"warmup"`
	Metrics MetricsConfig         `yaml:"metrics"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"gte=1,lte=65535"`
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	// SocketPath switches the listener to a Unix socket when set
	SocketPath string `yaml:"socket_path"`
}

// BackendConfig selects and configures the catalog data store
type BackendConfig struct {
	Driver   string `yaml:"driver" validate:"oneof=rest postgres"`
	URL      string `yaml:"url" validate:"required,url"`
	APIKey   string `yaml:"api_key"`
	MaxConns int32  `yaml:"max_conns" validate:"gte=0"`
}

// WarmupConfig controls background pre-fetching of hot catalog keys
type WarmupConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
}

// MetricsConfig controls periodic collection of cache gauges
type MetricsConfig struct {
	StoreStatsInterval time.Duration `yaml:"store_stats_interval" validate:"gte=0"`
}

// LoadConfig loads configuration from file path
func LoadConfig(configPath string, logger *zap.Logger) (*Config, error) {
	logger.Info("Loading configuration", zap.String("path", configPath))

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var config Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	// Apply defaults
	config.applyDefaults()
	return &config, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	if c.Backend.Driver == "" {
		c.Backend.Driver = DriverREST
	}
	if c.Backend.MaxConns == 0 {
		c.Backend.MaxConns = 10
	}

	// A missing retry section means the default policy
	if c.Retry == nil {
		def := executor.DefaultRetryPolicy()
		c.Retry = &def
	} else {
		c.Retry.ApplyDefaults()
	}

	if c.Warmup.Enabled && c.Warmup.Interval == 0 {
		c.Warmup.Interval = time.Minute
	}
	if c.Metrics.StoreStatsInterval == 0 {
		c.Metrics.StoreStatsInterval = 15 * time.Second
	}
}

// Validate checks the configuration once every override has been applied
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("invalid retry policy: %w", err)
	}
	return nil
}

// RetryOutlivesRequest reports whether a miss can take longer than the request deadline.
// Such a request is cancelled before the retries are exhausted.
func (c *Config) RetryOutlivesRequest() bool {
	return c.Retry.WorstCaseLatency() > c.Server.RequestTimeout
}
