package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongodb"
	BackendIPFS   = "ipfs"
	BackendHTTP   = "http"
)

// Config holds all configuration for the lazy-mint service
type Config struct {
	// Server configuration
	HTTPPort int    `env:"LAZYMINT_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"LAZYMINT_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Status store and event bus
	Status StatusConfig

	// Redis configuration
	Redis RedisConfig

	// MongoDB configuration
	MongoDB MongoDBConfig

	// Content store configuration
	IPFS IPFSConfig

	// Marketplace configuration
	Marketplace MarketplaceConfig

	// Submission configuration
	Submission SubmissionConfig

	// Worker configuration
	Workers WorkerConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// StatusConfig selects where status cells and their events live
type StatusConfig struct {
	Backend      string        `env:"STATUS_BACKEND" envDefault:"memory"`
	TTL          time.Duration `env:"STATUS_TTL" envDefault:"24h"`
	StreamMaxLen int64         `env:"STATUS_STREAM_MAX_LEN" envDefault:"10000"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI        string `env:"MONGODB_URI"`
	Database   string `env:"MONGODB_DATABASE" envDefault:"lazymint"`
	Collection string `env:"MONGODB_COLLECTION" envDefault:"statuses"`
}

// IPFSConfig holds content store configuration
type IPFSConfig struct {
	Backend       string        `env:"IPFS_BACKEND" envDefault:"ipfs"`
	APIURL        string        `env:"IPFS_API_URL" envDefault:"http://localhost:5001"`
	ProjectID     string        `env:"IPFS_PROJECT_ID"`
	ProjectSecret string        `env:"IPFS_PROJECT_SECRET"`
	Timeout       time.Duration `env:"IPFS_TIMEOUT" envDefault:"60s"`
}

// MarketplaceConfig holds lazy-mint API configuration
type MarketplaceConfig struct {
	Backend string        `env:"MARKETPLACE_BACKEND" envDefault:"http"`
	APIURL  string        `env:"MARKETPLACE_API_URL"`
	APIKey  string        `env:"MARKETPLACE_API_KEY"`
	Host    string        `env:"MARKETPLACE_HOST" envDefault:"rinkeby.rarible.com"`
	Timeout time.Duration `env:"MARKETPLACE_TIMEOUT" envDefault:"30s"`

	// TokenAddress is the collection the memory backend mints into
	TokenAddress string `env:"MARKETPLACE_TOKEN_ADDRESS" envDefault:"0x0000000000000000000000000000000000000001"`
}

// SubmissionConfig holds orchestration settings
type SubmissionConfig struct {
	Chain          string        `env:"MINT_CHAIN" envDefault:"rinkeby"`
	MaxImageBytes  int64         `env:"SUBMIT_MAX_IMAGE_BYTES" envDefault:"33554432"` // 32 MiB
	ResubmitPolicy string        `env:"SUBMIT_RESUBMIT_POLICY" envDefault:"replace"`
	AttemptTimeout time.Duration `env:"SUBMIT_ATTEMPT_TIMEOUT" envDefault:"0s"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	PoolSize            int           `env:"WORKER_POOL_SIZE" envDefault:"5"`
	QueueSize           int           `env:"WORKER_QUEUE_SIZE" envDefault:"100"`
	HealthCheckInterval time.Duration `env:"WORKER_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	switch c.Status.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required")
		}
	case BackendMongo:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("mongodb URI is required")
		}
	default:
		return fmt.Errorf("unsupported status backend: %s (must be memory, redis or mongodb)", c.Status.Backend)
	}

	switch c.IPFS.Backend {
	case BackendMemory:
	case BackendIPFS:
		if c.IPFS.APIURL == "" {
			return fmt.Errorf("IPFS API URL is required")
		}
	default:
		return fmt.Errorf("unsupported content store backend: %s (must be ipfs or memory)", c.IPFS.Backend)
	}

	switch c.Marketplace.Backend {
	case BackendMemory:
	case BackendHTTP:
		if c.Marketplace.APIURL == "" {
			return fmt.Errorf("marketplace API URL is required")
		}
	default:
		return fmt.Errorf("unsupported marketplace backend: %s (must be http or memory)", c.Marketplace.Backend)
	}
	if c.Marketplace.Host == "" {
		return fmt.Errorf("marketplace host is required")
	}

	if c.Submission.Chain == "" {
		return fmt.Errorf("mint chain is required")
	}
	if c.Submission.ResubmitPolicy != "replace" && c.Submission.ResubmitPolicy != "reject" {
		return fmt.Errorf("invalid resubmit policy: %s (must be replace or reject)", c.Submission.ResubmitPolicy)
	}
	if c.Submission.AttemptTimeout < 0 {
		return fmt.Errorf("attempt timeout must not be negative")
	}

	// Validate worker config
	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1")
	}
	if c.Workers.QueueSize < 1 {
		return fmt.Errorf("worker queue size must be at least 1")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
