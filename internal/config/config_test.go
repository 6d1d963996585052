package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MARKETPLACE_API_URL", "https://api.example.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, ":9090", cfg.GetGRPCAddr())
	assert.Equal(t, BackendMemory, cfg.Status.Backend)
	assert.Equal(t, BackendIPFS, cfg.IPFS.Backend)
	assert.Equal(t, "rinkeby", cfg.Submission.Chain)
	assert.Equal(t, "replace", cfg.Submission.ResubmitPolicy)
	assert.Equal(t, time.Duration(0), cfg.Submission.AttemptTimeout)
	assert.Equal(t, int64(32<<20), cfg.Submission.MaxImageBytes)
	assert.Equal(t, "rinkeby.rarible.com", cfg.Marketplace.Host)
	assert.Equal(t, 24*time.Hour, cfg.Status.TTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LAZYMINT_HTTP_PORT", "8181")
	t.Setenv("STATUS_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("MARKETPLACE_BACKEND", "memory")
	t.Setenv("SUBMIT_RESUBMIT_POLICY", "reject")
	t.Setenv("SUBMIT_ATTEMPT_TIMEOUT", "90s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.HTTPPort)
	assert.Equal(t, BackendRedis, cfg.Status.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "reject", cfg.Submission.ResubmitPolicy)
	assert.Equal(t, 90*time.Second, cfg.Submission.AttemptTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRequiresMarketplaceURL(t *testing.T) {
	t.Setenv("MARKETPLACE_API_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "marketplace API URL is required")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:    8080,
			GRPCPort:    9090,
			LogLevel:    "info",
			Status:      StatusConfig{Backend: BackendMemory},
			IPFS:        IPFSConfig{Backend: BackendMemory},
			Marketplace: MarketplaceConfig{Backend: BackendMemory, Host: "rinkeby.rarible.com"},
			Submission:  SubmissionConfig{Chain: "rinkeby", ResubmitPolicy: "replace"},
			Workers:     WorkerConfig{PoolSize: 1, QueueSize: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad http port", mutate: func(c *Config) { c.HTTPPort = 0 }, wantErr: "invalid HTTP port: 0"},
		{name: "bad grpc port", mutate: func(c *Config) { c.GRPCPort = 70000 }, wantErr: "invalid gRPC port: 70000"},
		{name: "unknown status backend", mutate: func(c *Config) { c.Status.Backend = "etcd" }, wantErr: "unsupported status backend: etcd (must be memory, redis or mongodb)"},
		{name: "mongodb without uri", mutate: func(c *Config) { c.Status.Backend = BackendMongo }, wantErr: "mongodb URI is required"},
		{name: "redis without addr", mutate: func(c *Config) { c.Status.Backend = BackendRedis }, wantErr: "redis address is required"},
		{name: "ipfs without url", mutate: func(c *Config) { c.IPFS.Backend = BackendIPFS }, wantErr: "IPFS API URL is required"},
		{name: "unknown policy", mutate: func(c *Config) { c.Submission.ResubmitPolicy = "queue" }, wantErr: "invalid resubmit policy: queue (must be replace or reject)"},
		{name: "negative timeout", mutate: func(c *Config) { c.Submission.AttemptTimeout = -time.Second }, wantErr: "attempt timeout must not be negative"},
		{name: "no workers", mutate: func(c *Config) { c.Workers.PoolSize = 0 }, wantErr: "worker pool size must be at least 1"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level: trace (must be debug, info, warn, or error)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
