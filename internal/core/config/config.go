package config

import (
	"time"

	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/fetch/throttle"
	redisclient "github.com/vietddude/biofetch/internal/infra/redis"
	"github.com/vietddude/biofetch/internal/infra/rpc/retry"
	"github.com/vietddude/biofetch/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Logging   LoggingConfig           `yaml:"logging"`
	Metrics   MetricsConfig           `yaml:"metrics"`
	Endpoints EndpointsConfig         `yaml:"endpoints"`
	Batch     BatchConfig             `yaml:"batch"`
	Adaptive  throttle.AdaptiveConfig `yaml:"adaptive"`
	Redis     redisclient.Config      `yaml:"redis"`
	Database  postgres.Config         `yaml:"database"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig holds the /metrics and /health server settings.
type MetricsConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}

// EndpointsConfig holds one entry per remote service.
type EndpointsConfig struct {
	PDB     EndpointConfig `yaml:"pdb"`
	UniProt EndpointConfig `yaml:"uniprot"`
}

// EndpointConfig holds settings for a remote service.
type EndpointConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
	Retry   RetryConfig       `yaml:"retry"`
}

// Endpoint builds the immutable endpoint description.
func (c EndpointConfig) Endpoint(name string, protocol domain.Protocol) domain.Endpoint {
	return domain.Endpoint{
		Name:     name,
		URL:      c.URL,
		Protocol: protocol,
		Headers:  c.Headers,
		Timeout:  c.Timeout,
	}
}

// RetryConfig mirrors retry.Policy.
type RetryConfig struct {
	MaxRetries          int           `yaml:"max_retries"`
	BaseDelay           time.Duration `yaml:"base_delay"`
	MaxDelay            time.Duration `yaml:"max_delay"`
	JitterLow           float64       `yaml:"jitter_low"`
	JitterHigh          float64       `yaml:"jitter_high"`
	RateLimitMultiplier float64       `yaml:"rate_limit_multiplier"`
}

// Policy converts the config to a retry policy.
func (c RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxRetries:          c.MaxRetries,
		BaseDelay:           c.BaseDelay,
		MaxDelay:            c.MaxDelay,
		JitterLo:            c.JitterLow,
		JitterHi:            c.JitterHigh,
		RateLimitMultiplier: c.RateLimitMultiplier,
	}
}

// BatchConfig holds batching settings per backend.
type BatchConfig struct {
	PDBEntries BackendBatch `yaml:"pdb_entries"`
	PDBChains  BackendBatch `yaml:"pdb_chains"`
	UniProt    BackendBatch `yaml:"uniprot"`
}

// BackendBatch holds the batch size and the pause between batches.
type BackendBatch struct {
	Size  int           `yaml:"size"`
	Delay time.Duration `yaml:"delay"`
}
