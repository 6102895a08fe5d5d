package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/fetch/throttle"
	"github.com/vietddude/biofetch/internal/infra/rpc/retry"
)

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{
		Adaptive: throttle.DefaultConfig(),
	}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &AppConfig{Adaptive: throttle.DefaultConfig()}
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Adaptive.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when path does not exist.
func LoadOrDefault(path string) (*AppConfig, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Endpoints.PDB.URL == "" {
		cfg.Endpoints.PDB.URL = domain.DefaultPDBGraphQLURL
	}
	if cfg.Endpoints.PDB.Timeout == 0 {
		cfg.Endpoints.PDB.Timeout = 120 * time.Second
	}
	defaultRetry(&cfg.Endpoints.PDB.Retry, time.Second)

	if cfg.Endpoints.UniProt.URL == "" {
		cfg.Endpoints.UniProt.URL = domain.DefaultUniProtURL
	}
	if cfg.Endpoints.UniProt.Timeout == 0 {
		cfg.Endpoints.UniProt.Timeout = 120 * time.Second
	}
	defaultRetry(&cfg.Endpoints.UniProt.Retry, 2*time.Second)

	defaultBatch(&cfg.Batch.PDBEntries, 20, 2*time.Second)
	defaultBatch(&cfg.Batch.PDBChains, 50, time.Second)
	defaultBatch(&cfg.Batch.UniProt, 100, 2*time.Second)
}

func defaultRetry(r *RetryConfig, base time.Duration) {
	def := retry.DefaultPolicy()
	if r.MaxRetries == 0 {
		r.MaxRetries = def.MaxRetries
	}
	if r.BaseDelay == 0 {
		r.BaseDelay = base
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = def.MaxDelay
	}
	if r.JitterLow == 0 && r.JitterHigh == 0 {
		r.JitterLow, r.JitterHigh = def.JitterLo, def.JitterHi
	}
	if r.RateLimitMultiplier == 0 {
		r.RateLimitMultiplier = def.RateLimitMultiplier
	}
}

func defaultBatch(b *BackendBatch, size int, delay time.Duration) {
	if b.Size == 0 {
		b.Size = size
	}
	if b.Delay == 0 {
		b.Delay = delay
	}
}
