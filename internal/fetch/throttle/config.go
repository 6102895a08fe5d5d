package throttle

import "fmt"

// AdaptiveConfig holds the tuning values for adaptive batch sizing. The
// defaults are empirical and kept configurable.
type AdaptiveConfig struct {
	// Enabled controls whether sizing reacts to errors at all
	Enabled bool `yaml:"enabled"`

	// MaxAttempts bounds the outer re-runs of the whole id set (default: 3)
	MaxAttempts int `yaml:"max_attempts"`

	// MinBatchSize is the give-up threshold (default: 5)
	MinBatchSize int `yaml:"min_batch_size"`

	// RetryEmptyResults re-runs an attempt that returned no rows and had no
	// failed batches, halving the batch size (default: false)
	RetryEmptyResults bool `yaml:"retry_empty_results"`

	// Memory branch: used once any memory exhaustion was seen
	MemoryLargeRunThreshold int `yaml:"memory_large_run_threshold"` // Above this many ids use the large-run cap (default: 100)
	MemoryLargeCap          int `yaml:"memory_large_cap"`           // default: 10
	MemoryLargeDivisor      int `yaml:"memory_large_divisor"`       // default: 5
	MemorySmallCap          int `yaml:"memory_small_cap"`           // default: 5
	MemorySmallDivisor      int `yaml:"memory_small_divisor"`       // default: 10

	// Connection branch: used once more than ConnectionThreshold resets were seen
	ConnectionThreshold int `yaml:"connection_threshold"` // default: 2
	ConnectionCap       int `yaml:"connection_cap"`       // default: 25
	ConnectionDivisor   int `yaml:"connection_divisor"`   // default: 2

	// Shrink rules applied after an attempt with no rows
	MemoryShrinkDivisor     int `yaml:"memory_shrink_divisor"`     // default: 3
	MemoryShrinkFloor       int `yaml:"memory_shrink_floor"`       // default: 5
	ConnectionShrinkDivisor int `yaml:"connection_shrink_divisor"` // default: 2
	ConnectionShrinkFloor   int `yaml:"connection_shrink_floor"`   // default: 10
	DefaultShrinkDivisor    int `yaml:"default_shrink_divisor"`    // default: 2
	DefaultShrinkFloor      int `yaml:"default_shrink_floor"`      // default: 5
}

// DefaultConfig returns the defaults for adaptive batch sizing.
func DefaultConfig() AdaptiveConfig {
	return AdaptiveConfig{
		Enabled:                 true,
		MaxAttempts:             3,
		MinBatchSize:            5,
		MemoryLargeRunThreshold: 100,
		MemoryLargeCap:          10,
		MemoryLargeDivisor:      5,
		MemorySmallCap:          5,
		MemorySmallDivisor:      10,
		ConnectionThreshold:     2,
		ConnectionCap:           25,
		ConnectionDivisor:       2,
		MemoryShrinkDivisor:     3,
		MemoryShrinkFloor:       5,
		ConnectionShrinkDivisor: 2,
		ConnectionShrinkFloor:   10,
		DefaultShrinkDivisor:    2,
		DefaultShrinkFloor:      5,
	}
}

// Validate checks that counts and divisors are usable.
func (c AdaptiveConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("adaptive: max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	divisors := map[string]int{
		"memory_large_divisor":      c.MemoryLargeDivisor,
		"memory_small_divisor":      c.MemorySmallDivisor,
		"connection_divisor":        c.ConnectionDivisor,
		"memory_shrink_divisor":     c.MemoryShrinkDivisor,
		"connection_shrink_divisor": c.ConnectionShrinkDivisor,
		"default_shrink_divisor":    c.DefaultShrinkDivisor,
	}
	for name, d := range divisors {
		if d <= 0 {
			return fmt.Errorf("adaptive: %s must be positive, got %d", name, d)
		}
	}
	return nil
}
