package throttle

import (
	"github.com/vietddude/biofetch/internal/core/domain"
)

// Controller tracks the error history of one run and computes batch sizes
// from it. A Controller must not be shared between runs.
type Controller struct {
	config AdaptiveConfig

	memoryErrors     int
	connectionErrors int
}

// NewController creates a controller with zeroed counters.
func NewController(config AdaptiveConfig) *Controller {
	return &Controller{config: config}
}

// Observe adds the failures of one attempt to the run's error history.
func (c *Controller) Observe(summary domain.RunSummary) {
	c.memoryErrors += summary.Count(domain.ErrorClass.IsMemory)
	c.connectionErrors += summary.Count(domain.ErrorClass.IsConnection)
}

// BatchSize computes the batch size for the next attempt.
//
// Algorithm:
//   - any memory error so far: min(10, base/5) above 100 ids, else min(5, base/10)
//   - more than 2 connection errors: min(25, base/2)
//   - otherwise: base
//
// The memory branch takes precedence over the connection branch.
func (c *Controller) BatchSize(totalIDs, base int) int {
	if !c.config.Enabled {
		return base
	}

	var size int

	switch {
	case c.memoryErrors > 0:
		if totalIDs > c.config.MemoryLargeRunThreshold {
			size = min(c.config.MemoryLargeCap, base/c.config.MemoryLargeDivisor)
		} else {
			size = min(c.config.MemorySmallCap, base/c.config.MemorySmallDivisor)
		}

	case c.connectionErrors > c.config.ConnectionThreshold:
		size = min(c.config.ConnectionCap, base/c.config.ConnectionDivisor)

	default:
		size = base
	}

	return size
}

// Shrink returns the batch size to use after an attempt that produced no
// rows, given the failures of that attempt.
func (c *Controller) Shrink(size int, attempt domain.RunSummary) int {
	switch {
	case attempt.Saw(domain.ErrorClass.IsMemory):
		return max(c.config.MemoryShrinkFloor, size/c.config.MemoryShrinkDivisor)
	case attempt.Saw(domain.ErrorClass.IsConnection):
		return max(c.config.ConnectionShrinkFloor, size/c.config.ConnectionShrinkDivisor)
	default:
		return max(c.config.DefaultShrinkFloor, size/c.config.DefaultShrinkDivisor)
	}
}

// MemoryErrors returns the memory exhaustion count for this run.
func (c *Controller) MemoryErrors() int {
	return c.memoryErrors
}

// ConnectionErrors returns the connection reset count for this run.
func (c *Controller) ConnectionErrors() int {
	return c.connectionErrors
}
