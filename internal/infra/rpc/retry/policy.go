package retry

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Policy defines how many attempts a request gets and how long to wait
// between them.
//
// The wait before attempt n+1 is min(BaseDelay*2^n, MaxDelay) scaled by a
// factor drawn uniformly from [1+JitterLo, 1+JitterHi].
type Policy struct {
	// MaxRetries is the total number of attempts, including the first.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	JitterLo   float64
	JitterHi   float64

	// RateLimitMultiplier scales the wait after a rate-limited attempt.
	RateLimitMultiplier float64

	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// DefaultPolicy returns the policy used for the public backends.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:          5,
		BaseDelay:           2 * time.Second,
		MaxDelay:            60 * time.Second,
		JitterLo:            0.1,
		JitterHi:            0.3,
		RateLimitMultiplier: 2,
	}
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	switch {
	case p.MaxRetries < 1:
		return fmt.Errorf("%w: max retries must be at least 1, got %d", ErrInvalidPolicy, p.MaxRetries)
	case p.BaseDelay <= 0:
		return fmt.Errorf("%w: base delay must be positive, got %v", ErrInvalidPolicy, p.BaseDelay)
	case p.MaxDelay < p.BaseDelay:
		return fmt.Errorf("%w: max delay %v is below base delay %v", ErrInvalidPolicy, p.MaxDelay, p.BaseDelay)
	case p.JitterLo < 0 || p.JitterHi < p.JitterLo:
		return fmt.Errorf("%w: jitter range [%v, %v]", ErrInvalidPolicy, p.JitterLo, p.JitterHi)
	case p.RateLimitMultiplier != 0 && p.RateLimitMultiplier < 1:
		return fmt.Errorf("%w: rate limit multiplier must be >= 1, got %v", ErrInvalidPolicy, p.RateLimitMultiplier)
	}
	return nil
}

// Base returns the un-jittered delay for attempt: min(BaseDelay*2^attempt, MaxDelay).
func (p Policy) Base(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		if d >= p.MaxDelay/2 {
			return p.MaxDelay
		}
		d *= 2
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Delay returns the jittered wait after a failed attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	base := p.Base(attempt)
	if p.JitterHi <= 0 {
		return base
	}
	factor := 1 + p.JitterLo + (p.JitterHi-p.JitterLo)*p.random()
	return time.Duration(float64(base) * factor)
}

// RateLimitDelay returns Delay(attempt) scaled by RateLimitMultiplier.
func (p Policy) RateLimitDelay(attempt int) time.Duration {
	return time.Duration(float64(p.Delay(attempt)) * p.multiplier())
}

// Ceiling is the longest wait the policy will ever choose.
func (p Policy) Ceiling() time.Duration {
	return time.Duration(float64(p.MaxDelay) * (1 + p.JitterHi) * p.multiplier())
}

func (p Policy) multiplier() float64 {
	if p.RateLimitMultiplier == 0 {
		return 2
	}
	return p.RateLimitMultiplier
}

func (p Policy) random() float64 {
	if p.Rand != nil {
		return p.Rand()
	}
	return rand.Float64()
}
