// Package retry runs one request against a remote backend until it
// succeeds, fails terminally, or runs out of attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/fetch/metrics"
	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
)

// Failure is the value returned when a request did not succeed. It is
// never a panic and always carries the class of the last attempt.
type Failure struct {
	Class    domain.ErrorClass
	Attempts int
	Terminal bool
	Err      error
}

func (f *Failure) Error() string {
	verdict := "exhausted"
	if f.Terminal {
		verdict = "aborted"
	}
	return fmt.Sprintf("%s after %d attempt(s) [%s]: %v", verdict, f.Attempts, f.Class, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// CallFunc performs one attempt.
type CallFunc func(ctx context.Context) ([]byte, error)

// Retrier applies a Policy and a Classifier to a CallFunc.
type Retrier struct {
	backend  string
	policy   Policy
	classify Classifier
	logger   *slog.Logger
}

// New creates a Retrier. backend labels logs and metrics.
func New(backend string, policy Policy, classify Classifier, logger *slog.Logger) (*Retrier, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if classify == nil {
		classify = ClassifyHTTP
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		backend:  backend,
		policy:   policy,
		classify: classify,
		logger:   logger.With("backend", backend),
	}, nil
}

// Policy returns the retry policy in use.
func (r *Retrier) Policy() Policy {
	return r.policy
}

// Do runs call until it succeeds or the retry budget is spent. On failure
// the returned error is always a *Failure.
func (r *Retrier) Do(ctx context.Context, op string, call CallFunc) ([]byte, error) {
	var (
		body     []byte
		attempts int
		last     Outcome
		lastErr  error
	)

	backoff := goretry.BackoffFunc(func() (time.Duration, bool) {
		if attempts >= r.policy.MaxRetries {
			return 0, true
		}
		wait := r.waitFor(attempts-1, last.Class, lastErr)
		r.logger.Warn("Retrying request",
			"op", op,
			"attempt", attempts,
			"max", r.policy.MaxRetries,
			"class", last.Class.String(),
			"wait", wait,
			"error", lastErr,
		)
		metrics.RetryWaitSeconds.WithLabelValues(r.backend).Add(wait.Seconds())
		return wait, false
	})

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(r.backend, op).Inc()

		b, err := call(ctx)
		metrics.RequestLatency.WithLabelValues(r.backend, op).Observe(time.Since(start).Seconds())

		out := r.classify(err)
		if out.Kind == OutcomeSuccess {
			body = b
			return nil
		}

		last, lastErr = out, err
		metrics.RequestErrorsTotal.WithLabelValues(r.backend, out.Class.String()).Inc()
		if out.Kind == OutcomeTerminal {
			return err
		}
		return goretry.RetryableError(err)
	})
	if err == nil {
		if attempts > 1 {
			r.logger.Info("Request succeeded after retry", "op", op, "attempts", attempts)
		}
		return body, nil
	}

	failure := &Failure{
		Class:    last.Class,
		Attempts: attempts,
		Terminal: last.Kind == OutcomeTerminal,
		Err:      err,
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		failure.Terminal = true
		r.logger.Warn("Request cancelled", "op", op, "attempts", attempts, "error", err)
		return nil, failure
	}

	if failure.Terminal {
		r.logger.Warn("Request aborted, not retryable",
			"op", op, "attempt", attempts, "class", failure.Class.String(), "error", err)
	} else {
		r.logger.Error("Request failed after retries",
			"op", op, "attempts", attempts, "class", failure.Class.String(), "error", err)
	}
	return nil, failure
}

// waitFor picks the wait after the given 0-based attempt. A Retry-After
// hint from the server wins when it is longer, bounded by the policy ceiling.
func (r *Retrier) waitFor(attempt int, class domain.ErrorClass, err error) time.Duration {
	wait := r.policy.Delay(attempt)
	if class == domain.ErrorClassRateLimited {
		wait = r.policy.RateLimitDelay(attempt)
	}

	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > wait {
		wait = min(statusErr.RetryAfter, r.policy.Ceiling())
	}
	return wait
}
