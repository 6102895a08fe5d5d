// Package rpc provides a resilient request client for biological data
// services.
//
// This package offers:
//   - GraphQL, SPARQL and plain JSON transports over HTTP
//   - Exponential backoff with jitter and harder backoff on rate limits
//   - Per-protocol error classification into a closed set of classes
//   - Latency and throttle monitoring per endpoint
//
// # Quick Start
//
//	import "github.com/vietddude/biofetch/internal/infra/rpc"
//
//	client, err := rpc.NewClient(domain.Endpoint{
//	    Name:     "rcsb",
//	    URL:      domain.DefaultPDBGraphQLURL,
//	    Protocol: domain.ProtocolGraphQL,
//	    Timeout:  120 * time.Second,
//	}, rpc.DefaultPolicy(), nil)
//
//	body, err := client.Send(ctx, rpc.NewGraphQLOperation("entries", query, vars))
//
// # Package Structure
//
//   - provider/ - Transport implementations and monitoring
//   - retry/    - Backoff policy, error classification, retry loop
//
// Most types are re-exported at the root level for convenience.
package rpc

import (
	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
	"github.com/vietddude/biofetch/internal/infra/rpc/retry"
)

// Provider is the core interface for remote endpoints.
type Provider = provider.Provider

// HTTPProvider implements Provider over HTTP POST.
type HTTPProvider = provider.HTTPProvider

// Operation is a single request (transport-agnostic).
type Operation = provider.Operation

// MonitorStats holds monitoring statistics for a provider.
type MonitorStats = provider.MonitorStats

// HealthStatus represents the health state of a provider.
type HealthStatus = provider.HealthStatus

// Policy defines retry behavior.
type Policy = retry.Policy

// Failure is returned when a request did not succeed.
type Failure = retry.Failure

// Classifier maps an attempt error to an outcome.
type Classifier = retry.Classifier

// Provider status constants
const (
	StatusHealthy   = provider.StatusHealthy
	StatusDegraded  = provider.StatusDegraded
	StatusThrottled = provider.StatusThrottled
	StatusBlocked   = provider.StatusBlocked
)

// NewHTTPProvider creates a new HTTP provider for the endpoint.
func NewHTTPProvider(endpoint domain.Endpoint) *HTTPProvider {
	return provider.NewHTTPProvider(endpoint)
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return retry.DefaultPolicy()
}

// AsFailure extracts a *Failure from err.
var AsFailure = retry.AsFailure
