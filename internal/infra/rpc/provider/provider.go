// Package provider implements the transport side of the fetch clients.
//
// This package contains:
//   - Provider interface: one remote endpoint that can execute an Operation
//   - HTTPProvider: GraphQL, SPARQL and plain JSON over HTTP POST
//   - ProviderMonitor: latency and throttle tracking
//   - StatusError / GraphQLError / BodyError: structured failures for the classifier
package provider

import (
	"context"
	"time"
)

// Operation is a single request against a Provider. Which fields are used
// depends on the endpoint protocol.
type Operation struct {
	// Name identifies the operation in logs and metrics (e.g. "entries", "protein_names").
	Name string

	// Query is the GraphQL document or the SPARQL query text.
	Query string

	// Variables are the GraphQL variables. Ignored for SPARQL.
	Variables map[string]any

	// Path is appended to the endpoint URL for plain JSON calls.
	Path string

	// Params is the JSON body for plain JSON calls.
	Params any
}

// Provider is one remote endpoint.
type Provider interface {
	// GetName returns the provider identifier (e.g. "rcsb", "uniprot").
	GetName() string

	// GetHealth returns current health metrics.
	GetHealth() HealthStatus

	// Execute performs the operation once and returns the raw response body.
	Execute(ctx context.Context, op Operation) ([]byte, error)

	// Close releases idle connections.
	Close() error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}
