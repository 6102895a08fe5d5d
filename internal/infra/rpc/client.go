package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
	"github.com/vietddude/biofetch/internal/infra/rpc/retry"
)

// Client sends operations to one endpoint with retry and classification.
// This is what backends should use.
type Client struct {
	endpoint domain.Endpoint
	provider Provider
	retrier  *retry.Retrier
}

// NewClient creates a client for the endpoint. The classifier is chosen
// from the endpoint protocol.
func NewClient(endpoint domain.Endpoint, policy Policy, logger *slog.Logger) (*Client, error) {
	return NewClientWithProvider(endpoint, provider.NewHTTPProvider(endpoint), policy, logger)
}

// NewClientWithProvider creates a client around an existing provider.
func NewClientWithProvider(endpoint domain.Endpoint, p Provider, policy Policy, logger *slog.Logger) (*Client, error) {
	if p == nil {
		return nil, fmt.Errorf("nil provider for endpoint %q", endpoint.Name)
	}
	name := endpoint.Name
	if name == "" {
		name = p.GetName()
	}
	r, err := retry.New(name, policy, retry.ForProtocol(endpoint.Protocol), logger)
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", name, err)
	}
	return &Client{endpoint: endpoint, provider: p, retrier: r}, nil
}

// Send executes op with retries. On failure the error is a *Failure.
func (c *Client) Send(ctx context.Context, op Operation) ([]byte, error) {
	return c.retrier.Do(ctx, op.Name, func(ctx context.Context) ([]byte, error) {
		return c.provider.Execute(ctx, op)
	})
}

// Name returns the endpoint name, or the provider name when the endpoint has none.
func (c *Client) Name() string {
	if c.endpoint.Name != "" {
		return c.endpoint.Name
	}
	return c.provider.GetName()
}

// Endpoint returns the endpoint configuration.
func (c *Client) Endpoint() domain.Endpoint {
	return c.endpoint
}

// Policy returns the retry policy.
func (c *Client) Policy() Policy {
	return c.retrier.Policy()
}

// Health returns the provider health.
func (c *Client) Health() HealthStatus {
	return c.provider.GetHealth()
}

// Close releases the provider.
func (c *Client) Close() error {
	return c.provider.Close()
}

// Dashboard returns a formatted status string for the endpoint.
func (c *Client) Dashboard() string {
	var sb strings.Builder

	health := c.provider.GetHealth()
	sb.WriteString(fmt.Sprintf("\n=== Endpoint %s (%s) ===\n", c.provider.GetName(), c.endpoint.Protocol))
	sb.WriteString(fmt.Sprintf("  Available: %v\n", health.Available))
	sb.WriteString(fmt.Sprintf("  Error Rate: %.1f%%\n", health.ErrorRate*100))

	if stats := health.MonitorStats; stats != nil {
		sb.WriteString(fmt.Sprintf("  Status: %s\n", stats.Status))
		sb.WriteString(fmt.Sprintf("  Avg Latency: %v\n", stats.AverageLatency))
		sb.WriteString(fmt.Sprintf("  429 Errors: %d\n", stats.ThrottleCount429))
		sb.WriteString(fmt.Sprintf("  403 Errors: %d\n", stats.ThrottleCount403))
		sb.WriteString(fmt.Sprintf("  Requests (1h): %d\n", stats.RequestsLast1Hour))
	}

	return sb.String()
}
