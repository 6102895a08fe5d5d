package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"github.com/vietddude/biofetch/internal/core/domain"
)

const defaultUserAgent = "biofetch/1.0 (+https://github.com/vietddude/biofetch)"

// HTTPProvider implements Provider for GraphQL, SPARQL and JSON over HTTP POST.
type HTTPProvider struct {
	*BaseProvider

	endpoint   domain.Endpoint
	httpClient *http.Client
}

// NewHTTPProvider creates a provider for the endpoint. The endpoint timeout
// bounds each individual request.
func NewHTTPProvider(endpoint domain.Endpoint) *HTTPProvider {
	name := endpoint.Name
	if name == "" {
		name = endpoint.URL
	}
	return &HTTPProvider{
		BaseProvider: NewBaseProvider(name),
		endpoint:     endpoint,
		httpClient: &http.Client{
			Timeout: endpoint.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Endpoint returns the endpoint this provider talks to.
func (p *HTTPProvider) Endpoint() domain.Endpoint {
	return p.endpoint
}

// Execute sends op once and returns the raw 2xx body.
func (p *HTTPProvider) Execute(ctx context.Context, op Operation) ([]byte, error) {
	start := time.Now()

	req, err := p.newRequest(ctx, op)
	if err != nil {
		p.RecordFailure()
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.RecordFailure()
		return nil, fmt.Errorf("%s call: %w", p.endpoint.Protocol, err)
	}
	defer resp.Body.Close()

	latency := time.Since(start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.RecordFailure()
		return nil, fmt.Errorf("read response: %w", err)
	}

	// Rate limit detection
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		p.Monitor.RecordThrottle(resp.StatusCode, retryAfter)
		p.RecordFailure()
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(body), RetryAfter: retryAfter}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusForbidden || p.Monitor.DetectThrottlePattern(string(body)) {
			p.Monitor.RecordThrottle(resp.StatusCode, 0)
		}
		p.RecordFailure()
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(body)}
	}

	if !json.Valid(body) {
		p.RecordFailure()
		return nil, &BodyError{Err: fmt.Errorf("invalid JSON (%d bytes)", len(body))}
	}

	if p.endpoint.Protocol == domain.ProtocolGraphQL {
		if gqlErr := graphQLErrors(body); gqlErr != nil {
			p.RecordFailure()
			return nil, gqlErr
		}
	}

	p.RecordSuccess(latency)
	return body, nil
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func (p *HTTPProvider) newRequest(ctx context.Context, op Operation) (*http.Request, error) {
	var (
		target      = p.endpoint.URL
		body        io.Reader
		contentType string
		accept      = "application/json"
	)

	switch p.endpoint.Protocol {
	case domain.ProtocolGraphQL:
		payload, err := json.Marshal(map[string]any{
			"query":     op.Query,
			"variables": op.Variables,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal graphql request: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"

	case domain.ProtocolSPARQL:
		form := url.Values{}
		form.Set("query", op.Query)
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
		accept = "application/sparql-results+json"

	case domain.ProtocolJSON, "":
		if op.Path != "" {
			target = strings.TrimRight(target, "/") + "/" + strings.TrimLeft(op.Path, "/")
		}
		if op.Params != nil {
			payload, err := json.Marshal(op.Params)
			if err != nil {
				return nil, fmt.Errorf("marshal request: %w", err)
			}
			body = bytes.NewReader(payload)
		}
		contentType = "application/json"

	default:
		return nil, fmt.Errorf("unsupported protocol %q", p.endpoint.Protocol)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range p.endpoint.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// graphQLErrors returns a *GraphQLError when body carries an errors member,
// whatever its value.
func graphQLErrors(body []byte) error {
	value, dataType, _, err := jsonparser.Get(body, "errors")
	if err != nil {
		return nil
	}

	gqlErr := &GraphQLError{}
	if dataType == jsonparser.Array {
		_, _ = jsonparser.ArrayEach(value, func(item []byte, _ jsonparser.ValueType, _ int, _ error) {
			if msg, err := jsonparser.GetString(item, "message"); err == nil {
				gqlErr.Messages = append(gqlErr.Messages, msg)
			}
		})
	}
	return gqlErr
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
