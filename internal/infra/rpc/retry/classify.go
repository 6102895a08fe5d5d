package retry

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
)

// OutcomeKind is the verdict on a single attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRetryable
	OutcomeTerminal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one attempt.
type Outcome struct {
	Kind  OutcomeKind
	Class domain.ErrorClass
}

func retryable(c domain.ErrorClass) Outcome { return Outcome{Kind: OutcomeRetryable, Class: c} }
func terminal(c domain.ErrorClass) Outcome  { return Outcome{Kind: OutcomeTerminal, Class: c} }

// Classifier maps the error of one attempt to an Outcome. A nil error is
// always OutcomeSuccess.
type Classifier func(err error) Outcome

// ForProtocol returns the classifier matching the endpoint's error vocabulary.
func ForProtocol(p domain.Protocol) Classifier {
	if p == domain.ProtocolSPARQL {
		return ClassifySPARQL
	}
	return ClassifyHTTP
}

// ClassifyHTTP classifies GraphQL and plain JSON attempts.
func ClassifyHTTP(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess}
	}
	if errors.Is(err, context.Canceled) {
		return terminal(domain.ErrorClassUnknown)
	}

	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusTooManyRequests:
			return retryable(domain.ErrorClassRateLimited)
		case isServerStatus(statusErr.Code):
			return retryable(domain.ErrorClassServerError)
		default:
			return terminal(domain.ErrorClassUnknown)
		}
	}

	var gqlErr *provider.GraphQLError
	if errors.As(err, &gqlErr) {
		return terminal(domain.ErrorClassGraphQLApplication)
	}

	if class, ok := ClassifyTransport(err); ok {
		return retryable(class)
	}
	return retryable(domain.ErrorClassUnknown)
}

// ClassifySPARQL classifies SPARQL attempts. Malformed queries and server
// memory exhaustion are terminal; every other failure is retried.
func ClassifySPARQL(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess}
	}
	if errors.Is(err, context.Canceled) {
		return terminal(domain.ErrorClassUnknown)
	}

	msg := err.Error()
	if isMemoryExhaustion(msg) {
		return terminal(domain.ErrorClassMemoryExhaustion)
	}
	if isBadlyFormed(msg) {
		return terminal(domain.ErrorClassMalformedQuery)
	}

	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusBadRequest:
			return terminal(domain.ErrorClassMalformedQuery)
		case statusErr.Code == http.StatusTooManyRequests:
			return retryable(domain.ErrorClassRateLimited)
		case isServerStatus(statusErr.Code):
			return retryable(domain.ErrorClassServerError)
		default:
			return retryable(domain.ErrorClassUnknown)
		}
	}

	if class, ok := ClassifyTransport(err); ok {
		return retryable(class)
	}
	return retryable(domain.ErrorClassUnknown)
}

// ClassifyTransport recognizes network-level failures. It inspects error
// types first and falls back to the message text.
func ClassifyTransport(err error) (domain.ErrorClass, bool) {
	if err == nil {
		return domain.ErrorClassUnknown, false
	}

	if isTLS(err) {
		return domain.ErrorClassTLS, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrorClassTimeout, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorClassTimeout, true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return domain.ErrorClassConnectionReset, true
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "connection aborted"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "broken pipe"):
		return domain.ErrorClassConnectionReset, true
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "timed out"):
		return domain.ErrorClassTimeout, true
	case strings.Contains(lower, "tls"), strings.Contains(lower, "x509"), strings.Contains(lower, "certificate"):
		return domain.ErrorClassTLS, true
	}
	return domain.ErrorClassUnknown, false
}

func isTLS(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostname         x509.HostnameError
		invalid          x509.CertificateInvalidError
		recordHeader     tls.RecordHeaderError
		alert            tls.AlertError
		verification     *tls.CertificateVerificationError
	)
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalid) ||
		errors.As(err, &recordHeader) ||
		errors.As(err, &alert) ||
		errors.As(err, &verification)
}

func isServerStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Virtuoso reports e.g. "Unable to allocate 512 MB of memory".
func isMemoryExhaustion(msg string) bool {
	return strings.Contains(msg, "allocate") && strings.Contains(msg, "MB")
}

func isBadlyFormed(msg string) bool {
	return strings.Contains(msg, "QueryBadFormed") || strings.Contains(strings.ToLower(msg), "badly formed")
}
