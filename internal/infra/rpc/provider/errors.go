package provider

import (
	"fmt"
	"strings"
	"time"
)

// maxErrorBody caps how much of a response body is kept on an error.
const maxErrorBody = 2048

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// GraphQLError is returned when a 2xx GraphQL response carries an errors list.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	if len(e.Messages) == 0 {
		return "graphql errors"
	}
	return "graphql errors: " + strings.Join(e.Messages, "; ")
}

// BodyError is returned when a 2xx response body cannot be read or is not JSON.
type BodyError struct {
	Err error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("response body: %v", e.Err)
}

func (e *BodyError) Unwrap() error {
	return e.Err
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
