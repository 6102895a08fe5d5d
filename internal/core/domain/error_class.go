package domain

import "fmt"

// ErrorClass is the closed set of reasons an attempt against a remote
// service can fail.
type ErrorClass int

const (
	ErrorClassUnknown ErrorClass = iota
	ErrorClassRateLimited
	ErrorClassServerError
	ErrorClassConnectionReset
	ErrorClassTimeout
	ErrorClassTLS
	ErrorClassMalformedQuery
	ErrorClassMemoryExhaustion
	ErrorClassGraphQLApplication
)

var errorClassNames = map[ErrorClass]string{
	ErrorClassUnknown:            "unknown",
	ErrorClassRateLimited:        "rate_limited",
	ErrorClassServerError:        "server_error",
	ErrorClassConnectionReset:    "connection_reset",
	ErrorClassTimeout:            "timeout",
	ErrorClassTLS:                "tls_error",
	ErrorClassMalformedQuery:     "malformed_query",
	ErrorClassMemoryExhaustion:   "memory_exhaustion",
	ErrorClassGraphQLApplication: "graphql_application_error",
}

// String returns the snake_case name used in logs and metric labels.
func (c ErrorClass) String() string {
	if name, ok := errorClassNames[c]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the class by name.
func (c ErrorClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a class name.
func (c *ErrorClass) UnmarshalText(text []byte) error {
	for class, name := range errorClassNames {
		if name == string(text) {
			*c = class
			return nil
		}
	}
	return fmt.Errorf("unknown error class %q", text)
}

// IsConnection reports whether the class points at the network path rather
// than at the request itself.
func (c ErrorClass) IsConnection() bool {
	return c == ErrorClassConnectionReset
}

// IsMemory reports whether the server ran out of memory answering the request.
func (c ErrorClass) IsMemory() bool {
	return c == ErrorClassMemoryExhaustion
}

// ErrorClasses lists every class, in declaration order.
func ErrorClasses() []ErrorClass {
	return []ErrorClass{
		ErrorClassUnknown,
		ErrorClassRateLimited,
		ErrorClassServerError,
		ErrorClassConnectionReset,
		ErrorClassTimeout,
		ErrorClassTLS,
		ErrorClassMalformedQuery,
		ErrorClassMemoryExhaustion,
		ErrorClassGraphQLApplication,
	}
}
