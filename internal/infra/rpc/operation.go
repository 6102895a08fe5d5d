package rpc

import (
	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
)

// NewGraphQLOperation creates an Operation carrying a GraphQL document and
// its variables.
func NewGraphQLOperation(name, query string, variables map[string]any) Operation {
	return provider.Operation{
		Name:      name,
		Query:     query,
		Variables: variables,
	}
}

// NewSPARQLOperation creates an Operation carrying SPARQL query text.
func NewSPARQLOperation(name, query string) Operation {
	return provider.Operation{
		Name:  name,
		Query: query,
	}
}
