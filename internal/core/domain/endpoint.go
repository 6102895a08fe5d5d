package domain

import "time"

// Protocol is the wire dialect spoken by an endpoint.
type Protocol string

const (
	ProtocolJSON    Protocol = "json"    // plain JSON POST
	ProtocolGraphQL Protocol = "graphql" // {query, variables} POST
	ProtocolSPARQL  Protocol = "sparql"  // form-encoded SPARQL POST
)

// Backend names used in logs, metrics and sink tables.
const (
	BackendPDBEntries       = "pdb_entries"
	BackendPDBChains        = "pdb_chains"
	BackendUniProtNames     = "uniprot_names"
	BackendUniProtSites     = "uniprot_sites"
	BackendUniProtSequences = "uniprot_sequences"
	BackendASD              = "asd"
)

// Default public endpoints.
const (
	DefaultPDBGraphQLURL = "https://data.rcsb.org/graphql"
	DefaultUniProtURL    = "https://sparql.uniprot.org/sparql"
)

// Endpoint describes a remote service. It is treated as immutable once a
// provider has been built from it.
type Endpoint struct {
	Name     string
	URL      string
	Protocol Protocol
	Headers  map[string]string
	Timeout  time.Duration
}

// WithHeader returns a copy of e with the header set.
func (e Endpoint) WithHeader(key, value string) Endpoint {
	headers := make(map[string]string, len(e.Headers)+1)
	for k, v := range e.Headers {
		headers[k] = v
	}
	headers[key] = value
	e.Headers = headers
	return e
}
