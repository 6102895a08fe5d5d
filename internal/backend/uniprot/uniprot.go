// Package uniprot queries the UniProt SPARQL endpoint.
//
// Three queries are supported, each keyed by a batch of accessions spliced
// into a VALUES clause: recommended protein names, binding and active site
// annotations, and canonical sequences. Accessions are validated before they
// reach the query text.
package uniprot

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/valyala/fasttemplate"

	"github.com/vietddude/biofetch/internal/backend"
	"github.com/vietddude/biofetch/internal/fetch/batch"
	"github.com/vietddude/biofetch/internal/infra/rpc"
	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
)

// ErrInvalidAccession is returned for ids that are not UniProt accessions.
var ErrInvalidAccession = errors.New("invalid UniProt accession")

// accessionPattern is the UniProtKB accession format, with an optional
// isoform suffix.
var accessionPattern = regexp.MustCompile(`^([OPQ][0-9][A-Z0-9]{3}[0-9]|[A-NR-Z][0-9]([A-Z][A-Z0-9]{2}[0-9]){1,2})(-[0-9]+)?$`)

// ValidAccession reports whether id can be spliced into a query.
func ValidAccession(id string) bool {
	return accessionPattern.MatchString(id)
}

// Binding is one SPARQL result row: variable name to value.
type Binding map[string]string

// FlattenBindings reads results.bindings from a SPARQL JSON response and
// keeps only the value of every variable.
func FlattenBindings(body []byte) ([]Binding, error) {
	if _, _, err := backend.Required(body, "results", "bindings"); err != nil {
		return nil, err
	}

	var out []Binding
	err := backend.Each(body, func(item []byte, t jsonparser.ValueType) error {
		if t != jsonparser.Object {
			return fmt.Errorf("%w: binding is %s", backend.ErrUnexpectedType, t)
		}
		b := Binding{}
		err := jsonparser.ObjectEach(item, func(key, value []byte, _ jsonparser.ValueType, _ int) error {
			v, err := backend.RequiredString(value, "value")
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			b[string(key)] = v
			return nil
		})
		if err != nil {
			return err
		}
		out = append(out, b)
		return nil
	}, "results", "bindings")
	if err != nil {
		return nil, fmt.Errorf("flatten bindings: %w", err)
	}
	return out, nil
}

func (b Binding) required(name string) (string, error) {
	v, ok := b[name]
	if !ok {
		return "", fmt.Errorf("%w: ?%s", backend.ErrMissingKey, name)
	}
	return v, nil
}

// Query is a SPARQL backend producing rows of type R.
type Query[R batch.Row] struct {
	name    string
	op      string
	columns []string
	tpl     *fasttemplate.Template
	row     func(Binding) (R, error)
}

func newQuery[R batch.Row](name, op, template string, columns []string, row func(Binding) (R, error)) (*Query[R], error) {
	tpl, err := fasttemplate.NewTemplate(template, "{{", "}}")
	if err != nil {
		return nil, fmt.Errorf("%s: parse query template: %w", name, err)
	}
	return &Query[R]{name: name, op: op, columns: columns, tpl: tpl, row: row}, nil
}

func (q *Query[R]) Name() string      { return q.name }
func (q *Query[R]) Columns() []string { return q.columns }

// Render returns the query text for ids.
func (q *Query[R]) Render(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: empty batch", ErrInvalidAccession)
	}
	terms := make([]string, len(ids))
	for i, id := range ids {
		if !ValidAccession(id) {
			return "", fmt.Errorf("%w: %q", ErrInvalidAccession, id)
		}
		terms[i] = "uniprotkb:" + id
	}
	return q.tpl.ExecuteString(map[string]interface{}{
		"values": strings.Join(terms, " "),
	}), nil
}

// BuildOperation renders the query for one batch.
func (q *Query[R]) BuildOperation(ids []string) (provider.Operation, error) {
	text, err := q.Render(ids)
	if err != nil {
		return provider.Operation{}, err
	}
	return rpc.NewSPARQLOperation(q.op, text), nil
}

// Normalize flattens the bindings and maps each one to a row.
func (q *Query[R]) Normalize(body []byte) ([]R, error) {
	bindings, err := FlattenBindings(body)
	if err != nil {
		return nil, err
	}
	rows := make([]R, 0, len(bindings))
	for i, b := range bindings {
		r, err := q.row(b)
		if err != nil {
			return nil, fmt.Errorf("%s binding %d: %w", q.name, i, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}
