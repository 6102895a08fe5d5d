package uniprot

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vietddude/biofetch/internal/backend"
)

const namesBody = `{
  "head": {"vars": ["uniprot_id", "reviewed", "name"]},
  "results": {
    "bindings": [
      {
        "uniprot_id": {"type": "literal", "value": "P69905"},
        "reviewed": {"datatype": "http://www.w3.org/2001/XMLSchema#boolean", "type": "literal", "value": "true"},
        "name": {"type": "literal", "value": "Hemoglobin subunit alpha"}
      },
      {
        "uniprot_id": {"type": "literal", "value": "A0A024R161"},
        "reviewed": {"type": "literal", "value": "false"}
      }
    ]
  }
}`

const sitesBody = `{
  "results": {
    "bindings": [
      {
        "uniprot_id": {"type": "literal", "value": "P00533"},
        "begin": {"type": "literal", "value": "745"},
        "end": {"type": "literal", "value": "745"},
        "site": {"type": "literal", "value": "Binding_Site_Annotation"},
        "comment": {"type": "literal", "value": "ATP"}
      },
      {
        "uniprot_id": {"type": "literal", "value": "P00533"},
        "begin": {"type": "literal", "value": "837"},
        "end": {"type": "literal", "value": "837"},
        "site": {"type": "literal", "value": "Active_Site_Annotation"}
      }
    ]
  }
}`

func TestValidAccession(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"P69905", true},
		{"Q9Y261", true},
		{"A0A024R161", true},
		{"P69905-2", true},
		{"p69905", false},
		{"", false},
		{"P69905 }", false},
		{"P69905>", false},
		{"4HHB", false},
	}
	for _, tt := range tests {
		if got := ValidAccession(tt.id); got != tt.want {
			t.Errorf("ValidAccession(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	q, err := NewNames()
	if err != nil {
		t.Fatalf("NewNames: %v", err)
	}

	text, err := q.Render([]string{"P69905", "P68871"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(text, "VALUES ?protein { uniprotkb:P69905 uniprotkb:P68871 }") {
		t.Errorf("values clause not rendered:\n%s", text)
	}
	if strings.Contains(text, "{{") {
		t.Errorf("placeholder left in query:\n%s", text)
	}
	if !strings.HasPrefix(text, "PREFIX up:") {
		t.Errorf("expected prefixes first, got:\n%s", text)
	}
}

func TestRenderRejectsInvalidIDs(t *testing.T) {
	q, err := NewSequences()
	if err != nil {
		t.Fatalf("NewSequences: %v", err)
	}

	if _, err := q.Render([]string{"P69905", "x } ?s ?p ?o {"}); !errors.Is(err, ErrInvalidAccession) {
		t.Errorf("expected ErrInvalidAccession, got %v", err)
	}
	if _, err := q.Render(nil); !errors.Is(err, ErrInvalidAccession) {
		t.Errorf("expected ErrInvalidAccession for empty batch, got %v", err)
	}
	if _, err := q.BuildOperation([]string{"bad id"}); !errors.Is(err, ErrInvalidAccession) {
		t.Errorf("BuildOperation: expected ErrInvalidAccession, got %v", err)
	}
}

func TestBuildOperation(t *testing.T) {
	q, err := NewSites()
	if err != nil {
		t.Fatalf("NewSites: %v", err)
	}
	op, err := q.BuildOperation([]string{"P00533"})
	if err != nil {
		t.Fatalf("BuildOperation: %v", err)
	}
	if op.Name != "site_annotations" {
		t.Errorf("expected op name site_annotations, got %q", op.Name)
	}
	if !strings.Contains(op.Query, "uniprotkb:P00533") || op.Variables != nil {
		t.Errorf("unexpected operation: %+v", op)
	}
}

func TestFlattenBindings(t *testing.T) {
	got, err := FlattenBindings([]byte(namesBody))
	if err != nil {
		t.Fatalf("FlattenBindings: %v", err)
	}
	want := []Binding{
		{"uniprot_id": "P69905", "reviewed": "true", "name": "Hemoglobin subunit alpha"},
		{"uniprot_id": "A0A024R161", "reviewed": "false"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFlattenBindingsErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"no results", `{"head": {}}`, backend.ErrMissingKey},
		{"null bindings", `{"results": {"bindings": null}}`, backend.ErrMissingKey},
		{"binding not object", `{"results": {"bindings": [1]}}`, backend.ErrUnexpectedType},
		{"term without value", `{"results": {"bindings": [{"uniprot_id": {"type": "literal"}}]}}`, backend.ErrMissingKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FlattenBindings([]byte(tt.body)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNamesNormalize(t *testing.T) {
	q, _ := NewNames()
	rows, err := q.Normalize([]byte(namesBody))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []ProteinName{
		{UniProtID: "P69905", Reviewed: true, Name: "Hemoglobin subunit alpha"},
		{UniProtID: "A0A024R161", Reviewed: false},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("got %+v, want %+v", rows, want)
	}
	if got := rows[1].Record(); !reflect.DeepEqual(got, []string{"A0A024R161", "false", ""}) {
		t.Errorf("unexpected record %v", got)
	}
	if !reflect.DeepEqual(q.Columns(), []string{"UniProt ID", "Reviewed", "Protein Name"}) {
		t.Errorf("unexpected columns %v", q.Columns())
	}
}

func TestSitesNormalize(t *testing.T) {
	q, _ := NewSites()
	rows, err := q.Normalize([]byte(sitesBody))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0] != (SiteAnnotation{UniProtID: "P00533", Site: "Binding_Site_Annotation", Begin: 745, End: 745, Comment: "ATP"}) {
		t.Errorf("unexpected row %+v", rows[0])
	}
	if rows[1].Comment != "" {
		t.Errorf("expected empty optional comment, got %q", rows[1].Comment)
	}
	if got := rows[0].Record(); !reflect.DeepEqual(got, []string{"P00533", "Binding_Site_Annotation", "745", "745", "ATP"}) {
		t.Errorf("unexpected record %v", got)
	}
}

func TestSequencesNormalize(t *testing.T) {
	q, _ := NewSequences()
	body := `{"results": {"bindings": [{"uniprot_id": {"value": "P69905"}, "sequence": {"value": "MVLSPADKTN"}}]}}`
	rows, err := q.Normalize([]byte(body))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 1 || rows[0] != (Sequence{UniProtID: "P69905", Sequence: "MVLSPADKTN"}) {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	q, _ := NewSites()
	first, err := q.Normalize([]byte(sitesBody))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	second, err := q.Normalize([]byte(sitesBody))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalize not idempotent: %+v vs %+v", first, second)
	}
}

func TestNormalizeEmptyMatchSet(t *testing.T) {
	q, _ := NewNames()
	rows, err := q.Normalize([]byte(`{"results": {"bindings": []}}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestNormalizeRequiredVariables(t *testing.T) {
	names, _ := NewNames()
	sites, _ := NewSites()

	if _, err := names.Normalize([]byte(`{"results": {"bindings": [{"reviewed": {"value": "true"}}]}}`)); !errors.Is(err, backend.ErrMissingKey) {
		t.Errorf("names without uniprot_id: expected ErrMissingKey, got %v", err)
	}
	if _, err := names.Normalize([]byte(`{"results": {"bindings": [{"uniprot_id": {"value": "P1"}, "reviewed": {"value": "maybe"}}]}}`)); err == nil {
		t.Error("expected error for non-boolean reviewed")
	}

	body := `{"results": {"bindings": [{"uniprot_id": {"value": "P1"}, "site": {"value": "x"}, "begin": {"value": "1"}}]}}`
	if _, err := sites.Normalize([]byte(body)); !errors.Is(err, backend.ErrMissingKey) {
		t.Errorf("sites without end: expected ErrMissingKey, got %v", err)
	}
}
