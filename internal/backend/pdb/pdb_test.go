package pdb

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vietddude/biofetch/internal/backend"
)

const entriesBody = `{
  "data": {
    "entries": [
      {
        "rcsb_id": "4HHB",
        "rcsb_entry_info": {
          "experimental_method": "X-ray",
          "resolution_combined": [1.74]
        },
        "assemblies": [
          {
            "rcsb_id": "4HHB-1",
            "polymer_entity_instances": [
              {
                "rcsb_id": "4HHB.A",
                "polymer_entity": {
                  "entity_poly": {"pdbx_seq_one_letter_code_can": "VLSPADKTNV"},
                  "uniprots": [{"rcsb_id": "P69905"}]
                }
              },
              {
                "rcsb_id": "4HHB.B",
                "polymer_entity": {
                  "entity_poly": {"pdbx_seq_one_letter_code_can": "VHLTPEEKSA"},
                  "uniprots": null
                }
              }
            ],
            "rcsb_struct_symmetry": [
              {"kind": "Local Symmetry", "oligomeric_state": "Hetero 2-mer", "stoichiometry": ["A1", "B1"]},
              {"kind": "Global Symmetry", "oligomeric_state": "Hetero 4-mer", "stoichiometry": ["A2", "B2"]}
            ]
          },
          {
            "rcsb_id": "4HHB-2",
            "polymer_entity_instances": [],
            "rcsb_struct_symmetry": null
          }
        ]
      },
      {
        "rcsb_id": "7XYZ",
        "rcsb_entry_info": {
          "experimental_method": "EM",
          "resolution_combined": null
        },
        "assemblies": null
      },
      {
        "rcsb_id": "1NMR",
        "rcsb_entry_info": {"experimental_method": "NMR", "resolution_combined": [2.1, 3]},
        "assemblies": [{"polymer_entity_instances": null, "rcsb_struct_symmetry": []}]
      }
    ]
  }
}`

func TestEntriesNormalize(t *testing.T) {
	rows, err := NewEntries().Normalize([]byte(entriesBody))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	hb := rows[0]
	want := EntryRow{
		PDBID: "4HHB",
		Chains: []ChainMapping{
			{Chain: "A", UniProtIDs: []string{"P69905"}, Sequence: "VLSPADKTNV"},
			{Chain: "B", UniProtIDs: []string{}, Sequence: "VHLTPEEKSA"},
		},
		OligomericState:    "Hetero 4-mer",
		Stoichiometry:      []string{"A2", "B2"},
		ExperimentalMethod: "X-ray",
		Resolution:         []float64{1.74},
	}
	if !reflect.DeepEqual(hb, want) {
		t.Errorf("unexpected row:\n got %+v\nwant %+v", hb, want)
	}

	em := rows[1]
	if em.PDBID != "7XYZ" || em.Resolution != nil || em.Chains != nil || em.OligomericState != "" {
		t.Errorf("optional fields should be empty, got %+v", em)
	}

	nmr := rows[2]
	if got := nmr.Record()[5]; got != "[2.1, 3]" {
		t.Errorf("multi resolution = %q", got)
	}
}

func TestEntryRecord(t *testing.T) {
	rows, err := NewEntries().Normalize([]byte(entriesBody))
	if err != nil {
		t.Fatal(err)
	}

	rec := rows[0].Record()
	if len(rec) != len(EntryColumns) {
		t.Fatalf("record has %d values for %d columns", len(rec), len(EntryColumns))
	}
	wantChains := `[{"chain":"A","uniprot_ids":["P69905"],"sequence":"VLSPADKTNV"},{"chain":"B","uniprot_ids":[],"sequence":"VHLTPEEKSA"}]`
	if rec[1] != wantChains {
		t.Errorf("chains cell = %s", rec[1])
	}
	if rec[3] != "A2,B2" || rec[5] != "1.74" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestEntriesNormalizeIdempotent(t *testing.T) {
	e := NewEntries()
	first, err := e.Normalize([]byte(entriesBody))
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Normalize([]byte(entriesBody))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("normalizing the same body twice gave different rows")
	}
}

func TestEntriesNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no data", `{"other": 1}`},
		{"null data", `{"data": null}`},
		{"entry without id", `{"data": {"entries": [{"rcsb_entry_info": {}}]}}`},
		{"bad instance id", `{"data": {"entries": [{"rcsb_id": "1ABC", "assemblies": [{"polymer_entity_instances": [{"rcsb_id": "1ABC"}]}]}]}}`},
		{"entries not a list", `{"data": {"entries": {"rcsb_id": "1ABC"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEntries().Normalize([]byte(tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEntriesEmptyMatchSet(t *testing.T) {
	for _, body := range []string{`{"data": {"entries": []}}`, `{"data": {"entries": null}}`} {
		rows, err := NewEntries().Normalize([]byte(body))
		if err != nil || len(rows) != 0 {
			t.Errorf("Normalize(%s) = %v, %v", body, rows, err)
		}
	}
}

func TestEntriesBuildOperation(t *testing.T) {
	op, err := NewEntries().BuildOperation([]string{"4HHB", "1ABC"})
	if err != nil {
		t.Fatal(err)
	}
	if op.Name != "entries" || op.Query != entriesQuery {
		t.Errorf("unexpected operation %q", op.Name)
	}
	ids, ok := op.Variables["ids"].([]string)
	if !ok || !reflect.DeepEqual(ids, []string{"4HHB", "1ABC"}) {
		t.Errorf("unexpected variables %v", op.Variables)
	}

	if _, err := NewEntries().BuildOperation([]string{"4HHB", " "}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

const chainsBody = `{
  "data": {
    "polymer_entity_instances": [
      {"rcsb_id": "4HHB.A", "polymer_entity": {"uniprots": [{"rcsb_id": "P69905"}, {"rcsb_id": "X00000"}]}},
      {"rcsb_id": "1ABC.B", "polymer_entity": {"uniprots": null}},
      {"rcsb_id": "2XYZ.C", "polymer_entity": {"uniprots": []}}
    ]
  }
}`

func TestChainsNormalize(t *testing.T) {
	rows, err := NewChains().Normalize([]byte(chainsBody))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	want := []ChainRow{
		{PDBID: "4HHB", Chain: "A", UniProtID: "P69905"},
		{PDBID: "1ABC", Chain: "B", UniProtID: ""},
		{PDBID: "2XYZ", Chain: "C", UniProtID: ""},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("got %+v, want %+v", rows, want)
	}
	if rec := rows[0].Record(); !reflect.DeepEqual(rec, []string{"4HHB", "A", "P69905"}) {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestChainsNormalizeMissingID(t *testing.T) {
	_, err := NewChains().Normalize([]byte(`{"data": {"polymer_entity_instances": [{"polymer_entity": {}}]}}`))
	if !errors.Is(err, backend.ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}
}

func TestChainsBuildOperation(t *testing.T) {
	if _, err := NewChains().BuildOperation([]string{"4HHB.A", "1ABC"}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID for id without chain, got %v", err)
	}
	if _, err := NewChains().BuildOperation(nil); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID for empty batch, got %v", err)
	}

	op, err := NewChains().BuildOperation([]string{"4HHB.A"})
	if err != nil || op.Name != "chains" {
		t.Fatalf("BuildOperation = %+v, %v", op, err)
	}
}
