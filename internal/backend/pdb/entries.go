package pdb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/vietddude/biofetch/internal/backend"
	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/infra/rpc"
	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
)

// EntryColumns is the output schema of the entries backend.
var EntryColumns = []string{
	"PDB ID",
	"Map PDB Chain to UniProt",
	"Oligomeric State",
	"Stoichiometry",
	"Experimental Method",
	"Resolution",
}

// ChainMapping links one polymer instance of the first assembly to its
// UniProt accessions and canonical sequence.
type ChainMapping struct {
	Chain      string   `json:"chain"`
	UniProtIDs []string `json:"uniprot_ids"`
	Sequence   string   `json:"sequence"`
}

// EntryRow is one PDB entry.
type EntryRow struct {
	PDBID              string
	Chains             []ChainMapping
	OligomericState    string
	Stoichiometry      []string
	ExperimentalMethod string
	Resolution         []float64
}

// Record implements batch.Row.
func (r EntryRow) Record() []string {
	return []string{
		r.PDBID,
		formatChains(r.Chains),
		r.OligomericState,
		strings.Join(r.Stoichiometry, ","),
		r.ExperimentalMethod,
		formatResolution(r.Resolution),
	}
}

func formatChains(chains []ChainMapping) string {
	if len(chains) == 0 {
		return ""
	}
	b, err := json.Marshal(chains)
	if err != nil {
		return ""
	}
	return string(b)
}

// A single resolution prints as a number, several as a JSON list.
func formatResolution(res []float64) string {
	switch len(res) {
	case 0:
		return ""
	case 1:
		return strconv.FormatFloat(res[0], 'f', -1, 64)
	default:
		parts := make([]string, len(res))
		for i, v := range res {
			parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
}

// Entries fetches entry-level structure metadata.
type Entries struct{}

// NewEntries creates the entries backend.
func NewEntries() *Entries {
	return &Entries{}
}

func (e *Entries) Name() string      { return domain.BackendPDBEntries }
func (e *Entries) Columns() []string { return EntryColumns }

// BuildOperation passes the batch as the $ids variable.
func (e *Entries) BuildOperation(ids []string) (provider.Operation, error) {
	if err := checkIDs(ids, false); err != nil {
		return provider.Operation{}, err
	}
	return rpc.NewGraphQLOperation("entries", entriesQuery, map[string]any{"ids": ids}), nil
}

// Normalize reads data.entries. A null entries list yields no rows.
func (e *Entries) Normalize(body []byte) ([]EntryRow, error) {
	if _, _, err := backend.Required(body, "data"); err != nil {
		return nil, err
	}

	var rows []EntryRow
	err := backend.Each(body, func(entry []byte, t jsonparser.ValueType) error {
		if t == jsonparser.Null {
			return nil
		}
		row, err := parseEntry(entry)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	}, "data", "entries")
	if err != nil {
		return nil, fmt.Errorf("normalize entries: %w", err)
	}
	return rows, nil
}

func parseEntry(entry []byte) (EntryRow, error) {
	var row EntryRow
	var err error

	if row.PDBID, err = backend.RequiredString(entry, "rcsb_id"); err != nil {
		return row, err
	}
	if row.ExperimentalMethod, err = backend.OptionalString(entry, "rcsb_entry_info", "experimental_method"); err != nil {
		return row, err
	}

	err = backend.Each(entry, func(v []byte, t jsonparser.ValueType) error {
		if t == jsonparser.Null {
			return nil
		}
		f, err := jsonparser.ParseFloat(v)
		if err != nil {
			return fmt.Errorf("%s: resolution: %w", row.PDBID, err)
		}
		row.Resolution = append(row.Resolution, f)
		return nil
	}, "rcsb_entry_info", "resolution_combined")
	if err != nil {
		return row, err
	}

	assembly, ok, err := firstAssembly(entry)
	if err != nil || !ok {
		return row, err
	}

	err = backend.Each(assembly, func(inst []byte, t jsonparser.ValueType) error {
		if t == jsonparser.Null {
			return nil
		}
		mapping, err := parseInstance(inst)
		if err != nil {
			return fmt.Errorf("%s: %w", row.PDBID, err)
		}
		row.Chains = append(row.Chains, mapping)
		return nil
	}, "polymer_entity_instances")
	if err != nil {
		return row, err
	}

	err = backend.Each(assembly, func(sym []byte, _ jsonparser.ValueType) error {
		kind, err := backend.OptionalString(sym, "kind")
		if err != nil || kind != globalSymmetry {
			return err
		}
		if row.OligomericState, err = backend.OptionalString(sym, "oligomeric_state"); err != nil {
			return err
		}
		row.Stoichiometry, err = stringList(sym, "stoichiometry")
		return err
	}, "rcsb_struct_symmetry")
	return row, err
}

func firstAssembly(entry []byte) ([]byte, bool, error) {
	var (
		first []byte
		found bool
	)
	err := backend.Each(entry, func(a []byte, t jsonparser.ValueType) error {
		if !found && t == jsonparser.Object {
			first, found = a, true
		}
		return nil
	}, "assemblies")
	return first, found, err
}

func parseInstance(inst []byte) (ChainMapping, error) {
	var m ChainMapping

	id, err := backend.RequiredString(inst, "rcsb_id")
	if err != nil {
		return m, err
	}
	_, chain, ok := splitInstance(id)
	if !ok {
		return m, fmt.Errorf("instance id %q is not ENTRY.CHAIN", id)
	}
	m.Chain = chain

	if m.Sequence, err = backend.OptionalString(inst, "polymer_entity", "entity_poly", "pdbx_seq_one_letter_code_can"); err != nil {
		return m, err
	}

	m.UniProtIDs = []string{}
	err = backend.Each(inst, func(u []byte, _ jsonparser.ValueType) error {
		acc, err := backend.RequiredString(u, "rcsb_id")
		if err != nil {
			return err
		}
		m.UniProtIDs = append(m.UniProtIDs, acc)
		return nil
	}, "polymer_entity", "uniprots")
	return m, err
}

// stringList reads a string or an array of strings.
func stringList(data []byte, keys ...string) ([]string, error) {
	value, dataType, _, err := jsonparser.Get(data, keys...)
	if err != nil || dataType == jsonparser.Null {
		return nil, nil
	}
	if dataType == jsonparser.String {
		s, err := jsonparser.ParseString(value)
		return []string{s}, err
	}

	var out []string
	err = backend.Each(data, func(v []byte, t jsonparser.ValueType) error {
		if t != jsonparser.String {
			return fmt.Errorf("%w: %s element is %s", backend.ErrUnexpectedType, strings.Join(keys, "."), t)
		}
		s, err := jsonparser.ParseString(v)
		out = append(out, s)
		return err
	}, keys...)
	return out, err
}
