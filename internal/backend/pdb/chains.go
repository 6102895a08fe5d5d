package pdb

import (
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/vietddude/biofetch/internal/backend"
	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/infra/rpc"
	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
)

// ChainColumns is the output schema of the chain mapping backend.
var ChainColumns = []string{"pdb_id", "chain", "uniprot_id"}

// ChainRow maps one polymer instance to its first UniProt accession.
type ChainRow struct {
	PDBID     string
	Chain     string
	UniProtID string
}

// Record implements batch.Row.
func (r ChainRow) Record() []string {
	return []string{r.PDBID, r.Chain, r.UniProtID}
}

// Chains maps "ENTRY.CHAIN" instance ids to UniProt accessions.
type Chains struct{}

// NewChains creates the chain mapping backend.
func NewChains() *Chains {
	return &Chains{}
}

func (c *Chains) Name() string      { return domain.BackendPDBChains }
func (c *Chains) Columns() []string { return ChainColumns }

// BuildOperation passes the batch as the $ids variable. Every id must be of
// the form ENTRY.CHAIN.
func (c *Chains) BuildOperation(ids []string) (provider.Operation, error) {
	if err := checkIDs(ids, true); err != nil {
		return provider.Operation{}, err
	}
	return rpc.NewGraphQLOperation("chains", chainsQuery, map[string]any{"ids": ids}), nil
}

// Normalize reads data.polymer_entity_instances. An instance without
// UniProt cross-references maps to "".
func (c *Chains) Normalize(body []byte) ([]ChainRow, error) {
	if _, _, err := backend.Required(body, "data"); err != nil {
		return nil, err
	}

	var rows []ChainRow
	err := backend.Each(body, func(inst []byte, t jsonparser.ValueType) error {
		if t == jsonparser.Null {
			return nil
		}

		id, err := backend.RequiredString(inst, "rcsb_id")
		if err != nil {
			return err
		}
		entry, chain, ok := splitInstance(id)
		if !ok {
			return fmt.Errorf("instance id %q is not ENTRY.CHAIN", id)
		}

		uniprot, err := backend.OptionalString(inst, "polymer_entity", "uniprots", "[0]", "rcsb_id")
		if err != nil {
			return err
		}
		rows = append(rows, ChainRow{PDBID: entry, Chain: chain, UniProtID: uniprot})
		return nil
	}, "data", "polymer_entity_instances")
	if err != nil {
		return nil, fmt.Errorf("normalize chains: %w", err)
	}
	return rows, nil
}
