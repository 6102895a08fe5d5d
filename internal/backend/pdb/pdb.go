// Package pdb queries the RCSB PDB GraphQL API.
package pdb

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidID is returned by BuildOperation for ids that cannot be queried.
var ErrInvalidID = errors.New("invalid PDB id")

const entriesQuery = `query structure($ids: [String!]!) {
  entries(entry_ids: $ids) {
    rcsb_id
    rcsb_entry_info {
      experimental_method
      resolution_combined
    }
    assemblies {
      rcsb_id
      polymer_entity_instances {
        rcsb_id
        polymer_entity {
          entity_poly {
            pdbx_seq_one_letter_code_can
          }
          uniprots {
            rcsb_id
          }
        }
      }
      rcsb_struct_symmetry {
        kind
        oligomeric_state
        stoichiometry
      }
    }
  }
}`

const chainsQuery = `query chains($ids: [String!]!) {
  polymer_entity_instances(instance_ids: $ids) {
    rcsb_id
    polymer_entity {
      uniprots {
        rcsb_id
      }
    }
  }
}`

// globalSymmetry is the rcsb_struct_symmetry kind describing the whole assembly.
const globalSymmetry = "Global Symmetry"

func checkIDs(ids []string, needChain bool) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidID)
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: blank id", ErrInvalidID)
		}
		if needChain {
			if _, _, ok := splitInstance(id); !ok {
				return fmt.Errorf("%w: %q is not ENTRY.CHAIN", ErrInvalidID, id)
			}
		}
	}
	return nil
}

// splitInstance splits "1ABC.A" into entry and chain.
func splitInstance(id string) (entry, chain string, ok bool) {
	entry, chain, ok = strings.Cut(id, ".")
	if !ok || entry == "" || chain == "" {
		return "", "", false
	}
	return entry, chain, true
}
