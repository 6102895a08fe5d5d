// Package asd reads the Allosteric Database (ASD) XML release.
//
// The release is a gzip compressed tar of one XML document per protein. Each
// document yields one Record per allosteric site.
package asd

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrMalformedResidue reports a residue group without a "Chain X:" prefix.
	// The rest of the list is still parsed.
	ErrMalformedResidue = errors.New("malformed allosteric site residue")

	// ErrMissingField is returned when a document lacks a required element.
	ErrMissingField = errors.New("missing required element")
)

// Columns is the output schema, one column per Record field.
var Columns = []string{
	"Protein ASD ID",
	"Gene",
	"Organism",
	"UniProt ID",
	"PDB ID",
	"Protein Class",
	"EC Number",
	"Modulator ASD ID",
	"Modulator Alias",
	"Modulator Chain",
	"Modulator Class",
	"Allosteric Activity",
	"Modulator Name",
	"Modulator Residue ID",
	"ASD Function",
	"Position",
	"PubMed",
	"Reference Title",
	"Site Overlap",
	"ASD Allosteric Site Residues",
}

// Record is one allosteric site of one protein.
type Record struct {
	ProteinASDID       string
	Gene               string
	Organism           string
	UniProtID          string
	PDBID              string
	ProteinClass       string
	ECNumbers          []string
	ModulatorASDID     string
	ModulatorAlias     string
	ModulatorChain     string
	ModulatorClass     string
	AllostericActivity string
	ModulatorName      string
	ModulatorResidue   string
	Function           string
	Position           string
	PubMed             string
	ReferenceTitle     string
	SiteOverlap        string
	SiteResidues       []string
}

// Record returns the row in Columns order. List cells are joined with ";".
func (r Record) Record() []string {
	return []string{
		r.ProteinASDID,
		r.Gene,
		r.Organism,
		r.UniProtID,
		r.PDBID,
		r.ProteinClass,
		strings.Join(r.ECNumbers, ";"),
		r.ModulatorASDID,
		r.ModulatorAlias,
		r.ModulatorChain,
		r.ModulatorClass,
		r.AllostericActivity,
		r.ModulatorName,
		r.ModulatorResidue,
		r.Function,
		r.Position,
		r.PubMed,
		r.ReferenceTitle,
		r.SiteOverlap,
		strings.Join(r.SiteResidues, ";"),
	}
}

type organismRecord struct {
	XMLName       xml.Name `xml:"Organism_Record"`
	OrganismID    string   `xml:"Organism_ID"`
	GeneName      string   `xml:"Gene>Gene_Name"`
	Organism      string   `xml:"Organism"`
	MoleculeClass string   `xml:"Molecule_Class"`
	ECNumbers     []string `xml:"Enzyme_Nomenclature_List>Enzyme_Nomenclature>Enzyme_DB_ID"`
	Sites         []site   `xml:"Allosteric_Site_List>Allosteric_Site"`
}

type site struct {
	PDBUniProtID     string `xml:"PDB_UniProt_ID"`
	AllostericPDB    string `xml:"Allosteric_PDB"`
	ModulatorASDID   string `xml:"Modulator_ASD_ID"`
	ModulatorAlias   string `xml:"Modulator_Alias"`
	ModulatorChain   string `xml:"Modulator_Chain"`
	ModulatorClass   string `xml:"Modulator_Class"`
	ModulatorFeature string `xml:"Modulator_Feature"`
	ModulatorName    string `xml:"Modulator_Name"`
	ModulatorResidue string `xml:"Modulator_Residue"`
	Function         string `xml:"Function"`
	Position         string `xml:"Position"`
	PubMedID         string `xml:"PubMed_ID"`
	PubMedTitle      string `xml:"PubMed_Title"`
	SiteOverlap      string `xml:"Site_Overlap"`
	SiteResidue      string `xml:"Allosteric_Site_Residue"`
}

func (s site) empty() bool {
	return s == site{}
}

// invalidCharRef is a control character reference some releases contain.
// XML 1.0 forbids it, so it is removed before decoding.
var invalidCharRef = []byte("&#x2;")

// ParseDocument decodes one Organism_Record document. Residue lists with
// unreadable groups do not drop their site: the records come back together
// with an error wrapping ErrMalformedResidue.
func ParseDocument(data []byte) ([]Record, error) {
	data = bytes.ReplaceAll(data, invalidCharRef, nil)

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var doc organismRecord
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode organism record: %w", err)
	}
	if doc.OrganismID == "" {
		return nil, fmt.Errorf("%w: Organism_ID", ErrMissingField)
	}

	var (
		records []Record
		errs    []error
	)
	for i, s := range doc.Sites {
		if s.empty() {
			continue
		}

		var residues []string
		if s.SiteResidue != "" {
			var err error
			if residues, err = ParseResidues(s.SiteResidue); err != nil {
				errs = append(errs, fmt.Errorf("%s site %d: %w", doc.OrganismID, i, err))
			}
		}

		records = append(records, Record{
			ProteinASDID:       doc.OrganismID,
			Gene:               doc.GeneName,
			Organism:           doc.Organism,
			UniProtID:          strings.ToUpper(s.PDBUniProtID),
			PDBID:              strings.ToUpper(s.AllostericPDB),
			ProteinClass:       doc.MoleculeClass,
			ECNumbers:          doc.ECNumbers,
			ModulatorASDID:     s.ModulatorASDID,
			ModulatorAlias:     s.ModulatorAlias,
			ModulatorChain:     s.ModulatorChain,
			ModulatorClass:     s.ModulatorClass,
			AllostericActivity: s.ModulatorFeature,
			ModulatorName:      s.ModulatorName,
			ModulatorResidue:   s.ModulatorResidue,
			Function:           s.Function,
			Position:           s.Position,
			PubMed:             s.PubMedID,
			ReferenceTitle:     s.PubMedTitle,
			SiteOverlap:        s.SiteOverlap,
			SiteResidues:       residues,
		})
	}
	return records, errors.Join(errs...)
}

// ParseResidues converts "Chain A:HIS25,TYR258; Chain B:VAL325" into
// ["A-HIS-25", "A-TYR-258", "B-VAL-325"]. Empty tokens are skipped and tokens
// too short to hold a residue number are kept with an empty number. Groups
// without a chain prefix are reported as ErrMalformedResidue alongside the
// residues that could be read.
func ParseResidues(s string) ([]string, error) {
	var (
		out  []string
		errs []error
	)
	for _, group := range strings.Split(s, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		chainName, residues, ok := strings.Cut(group, ":")
		chainName = strings.TrimSpace(chainName)
		if !ok || chainName == "" {
			errs = append(errs, fmt.Errorf("%w: %q", ErrMalformedResidue, group))
			continue
		}
		chain := chainName[len(chainName)-1:]

		for _, residue := range strings.Split(residues, ",") {
			residue = strings.TrimSpace(residue)
			if residue == "" {
				continue
			}
			n := min(3, len(residue))
			out = append(out, chain+"-"+residue[:n]+"-"+residue[n:])
		}
	}
	return out, errors.Join(errs...)
}
