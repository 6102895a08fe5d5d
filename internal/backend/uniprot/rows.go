package uniprot

import (
	"fmt"
	"strconv"

	"github.com/vietddude/biofetch/internal/core/domain"
)

// NameColumns is the output schema of the names query.
var NameColumns = []string{"UniProt ID", "Reviewed", "Protein Name"}

// SiteColumns is the output schema of the site annotation query.
var SiteColumns = []string{"uniprot_id", "site", "begin", "end", "comment"}

// SequenceColumns is the output schema of the sequence query.
var SequenceColumns = []string{"uniprot_id", "sequence"}

// ProteinName is the review status and recommended name of an entry.
type ProteinName struct {
	UniProtID string
	Reviewed  bool
	Name      string
}

func (p ProteinName) Record() []string {
	return []string{p.UniProtID, strconv.FormatBool(p.Reviewed), p.Name}
}

// SiteAnnotation is one binding or active site.
type SiteAnnotation struct {
	UniProtID string
	Site      string
	Begin     int
	End       int
	Comment   string
}

func (s SiteAnnotation) Record() []string {
	return []string{s.UniProtID, s.Site, strconv.Itoa(s.Begin), strconv.Itoa(s.End), s.Comment}
}

// Sequence is the canonical sequence of an entry.
type Sequence struct {
	UniProtID string
	Sequence  string
}

func (s Sequence) Record() []string {
	return []string{s.UniProtID, s.Sequence}
}

// NewNames creates the protein name backend.
func NewNames() (*Query[ProteinName], error) {
	return newQuery(domain.BackendUniProtNames, "protein_names", namesTemplate, NameColumns, nameRow)
}

// NewSites creates the site annotation backend.
func NewSites() (*Query[SiteAnnotation], error) {
	return newQuery(domain.BackendUniProtSites, "site_annotations", sitesTemplate, SiteColumns, siteRow)
}

// NewSequences creates the sequence backend.
func NewSequences() (*Query[Sequence], error) {
	return newQuery(domain.BackendUniProtSequences, "sequences", sequencesTemplate, SequenceColumns, sequenceRow)
}

func nameRow(b Binding) (ProteinName, error) {
	var p ProteinName
	var err error

	if p.UniProtID, err = b.required("uniprot_id"); err != nil {
		return p, err
	}
	reviewed, err := b.required("reviewed")
	if err != nil {
		return p, err
	}
	if p.Reviewed, err = strconv.ParseBool(reviewed); err != nil {
		return p, fmt.Errorf("?reviewed: %w", err)
	}
	p.Name = b["name"]
	return p, nil
}

func siteRow(b Binding) (SiteAnnotation, error) {
	var s SiteAnnotation
	var err error

	if s.UniProtID, err = b.required("uniprot_id"); err != nil {
		return s, err
	}
	if s.Site, err = b.required("site"); err != nil {
		return s, err
	}
	if s.Begin, err = position(b, "begin"); err != nil {
		return s, err
	}
	if s.End, err = position(b, "end"); err != nil {
		return s, err
	}
	s.Comment = b["comment"]
	return s, nil
}

func sequenceRow(b Binding) (Sequence, error) {
	var s Sequence
	var err error

	if s.UniProtID, err = b.required("uniprot_id"); err != nil {
		return s, err
	}
	s.Sequence, err = b.required("sequence")
	return s, err
}

func position(b Binding, name string) (int, error) {
	raw, err := b.required(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("?%s: %w", name, err)
	}
	return n, nil
}
