// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model and configuration for autoterms.
package types

// Sentinel is the microbe name substituted when an entity carries no usable
// taxon reference. Every retained entity yields at least one row.
const Sentinel = "UNKNOWN_MICROBE"

// Marker is the provenance substring that tags an entity as machine-generated.
// The match is case-insensitive and may occur anywhere in the entity's
// nested values.
const Marker = "auto:"

// Flags holds the three per-entity classification dimensions. Values are
// always 0 or 1, never any other integer.
type Flags struct {
	// StudyTaxa is 1 when the entity references a taxon or microbe.
	StudyTaxa int `json:"study_taxa" yaml:"study_taxa"`

	// Strains is 1 when the entity references a strain or isolate.
	Strains int `json:"strains" yaml:"strains"`

	// ChemicalsMentioned is 1 when the entity mentions a chemical compound.
	ChemicalsMentioned int `json:"chemicals_mentioned" yaml:"chemicals_mentioned"`
}

// Row is one microbe mention in the output table. An entity that references
// N microbes fans out into N rows sharing the same id, label, span text,
// and flags.
type Row struct {
	// Microbe is the extracted organism name, or Sentinel when none was found.
	Microbe string `json:"microbe" yaml:"microbe"`

	// ID is the entity identifier, resolved from id, _id, or uuid. May be empty.
	ID string `json:"id" yaml:"id"`

	// Label is the entity's free-text description. May be empty.
	Label string `json:"label" yaml:"label"`

	// OriginalSpans is the flattened evidence text for the mention.
	OriginalSpans string `json:"original_spans" yaml:"original_spans"`

	Flags `yaml:",inline"`
}

// Columns lists the output table columns in serialization order.
var Columns = []string{
	"microbe", "id", "label", "original_spans",
	"study_taxa", "strains", "chemicals_mentioned",
}

// Record returns the row's column values in Columns order.
func (r Row) Record() []string {
	return []string{
		r.Microbe, r.ID, r.Label, r.OriginalSpans,
		itoa(r.StudyTaxa), itoa(r.Strains), itoa(r.ChemicalsMentioned),
	}
}

func itoa(flag int) string {
	if flag == 0 {
		return "0"
	}
	return "1"
}
