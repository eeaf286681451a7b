// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// classify.go computes the three relevance flags for a located entity.
// Explicit structured fields are authoritative; lexical patterns over the
// entity's text are a deliberately permissive fallback, since the output
// table is reviewed by humans rather than consumed by automated decisions.
package extract

import (
	"regexp"
	"strings"

	"github.com/pdiddy/autoterms/internal/document"
	"github.com/pdiddy/autoterms/pkg/types"
)

// Lexical patterns for the heuristic fallback.
var (
	// binomialRe matches a capitalized genus followed by a lowercase
	// species epithet, e.g. "Bacillus subtilis".
	binomialRe = regexp.MustCompile(`\b[A-Z][a-z]+ [a-z]{2,}\b`)

	// taxonWordRe matches taxonomy rank words and generic microbe vocabulary.
	taxonWordRe = regexp.MustCompile(`(?i)\b(genus|species|family|order|phylum|class|microbe|bacterium|archaea|fungus|yeast)\b`)

	// collectionRe matches culture-collection acronyms such as DSM 1234
	// or ATCC 25922. These are uppercase by convention, so the match is
	// case-sensitive.
	collectionRe = regexp.MustCompile(`\b(DSM|ATCC|JCM|NRRL|NCIMB|KCTC|CGMCC|NBRC|BCRC|LMG|NCTC|KACC)\b`)

	// strainWordRe matches strain-related vocabulary.
	strainWordRe = regexp.MustCompile(`(?i)\b(type strain|strain|isolate|culture)\b`)

	// strainCodeRe matches compact strain designations like MG1655 or K12:
	// one to three uppercase letters, two or more digits, and an optional
	// alphanumeric tail.
	strainCodeRe = regexp.MustCompile(`\b[A-Z]{1,3}[0-9]{2,}[A-Za-z0-9]*\b`)
)

// chemicalVocab lists common metabolite and compound names and formulas.
// Matched whole-word and case-insensitively. Multi-word entries precede
// their single-word relatives so the alternation prefers the longer match.
var chemicalVocab = []string{
	"acetic acid", "butyric acid", "propionic acid", "lactic acid",
	"amino acid", "fatty acid",
	"glucose", "fructose", "sucrose", "lactose", "maltose", "xylose",
	"arabinose", "galactose", "cellulose", "starch", "glycogen", "chitin",
	"acetate", "butyrate", "propionate", "lactate", "formate", "succinate",
	"pyruvate", "citrate", "malate", "fumarate", "oxalate",
	"ethanol", "butanol", "methanol", "glycerol", "acetone",
	"methane", "hydrogen", "ammonia", "urea",
	"nitrate", "nitrite", "sulfate", "sulfide", "phosphate",
	"co2", "h2", "ch4", "nh3", "h2s", "n2", "o2",
}

// chemicalRe is built once from chemicalVocab as a whole-word alternation.
var chemicalRe = regexp.MustCompile(`(?i)\b(` + strings.Join(chemicalVocab, "|") + `)\b`)

// Classify computes the classification flags for one entity. Each flag is
// evaluated independently: an explicit truthy field sets it to 1 outright,
// otherwise the lexical patterns are tested against the entity's combined
// label and span text.
func Classify(ent document.Value) types.Flags {
	taxaExplicit := truthyField(ent, "study_taxa")
	strainsExplicit := truthyField(ent, "strains")
	chemExplicit := truthyField(ent, "chemicals_mentioned") || truthyField(ent, "chemicals")

	var text string
	if !taxaExplicit || !strainsExplicit || !chemExplicit {
		text = searchText(ent)
	}

	var f types.Flags
	if taxaExplicit || taxonMatch(text) {
		f.StudyTaxa = 1
	}
	if strainsExplicit || strainMatch(text) {
		f.Strains = 1
	}
	if chemExplicit || chemicalRe.MatchString(text) {
		f.ChemicalsMentioned = 1
	}
	return f
}

func taxonMatch(text string) bool {
	return binomialRe.MatchString(text) || taxonWordRe.MatchString(text)
}

func strainMatch(text string) bool {
	return collectionRe.MatchString(text) ||
		strainWordRe.MatchString(text) ||
		strainCodeRe.MatchString(text)
}

// truthyField reports whether the entity carries key with a truthy value.
// Presence of the field is the signal; its content is not interpreted.
func truthyField(ent document.Value, key string) bool {
	v, ok := ent.Get(key)
	return ok && v.Truthy()
}

// searchText concatenates the entity's label and every span-like field
// into one string for the lexical patterns.
func searchText(ent document.Value) string {
	var parts []string
	if label, ok := ent.Get("label"); ok {
		parts = append(parts, label.Text())
	}
	for _, key := range []string{"original_spans", "spans", "mentions"} {
		if sv, ok := ent.Get(key); ok {
			parts = append(parts, NormalizeSpans(sv))
		}
	}
	return strings.Join(parts, " | ")
}
