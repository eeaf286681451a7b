// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pdiddy/autoterms/internal/document"
)

// spanTextKeys is the preferred key order when a span element is a mapping.
var spanTextKeys = []string{"text", "span", "value", "original", "surface", "string"}

// nameKeys is the preferred key order when a taxon reference is a mapping.
var nameKeys = []string{"name", "label", "taxon", "scientific_name", "value", "id"}

// NormalizeSpans flattens a span-like value into one display string.
// Strings pass through, sequence elements are joined with "; ", and a
// mapping yields its first present text-like field or, failing that, its
// compact JSON rendering. Unusable shapes degrade to a stringified or
// empty result rather than an error.
func NormalizeSpans(v document.Value) string {
	switch v.Kind {
	case document.Sequence:
		var parts []string
		for _, el := range v.Seq {
			if el.Kind == document.Mapping {
				if tv, ok := el.First(spanTextKeys...); ok {
					parts = append(parts, tv.Text())
				}
				continue
			}
			parts = append(parts, el.Text())
		}
		return strings.Join(parts, "; ")
	case document.Mapping:
		if tv, ok := v.First("text", "span", "value"); ok {
			return tv.Text()
		}
		return v.JSON()
	default:
		return v.Text()
	}
}

// MicrobeNames converts a taxon-reference value into the ordered list of
// cleaned organism names it carries. Empty and whitespace-only names are
// dropped; unsupported scalar shapes yield no names. The caller substitutes
// the sentinel when the result is empty.
func MicrobeNames(v document.Value) []string {
	var raw []string
	switch v.Kind {
	case document.Sequence:
		for _, el := range v.Seq {
			if el.Kind == document.Mapping {
				if nv, ok := el.First(nameKeys...); ok {
					raw = append(raw, nv.Text())
				}
				continue
			}
			raw = append(raw, el.Text())
		}
	case document.Mapping:
		if nv, ok := v.First(nameKeys...); ok {
			raw = append(raw, nv.Text())
		}
	default:
		if s, ok := v.Scalar.(string); ok && s != "" {
			raw = append(raw, s)
		}
	}

	names := make([]string, 0, len(raw))
	for _, n := range raw {
		n = strings.TrimSpace(n)
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}
