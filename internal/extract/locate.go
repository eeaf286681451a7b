// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract finds entity annotations inside loosely-structured
// documents, flattens their evidence text, and classifies each one along
// the taxon, strain, and chemical dimensions.
package extract

import (
	"strings"

	"github.com/pdiddy/autoterms/internal/document"
)

// entityKeys is the recognized vocabulary of keys whose values hold entity
// annotations. Source files name their annotation blocks inconsistently.
var entityKeys = []string{
	"named_entities", "named-entities", "entities",
	"ner", "annotations", "extractions",
}

// Locate walks an arbitrarily nested value and collects every mapping that
// looks like an entity annotation. Two heuristics apply: values under a
// recognized key are collected directly, and any sequence whose elements
// are all mappings is collected wholesale. Recognized-key matches do not
// stop descent, so over-collection (including duplicates) is expected;
// the provenance filter and row deduplication correct for it downstream.
func Locate(v document.Value) []document.Value {
	var entities []document.Value
	switch v.Kind {
	case document.Mapping:
		for _, key := range entityKeys {
			block, ok := v.Get(key)
			if !ok {
				continue
			}
			switch block.Kind {
			case document.Sequence:
				for _, el := range block.Seq {
					if el.Kind == document.Mapping {
						entities = append(entities, el)
					}
				}
			case document.Mapping:
				for _, e := range block.Map {
					if e.Val.Kind == document.Mapping {
						entities = append(entities, e.Val)
					}
				}
			}
		}
		for _, e := range v.Map {
			entities = append(entities, Locate(e.Val)...)
		}
	case document.Sequence:
		if len(v.Seq) > 0 && allMappings(v.Seq) {
			entities = append(entities, v.Seq...)
		}
	}
	return entities
}

func allMappings(seq []document.Value) bool {
	for _, el := range seq {
		if el.Kind != document.Mapping {
			return false
		}
	}
	return true
}

// ContainsMarker reports whether the marker substring appears, case
// insensitively, anywhere in the value's recursively stringified contents.
// Mapping keys are not searched, only values.
func ContainsMarker(v document.Value, marker string) bool {
	marker = strings.ToLower(marker)
	if marker == "" {
		return false
	}
	return containsMarker(v, marker)
}

func containsMarker(v document.Value, marker string) bool {
	switch v.Kind {
	case document.Mapping:
		for _, e := range v.Map {
			if containsMarker(e.Val, marker) {
				return true
			}
		}
		return false
	case document.Sequence:
		for _, el := range v.Seq {
			if containsMarker(el, marker) {
				return true
			}
		}
		return false
	default:
		return strings.Contains(strings.ToLower(v.Text()), marker)
	}
}
