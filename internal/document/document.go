// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document loads multi-document YAML annotation streams and models
// their loosely-schematized contents as a closed tagged-variant value type.
// Mapping key order is preserved so repeated runs over the same file walk
// the structure in the same order.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Kind discriminates the three value shapes that appear in annotation data.
type Kind int

const (
	Scalar Kind = iota
	Sequence
	Mapping
)

// Value is one node of a parsed document. Exactly one of Scalar, Seq, or
// Map is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Scalar any
	Seq    []Value
	Map    []Entry
}

// Entry is one key/value pair of a Mapping, in document order.
type Entry struct {
	Key string
	Val Value
}

// Null is the absent value: a Scalar holding nil.
var Null = Value{Kind: Scalar}

// Load reads a multi-document YAML stream from path and returns the
// mapping-typed top-level documents in order. Non-mapping documents
// (bare scalars, sequences) are skipped. I/O and parse failures are
// returned to the caller; nothing past the first failure is recovered.
func Load(path string) ([]Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	docs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return docs, nil
}

// Decode reads mapping-typed documents from a YAML stream.
func Decode(r io.Reader) ([]Value, error) {
	dec := yaml.NewDecoder(r)
	var docs []Value
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		v := FromNode(&node)
		if v.Kind == Mapping {
			docs = append(docs, v)
		}
	}
}

// FromNode converts a decoded yaml.Node into a Value, resolving aliases
// and preserving mapping key order.
func FromNode(n *yaml.Node) Value {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null
		}
		return FromNode(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return Null
		}
		return FromNode(n.Alias)
	case yaml.SequenceNode:
		seq := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			seq = append(seq, FromNode(c))
		}
		return Value{Kind: Sequence, Seq: seq}
	case yaml.MappingNode:
		entries := make([]Entry, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			entries = append(entries, Entry{
				Key: keyString(n.Content[i]),
				Val: FromNode(n.Content[i+1]),
			})
		}
		return Value{Kind: Mapping, Map: entries}
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			v = n.Value
		}
		return Value{Kind: Scalar, Scalar: v}
	}
}

// keyString renders a mapping key node as a string. Non-scalar keys are
// rare in annotation data but legal YAML, so they are stringified rather
// than rejected.
func keyString(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	return FromNode(n).Text()
}

// Get returns the value stored under key and whether the key is present.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != Mapping {
		return Null, false
	}
	for _, e := range v.Map {
		if e.Key == key {
			return e.Val, true
		}
	}
	return Null, false
}

// First returns the first present-and-truthy value among the candidate
// keys. This is the shared lookup used for span text, taxon names, and
// identifier resolution.
func (v Value) First(keys ...string) (Value, bool) {
	for _, key := range keys {
		if got, ok := v.Get(key); ok && got.Truthy() {
			return got, true
		}
	}
	return Null, false
}

// Truthy reports whether the value carries usable content: non-empty
// collections, non-empty strings, non-zero numbers, true booleans.
func (v Value) Truthy() bool {
	switch v.Kind {
	case Sequence:
		return len(v.Seq) > 0
	case Mapping:
		return len(v.Map) > 0
	}
	switch s := v.Scalar.(type) {
	case nil:
		return false
	case bool:
		return s
	case string:
		return s != ""
	case int:
		return s != 0
	case int64:
		return s != 0
	case uint64:
		return s != 0
	case float64:
		return s != 0
	default:
		return true
	}
}

// Text renders the value as display text. Scalars use their plain form
// (nil renders empty); sequences and mappings fall back to the compact
// JSON rendering.
func (v Value) Text() string {
	if v.Kind != Scalar {
		return v.JSON()
	}
	if v.Scalar == nil {
		return ""
	}
	if s, ok := v.Scalar.(string); ok {
		return s
	}
	return fmt.Sprint(v.Scalar)
}

// JSON renders the value as a compact JSON-like string, keeping mapping
// keys in document order.
func (v Value) JSON() string {
	var sb strings.Builder
	v.writeJSON(&sb)
	return sb.String()
}

func (v Value) writeJSON(sb *strings.Builder) {
	switch v.Kind {
	case Sequence:
		sb.WriteByte('[')
		for i, el := range v.Seq {
			if i > 0 {
				sb.WriteString(", ")
			}
			el.writeJSON(sb)
		}
		sb.WriteByte(']')
	case Mapping:
		sb.WriteByte('{')
		for i, e := range v.Map {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(e.Key))
			sb.WriteString(": ")
			e.Val.writeJSON(sb)
		}
		sb.WriteByte('}')
	default:
		switch s := v.Scalar.(type) {
		case nil:
			sb.WriteString("null")
		case string:
			sb.WriteString(strconv.Quote(s))
		default:
			fmt.Fprint(sb, s)
		}
	}
}
