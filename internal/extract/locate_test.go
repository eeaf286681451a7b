package extract

import (
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/autoterms/internal/document"
)

func parseValue(t *testing.T, src string) document.Value {
	t.Helper()
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(src), &node); err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return document.FromNode(&node)
}

func TestLocateRecognizedKeys(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{
			name: "entities list at top level",
			src:  "entities:\n  - id: e1\n  - id: e2\n",
			want: 4, // each also matched by the uniform-list rule during descent
		},
		{
			name: "named_entities deeply nested",
			src:  "results:\n  inner:\n    named_entities:\n      - id: e1\n",
			want: 2,
		},
		{
			name: "annotations as mapping of mappings",
			src:  "annotations:\n  first: {id: e1}\n  second: {id: e2}\n",
			want: 2,
		},
		{
			name: "non-mapping elements skipped under recognized key",
			src:  "ner:\n  - id: e1\n  - just a string\n",
			want: 1,
		},
		{
			name: "unrecognized key with uniform mapping list",
			src:  "random_block:\n  - id: e1\n  - id: e2\n",
			want: 2,
		},
		{
			name: "mixed list is not an entity list",
			src:  "random_block:\n  - id: e1\n  - 42\n",
			want: 0,
		},
		{
			name: "empty list yields nothing",
			src:  "random_block: []\n",
			want: 0,
		},
		{
			name: "scalar document yields nothing",
			src:  "just a string\n",
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Locate(parseValue(t, tt.src))
			if len(got) != tt.want {
				t.Errorf("Locate found %d entities, want %d", len(got), tt.want)
			}
		})
	}
}

// A recognized key whose value is also a uniform mapping list is collected
// twice: once via the key match and once via the list rule during descent.
// Downstream deduplication absorbs the duplicates.
func TestLocateDoubleCollectsRecognizedLists(t *testing.T) {
	v := parseValue(t, "entities:\n  - id: e1\n    label: x\n")
	got := Locate(v)
	if len(got) != 2 {
		t.Fatalf("Locate found %d entities, want 2 (double collection)", len(got))
	}
	for i, ent := range got {
		id, _ := ent.Get("id")
		if id.Text() != "e1" {
			t.Errorf("entity %d id = %q, want e1", i, id.Text())
		}
	}
}

func TestLocateDoesNotRecurseIntoBareSequences(t *testing.T) {
	// The inner entities block is buried inside a non-uniform sequence, so
	// it is never reached: recursion into sequences only happens via a
	// recognized key.
	v := parseValue(t, "block:\n  - 42\n  - entities:\n      - id: e1\n")
	if got := Locate(v); len(got) != 0 {
		t.Errorf("Locate found %d entities, want 0", len(got))
	}
}

func TestContainsMarker(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"marker in label", "label: 'auto: taxon mention'", true},
		{"marker case-insensitive", "label: 'AUTO: taxon mention'", true},
		{"marker nested in list", "meta:\n  tags:\n    - manual\n    - 'auto: derived'\n", true},
		{"marker in deep mapping", "a:\n  b:\n    c: 'provenance auto:ner'\n", true},
		{"marker in non-string scalar is absent", "count: 12\nlabel: manual\n", false},
		{"no marker", "label: curated by hand\n", false},
		{"marker in key only does not count", "'auto:key': manual\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContainsMarker(parseValue(t, tt.src), "auto:")
			if got != tt.want {
				t.Errorf("ContainsMarker = %v, want %v", got, tt.want)
			}
		})
	}
}
