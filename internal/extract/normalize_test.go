package extract

import (
	"reflect"
	"testing"

	"github.com/pdiddy/autoterms/internal/document"
)

func fieldValue(t *testing.T, src, key string) document.Value {
	t.Helper()
	v, ok := parseValue(t, src).Get(key)
	if !ok {
		t.Fatalf("fixture missing key %s", key)
	}
	return v
}

func TestNormalizeSpans(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "plain string",
			src:  "spans: B. subtilis was grown",
			want: "B. subtilis was grown",
		},
		{
			name: "null",
			src:  "spans: null",
			want: "",
		},
		{
			name: "list of strings joined",
			src:  "spans: [first mention, second mention]",
			want: "first mention; second mention",
		},
		{
			name: "list of mappings uses preferred keys",
			src:  "spans:\n  - {text: from text}\n  - {surface: from surface}\n  - {span: from span}\n",
			want: "from text; from surface; from span",
		},
		{
			name: "list mapping without text keys contributes nothing",
			src:  "spans:\n  - {offset: 12}\n  - plain\n",
			want: "plain",
		},
		{
			name: "mixed list stringifies scalars",
			src:  "spans: [evidence, 42]",
			want: "evidence; 42",
		},
		{
			name: "mapping with text key",
			src:  "spans: {text: the evidence, offset: 3}",
			want: "the evidence",
		},
		{
			name: "mapping prefers text over span and value",
			src:  "spans: {value: v, span: s, text: t}",
			want: "t",
		},
		{
			name: "mapping without text keys serializes compactly",
			src:  "spans: {start: 1, end: 9}",
			want: `{"start": 1, "end": 9}`,
		},
		{
			name: "non-string scalar stringified",
			src:  "spans: 17",
			want: "17",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSpans(fieldValue(t, tt.src, "spans"))
			if got != tt.want {
				t.Errorf("NormalizeSpans = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMicrobeNames(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "list of strings",
			src:  "study_taxa: [Bacillus subtilis, Escherichia coli]",
			want: []string{"Bacillus subtilis", "Escherichia coli"},
		},
		{
			name: "list of mappings uses preferred keys",
			src:  "study_taxa:\n  - {name: Bacillus subtilis}\n  - {scientific_name: Escherichia coli}\n  - {id: tax-17}\n",
			want: []string{"Bacillus subtilis", "Escherichia coli", "tax-17"},
		},
		{
			name: "single mapping",
			src:  "study_taxa: {taxon: Clostridium butyricum}",
			want: []string{"Clostridium butyricum"},
		},
		{
			name: "single string",
			src:  "study_taxa: Lactobacillus brevis",
			want: []string{"Lactobacillus brevis"},
		},
		{
			name: "whitespace trimmed and empties dropped",
			src:  "study_taxa: ['  Bacillus subtilis  ', '   ', '']",
			want: []string{"Bacillus subtilis"},
		},
		{
			name: "null yields nothing",
			src:  "study_taxa: null",
			want: nil,
		},
		{
			name: "unsupported scalar yields nothing",
			src:  "study_taxa: 42",
			want: nil,
		},
		{
			name: "mapping without name keys yields nothing",
			src:  "study_taxa: {rank: genus}",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MicrobeNames(fieldValue(t, tt.src, "study_taxa"))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MicrobeNames = %v, want %v", got, tt.want)
			}
		})
	}
}
