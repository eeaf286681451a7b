// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package table orchestrates the extraction pipeline into flat per-microbe
// row tables and writes them to CSV, YAML, or JSON sinks.
package table

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/autoterms/internal/document"
	"github.com/pdiddy/autoterms/internal/extract"
	"github.com/pdiddy/autoterms/pkg/types"
)

// idKeys is the resolution order for an entity's identifier.
var idKeys = []string{"id", "_id", "uuid"}

// Builder turns annotation YAML into per-microbe rows.
type Builder struct {
	marker   string
	sentinel string
}

// NewBuilder returns a Builder configured from cfg. Empty marker and
// sentinel fields fall back to the standard values.
func NewBuilder(cfg types.BuildConfig) *Builder {
	marker := cfg.Marker
	if marker == "" {
		marker = types.Marker
	}
	sentinel := cfg.Sentinel
	if sentinel == "" {
		sentinel = types.Sentinel
	}
	return &Builder{marker: marker, sentinel: sentinel}
}

// Build loads the annotation file at path and returns its flattened table.
// Input errors (unreadable file, malformed YAML) are fatal; everything
// downstream degrades to defaults, so a file with no qualifying entities
// yields an empty table rather than an error.
func (b *Builder) Build(path string) ([]types.Row, error) {
	docs, err := document.Load(path)
	if err != nil {
		return nil, err
	}

	var entities []document.Value
	for _, doc := range docs {
		entities = append(entities, extract.Locate(doc)...)
	}

	var rows []types.Row
	for _, ent := range entities {
		if !extract.ContainsMarker(ent, b.marker) {
			continue
		}
		rows = append(rows, b.entityRows(ent)...)
	}

	rows = dropDegenerate(rows)
	rows = dedupe(rows)
	clampFlags(rows)
	return rows, nil
}

// entityRows fans one entity out into one row per referenced microbe, all
// sharing the same id, label, span text, and flags.
func (b *Builder) entityRows(ent document.Value) []types.Row {
	var spans string
	if sv, ok := ent.First("original_spans", "spans", "mentions"); ok {
		spans = extract.NormalizeSpans(sv)
	}

	var names []string
	if tv, ok := ent.Get("study_taxa"); ok {
		names = extract.MicrobeNames(tv)
	}
	if len(names) == 0 {
		names = []string{b.sentinel}
	}

	var id, label string
	if iv, ok := ent.First(idKeys...); ok {
		id = iv.Text()
	}
	if lv, ok := ent.Get("label"); ok {
		label = lv.Text()
	}

	flags := extract.Classify(ent)

	rows := make([]types.Row, 0, len(names))
	for _, microbe := range names {
		rows = append(rows, types.Row{
			Microbe:       microbe,
			ID:            id,
			Label:         label,
			OriginalSpans: spans,
			Flags:         flags,
		})
	}
	return rows
}

// dropDegenerate removes rows whose id, label, and span text are all empty.
func dropDegenerate(rows []types.Row) []types.Row {
	kept := rows[:0]
	for _, r := range rows {
		if r.ID == "" && r.Label == "" && r.OriginalSpans == "" {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// dedupe removes rows that are exact duplicates across every column.
// The first occurrence wins; relative order is otherwise preserved.
func dedupe(rows []types.Row) []types.Row {
	seen := make(map[types.Row]bool, len(rows))
	kept := rows[:0]
	for _, r := range rows {
		if seen[r] {
			continue
		}
		seen[r] = true
		kept = append(kept, r)
	}
	return kept
}

// clampFlags forces every flag into the {0, 1} domain.
func clampFlags(rows []types.Row) {
	for i := range rows {
		rows[i].StudyTaxa = bit(rows[i].StudyTaxa)
		rows[i].Strains = bit(rows[i].Strains)
		rows[i].ChemicalsMentioned = bit(rows[i].ChemicalsMentioned)
	}
}

func bit(flag int) int {
	if flag == 0 {
		return 0
	}
	return 1
}

// BatchSummary holds counts from a batch build run.
type BatchSummary struct {
	Built   int
	Skipped int
	Failed  int
}

// Total returns the number of annotation files processed.
func (s BatchSummary) Total() int {
	return s.Built + s.Skipped + s.Failed
}

// HasFailures reports whether any files failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// BuildAll processes every YAML file in annotationsDir and writes one CSV
// table per file into tablesDir. Files whose output is newer than the
// input are skipped. Per-file failures are counted and reported on w but
// do not stop the batch.
func (b *Builder) BuildAll(annotationsDir, tablesDir string, w io.Writer) (BatchSummary, error) {
	if err := os.MkdirAll(tablesDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating tables directory: %w", err)
	}

	entries, err := os.ReadDir(annotationsDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading annotations directory %s: %w", annotationsDir, err)
	}

	var summary BatchSummary

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isYAML(name) {
			continue
		}

		sourceID := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		inPath := filepath.Join(annotationsDir, name)
		outPath := filepath.Join(tablesDir, sourceID+".csv")

		changed, err := hasChanged(inPath, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}
		if !changed {
			fmt.Fprintf(w, "skipped %s\n", sourceID)
			summary.Skipped++
			continue
		}

		rows, err := b.Build(inPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		if err := WriteCSV(outPath, rows); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "built %s (%d rows)\n", sourceID, len(rows))
		summary.Built++
	}

	return summary, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// hasChanged reports whether the annotation file is newer than the built
// table. Returns true if the table does not exist yet.
func hasChanged(inPath, outPath string) (bool, error) {
	inInfo, err := os.Stat(inPath)
	if err != nil {
		return false, fmt.Errorf("stat annotations %s: %w", inPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat table %s: %w", outPath, err)
	}

	return inInfo.ModTime().After(outInfo.ModTime()), nil
}
