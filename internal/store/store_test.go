package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/autoterms/internal/table"
	"github.com/pdiddy/autoterms/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	annDir := filepath.Join(tmpDir, "annotations")
	if err := os.MkdirAll(annDir, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := types.StoreConfig{
		StoreDir:   filepath.Join(tmpDir, "store"),
		MaxResults: 20,
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, tmpDir
}

func writeAnnotationFile(t *testing.T, tmpDir, sourceID, src string) {
	t.Helper()
	path := filepath.Join(tmpDir, "annotations", sourceID+".yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func sampleAnnotations() string {
	return `
entities:
  - id: e1
    label: "auto: taxon mention"
    study_taxa: [Bacillus subtilis, Escherichia coli]
    original_spans: grown overnight in rich medium
  - id: e2
    label: "auto: strain DSM 1234 ferments glucose"
`
}

// ingestHelper writes an annotation file and ingests the directory.
func ingestHelper(t *testing.T, store *Store, tmpDir, sourceID string) {
	t.Helper()
	writeAnnotationFile(t, tmpDir, sourceID, sampleAnnotations())
	var buf strings.Builder
	b := table.NewBuilder(types.BuildConfig{})
	if _, err := store.Ingest(context.Background(), b, filepath.Join(tmpDir, "annotations"), &buf); err != nil {
		t.Fatal(err)
	}
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	tables := []string{"sources", "mentions", "mentions_fts"}
	for _, tbl := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, tbl,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", tbl, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", tbl)
		}
	}
}

// --- ingest tests ---

func TestIngestStoresRows(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeAnnotationFile(t, tmpDir, "chem-2025", sampleAnnotations())

	var buf strings.Builder
	b := table.NewBuilder(types.BuildConfig{})
	summary, err := store.Ingest(context.Background(), b, filepath.Join(tmpDir, "annotations"), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Indexed != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 1 indexed", summary)
	}

	var count int
	if err := store.db.QueryRow(`SELECT count(*) FROM mentions`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	// Two fan-out rows for e1 plus one sentinel row for e2.
	if count != 3 {
		t.Errorf("stored %d rows, want 3", count)
	}
}

func TestIngestSkipsUnchangedFiles(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "chem-2025")

	var buf strings.Builder
	b := table.NewBuilder(types.BuildConfig{})
	summary, err := store.Ingest(context.Background(), b, filepath.Join(tmpDir, "annotations"), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 || summary.Indexed != 0 {
		t.Errorf("summary = %+v, want 1 skipped", summary)
	}
}

func TestIngestReplacesChangedSource(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "chem-2025")

	// Rewrite the file with a single entity and bump its mod time.
	writeAnnotationFile(t, tmpDir, "chem-2025", `
entities:
  - id: e9
    label: "auto: replacement"
`)
	path := filepath.Join(tmpDir, "annotations", "chem-2025.yaml")
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	b := table.NewBuilder(types.BuildConfig{})
	summary, err := store.Ingest(context.Background(), b, filepath.Join(tmpDir, "annotations"), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 {
		t.Fatalf("summary = %+v, want 1 updated", summary)
	}

	var count int
	if err := store.db.QueryRow(`SELECT count(*) FROM mentions`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("stored %d rows after update, want 1", count)
	}
}

func TestIngestCountsFailures(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeAnnotationFile(t, tmpDir, "broken", "key: [unclosed")

	var buf strings.Builder
	b := table.NewBuilder(types.BuildConfig{})
	summary, err := store.Ingest(context.Background(), b, filepath.Join(tmpDir, "annotations"), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 failed", summary)
	}
	if !strings.Contains(buf.String(), "failed") {
		t.Errorf("progress output missing failure line: %q", buf.String())
	}
}

// --- retrieve tests ---

func TestRetrieveByMicrobe(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "chem-2025")

	results, err := store.Retrieve(context.Background(), QueryOptions{Microbe: "Bacillus subtilis"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ID != "e1" || results[0].Source != "chem-2025" {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func TestRetrieveByFlags(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "chem-2025")

	results, err := store.Retrieve(context.Background(), QueryOptions{Strains: FlagSet})
	if err != nil {
		t.Fatal(err)
	}
	// Only the DSM entity carries the strain flag.
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Microbe != types.Sentinel {
		t.Errorf("microbe = %q, want sentinel", results[0].Microbe)
	}

	results, err = store.Retrieve(context.Background(), QueryOptions{Strains: FlagUnset})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d unset results, want 2", len(results))
	}
}

func TestRetrieveFullText(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "chem-2025")

	results, err := store.Retrieve(context.Background(), QueryOptions{Query: "glucose"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ID != "e2" {
		t.Errorf("result id = %q, want e2", results[0].ID)
	}
}

func TestRetrieveMaxResults(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "chem-2025")

	results, err := store.Retrieve(context.Background(), QueryOptions{Source: "chem-2025", MaxResults: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{}).IsEmpty() {
		t.Error("zero options should be empty")
	}
	if (QueryOptions{Microbe: "x"}).IsEmpty() {
		t.Error("microbe filter should not be empty")
	}
	if (QueryOptions{Strains: FlagUnset}).IsEmpty() {
		t.Error("flag filter should not be empty")
	}
}

// --- export tests ---

func TestExportYAML(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "chem-2025")

	if err := store.ExportYAML(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(store.storeDir, "export.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var results []QueryResult
	if err := yaml.Unmarshal(data, &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("exported %d results, want 3", len(results))
	}
}

func TestExportJSON(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "chem-2025")

	if err := store.ExportJSON(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(store.storeDir, "export.json"))
	if err != nil {
		t.Fatal(err)
	}
	var results []QueryResult
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("exported %d results, want 3", len(results))
	}
}

func TestExportCSV(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, tmpDir, "chem-2025")

	if err := store.ExportCSV(context.Background(), QueryOptions{Microbe: "Escherichia coli"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(store.storeDir, "export.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("exported %d lines, want header plus one row", len(lines))
	}
	if !strings.HasPrefix(lines[1], "Escherichia coli,e1") {
		t.Errorf("unexpected row: %q", lines[1])
	}
}
