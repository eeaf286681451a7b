// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists built term tables in SQLite and serves filtered
// queries over them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/autoterms/internal/table"
	"github.com/pdiddy/autoterms/pkg/types"
)

const dbFile = "autoterms.db"

// Store manages the term table SQLite database.
type Store struct {
	db         *sql.DB
	storeDir   string
	maxResults int
}

// NewStore opens or creates the database at storeDir/autoterms.db and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	storeDir := cfg.StoreDir
	if storeDir == "" {
		storeDir = "store"
	}
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(storeDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		storeDir:   storeDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			name TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS mentions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL REFERENCES sources(name),
			microbe TEXT NOT NULL,
			id TEXT,
			label TEXT,
			original_spans TEXT,
			study_taxa INTEGER NOT NULL,
			strains INTEGER NOT NULL,
			chemicals_mentioned INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_source ON mentions(source)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_microbe ON mentions(microbe)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='mentions_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE mentions_fts USING fts5(microbe, label, original_spans, content=mentions, content_rowid=rowid)`,
			`CREATE TRIGGER mentions_ai AFTER INSERT ON mentions BEGIN
				INSERT INTO mentions_fts(rowid, microbe, label, original_spans)
				VALUES (new.rowid, new.microbe, new.label, new.original_spans);
			END`,
			`CREATE TRIGGER mentions_ad AFTER DELETE ON mentions BEGIN
				INSERT INTO mentions_fts(mentions_fts, rowid, microbe, label, original_spans)
				VALUES('delete', old.rowid, old.microbe, old.label, old.original_spans);
			END`,
			`CREATE TRIGGER mentions_au AFTER UPDATE ON mentions BEGIN
				INSERT INTO mentions_fts(mentions_fts, rowid, microbe, label, original_spans)
				VALUES('delete', old.rowid, old.microbe, old.label, old.original_spans);
				INSERT INTO mentions_fts(rowid, microbe, label, original_spans)
				VALUES (new.rowid, new.microbe, new.label, new.original_spans);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of annotation files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest builds the table for every YAML file in annotationsDir and stores
// the rows, one source record per file. Files unchanged since the last run
// are skipped; per-file failures are counted, not fatal.
func (s *Store) Ingest(ctx context.Context, b *table.Builder, annotationsDir string, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(annotationsDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading annotations directory %s: %w", annotationsDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (filepath.Ext(name) != ".yaml" && filepath.Ext(name) != ".yml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		sourceID := name[:len(name)-len(filepath.Ext(name))]
		filePath := filepath.Join(annotationsDir, name)

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM sources WHERE name = ?`, sourceID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", sourceID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		rows, err := b.Build(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		if err := s.ingestSource(ctx, sourceID, rows, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d rows)\n", sourceID, len(rows))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d rows)\n", sourceID, len(rows))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestSource(ctx context.Context, sourceID string, rows []types.Row, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sources (name, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		sourceID, modTime,
	); err != nil {
		return fmt.Errorf("upserting source: %w", err)
	}

	// Remove old rows if updating.
	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM mentions WHERE source = ?`, sourceID); err != nil {
			return fmt.Errorf("deleting old rows: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO mentions (source, microbe, id, label, original_spans, study_taxa, strains, chemicals_mentioned)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			sourceID, r.Microbe, r.ID, r.Label, r.OriginalSpans,
			r.StudyTaxa, r.Strains, r.ChemicalsMentioned,
		); err != nil {
			return fmt.Errorf("inserting row for %s: %w", r.Microbe, err)
		}
	}

	return tx.Commit()
}
