// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/autoterms/pkg/types"
)

// FlagFilter selects rows by one classification dimension.
type FlagFilter int

const (
	// FlagAny applies no filter on the dimension.
	FlagAny FlagFilter = iota

	// FlagSet keeps rows where the dimension is 1.
	FlagSet

	// FlagUnset keeps rows where the dimension is 0.
	FlagUnset
)

// QueryOptions holds parameters for row store queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over microbe, label, and
	// span text.
	Query string

	// Microbe filters by exact organism name.
	Microbe string

	// Source filters by annotation source file.
	Source string

	// StudyTaxa, Strains, and Chemicals filter by classification flag.
	StudyTaxa FlagFilter
	Strains   FlagFilter
	Chemicals FlagFilter

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Microbe == "" && q.Source == "" &&
		q.StudyTaxa == FlagAny && q.Strains == FlagAny && q.Chemicals == FlagAny
}

// QueryResult is a stored Row with its source annotation file.
type QueryResult struct {
	types.Row `yaml:",inline"`
	Source    string `json:"source" yaml:"source"`
}

// Retrieve queries the store with optional full-text search and structured
// filters. Full-text queries are ranked by relevance; structured-only
// queries are sorted by source, then microbe.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT m.source, m.microbe, m.id, m.label, m.original_spans,
				m.study_taxa, m.strains, m.chemicals_mentioned
			FROM mentions_fts
			JOIN mentions m ON m.rowid = mentions_fts.rowid
			WHERE mentions_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT m.source, m.microbe, m.id, m.label, m.original_spans,
				m.study_taxa, m.strains, m.chemicals_mentioned
			FROM mentions m
			WHERE 1=1`)
	}

	if opts.Microbe != "" {
		qb.WriteString(` AND m.microbe = ?`)
		args = append(args, opts.Microbe)
	}
	if opts.Source != "" {
		qb.WriteString(` AND m.source = ?`)
		args = append(args, opts.Source)
	}

	for _, f := range []struct {
		col    string
		filter FlagFilter
	}{
		{"study_taxa", opts.StudyTaxa},
		{"strains", opts.Strains},
		{"chemicals_mentioned", opts.Chemicals},
	} {
		switch f.filter {
		case FlagSet:
			qb.WriteString(` AND m.` + f.col + ` = 1`)
		case FlagUnset:
			qb.WriteString(` AND m.` + f.col + ` = 0`)
		}
	}

	if useFTS {
		qb.WriteString(` ORDER BY mentions_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY m.source, m.microbe`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr    QueryResult
			id    sql.NullString
			label sql.NullString
			spans sql.NullString
		)
		if err := rows.Scan(
			&qr.Source, &qr.Microbe, &id, &label, &spans,
			&qr.StudyTaxa, &qr.Strains, &qr.ChemicalsMentioned,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.ID = id.String
		qr.Label = label.String
		qr.OriginalSpans = spans.String
		results = append(results, qr)
	}

	return results, rows.Err()
}
