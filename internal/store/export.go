// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/autoterms/internal/table"
	"github.com/pdiddy/autoterms/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes the store contents to storeDir/export.yaml. It supports
// the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	results, err := s.exportResults(ctx, opts)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(filepath.Join(s.storeDir, "export.yaml"), data, 0o644)
}

// ExportJSON writes the store contents to storeDir/export.json.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	results, err := s.exportResults(ctx, opts)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(filepath.Join(s.storeDir, "export.json"), data, 0o644)
}

// ExportCSV writes the store contents to storeDir/export.csv in the same
// column layout as built tables. The source column is dropped.
func (s *Store) ExportCSV(ctx context.Context, opts QueryOptions) error {
	results, err := s.exportResults(ctx, opts)
	if err != nil {
		return err
	}

	rows := make([]types.Row, len(results))
	for i, r := range results {
		rows[i] = r.Row
	}
	return table.WriteCSV(filepath.Join(s.storeDir, "export.csv"), rows)
}

func (s *Store) exportResults(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	return results, nil
}
