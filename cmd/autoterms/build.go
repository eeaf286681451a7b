// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/autoterms/internal/table"
)

var buildCmd = &cobra.Command{
	Use:   "build [annotation-file]",
	Short: "Build a per-microbe term table from annotation YAML",
	Long: `Build reads a multi-document annotation YAML file, extracts the
auto-generated entities, and writes a flat table with one row per microbe
mention. With --batch it processes every YAML file in the annotations
directory, skipping files whose table is already up to date.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "output path (default: input name with the format extension)")
	buildCmd.Flags().String("format", "csv", "output format: csv, yaml, or json")
	buildCmd.Flags().Bool("batch", false, "process all annotation files in annotations-dir")
	buildCmd.Flags().String("annotations-dir", "annotations", "directory scanned in batch mode")
	buildCmd.Flags().String("tables-dir", "tables", "directory for batch output tables")
	buildCmd.Flags().String("marker", "", "provenance marker substring (default \"auto:\")")
	buildCmd.Flags().String("sentinel", "", "fallback microbe name (default \"UNKNOWN_MICROBE\")")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)
	builder := table.NewBuilder(cfg)

	batch, _ := cmd.Flags().GetBool("batch")
	if batch {
		summary, err := builder.BuildAll(cfg.AnnotationsDir, cfg.TablesDir, os.Stdout)
		if err != nil {
			return err
		}
		if summary.HasFailures() {
			return fmt.Errorf("%d annotation file(s) failed", summary.Failed)
		}
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("provide one annotation file, or use --batch")
	}
	input := args[0]

	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		output = base + "." + format
	}

	rows, err := builder.Build(input)
	if err != nil {
		return err
	}

	switch format {
	case "csv":
		err = table.WriteCSV(output, rows)
	case "yaml":
		err = table.WriteYAML(output, rows)
	case "json":
		err = table.WriteJSON(output, rows)
	default:
		return fmt.Errorf("unsupported format %q: use csv, yaml, or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d rows to %s\n", len(rows), output)
	return nil
}
