// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/autoterms/internal/store"
	"github.com/pdiddy/autoterms/internal/table"
	"github.com/pdiddy/autoterms/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the term table store (index, retrieve, export)",
	Long: `Store manages a local SQLite database of built term rows. Use
subcommands to index annotation files, query rows, or export.`,
}

// --- index subcommand ---

var storeIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and ingest annotation files into the store",
	Long: `Index runs the build pipeline over every annotation YAML file in the
annotations directory and ingests the resulting rows into a SQLite database
with full-text indexing. Unchanged files are skipped on subsequent runs.`,
	RunE: runStoreIndex,
}

func runStoreIndex(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)
	builder := table.NewBuilder(cfg)

	st, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.Ingest(context.Background(), builder, cfg.AnnotationsDir, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d annotation file(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var storeRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query stored rows with full-text search and filters",
	Long: `Retrieve searches stored rows using FTS5 full-text search over microbe
names, labels, and span text, structured filters, or a combination of both.`,
	RunE: runStoreRetrieve,
}

func runStoreRetrieve(cmd *cobra.Command, args []string) error {
	st, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --microbe, --source, or a flag filter")
	}

	results, err := st.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-30s  %-40s  %-20s  %s\n",
		"Rank", "Microbe", "Label", "Source", "T/S/C")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 104))

	for i, r := range results {
		microbe := r.Microbe
		if len(microbe) > 30 {
			microbe = microbe[:27] + "..."
		}
		label := r.Label
		if len(label) > 40 {
			label = label[:37] + "..."
		}
		source := r.Source
		if len(source) > 20 {
			source = source[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-30s  %-40s  %-20s  %d/%d/%d\n",
			i+1, microbe, label, source,
			r.StudyTaxa, r.Strains, r.ChemicalsMentioned)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored rows to CSV, YAML, or JSON",
	Long: `Export writes the full store (or a filtered subset) to export.csv,
export.yaml, or export.json in the store directory. Supports the same
filter flags as retrieve for partial exports.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	st, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "csv", "":
		err = st.ExportCSV(context.Background(), opts)
	case "yaml":
		err = st.ExportYAML(context.Background(), opts)
	case "json":
		err = st.ExportJSON(context.Background(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use csv, yaml, or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported to export.%s in the store directory\n", formatOrCSV(format))
	return nil
}

func formatOrCSV(format string) string {
	if format == "" {
		return "csv"
	}
	return format
}

// --- shared helpers ---

func storeConfig(cmd *cobra.Command) types.StoreConfig {
	storeDir, _ := cmd.Flags().GetString("store-dir")
	if storeDir == "" {
		storeDir = "store"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.StoreConfig{
		StoreDir:   storeDir,
		MaxResults: maxResults,
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	microbe, _ := cmd.Flags().GetString("microbe")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := store.QueryOptions{
		Query:      queryText,
		Microbe:    microbe,
		Source:     source,
		MaxResults: limit,
	}
	if set, _ := cmd.Flags().GetBool("taxa"); set {
		opts.StudyTaxa = store.FlagSet
	}
	if set, _ := cmd.Flags().GetBool("strains"); set {
		opts.Strains = store.FlagSet
	}
	if set, _ := cmd.Flags().GetBool("chemicals"); set {
		opts.Chemicals = store.FlagSet
	}
	return opts
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("store-dir", "store", "directory for the SQLite database and exports")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Index flags.
	storeIndexCmd.Flags().String("annotations-dir", "annotations", "directory of annotation YAML files")
	storeIndexCmd.Flags().String("marker", "", "provenance marker substring (default \"auto:\")")
	storeIndexCmd.Flags().String("sentinel", "", "fallback microbe name (default \"UNKNOWN_MICROBE\")")

	// Retrieve flags.
	storeRetrieveCmd.Flags().String("query", "", "full-text search query")
	storeRetrieveCmd.Flags().String("microbe", "", "filter by exact microbe name")
	storeRetrieveCmd.Flags().String("source", "", "filter by annotation source file")
	storeRetrieveCmd.Flags().Bool("taxa", false, "keep only rows with the taxon flag set")
	storeRetrieveCmd.Flags().Bool("strains", false, "keep only rows with the strain flag set")
	storeRetrieveCmd.Flags().Bool("chemicals", false, "keep only rows with the chemical flag set")
	storeRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	storeExportCmd.Flags().String("format", "csv", "export format: csv, yaml, or json")
	storeExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	storeExportCmd.Flags().String("microbe", "", "filter by exact microbe name")
	storeExportCmd.Flags().String("source", "", "filter by annotation source file")
	storeExportCmd.Flags().Bool("taxa", false, "keep only rows with the taxon flag set")
	storeExportCmd.Flags().Bool("strains", false, "keep only rows with the strain flag set")
	storeExportCmd.Flags().Bool("chemicals", false, "keep only rows with the chemical flag set")
	storeExportCmd.Flags().Int("limit", 0, "maximum rows to export (0 = all)")

	// Wire subcommands.
	storeCmd.AddCommand(storeIndexCmd)
	storeCmd.AddCommand(storeRetrieveCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
