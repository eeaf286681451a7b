// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the autoterms CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/autoterms/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the autoterms CLI.
var rootCmd = &cobra.Command{
	Use:   "autoterms",
	Short: "Build per-microbe term tables from automated annotation YAML",
	Long: `autoterms compiles auto-generated named-entity annotations into flat
per-microbe tables. It locates entity records anywhere in loosely-structured
YAML documents, keeps those carrying an automated-provenance marker,
classifies each along the taxon, strain, and chemical dimensions, and emits
one row per microbe mention.

Each stage is a subcommand: build produces tables from annotation files,
and store indexes built rows into a queryable SQLite database.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./autoterms.yaml or ~/.config/autoterms/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("autoterms")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "autoterms"))
		}
	}

	viper.SetEnvPrefix("AUTOTERMS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildConfig resolves build settings from flags, falling back to the
// config file for the marker and sentinel overrides.
func buildConfig(cmd *cobra.Command) types.BuildConfig {
	annotationsDir, _ := cmd.Flags().GetString("annotations-dir")
	if annotationsDir == "" {
		annotationsDir = "annotations"
	}
	tablesDir, _ := cmd.Flags().GetString("tables-dir")
	if tablesDir == "" {
		tablesDir = "tables"
	}
	marker, _ := cmd.Flags().GetString("marker")
	if marker == "" {
		marker = viper.GetString("build.marker")
	}
	sentinel, _ := cmd.Flags().GetString("sentinel")
	if sentinel == "" {
		sentinel = viper.GetString("build.sentinel")
	}

	return types.BuildConfig{
		AnnotationsDir: annotationsDir,
		TablesDir:      tablesDir,
		Marker:         marker,
		Sentinel:       sentinel,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
