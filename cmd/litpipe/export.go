// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litpipe/internal/citation"
	"github.com/pdiddy/litpipe/internal/export"
	"github.com/pdiddy/litpipe/internal/pipeline"
	"github.com/pdiddy/litpipe/internal/runs"
	"github.com/pdiddy/litpipe/internal/session"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-export artifacts from an existing run",
	Long: `Export rebuilds citation_library.csv, research_results.json, and
references.yaml from a run's session store, optionally in a different
citation style. The latest run is used unless --run names one.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("base-dir", "runs", "base directory for run artifacts")
	exportCmd.Flags().String("run", "", "run directory name (default: latest)")
	exportCmd.Flags().String("citation-style", "apa7", "citation style for the CSV")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	baseDir, _ := cmd.Flags().GetString("base-dir")
	runName, _ := cmd.Flags().GetString("run")
	styleName, _ := cmd.Flags().GetString("citation-style")

	style, err := citation.ParseStyle(styleName)
	if err != nil {
		return err
	}

	runDir := filepath.Join(baseDir, runName)
	if runName == "" {
		mgr, err := runs.NewManager(baseDir)
		if err != nil {
			return err
		}
		runDir, err = mgr.Latest()
		if err != nil {
			return err
		}
		if runDir == "" {
			return fmt.Errorf("no runs found under %s", baseDir)
		}
	}

	store, err := session.Open(runDir)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	info, err := store.Load(ctx)
	if err != nil {
		return err
	}
	candidates, err := store.LoadCandidates(ctx)
	if err != nil {
		return err
	}
	papers, err := store.LoadPapers(ctx)
	if err != nil {
		return err
	}
	quotes, err := store.LoadQuotes(ctx)
	if err != nil {
		return err
	}

	csvPath := filepath.Join(runDir, pipeline.CSVFile)
	f, err := os.Create(csvPath)
	if err != nil {
		return err
	}
	if err := export.WriteQuotesCSV(f, quotes, papers, style); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	results := &export.Results{
		SessionID:   info.ID,
		Query:       info.Query,
		Mode:        info.Mode,
		Status:      info.Status,
		CreatedAt:   info.CreatedAt,
		CompletedAt: info.CompletedAt,
		RunDir:      runDir,
		Papers:      papers,
		Quotes:      quotes,
		Statistics:  export.ComputeStatistics(len(candidates), papers),
	}
	jsonPath := filepath.Join(runDir, pipeline.ResultsFile)
	f, err = os.Create(jsonPath)
	if err != nil {
		return err
	}
	if err := export.WriteResultsJSON(f, results); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	cslPath := filepath.Join(runDir, pipeline.CSLFile)
	f, err = os.Create(cslPath)
	if err != nil {
		return err
	}
	if err := export.WriteCSLYAML(f, papers); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("exported %d quotes from %d papers (%s)\n", len(quotes), len(papers), time.Now().Format(time.RFC3339))
	fmt.Printf("  %s\n  %s\n  %s\n", csvPath, jsonPath, cslPath)
	return nil
}
