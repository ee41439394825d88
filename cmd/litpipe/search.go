// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litpipe/internal/search"
	"github.com/pdiddy/litpipe/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the bibliographic APIs without running a pipeline",
	Long: `Search queries Crossref, OpenAlex, and Semantic Scholar concurrently,
deduplicates the merged results, and prints them as JSON. With --doi the
record is looked up directly instead.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text search query")
	searchCmd.Flags().String("doi", "", "look up a single DOI instead of searching")
	searchCmd.Flags().Int("limit", 0, "max results per source (default from config)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	doi, _ := cmd.Flags().GetString("doi")
	if query == "" && doi == "" {
		return fmt.Errorf("provide --query or --doi")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		cfg.Search.LimitPerSource = limit
	}

	clients := []search.Client{
		search.NewCrossrefClient(cfg.Search, cfg.Credentials.CrossrefEmail),
		search.NewOpenAlexClient(cfg.Search, cfg.Credentials.OpenAlexEmail),
		search.NewSemanticScholarClient(cfg.Search, cfg.Credentials.SemanticScholarAPIKey),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if doi != "" {
		normalized := types.NormalizeDOI(doi)
		if normalized == "" {
			return fmt.Errorf("invalid DOI %q", doi)
		}
		for _, client := range clients {
			rec, err := client.GetByDOI(cmd.Context(), normalized)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", client.Name(), err)
				continue
			}
			if rec != nil {
				return enc.Encode(rec)
			}
		}
		return fmt.Errorf("no source has a record for %s", normalized)
	}

	log := newLogger(cmd)
	out, err := search.FanOut(cmd.Context(), []string{query}, clients, cfg.Search, log, os.Stderr)
	if err != nil {
		return err
	}
	return enc.Encode(out.Candidates)
}
