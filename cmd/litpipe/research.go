// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litpipe/internal/agent"
	"github.com/pdiddy/litpipe/internal/pipeline"
	"github.com/pdiddy/litpipe/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run the full research pipeline for a query",
	Long: `Research runs all seven phases: query expansion, concurrent API
search, five-dimension ranking, PDF acquisition, quote extraction, and
export of the citation library.

Exit codes: 0 on success, 1 on fatal failure, 2 on partial success
(the run finished but produced no PDFs or no quotes).`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("query", "", "research question (required)")
	researchCmd.Flags().String("mode", "standard", "research depth: quick, standard, or deep")
	researchCmd.Flags().String("citation-style", "apa7", "citation style: apa7, ieee, harvard, mla, or chicago")
	researchCmd.Flags().String("base-dir", "runs", "base directory for run artifacts")
	researchCmd.Flags().Int("top-n", 0, "override the mode's top-N paper count")
	researchCmd.Flags().Bool("portfolio-balance", false, "penalize venue/author clusters during selection")
	researchCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if query, _ := cmd.Flags().GetString("query"); query != "" {
		cfg.Query = query
	}
	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		cfg.Mode = types.Mode(mode)
	}
	if style, _ := cmd.Flags().GetString("citation-style"); style != "" {
		cfg.CitationStyle = style
	}
	if baseDir, _ := cmd.Flags().GetString("base-dir"); baseDir != "" {
		cfg.BaseDir = baseDir
	}
	if topN, _ := cmd.Flags().GetInt("top-n"); topN > 0 {
		cfg.Ranking.TopN = topN
	}
	if balance, _ := cmd.Flags().GetBool("portfolio-balance"); balance {
		cfg.Ranking.PortfolioBalance = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger(cmd)
	p := pipeline.New(&cfg, newSpawner(&cfg), log, os.Stdout)

	start := time.Now()
	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\ndone in %s: %d papers, %d PDFs, %d quotes\n",
		time.Since(start).Round(time.Second),
		summary.Statistics.PapersSelected,
		summary.Statistics.PDFsDownloaded,
		summary.QuoteCount)
	fmt.Printf("artifacts in %s\n", summary.RunDir)

	if summary.Partial {
		fmt.Fprintln(os.Stderr, "warning: partial result (no PDFs or no quotes)")
		os.Exit(2)
	}
	return nil
}

// newSpawner returns the Claude-backed agent spawner, or nil when the
// agent is disabled or no API key is configured so every capability
// uses its fallback.
func newSpawner(cfg *types.PipelineConfig) agent.Spawner {
	if cfg.Agent.Disabled || cfg.Credentials.AnthropicAPIKey == "" {
		return nil
	}
	return &agent.ClaudeSpawner{
		APIKey:    cfg.Credentials.AnthropicAPIKey,
		Model:     cfg.Agent.Model,
		MaxTokens: cfg.Agent.MaxTokens,
		Client:    &http.Client{Timeout: 120 * time.Second},
	}
}
