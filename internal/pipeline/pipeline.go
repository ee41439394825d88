// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the seven research phases in order: setup,
// query expansion, search, ranking, PDF acquisition, quote extraction,
// export. The coordinator is the only writer to the session store;
// phases produce values and hand them back.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litpipe/internal/agent"
	"github.com/pdiddy/litpipe/internal/citation"
	"github.com/pdiddy/litpipe/internal/discipline"
	"github.com/pdiddy/litpipe/internal/export"
	"github.com/pdiddy/litpipe/internal/pdffetch"
	"github.com/pdiddy/litpipe/internal/quotes"
	"github.com/pdiddy/litpipe/internal/ranking"
	"github.com/pdiddy/litpipe/internal/runs"
	"github.com/pdiddy/litpipe/internal/search"
	"github.com/pdiddy/litpipe/internal/session"
	"github.com/pdiddy/litpipe/pkg/types"
)

// Export file names written into the run directory.
const (
	CSVFile     = "citation_library.csv"
	ResultsFile = "research_results.json"
	CSLFile     = "references.yaml"
)

// Summary reports the outcome of one pipeline run.
type Summary struct {
	RunDir     string
	SessionID  string
	Statistics export.Statistics
	QuoteCount int

	// Partial is true when the run completed without PDFs or without
	// quotes; callers map it to a distinct exit code.
	Partial bool
}

// Pipeline wires the phase implementations together for one run.
type Pipeline struct {
	cfg     *types.PipelineConfig
	spawner agent.Spawner
	log     zerolog.Logger
	out     io.Writer

	// Overridable in tests; nil selects the real implementations.
	clients    []search.Client
	strategies []pdffetch.Strategy
}

// New builds a Pipeline. spawner may be nil, which puts every
// agent-backed capability on its in-core fallback.
func New(cfg *types.PipelineConfig, spawner agent.Spawner, log zerolog.Logger, out io.Writer) *Pipeline {
	return &Pipeline{cfg: cfg, spawner: spawner, log: log, out: out}
}

// Run executes all phases. A non-nil error is fatal; Partial in the
// summary marks runs that finished with zero PDFs or zero quotes.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	// Phase 0: setup.
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	style, err := citation.ParseStyle(p.cfg.CitationStyle)
	if err != nil {
		return nil, err
	}

	mgr, err := runs.NewManager(p.cfg.BaseDir)
	if err != nil {
		return nil, err
	}
	runDir, err := mgr.Create("")
	if err != nil {
		return nil, err
	}

	store, err := session.Open(runDir)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if _, err := store.Begin(ctx, p.cfg.Query, p.cfg.Mode, p.cfg); err != nil {
		return nil, err
	}
	fmt.Fprintf(p.out, "run %s (session %s)\n", filepath.Base(runDir), store.SessionID())

	summary, err := p.runPhases(ctx, store, runDir, style)
	if err != nil {
		// Fatal: record the failure before surfacing it.
		if ferr := store.Finish(context.WithoutCancel(ctx), session.StatusFailed); ferr != nil {
			p.log.Error().Err(ferr).Msg("writing failed status")
		}
		return nil, err
	}

	status := session.StatusCompleted
	if summary.Partial {
		status = session.StatusPartial
	}
	if err := store.Finish(ctx, status); err != nil {
		return nil, err
	}
	summary.RunDir = runDir
	summary.SessionID = store.SessionID()
	return summary, nil
}

func (p *Pipeline) runPhases(ctx context.Context, store *session.Store, runDir string, style citation.Style) (*Summary, error) {
	// Phase 1: query expansion (degrades, never fails).
	expansion := expandQuery(ctx, p.spawner, p.cfg.Query, p.cfg.Mode, p.log)
	fmt.Fprintf(p.out, "phase 1: expanded to %d queries (%s)\n", len(expansion.Queries), expansion.Method)

	// Advisory discipline classification, used to seed the
	// institutional-proxy strategy when that is configured.
	var field discipline.Result
	if classifier, err := discipline.NewClassifier(p.spawner, p.log); err != nil {
		p.log.Warn().Err(err).Msg("discipline classifier unavailable")
	} else {
		field = classifier.Classify(ctx, p.cfg.Query, expansion.Queries[1:])
		p.log.Info().
			Str("discipline", field.Discipline).
			Float64("confidence", field.Confidence).
			Str("method", field.Method).
			Msg("classified query")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 2: concurrent search, fatal only on an empty merged set.
	clients := p.searchClients()
	found, err := search.FanOut(ctx, expansion.Queries, clients, p.cfg.Search, p.log, p.out)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if err := store.SaveCandidates(ctx, found.Candidates); err != nil {
		return nil, err
	}
	fmt.Fprintf(p.out, "phase 2: %d candidates (%d duplicates removed)\n",
		len(found.Candidates), found.DupsRemoved)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 3: ranking, fatal on store failure.
	engine := ranking.NewEngine(p.cfg.Ranking, p.spawner, p.log)
	papers := engine.Rank(ctx, p.cfg.Query, found.Candidates, p.cfg.Mode)
	if err := store.SavePapers(ctx, papers); err != nil {
		return nil, err
	}
	fmt.Fprintf(p.out, "phase 3: selected top %d papers\n", len(papers))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 4: PDF acquisition, non-fatal; missing PDFs are acceptable.
	stats, err := p.acquirePDFs(ctx, papers, field, runDir)
	if err != nil {
		return nil, err
	}
	if err := store.SavePapers(ctx, papers); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 5: quote extraction, non-fatal per paper.
	extracted := p.extractQuotes(ctx, papers)
	if len(extracted) > 0 {
		if err := store.SaveQuotes(ctx, extracted); err != nil {
			return nil, err
		}
	}
	fmt.Fprintf(p.out, "phase 5: %d validated quotes\n", len(extracted))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 6: export, fatal on any write failure.
	summary := &Summary{
		Statistics: export.ComputeStatistics(len(found.Candidates), papers),
		QuoteCount: len(extracted),
		Partial:    stats.Success+stats.Cached == 0 || len(extracted) == 0,
	}
	status := session.StatusCompleted
	if summary.Partial {
		status = session.StatusPartial
	}
	if err := p.writeExports(ctx, store, runDir, papers, extracted, summary.Statistics, status, style); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(p.out, "phase 6: wrote %s, %s, %s\n", CSVFile, ResultsFile, CSLFile)

	return summary, nil
}

func (p *Pipeline) searchClients() []search.Client {
	if p.clients != nil {
		return p.clients
	}
	creds := p.cfg.Credentials
	return []search.Client{
		search.NewCrossrefClient(p.cfg.Search, creds.CrossrefEmail),
		search.NewOpenAlexClient(p.cfg.Search, creds.OpenAlexEmail),
		search.NewSemanticScholarClient(p.cfg.Search, creds.SemanticScholarAPIKey),
	}
}

func (p *Pipeline) acquirePDFs(ctx context.Context, papers []types.ScoredPaper, field discipline.Result, runDir string) (pdffetch.Stats, error) {
	strategies := p.strategies
	if strategies == nil {
		deps := pdffetch.StrategyDeps{
			HTTPClient:  &http.Client{Timeout: p.cfg.Acquisition.Timeout},
			Credentials: p.cfg.Credentials,
			MaxRetries:  p.cfg.Acquisition.MaxRetries,
			Spawner:     p.spawner,
			Discipline:  field.Discipline,
			Databases:   field.Databases,
		}
		var err error
		strategies, err = pdffetch.BuildChain(p.cfg.Acquisition.Chain, deps)
		if err != nil {
			return pdffetch.Stats{}, err
		}
	}

	downloader := &http.Client{Timeout: p.cfg.Acquisition.DownloadTimeout}
	chain := pdffetch.NewChain(strategies, downloader, p.log)
	_, stats, err := chain.FetchAll(ctx, papers, filepath.Join(runDir, runs.PDFDir), p.out)
	return stats, err
}

// extractQuotes walks the papers with PDFs in DOI-lexical order. A
// paper whose PDF cannot be parsed is skipped with a warning.
func (p *Pipeline) extractQuotes(ctx context.Context, papers []types.ScoredPaper) []types.Quote {
	order := make([]int, 0, len(papers))
	for i := range papers {
		if papers[i].PDFPath != "" {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(a, b int) bool {
		return papers[order[a]].DOI < papers[order[b]].DOI
	})

	extractor := quotes.NewExtractor(p.spawner, p.cfg.Extraction, p.log)

	var all []types.Quote
	for _, idx := range order {
		if ctx.Err() != nil {
			return all
		}
		paper := &papers[idx]
		doc, err := quotes.ParsePDF(paper.PDFPath)
		if err != nil {
			p.log.Warn().Err(err).Str("doi", paper.DOI).Msg("skipping unparseable PDF")
			continue
		}
		found, err := extractor.Extract(ctx, doc, paper.DOI, p.cfg.Query)
		if err != nil {
			p.log.Warn().Err(err).Str("doi", paper.DOI).Msg("quote extraction failed")
			continue
		}
		all = append(all, found...)
	}
	return all
}

func (p *Pipeline) writeExports(ctx context.Context, store *session.Store, runDir string, papers []types.ScoredPaper, extracted []types.Quote, stats export.Statistics, status string, style citation.Style) error {
	info, err := store.Load(ctx)
	if err != nil {
		return err
	}

	if err := writeFile(filepath.Join(runDir, CSVFile), func(w io.Writer) error {
		return export.WriteQuotesCSV(w, extracted, papers, style)
	}); err != nil {
		return err
	}

	results := &export.Results{
		SessionID:   info.ID,
		Query:       info.Query,
		Mode:        info.Mode,
		Status:      status,
		CreatedAt:   info.CreatedAt,
		CompletedAt: time.Now().UTC(),
		RunDir:      runDir,
		Papers:      papers,
		Quotes:      extracted,
		Statistics:  stats,
	}
	if err := writeFile(filepath.Join(runDir, ResultsFile), func(w io.Writer) error {
		return export.WriteResultsJSON(w, results)
	}); err != nil {
		return err
	}

	return writeFile(filepath.Join(runDir, CSLFile), func(w io.Writer) error {
		return export.WriteCSLYAML(w, papers)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
