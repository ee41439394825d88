// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdffetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litpipe/internal/runs"
	"github.com/pdiddy/litpipe/pkg/types"
)

// Status is the terminal state of one paper's acquisition.
type Status string

const (
	// StatusCached means a validated PDF was already on disk.
	StatusCached Status = "cached"
	// StatusDownloaded means a strategy produced the PDF this run.
	StatusDownloaded Status = "downloaded"
	// StatusSkipped means every strategy failed.
	StatusSkipped Status = "skipped"
)

// Result records the outcome for one paper.
type Result struct {
	DOI      string
	Status   Status
	Strategy string
	Path     string
	Err      error
}

// Stats accumulates chain accounting for the phase summary.
type Stats struct {
	Total       int
	Success     int
	Cached      int
	Skipped     int
	PerStrategy map[string]int
}

// Chain tries strategies in order per paper, stopping at the first
// success. The chain owns download, validation and atomic placement;
// strategies only resolve URLs.
type Chain struct {
	strategies []Strategy
	downloader *http.Client
	log        zerolog.Logger
}

// NewChain builds a chain. downloader should carry the long download
// timeout, not the API lookup timeout.
func NewChain(strategies []Strategy, downloader *http.Client, log zerolog.Logger) *Chain {
	return &Chain{strategies: strategies, downloader: downloader, log: log}
}

// FetchAll acquires PDFs for all papers into pdfDir, processing papers
// in DOI-lexical order. Failures are per-paper; the returned error is
// only for context cancellation. Successfully placed paths and winning
// strategy tags are written back onto the papers.
func (c *Chain) FetchAll(ctx context.Context, papers []types.ScoredPaper, pdfDir string, w io.Writer) ([]Result, Stats, error) {
	order := make([]int, len(papers))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return papers[order[a]].DOI < papers[order[b]].DOI
	})

	stats := Stats{Total: len(papers), PerStrategy: make(map[string]int)}
	var results []Result

	for _, idx := range order {
		if err := ctx.Err(); err != nil {
			return results, stats, err
		}

		p := &papers[idx]
		res := c.fetchOne(ctx, p.DOI, pdfDir, w)
		results = append(results, res)

		switch res.Status {
		case StatusCached:
			stats.Cached++
			p.PDFPath = res.Path
			p.PDFSource = string(StatusCached)
		case StatusDownloaded:
			stats.Success++
			stats.PerStrategy[res.Strategy]++
			p.PDFPath = res.Path
			p.PDFSource = res.Strategy
		case StatusSkipped:
			stats.Skipped++
		}
	}

	fmt.Fprintf(w, "\nPDF acquisition: %d total, %d downloaded, %d cached, %d skipped\n",
		stats.Total, stats.Success, stats.Cached, stats.Skipped)
	for name, n := range stats.PerStrategy {
		fmt.Fprintf(w, "  %s: %d\n", name, n)
	}
	return results, stats, nil
}

// fetchOne runs the fallback chain for a single DOI.
func (c *Chain) fetchOne(ctx context.Context, doi, pdfDir string, w io.Writer) Result {
	dest := filepath.Join(pdfDir, types.SanitizeDOI(doi)+".pdf")

	// Re-runs skip papers whose PDF already validated.
	if err := ValidatePDF(dest); err == nil {
		fmt.Fprintf(w, "cached: %s\n", doi)
		return Result{DOI: doi, Status: StatusCached, Strategy: string(StatusCached), Path: dest}
	}

	var lastErr error
	for _, s := range c.strategies {
		pdfURL, err := s.PDFURL(ctx, doi)
		if err != nil {
			c.log.Debug().Str("doi", doi).Str("strategy", s.Name()).Err(err).Msg("strategy failed")
			lastErr = err
			continue
		}

		if err := c.download(ctx, pdfURL, dest); err != nil {
			c.log.Debug().Str("doi", doi).Str("strategy", s.Name()).Err(err).Msg("download failed")
			lastErr = err
			continue
		}

		fmt.Fprintf(w, "downloaded: %s (%s)\n", doi, s.Name())
		return Result{DOI: doi, Status: StatusDownloaded, Strategy: s.Name(), Path: dest}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no strategies configured")
	}
	fmt.Fprintf(w, "skipped: %s (%v)\n", doi, lastErr)
	return Result{DOI: doi, Status: StatusSkipped, Err: lastErr}
}

// download streams the URL into the run's temp/ sibling of the pdf
// directory and renames into place only after validation. Both live on
// the same filesystem, so the rename stays atomic.
func (c *Chain) download(ctx context.Context, pdfURL, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating pdf directory: %w", err)
	}
	tempDir := filepath.Join(filepath.Dir(dest), "..", runs.TempDir)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.downloader.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", pdfURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{code: resp.StatusCode, url: pdfURL}
	}

	tmpFile, err := os.CreateTemp(tempDir, "pdffetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", tmpPath, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", tmpPath, closeErr)
	}

	if err := ValidatePDF(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%s: %w", pdfURL, err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("placing %s: %w", dest, err)
	}
	return nil
}
