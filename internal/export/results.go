// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/litpipe/pkg/types"
)

// Statistics summarizes the run for the JSON mirror.
type Statistics struct {
	PapersFound    int     `json:"papers_found"`
	PapersSelected int     `json:"papers_selected"`
	PDFsDownloaded int     `json:"pdfs_downloaded"`
	PDFSuccessRate float64 `json:"pdf_success_rate"`
}

// Results is the full research_results.json document. It mirrors the
// session store and is the authoritative handoff artifact.
type Results struct {
	SessionID   string              `json:"session_id"`
	Query       string              `json:"query"`
	Mode        types.Mode          `json:"mode"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt time.Time           `json:"completed_at,omitempty"`
	RunDir      string              `json:"run_dir"`
	Papers      []types.ScoredPaper `json:"papers"`
	Quotes      []types.Quote       `json:"quotes"`
	Statistics  Statistics          `json:"statistics"`
}

// ComputeStatistics derives the summary counters from the run data.
// The success rate is downloaded-or-cached PDFs over selected papers.
func ComputeStatistics(candidatesFound int, papers []types.ScoredPaper) Statistics {
	stats := Statistics{
		PapersFound:    candidatesFound,
		PapersSelected: len(papers),
	}
	for i := range papers {
		if papers[i].PDFPath != "" {
			stats.PDFsDownloaded++
		}
	}
	if stats.PapersSelected > 0 {
		stats.PDFSuccessRate = float64(stats.PDFsDownloaded) / float64(stats.PapersSelected)
	}
	return stats
}

// WriteResultsJSON writes the indented JSON mirror to w.
func WriteResultsJSON(w io.Writer, results *Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}
