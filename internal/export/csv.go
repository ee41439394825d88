// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes the run's final artifacts: the quote CSV, the
// JSON session mirror, and a CSL-YAML reference list for Pandoc
// consumers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/litpipe/internal/citation"
	"github.com/pdiddy/litpipe/pkg/types"
)

// csvHeader is the fixed column order of citation_library.csv.
var csvHeader = []string{
	"Zitat", "Seitenzahl", "Werk", "Formatiertes_Zitat",
	"DOI", "Jahr", "Autoren", "Quelle",
}

// WriteQuotesCSV writes one row per quote with its paper's formatted
// citation. Quotes whose DOI has no matching paper are skipped. Output
// is RFC-4180, UTF-8 without a BOM.
func WriteQuotesCSV(w io.Writer, quotes []types.Quote, papers []types.ScoredPaper, style citation.Style) error {
	byDOI := make(map[string]*types.ScoredPaper, len(papers))
	for i := range papers {
		byDOI[papers[i].DOI] = &papers[i]
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, q := range quotes {
		paper, ok := byDOI[q.PaperDOI]
		if !ok {
			continue
		}
		formatted, err := citation.Format(&paper.PaperRecord, style)
		if err != nil {
			return fmt.Errorf("formatting citation for %q: %w", paper.DOI, err)
		}
		row := []string{
			q.Text,
			strconv.Itoa(q.Page),
			paper.Title,
			formatted,
			paper.DOI,
			yearString(paper.Year),
			strings.Join(paper.Authors, "; "),
			paperSource(paper),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func yearString(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

// paperSource annotates where the paper's PDF came from, falling back
// to the search backend that produced the record.
func paperSource(p *types.ScoredPaper) string {
	if p.PDFSource != "" {
		return p.PDFSource
	}
	if p.SourceAPI != "" {
		return p.SourceAPI
	}
	return "unknown"
}
