// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the litpipe research
// pipeline: the canonical cross-source paper record, score breakdowns,
// quotes, and per-stage configuration.
package types

// Mode selects the research depth, which controls top-N selection and
// scoring weights.
type Mode string

const (
	ModeQuick    Mode = "quick"
	ModeStandard Mode = "standard"
	ModeDeep     Mode = "deep"
)

// TopN returns the number of papers the ranking phase commits to for
// this mode.
func (m Mode) TopN() int {
	switch m {
	case ModeQuick:
		return 15
	case ModeDeep:
		return 50
	default:
		return 25
	}
}

// Valid reports whether m is a recognized mode.
func (m Mode) Valid() bool {
	return m == ModeQuick || m == ModeStandard || m == ModeDeep
}

// PaperRecord is the canonical cross-source representation of one
// scholarly work. DOI is the primary key; records lacking a DOI are
// deduplicated by normalized-title similarity.
type PaperRecord struct {
	// DOI is the normalized Digital Object Identifier ("10.<suffix>").
	// Empty when the originating API did not supply one.
	DOI string `json:"doi" yaml:"doi"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year; 0 when unknown.
	Year int `json:"year" yaml:"year"`

	// Venue is the journal or conference name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Volume, Issue and Pages are optional positional fields used by the
	// citation formatter.
	Volume string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue  string `json:"issue,omitempty" yaml:"issue,omitempty"`
	Pages  string `json:"pages,omitempty" yaml:"pages,omitempty"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Citations is the citation count; nil when the source does not
	// report one (distinct from a reported zero).
	Citations *int `json:"citations,omitempty" yaml:"citations,omitempty"`

	// SourceAPI identifies the backend that produced this record
	// ("crossref", "openalex", "semantic_scholar").
	SourceAPI string `json:"source_api" yaml:"source_api"`

	// URL is the landing-page URL when the source provides one.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// APIMetadata preserves the source-specific response unchanged.
	APIMetadata map[string]any `json:"api_metadata,omitempty" yaml:"api_metadata,omitempty"`
}

// CitationCount returns the citation count or 0 when unreported.
func (p *PaperRecord) CitationCount() int {
	if p.Citations == nil {
		return 0
	}
	return *p.Citations
}

// ScoreBreakdown holds the per-dimension component scores and the
// weighted total, each in [0,1].
type ScoreBreakdown struct {
	Relevance float64 `json:"relevance" yaml:"relevance"`
	Recency   float64 `json:"recency" yaml:"recency"`
	Quality   float64 `json:"quality" yaml:"quality"`
	Authority float64 `json:"authority" yaml:"authority"`
	Total     float64 `json:"total" yaml:"total"`
}

// ScoredPaper is a paper record annotated with its score breakdown and
// stable 1-based rank after top-N selection.
type ScoredPaper struct {
	PaperRecord `yaml:",inline"`

	Scores ScoreBreakdown `json:"scores" yaml:"scores"`
	Rank   int            `json:"rank" yaml:"rank"`

	// PDF acquisition outcome, filled by the acquisition phase.
	PDFPath   string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
	PDFSource string `json:"pdf_source,omitempty" yaml:"pdf_source,omitempty"`
}

// Quote is one validated verbatim quotation extracted from a paper PDF.
type Quote struct {
	// Text is the verbatim quote, at most the configured word limit
	// after whitespace normalization.
	Text string `json:"text" yaml:"text"`

	// PaperDOI references the quoted paper.
	PaperDOI string `json:"paper_doi" yaml:"paper_doi"`

	// Page is the 1-indexed PDF page on which the quote occurs.
	Page int `json:"page" yaml:"page"`

	// ContextBefore and ContextAfter are snippets surrounding the first
	// occurrence in the original page text.
	ContextBefore string `json:"context_before,omitempty" yaml:"context_before,omitempty"`
	ContextAfter  string `json:"context_after,omitempty" yaml:"context_after,omitempty"`

	// Relevance is the agent-reported relevance in [0,1].
	Relevance float64 `json:"relevance" yaml:"relevance"`

	// WordCount is the whitespace-normalized word count.
	WordCount int `json:"word_count" yaml:"word_count"`

	// Validated is true only for quotes that passed verbatim validation.
	Validated bool `json:"validated" yaml:"validated"`
}
