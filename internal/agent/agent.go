// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent provides the seam through which the pipeline delegates
// work to subordinate LLM tasks. Each agent kind has a documented JSON
// input/output schema; the core never knows which provider answered.
// When the backend is unconfigured or fails, every consumer degrades to
// its in-core keyword fallback.
package agent

import (
	"context"
	"encoding/json"
	"errors"
)

// Kind names a subordinate agent task.
type Kind string

const (
	KindQueryExpander        Kind = "query_expander"
	KindDisciplineClassifier Kind = "discipline_classifier"
	KindRelevanceScorer      Kind = "relevance_scorer"
	KindQuoteExtractor       Kind = "quote_extractor"
	KindProxyFetcher         Kind = "institutional_proxy_fetcher"
)

// ErrUnavailable indicates the agent backend is unconfigured, failed,
// or returned malformed output. Consumers fall back on their keyword
// implementations when they see it.
var ErrUnavailable = errors.New("agent backend unavailable")

// Spawner dispatches a payload to an agent of the given kind and
// returns its structured response.
type Spawner interface {
	Spawn(ctx context.Context, kind Kind, payload any) (json.RawMessage, error)
}

// SpawnerFunc adapts a function to the Spawner interface.
type SpawnerFunc func(ctx context.Context, kind Kind, payload any) (json.RawMessage, error)

// Spawn implements Spawner.
func (f SpawnerFunc) Spawn(ctx context.Context, kind Kind, payload any) (json.RawMessage, error) {
	return f(ctx, kind, payload)
}

// Decode runs the spawner and unmarshals the response into out.
// Malformed JSON is reported as ErrUnavailable so callers degrade
// uniformly.
func Decode(ctx context.Context, s Spawner, kind Kind, payload, out any) error {
	if s == nil {
		return ErrUnavailable
	}
	raw, err := s.Spawn(ctx, kind, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// ExpandInput is the query_expander payload.
type ExpandInput struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

// ExpandOutput is the query_expander response.
type ExpandOutput struct {
	ExpandedQueries []string `json:"expanded_queries"`
	Keywords        []string `json:"keywords"`
	Reasoning       string   `json:"reasoning"`
}

// ClassifyInput is the discipline_classifier payload.
type ClassifyInput struct {
	Query           string   `json:"query"`
	ExpandedQueries []string `json:"expanded_queries,omitempty"`
}

// ClassifyOutput is the discipline_classifier response.
type ClassifyOutput struct {
	Discipline string   `json:"discipline"`
	Confidence float64  `json:"confidence"`
	Databases  []string `json:"databases,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// RelevancePaper is one candidate presented to the relevance scorer.
type RelevancePaper struct {
	Index    int      `json:"index"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"`
}

// RelevanceInput is the relevance_scorer payload.
type RelevanceInput struct {
	Query  string           `json:"query"`
	Papers []RelevancePaper `json:"papers"`
}

// RelevanceScore is one scored paper in the relevance response.
type RelevanceScore struct {
	PaperIndex     int     `json:"paper_index"`
	RelevanceScore float64 `json:"relevance_score"`
	Reasoning      string  `json:"reasoning,omitempty"`
}

// RelevanceOutput is the relevance_scorer response.
type RelevanceOutput struct {
	Scores []RelevanceScore `json:"scores"`
}

// ProxyFetchInput is the institutional_proxy_fetcher payload.
type ProxyFetchInput struct {
	DOI        string   `json:"doi"`
	Title      string   `json:"title,omitempty"`
	Discipline string   `json:"discipline,omitempty"`
	Databases  []string `json:"databases,omitempty"`
}

// ProxyFetchOutput is the institutional_proxy_fetcher response.
type ProxyFetchOutput struct {
	PDFURL string `json:"pdf_url"`
}

// QuoteInput is the quote_extractor payload.
type QuoteInput struct {
	PDFText          string `json:"pdf_text"`
	Query            string `json:"query"`
	MaxQuotes        int    `json:"max_quotes"`
	MaxWordsPerQuote int    `json:"max_words_per_quote"`
}

// ExtractedQuote is one quote in the quote_extractor response. Page is
// advisory; validation re-locates the quote in the PDF text.
type ExtractedQuote struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
	Context   string  `json:"context,omitempty"`
	Page      int     `json:"page,omitempty"`
}

// QuoteOutput is the quote_extractor response.
type QuoteOutput struct {
	Quotes []ExtractedQuote `json:"quotes"`
}
