// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quotes

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litpipe/internal/agent"
	"github.com/pdiddy/litpipe/internal/ranking"
	"github.com/pdiddy/litpipe/pkg/types"
)

// Extractor pulls verbatim quotes out of a parsed PDF. The agent does
// the selection when available; otherwise a keyword scan over the page
// sentences stands in. Every candidate, agent-sourced or not, goes
// through the same validation before it is returned.
type Extractor struct {
	spawner   agent.Spawner
	validator *Validator
	maxQuotes int
	maxWords  int
	log       zerolog.Logger
}

// NewExtractor builds an Extractor. spawner may be nil, which forces
// the keyword fallback for every paper.
func NewExtractor(spawner agent.Spawner, cfg types.ExtractionConfig, log zerolog.Logger) *Extractor {
	return &Extractor{
		spawner:   spawner,
		validator: NewValidator(cfg, log),
		maxQuotes: cfg.MaxQuotes,
		maxWords:  cfg.MaxQuoteWords,
		log:       log,
	}
}

type candidate struct {
	text      string
	relevance float64
}

// Extract returns validated quotes for one paper. Candidates that fail
// validation are dropped with a warning; an empty result is not an
// error.
func (e *Extractor) Extract(ctx context.Context, doc *Document, doi, query string) ([]types.Quote, error) {
	candidates, err := e.agentCandidates(ctx, doc, query)
	if err != nil {
		if !errors.Is(err, agent.ErrUnavailable) {
			return nil, err
		}
		e.log.Debug().Str("doi", doi).Msg("agent unavailable, using keyword extraction")
		candidates = e.keywordCandidates(doc, query)
	}

	quotes := make([]types.Quote, 0, len(candidates))
	for _, c := range candidates {
		q, ok := e.validator.Validate(doc, c.text, doi, c.relevance)
		if !ok {
			continue
		}
		quotes = append(quotes, q)
		if len(quotes) >= e.maxQuotes {
			break
		}
	}
	return quotes, nil
}

func (e *Extractor) agentCandidates(ctx context.Context, doc *Document, query string) ([]candidate, error) {
	if e.spawner == nil {
		return nil, agent.ErrUnavailable
	}
	in := agent.QuoteInput{
		PDFText:          doc.Combined(),
		Query:            query,
		MaxQuotes:        e.maxQuotes,
		MaxWordsPerQuote: e.maxWords,
	}
	var out agent.QuoteOutput
	if err := agent.Decode(ctx, e.spawner, agent.KindQuoteExtractor, in, &out); err != nil {
		return nil, err
	}
	candidates := make([]candidate, 0, len(out.Quotes))
	for _, q := range out.Quotes {
		candidates = append(candidates, candidate{text: q.Text, relevance: q.Relevance})
	}
	return candidates, nil
}

// keywordCandidates splits each page into sentences and keeps those
// containing at least half of the query terms, scored by the matched
// fraction.
func (e *Extractor) keywordCandidates(doc *Document, query string) []candidate {
	terms := ranking.Tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	needed := (len(terms) + 1) / 2

	var candidates []candidate
	for _, page := range doc.Pages {
		for _, sentence := range strings.Split(page.Text, ".") {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				continue
			}
			lower := strings.ToLower(sentence)
			matches := 0
			for _, term := range terms {
				if strings.Contains(lower, term) {
					matches++
				}
			}
			if matches < needed {
				continue
			}
			if len(strings.Fields(sentence)) > e.maxWords {
				continue
			}
			candidates = append(candidates, candidate{
				text:      sentence,
				relevance: float64(matches) / float64(len(terms)),
			})
			if len(candidates) >= e.maxQuotes {
				return candidates
			}
		}
	}
	return candidates
}
