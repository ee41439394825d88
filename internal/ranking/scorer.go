// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ranking scores candidate papers on five dimensions and
// selects the top N for acquisition.
package ranking

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/litpipe/pkg/types"
)

// recencyTauYears is the decay constant for the recency dimension: a
// five-year-old paper scores exp(-1).
const recencyTauYears = 5.0

// Scorer computes the four non-LLM dimensions and the weighted total.
// Weights are normalized at construction so any non-negative set works.
type Scorer struct {
	wRelevance float64
	wRecency   float64
	wQuality   float64
	wAuthority float64

	// now is swappable for deterministic recency tests.
	now func() time.Time
}

// NewScorer normalizes the configured weights to sum to 1. An all-zero
// weight set falls back to the defaults.
func NewScorer(cfg types.RankingConfig) *Scorer {
	wr, wre, wq, wa := cfg.RelevanceWeight, cfg.RecencyWeight, cfg.QualityWeight, cfg.AuthorityWeight
	total := wr + wre + wq + wa
	if total <= 0 {
		wr, wre, wq, wa = 0.4, 0.2, 0.2, 0.2
		total = 1.0
	}
	return &Scorer{
		wRelevance: wr / total,
		wRecency:   wre / total,
		wQuality:   wq / total,
		wAuthority: wa / total,
		now:        time.Now,
	}
}

// Score computes the breakdown for one paper given its relevance. All
// components and the total land in [0,1].
func (s *Scorer) Score(p *types.PaperRecord, relevance float64) types.ScoreBreakdown {
	b := types.ScoreBreakdown{
		Relevance: clamp01(relevance),
		Recency:   s.scoreRecency(p),
		Quality:   scoreQuality(p),
		Authority: scoreAuthority(p),
	}
	b.Total = b.Relevance*s.wRelevance +
		b.Recency*s.wRecency +
		b.Quality*s.wQuality +
		b.Authority*s.wAuthority
	return b
}

// KeywordRelevance is the lexical fallback when no LLM relevance is
// available: title-overlap × 0.7 + abstract-overlap × 0.3, where
// overlap is the fraction of query terms present in the text.
func (s *Scorer) KeywordRelevance(query string, p *types.PaperRecord) float64 {
	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 {
		return 0.5
	}

	titleScore := overlapRatio(queryTerms, Tokenize(p.Title))
	abstractScore := 0.0
	if p.Abstract != "" {
		abstractScore = overlapRatio(queryTerms, Tokenize(p.Abstract))
	}
	return titleScore*0.7 + abstractScore*0.3
}

func overlapRatio(queryTerms, textTerms []string) float64 {
	if len(queryTerms) == 0 {
		return 0.0
	}
	have := make(map[string]bool, len(textTerms))
	for _, t := range textTerms {
		have[t] = true
	}
	matches := 0
	for _, t := range queryTerms {
		if have[t] {
			matches++
		}
	}
	return float64(matches) / float64(len(queryTerms))
}

// scoreRecency decays exponentially with paper age. Missing year is
// neutral rather than penalized.
func (s *Scorer) scoreRecency(p *types.PaperRecord) float64 {
	if p.Year == 0 {
		return 0.5
	}
	age := float64(s.now().Year() - p.Year)
	if age < 0 {
		age = 0
	}
	return math.Exp(-age / recencyTauYears)
}

// scoreQuality maps the citation count through a log scale saturating
// at 1000 citations. Missing or zero counts get the floor.
func scoreQuality(p *types.PaperRecord) float64 {
	c := p.CitationCount()
	if c <= 0 {
		return 0.1
	}
	score := math.Log10(1+float64(c)) / math.Log10(1001)
	if score < 0.1 {
		return 0.1
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// reputableVenues are matched exactly (case-insensitive) against the
// venue string.
var reputableVenues = map[string]bool{
	"nature":                    true,
	"science":                   true,
	"communications of the acm": true,
	"ieee software":             true,
	"ieee transactions on software engineering": true,
	"journal of machine learning research":      true,
}

// venueKeywords indicate a reputable publisher when they appear inside
// the venue string.
var venueKeywords = []string{
	"ieee", "acm", "springer", "elsevier", "nature", "science",
	"transactions", "journal", "conference", "symposium",
}

// scoreAuthority rates the venue: exact curated match 0.8, keyword
// substring matches 0.5-0.7 (scaling with match count), unknown 0.3,
// missing 0.5.
func scoreAuthority(p *types.PaperRecord) float64 {
	if strings.TrimSpace(p.Venue) == "" {
		return 0.5
	}
	venue := strings.ToLower(strings.TrimSpace(p.Venue))
	if reputableVenues[venue] {
		return 0.8
	}

	matches := 0
	for _, kw := range venueKeywords {
		if strings.Contains(venue, kw) {
			matches++
		}
	}
	switch {
	case matches >= 3:
		return 0.7
	case matches == 2:
		return 0.6
	case matches == 1:
		return 0.5
	default:
		return 0.3
	}
}

// stopWords excluded from keyword tokenization.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"in": true, "is": true, "it": true, "of": true, "on": true,
	"or": true, "the": true, "to": true, "with": true,
}

// Tokenize lowercases, splits on non-alphanumeric runs and drops stop
// words and single characters.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var terms []string
	for _, f := range fields {
		if len(f) < 2 || stopWords[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
