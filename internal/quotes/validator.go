// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quotes

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litpipe/pkg/types"
)

// Validator checks candidate quotes against the parsed PDF text. A quote
// passes only if its whitespace-normalized text occurs verbatim in some
// page's normalized text; the page where it is first found wins over any
// page number the agent claimed.
type Validator struct {
	MaxWords     int
	ContextWords int
	Log          zerolog.Logger
}

// NewValidator builds a Validator from extraction settings.
func NewValidator(cfg types.ExtractionConfig, log zerolog.Logger) *Validator {
	return &Validator{
		MaxWords:     cfg.MaxQuoteWords,
		ContextWords: cfg.ContextWords,
		Log:          log,
	}
}

// Validate locates text in doc and returns a fully-populated Quote. The
// second return is false when the quote is over-length or not found on
// any page.
func (v *Validator) Validate(doc *Document, text, doi string, relevance float64) (types.Quote, bool) {
	normalized := normalizeText(text)
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return types.Quote{}, false
	}
	if len(words) > v.MaxWords {
		v.Log.Warn().
			Str("doi", doi).
			Int("words", len(words)).
			Int("max", v.MaxWords).
			Msg("quote rejected: over word limit")
		return types.Quote{}, false
	}

	for _, page := range doc.Pages {
		if !strings.Contains(normalizeText(page.Text), normalized) {
			continue
		}
		before, after := extractContext(normalized, page.Text, v.ContextWords)
		return types.Quote{
			Text:          text,
			PaperDOI:      doi,
			Page:          page.Number,
			ContextBefore: before,
			ContextAfter:  after,
			Relevance:     relevance,
			WordCount:     len(words),
			Validated:     true,
		}, true
	}

	v.Log.Warn().Str("doi", doi).Msg("quote rejected: not found in PDF text")
	return types.Quote{}, false
}

// extractContext returns up to contextWords words on either side of the
// first occurrence of the normalized quote in the original page text.
// The occurrence is located by sliding a window of the quote's word
// length over the original words and normalizing each window, so the
// contexts preserve the page's original casing and punctuation.
func extractContext(normalized, pageText string, contextWords int) (before, after string) {
	words := strings.Fields(pageText)
	quoteWords := strings.Fields(normalized)
	start := -1
	for i := 0; i+len(quoteWords) <= len(words); i++ {
		window := strings.Join(words[i:i+len(quoteWords)], " ")
		if strings.Contains(normalizeText(window), normalized) {
			start = i
			break
		}
	}
	if start < 0 {
		return "", ""
	}

	lo := start - contextWords
	if lo < 0 {
		lo = 0
	}
	end := start + len(quoteWords)
	hi := end + contextWords
	if hi > len(words) {
		hi = len(words)
	}
	return strings.Join(words[lo:start], " "), strings.Join(words[end:hi], " ")
}

// normalizeText lowercases and collapses all whitespace runs to single
// spaces, the same transformation applied to both quotes and page text
// before matching.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
