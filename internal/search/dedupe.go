// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/litpipe/pkg/types"
)

// Deduplicate collapses duplicate records across sources. Records with
// a DOI dedupe on the lowercased DOI; records without one dedupe by
// normalized-title similarity at or above threshold (token-sort
// ratio). Returns the merged set and the number of duplicates removed.
func Deduplicate(records []types.PaperRecord, threshold float64) ([]types.PaperRecord, int) {
	byDOI := make(map[string]int) // lowercased DOI → index in deduped
	var deduped []types.PaperRecord
	removed := 0

	for _, r := range records {
		if r.DOI != "" {
			key := strings.ToLower(r.DOI)
			if idx, ok := byDOI[key]; ok {
				mergeInto(&deduped[idx], r)
				removed++
				continue
			}
			byDOI[key] = len(deduped)
			deduped = append(deduped, r)
			continue
		}

		// DOI-less: fuzzy-match the normalized title against every
		// kept record. Candidate sets are small enough for the linear
		// scan.
		title := normalizeTitle(r.Title)
		merged := false
		if title != "" {
			for i := range deduped {
				if tokenSortRatio(title, normalizeTitle(deduped[i].Title)) >= threshold {
					mergeInto(&deduped[i], r)
					removed++
					merged = true
					break
				}
			}
		}
		if !merged {
			deduped = append(deduped, r)
		}
	}
	return deduped, removed
}

// mergeInto folds src into dst: prefer non-null fields, the longer
// abstract, the larger citation count, and the lexically-first source
// tag.
func mergeInto(dst *types.PaperRecord, src types.PaperRecord) {
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.Volume == "" {
		dst.Volume = src.Volume
	}
	if dst.Issue == "" {
		dst.Issue = src.Issue
	}
	if dst.Pages == "" {
		dst.Pages = src.Pages
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	if len(src.Abstract) > len(dst.Abstract) {
		dst.Abstract = src.Abstract
	}
	if src.Citations != nil && (dst.Citations == nil || *src.Citations > *dst.Citations) {
		c := *src.Citations
		dst.Citations = &c
	}
	if src.SourceAPI != "" && (dst.SourceAPI == "" || src.SourceAPI < dst.SourceAPI) {
		dst.SourceAPI = src.SourceAPI
	}
	for k, v := range src.APIMetadata {
		if dst.APIMetadata == nil {
			dst.APIMetadata = make(map[string]any)
		}
		if _, ok := dst.APIMetadata[k]; !ok {
			dst.APIMetadata[k] = v
		}
	}
}

// normalizeTitle lowercases, strips punctuation and collapses
// whitespace.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSortRatio sorts the tokens of both strings and returns the
// similarity of the joined forms as 2·LCS/(len(a)+len(b)), in [0,1].
func tokenSortRatio(a, b string) float64 {
	sa := sortTokens(a)
	sb := sortTokens(b)
	if sa == "" && sb == "" {
		return 1.0
	}
	if sa == "" || sb == "" {
		return 0.0
	}
	ra := []rune(sa)
	rb := []rune(sb)
	lcs := lcsLength(ra, rb)
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}

func sortTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// lcsLength computes the longest-common-subsequence length with a
// rolling single-row table.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prev + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prev = cur
		}
	}
	return row[len(b)]
}
