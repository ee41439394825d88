// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"regexp"
	"strings"
)

// doiPrefixes are stripped case-sensitively, in this order, before
// validation. Bibliographic software commonly prepends any of them.
var doiPrefixes = []string{
	"doi:",
	"DOI:",
	"https://doi.org/",
	"http://doi.org/",
	"doi.org/",
}

// doiPattern is the shape every normalized DOI must satisfy.
var doiPattern = regexp.MustCompile(`^10\.\S+$`)

// NormalizeDOI canonicalizes a raw DOI string: it strips known prefixes,
// truncates at the first '?' or '#' (query params and fragments cause
// upstream 422s), and trims whitespace. The suffix case is preserved.
// It returns "" when the result does not look like a DOI.
func NormalizeDOI(raw string) string {
	doi := strings.TrimSpace(raw)
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(doi, prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	if i := strings.IndexAny(doi, "?#"); i >= 0 {
		doi = doi[:i]
	}
	doi = strings.TrimSpace(doi)
	if !doiPattern.MatchString(doi) {
		return ""
	}
	return doi
}

// ValidDOI reports whether s is already a normalized DOI.
func ValidDOI(s string) bool {
	return doiPattern.MatchString(s)
}

// SanitizeDOI maps a DOI to a filesystem-safe filename stem: every byte
// outside [A-Za-z0-9._-] becomes '_'.
func SanitizeDOI(doi string) string {
	var b strings.Builder
	b.Grow(len(doi))
	for _, r := range doi {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
