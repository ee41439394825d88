// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation renders paper records as bibliography entries.
// Titles and venues use markdown emphasis where the style italicizes.
package citation

import (
	"fmt"
	"strings"

	"github.com/pdiddy/litpipe/pkg/types"
)

// Style selects a bibliographic convention.
type Style string

const (
	StyleAPA7    Style = "apa7"
	StyleIEEE    Style = "ieee"
	StyleHarvard Style = "harvard"
	StyleMLA     Style = "mla"
	StyleChicago Style = "chicago"
)

// Styles lists every supported style.
func Styles() []Style {
	return []Style{StyleAPA7, StyleIEEE, StyleHarvard, StyleMLA, StyleChicago}
}

// ParseStyle normalizes a style name. Unknown names are an error.
func ParseStyle(s string) (Style, error) {
	style := Style(strings.ToLower(strings.TrimSpace(s)))
	switch style {
	case StyleAPA7, StyleIEEE, StyleHarvard, StyleMLA, StyleChicago:
		return style, nil
	}
	return "", fmt.Errorf("unsupported citation style %q", s)
}

// Format renders one paper in the given style. Missing fields are
// skipped without error.
func Format(p *types.PaperRecord, style Style) (string, error) {
	switch style {
	case StyleAPA7:
		return formatAPA7(p), nil
	case StyleIEEE:
		return formatIEEE(p), nil
	case StyleHarvard:
		return formatHarvard(p), nil
	case StyleMLA:
		return formatMLA(p), nil
	case StyleChicago:
		return formatChicago(p), nil
	}
	return "", fmt.Errorf("unsupported citation style %q", style)
}

// formatAPA7 renders
// "Smith, J., & Doe, A. (2024). *Title*. *Journal*, *41*(2), 45-52. https://doi.org/...".
func formatAPA7(p *types.PaperRecord) string {
	var authors string
	switch len(p.Authors) {
	case 0:
		authors = "Unknown"
	case 1:
		authors = p.Authors[0]
	case 2:
		authors = p.Authors[0] + ", & " + p.Authors[1]
	default:
		authors = strings.Join(p.Authors[:len(p.Authors)-1], ", ") + ", & " + p.Authors[len(p.Authors)-1]
	}

	year := "(n.d.)"
	if p.Year != 0 {
		year = fmt.Sprintf("(%d)", p.Year)
	}

	title := "Untitled"
	if p.Title != "" {
		title = "*" + p.Title + "*"
	}

	parts := []string{fmt.Sprintf("%s %s. %s.", authors, year, title)}

	if p.Venue != "" {
		venue := "*" + p.Venue + "*"
		if p.Volume != "" {
			venue += ", *" + p.Volume + "*"
			if p.Issue != "" {
				venue += "(" + p.Issue + ")"
			}
		}
		if p.Pages != "" {
			venue += ", " + p.Pages
		}
		parts = append(parts, venue+".")
	}

	if p.DOI != "" {
		parts = append(parts, "https://doi.org/"+p.DOI)
	}
	return strings.Join(parts, " ")
}

// formatIEEE renders
// `J. Smith and A. Doe, "Title," Journal, vol. 41, no. 2, pp. 45-52, 2024.`.
func formatIEEE(p *types.PaperRecord) string {
	var authors string
	switch len(p.Authors) {
	case 0:
		authors = "Unknown"
	case 1:
		authors = ieeeAuthor(p.Authors[0])
	case 2:
		authors = ieeeAuthor(p.Authors[0]) + " and " + ieeeAuthor(p.Authors[1])
	default:
		authors = ieeeAuthor(p.Authors[0]) + " et al."
	}

	title := `"Untitled"`
	if p.Title != "" {
		title = `"` + p.Title + `"`
	}

	parts := []string{authors, title}

	if p.Venue != "" {
		venue := p.Venue
		if p.Volume != "" {
			venue += ", vol. " + p.Volume
		}
		if p.Issue != "" {
			venue += ", no. " + p.Issue
		}
		if p.Pages != "" {
			venue += ", pp. " + p.Pages
		}
		parts = append(parts, venue)
	}

	if p.Year != 0 {
		parts = append(parts, fmt.Sprintf("%d", p.Year))
	}

	if p.DOI != "" {
		parts = append(parts, "doi:"+p.DOI)
	}
	return strings.Join(parts, ", ") + "."
}

// ieeeAuthor abbreviates "First Last" to "F. Last".
func ieeeAuthor(name string) string {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return name
	}
	first := []rune(fields[0])
	return string(first[0]) + ". " + strings.Join(fields[1:], " ")
}

// formatHarvard renders
// "Smith, J. and Doe, A. (2024), 'Title', *Journal*, 41(2), pp. 45-52.".
func formatHarvard(p *types.PaperRecord) string {
	var authors string
	switch len(p.Authors) {
	case 0:
		authors = "Unknown"
	case 1:
		authors = p.Authors[0]
	case 2:
		authors = p.Authors[0] + " and " + p.Authors[1]
	default:
		authors = p.Authors[0] + " et al."
	}

	year := "(n.d.)"
	if p.Year != 0 {
		year = fmt.Sprintf("(%d)", p.Year)
	}

	title := "'Untitled'"
	if p.Title != "" {
		title = "'" + p.Title + "'"
	}

	parts := []string{authors + " " + year, title}

	if p.Venue != "" {
		venue := "*" + p.Venue + "*"
		switch {
		case p.Volume != "" && p.Issue != "":
			venue += ", " + p.Volume + "(" + p.Issue + ")"
		case p.Volume != "":
			venue += ", " + p.Volume
		}
		if p.Pages != "" {
			venue += ", pp. " + p.Pages
		}
		parts = append(parts, venue)
	}

	if p.DOI != "" {
		parts = append(parts, "doi:"+p.DOI)
	}
	return strings.Join(parts, ", ") + "."
}

// formatMLA renders
// `Smith, John, et al. "Title." *Journal*, vol. 41, no. 2, 2024, pp. 45-52.`.
func formatMLA(p *types.PaperRecord) string {
	var authors string
	switch len(p.Authors) {
	case 0:
		authors = "Unknown"
	case 1:
		authors = p.Authors[0]
	default:
		authors = p.Authors[0] + ", et al."
	}

	title := `"Untitled"`
	if p.Title != "" {
		title = `"` + p.Title + `"`
	}

	parts := []string{authors + ". " + title + "."}

	if p.Venue != "" {
		venue := "*" + p.Venue + "*"
		if p.Volume != "" {
			venue += ", vol. " + p.Volume
		}
		if p.Issue != "" {
			venue += ", no. " + p.Issue
		}
		parts = append(parts, venue)

		if p.Year != 0 {
			parts = append(parts, fmt.Sprintf("%d", p.Year))
		}
		if p.Pages != "" {
			parts = append(parts, "pp. "+p.Pages)
		}
	}

	if p.DOI != "" {
		parts = append(parts, "doi:"+p.DOI)
	}
	return strings.Join(parts, ", ") + "."
}

// formatChicago renders
// `Smith, John, and Alice Doe. "Title." *Journal* 41, no. 2 (2024): 45-52.`.
func formatChicago(p *types.PaperRecord) string {
	var authors string
	switch len(p.Authors) {
	case 0:
		authors = "Unknown"
	case 1:
		authors = p.Authors[0]
	case 2:
		authors = p.Authors[0] + ", and " + p.Authors[1]
	default:
		authors = p.Authors[0] + ", et al."
	}

	title := `"Untitled"`
	if p.Title != "" {
		title = `"` + p.Title + `"`
	}

	parts := []string{authors + ". " + title + "."}

	if p.Venue != "" {
		venue := "*" + p.Venue + "*"
		if p.Volume != "" {
			venue += " " + p.Volume
		}
		if p.Issue != "" {
			venue += ", no. " + p.Issue
		}
		if p.Year != 0 {
			venue += fmt.Sprintf(" (%d)", p.Year)
		}
		if p.Pages != "" {
			venue += ": " + p.Pages
		}
		parts = append(parts, venue+".")
	}

	if p.DOI != "" {
		parts = append(parts, "https://doi.org/"+p.DOI+".")
	}
	return strings.Join(parts, " ")
}
