// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quotes extracts verbatim quotes from acquired PDFs and
// validates them against the page text before export.
package quotes

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is the text of one PDF page with its 1-indexed number.
type Page struct {
	Number    int
	Text      string
	WordCount int
}

// Document is a page-aware view of one PDF.
type Document struct {
	Path  string
	Pages []Page
}

// Combined concatenates all page texts with page markers, the form
// handed to the extraction agent.
func (d *Document) Combined() string {
	var b strings.Builder
	for _, p := range d.Pages {
		fmt.Fprintf(&b, "[Page %d]\n%s\n\n", p.Number, p.Text)
	}
	return b.String()
}

// WordCount sums the per-page counts.
func (d *Document) WordCount() int {
	total := 0
	for _, p := range d.Pages {
		total += p.WordCount
	}
	return total
}

// ParsePDF reads every page of the PDF at path. Pages whose text
// cannot be decoded are kept as empty so numbering stays aligned with
// the document.
func ParsePDF(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc := &Document{Path: path}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		text := ""
		if !page.V.IsNull() {
			if t, err := page.GetPlainText(nil); err == nil {
				text = t
			}
		}
		doc.Pages = append(doc.Pages, Page{
			Number:    i,
			Text:      text,
			WordCount: len(strings.Fields(text)),
		})
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%s contains no pages", path)
	}
	return doc, nil
}
