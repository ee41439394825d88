// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/litpipe/internal/ratelimit"
	"github.com/pdiddy/litpipe/internal/retry"
	"github.com/pdiddy/litpipe/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Graph API root. Declared as a
// var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper"

const semanticFields = "title,abstract,authors,externalIds,year,venue,citationCount,publicationVenue,journal"

// SemanticScholarClient queries the Semantic Scholar Graph API.
// Anonymous use shares a pool of 100 requests per 5 minutes, which the
// limiter approximates as one request per three seconds; an API key
// raises this to 1 request/second.
type SemanticScholarClient struct {
	hc        *http.Client
	limiter   *ratelimit.Limiter
	policy    *retry.Policy
	apiKey    string
	userAgent string
}

// NewSemanticScholarClient builds a client with its own rate limiter
// and retry policy. apiKey may be empty for anonymous use.
func NewSemanticScholarClient(cfg types.SearchConfig, apiKey string) *SemanticScholarClient {
	rps := 1.0 / 3.0
	if apiKey != "" {
		rps = 1.0
	}
	return &SemanticScholarClient{
		hc:        &http.Client{Timeout: cfg.Timeout},
		limiter:   ratelimit.New(rps, 1, 0),
		policy:    retryPolicy(cfg.MaxRetries),
		apiKey:    apiKey,
		userAgent: cfg.UserAgent,
	}
}

// Name returns the backend identifier.
func (c *SemanticScholarClient) Name() string { return "semantic_scholar" }

// Search queries the paper search endpoint.
func (c *SemanticScholarClient) Search(ctx context.Context, query string, limit int) ([]types.PaperRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {semanticFields},
	}

	var sr semanticResponse
	reqURL := semanticAPIBase + "/search?" + params.Encode()
	if err := getJSON(ctx, c.hc, c.limiter, c.policy, "Semantic Scholar", reqURL, c.headers(), &sr); err != nil {
		return nil, err
	}

	var records []types.PaperRecord
	for _, paper := range sr.Data {
		records = append(records, parseSemanticPaper(paper))
	}
	return records, nil
}

// GetByDOI fetches a single paper via the DOI external-ID path.
func (c *SemanticScholarClient) GetByDOI(ctx context.Context, doi string) (*types.PaperRecord, error) {
	norm := types.NormalizeDOI(doi)
	if norm == "" {
		return nil, fmt.Errorf("invalid DOI %q", doi)
	}

	params := url.Values{"fields": {semanticFields}}
	reqURL := semanticAPIBase + "/DOI:" + url.PathEscape(norm) + "?" + params.Encode()

	var paper semanticPaper
	if err := getJSON(ctx, c.hc, c.limiter, c.policy, "Semantic Scholar", reqURL, c.headers(), &paper); err != nil {
		return nil, err
	}

	rec := parseSemanticPaper(paper)
	return &rec, nil
}

func (c *SemanticScholarClient) headers() map[string]string {
	h := map[string]string{"User-Agent": c.userAgent}
	if c.apiKey != "" {
		h["x-api-key"] = c.apiKey
	}
	return h
}

func parseSemanticPaper(paper semanticPaper) types.PaperRecord {
	rec := types.PaperRecord{
		DOI:       types.NormalizeDOI(paper.ExternalIDs.DOI),
		Title:     paper.Title,
		Year:      paper.Year,
		Venue:     paper.Venue,
		Abstract:  paper.Abstract,
		SourceAPI: "semantic_scholar",
	}

	if rec.Venue == "" {
		rec.Venue = paper.PublicationVenue.Name
	}
	if paper.Journal != nil {
		if rec.Venue == "" {
			rec.Venue = paper.Journal.Name
		}
		rec.Volume = paper.Journal.Volume
		rec.Pages = paper.Journal.Pages
	}

	for _, a := range paper.Authors {
		if a.Name != "" {
			rec.Authors = append(rec.Authors, a.Name)
		}
	}

	if paper.CitationCount != nil {
		c := *paper.CitationCount
		rec.Citations = &c
	}

	if paper.PaperID != "" {
		rec.APIMetadata = map[string]any{"paper_id": paper.PaperID}
	}
	return rec
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Data []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID          string              `json:"paperId"`
	Title            string              `json:"title"`
	Abstract         string              `json:"abstract"`
	Year             int                 `json:"year"`
	Venue            string              `json:"venue"`
	CitationCount    *int                `json:"citationCount"`
	Authors          []semanticAuthor    `json:"authors"`
	ExternalIDs      semanticExternalIDs `json:"externalIds"`
	PublicationVenue semanticVenue       `json:"publicationVenue"`
	Journal          *semanticJournal    `json:"journal"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticExternalIDs struct {
	DOI string `json:"DOI"`
}

type semanticVenue struct {
	Name string `json:"name"`
}

type semanticJournal struct {
	Name   string `json:"name"`
	Volume string `json:"volume"`
	Pages  string `json:"pages"`
}
