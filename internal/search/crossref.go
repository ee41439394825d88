// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/litpipe/internal/ratelimit"
	"github.com/pdiddy/litpipe/internal/retry"
	"github.com/pdiddy/litpipe/pkg/types"
)

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

const crossrefSelect = "DOI,title,author,published,abstract,container-title,volume,issue,page,URL,is-referenced-by-count,type"

// Crossref allows 50 requests/second from the polite pool.
const crossrefRPS = 50

// CrossrefClient queries the Crossref REST API. Supplying an email
// joins the polite pool via the User-Agent mailto convention.
type CrossrefClient struct {
	hc        *http.Client
	limiter   *ratelimit.Limiter
	policy    *retry.Policy
	userAgent string
}

// NewCrossrefClient builds a client with its own rate limiter and
// retry policy. email may be empty for anonymous use.
func NewCrossrefClient(cfg types.SearchConfig, email string) *CrossrefClient {
	ua := cfg.UserAgent
	if email != "" {
		ua = fmt.Sprintf("%s (mailto:%s)", ua, email)
	}
	return &CrossrefClient{
		hc:        &http.Client{Timeout: cfg.Timeout},
		limiter:   ratelimit.New(crossrefRPS, crossrefRPS, 0),
		policy:    retryPolicy(cfg.MaxRetries),
		userAgent: ua,
	}
}

// Name returns the backend identifier.
func (c *CrossrefClient) Name() string { return "crossref" }

// Search queries the works endpoint. Boolean operators in the query
// string pass through to Crossref unchanged.
func (c *CrossrefClient) Search(ctx context.Context, query string, limit int) ([]types.PaperRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Crossref query")
	}
	if limit <= 0 {
		limit = 20
	}
	rows := limit
	if rows > 1000 {
		rows = 1000
	}

	params := url.Values{
		"query":  {query},
		"rows":   {fmt.Sprintf("%d", rows)},
		"select": {crossrefSelect},
	}

	var cr crossrefResponse
	reqURL := crossrefAPIBase + "?" + params.Encode()
	if err := getJSON(ctx, c.hc, c.limiter, c.policy, "Crossref", reqURL, c.headers(), &cr); err != nil {
		return nil, err
	}

	var records []types.PaperRecord
	for _, work := range cr.Message.Items {
		rec := parseCrossrefWork(work)
		if rec.DOI == "" {
			continue
		}
		records = append(records, rec)
		if len(records) == limit {
			break
		}
	}
	return records, nil
}

// GetByDOI fetches a single work. A missing DOI surfaces as an error
// matching ErrNotFound.
func (c *CrossrefClient) GetByDOI(ctx context.Context, doi string) (*types.PaperRecord, error) {
	norm := types.NormalizeDOI(doi)
	if norm == "" {
		return nil, fmt.Errorf("invalid DOI %q", doi)
	}

	var cr crossrefWorkResponse
	reqURL := crossrefAPIBase + "/" + url.PathEscape(norm)
	if err := getJSON(ctx, c.hc, c.limiter, c.policy, "Crossref", reqURL, c.headers(), &cr); err != nil {
		return nil, err
	}

	rec := parseCrossrefWork(cr.Message)
	if rec.DOI == "" {
		return nil, fmt.Errorf("Crossref work %s: %w", norm, ErrNotFound)
	}
	return &rec, nil
}

func (c *CrossrefClient) headers() map[string]string {
	return map[string]string{"User-Agent": c.userAgent}
}

func parseCrossrefWork(work crossrefWork) types.PaperRecord {
	rec := types.PaperRecord{
		DOI:       types.NormalizeDOI(work.DOI),
		Volume:    work.Volume,
		Issue:     work.Issue,
		Pages:     work.Page,
		URL:       work.URL,
		SourceAPI: "crossref",
	}

	if len(work.Title) > 0 {
		rec.Title = work.Title[0]
	}
	if len(work.ContainerTitle) > 0 {
		rec.Venue = work.ContainerTitle[0]
	}

	for _, a := range work.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if a.Family != "" && name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}

	if len(work.Published.DateParts) > 0 && len(work.Published.DateParts[0]) > 0 {
		rec.Year = work.Published.DateParts[0][0]
	}

	// Crossref abstracts arrive as JATS XML fragments.
	if work.Abstract != "" {
		rec.Abstract = stripXMLTags(work.Abstract)
	}

	if work.IsReferencedByCount != nil {
		c := *work.IsReferencedByCount
		rec.Citations = &c
	}

	if work.Type != "" {
		rec.APIMetadata = map[string]any{"type": work.Type}
	}
	return rec
}

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

func stripXMLTags(s string) string {
	s = xmlTagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	Items []crossrefWork `json:"items"`
}

type crossrefWorkResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	DOI                 string            `json:"DOI"`
	Title               []string          `json:"title"`
	Author              []crossrefAuthor  `json:"author"`
	Published           crossrefPublished `json:"published"`
	Abstract            string            `json:"abstract"`
	ContainerTitle      []string          `json:"container-title"`
	Volume              string            `json:"volume"`
	Issue               string            `json:"issue"`
	Page                string            `json:"page"`
	URL                 string            `json:"URL"`
	IsReferencedByCount *int              `json:"is-referenced-by-count"`
	Type                string            `json:"type"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefPublished struct {
	DateParts [][]int `json:"date-parts"`
}
