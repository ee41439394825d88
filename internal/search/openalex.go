// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/litpipe/internal/ratelimit"
	"github.com/pdiddy/litpipe/internal/retry"
	"github.com/pdiddy/litpipe/pkg/types"
)

// openAlexAPIBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

// Anonymous OpenAlex use is capped at 10 requests/second and 100,000
// requests/day. Supplying an email joins the polite pool, which lifts
// the daily cap.
const (
	openAlexRPS      = 10
	openAlexDailyCap = 100000
)

// OpenAlexClient queries the OpenAlex API.
type OpenAlexClient struct {
	hc        *http.Client
	limiter   *ratelimit.Limiter
	policy    *retry.Policy
	email     string
	userAgent string
}

// NewOpenAlexClient builds a client with its own rate limiter and
// retry policy. email may be empty for anonymous use.
func NewOpenAlexClient(cfg types.SearchConfig, email string) *OpenAlexClient {
	daily := openAlexDailyCap
	if email != "" {
		daily = 0
	}
	return &OpenAlexClient{
		hc:        &http.Client{Timeout: cfg.Timeout},
		limiter:   ratelimit.New(openAlexRPS, openAlexRPS, daily),
		policy:    retryPolicy(cfg.MaxRetries),
		email:     email,
		userAgent: cfg.UserAgent,
	}
}

// Name returns the backend identifier.
func (c *OpenAlexClient) Name() string { return "openalex" }

// Search queries the Works endpoint and reconstructs abstracts from
// OpenAlex's inverted-index representation.
func (c *OpenAlexClient) Search(ctx context.Context, query string, limit int) ([]types.PaperRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	params := url.Values{
		"search":   {query},
		"per_page": {fmt.Sprintf("%d", limit)},
		"page":     {"1"},
	}
	if c.email != "" {
		params.Set("mailto", c.email)
	}

	var oar openAlexResponse
	reqURL := openAlexAPIBase + "?" + params.Encode()
	if err := getJSON(ctx, c.hc, c.limiter, c.policy, "OpenAlex", reqURL, c.headers(), &oar); err != nil {
		return nil, err
	}

	var records []types.PaperRecord
	for _, work := range oar.Results {
		records = append(records, parseOpenAlexWork(work))
	}
	return records, nil
}

// GetByDOI fetches a single work through the doi.org external-ID path.
func (c *OpenAlexClient) GetByDOI(ctx context.Context, doi string) (*types.PaperRecord, error) {
	norm := types.NormalizeDOI(doi)
	if norm == "" {
		return nil, fmt.Errorf("invalid DOI %q", doi)
	}

	params := url.Values{}
	if c.email != "" {
		params.Set("mailto", c.email)
	}
	reqURL := openAlexAPIBase + "/https://doi.org/" + norm
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var work openAlexWork
	if err := getJSON(ctx, c.hc, c.limiter, c.policy, "OpenAlex", reqURL, c.headers(), &work); err != nil {
		return nil, err
	}

	rec := parseOpenAlexWork(work)
	return &rec, nil
}

func (c *OpenAlexClient) headers() map[string]string {
	return map[string]string{"User-Agent": c.userAgent}
}

func parseOpenAlexWork(work openAlexWork) types.PaperRecord {
	rec := types.PaperRecord{
		DOI:       types.NormalizeDOI(work.DOI),
		Title:     work.Title,
		Year:      work.PublicationYear,
		Venue:     work.PrimaryLocation.Source.DisplayName,
		Volume:    work.Biblio.Volume,
		Issue:     work.Biblio.Issue,
		Abstract:  reconstructAbstract(work.AbstractInvertedIndex),
		URL:       work.ID,
		SourceAPI: "openalex",
	}

	for _, authorship := range work.Authorships {
		if authorship.Author.DisplayName != "" {
			rec.Authors = append(rec.Authors, authorship.Author.DisplayName)
		}
	}

	if work.Biblio.FirstPage != "" {
		rec.Pages = work.Biblio.FirstPage
		if work.Biblio.LastPage != "" && work.Biblio.LastPage != work.Biblio.FirstPage {
			rec.Pages += "-" + work.Biblio.LastPage
		}
	}

	if work.CitedByCount != nil {
		c := *work.CitedByCount
		rec.Citations = &c
	}

	if work.OpenAccess.OAURL != "" || work.OpenAccess.IsOA {
		rec.APIMetadata = map[string]any{
			"is_oa":  work.OpenAccess.IsOA,
			"oa_url": work.OpenAccess.OAURL,
		}
	}
	return rec
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back
// to plain text. The inverted index maps each word to the list of
// positions where it appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	CitedByCount          *int                 `json:"cited_by_count"`
	Biblio                openAlexBiblio       `json:"biblio"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
}

type openAlexBiblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

type openAlexLocation struct {
	Source openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}
