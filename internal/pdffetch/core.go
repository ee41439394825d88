// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdffetch

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

// coreAPIBase is the CORE v3 endpoint. Declared as a var so tests can
// substitute an httptest server.
var coreAPIBase = "https://api.core.ac.uk/v3"

// COREStrategy looks a DOI up in the CORE repository aggregator. CORE
// needs an API key; without one the strategy is disabled.
type COREStrategy struct {
	hc      *http.Client
	apiKey  string
	limiter *ratelimit.Limiter
	policy  *retry.Policy
}

// NewCOREStrategy builds the strategy. The free CORE tier allows 10
// requests/minute, which the limiter paces out.
func NewCOREStrategy(deps StrategyDeps) *COREStrategy {
	return &COREStrategy{
		hc:      deps.HTTPClient,
		apiKey:  deps.Credentials.COREAPIKey,
		limiter: ratelimit.New(10.0/60.0, 1, 0),
		policy:  retry.NewPolicy(deps.MaxRetries, retryableHTTP),
	}
}

// Name returns the strategy tag recorded on success.
func (s *COREStrategy) Name() string { return "core" }

// PDFURL searches CORE for the DOI and returns a download link.
func (s *COREStrategy) PDFURL(ctx context.Context, doi string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("CORE requires an API key: %w", ErrStrategyDisabled)
	}
	norm := types.NormalizeDOI(doi)
	if norm == "" {
		return "", fmt.Errorf("invalid DOI %q", doi)
	}

	params := url.Values{
		"q":     {`doi:"` + norm + `"`},
		"limit": {"1"},
	}
	reqURL := coreAPIBase + "/search/works?" + params.Encode()
	headers := map[string]string{"Authorization": "Bearer " + s.apiKey}

	var cr coreResponse
	if err := s.policy.Execute(ctx, func() error {
		if err := s.limiter.Acquire(ctx, 1); err != nil {
			return err
		}
		return fetchJSON(ctx, s.hc, reqURL, headers, &cr)
	}); err != nil {
		return "", err
	}

	if len(cr.Results) == 0 {
		return "", fmt.Errorf("%s not indexed by CORE: %w", norm, ErrNoPDF)
	}

	work := cr.Results[0]
	if work.DownloadURL != "" {
		return work.DownloadURL, nil
	}
	for _, link := range work.Links {
		if link.Type == "download" || strings.Contains(strings.ToLower(link.URL), "pdf") {
			return link.URL, nil
		}
	}
	return "", fmt.Errorf("no download link in CORE result for %s: %w", norm, ErrNoPDF)
}

type coreResponse struct {
	Results []coreWork `json:"results"`
}

type coreWork struct {
	DownloadURL string     `json:"downloadUrl"`
	Links       []coreLink `json:"links"`
}

type coreLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}
