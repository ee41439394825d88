// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdffetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/litpipe/internal/agent"
	"github.com/pdiddy/litpipe/internal/ratelimit"
	"github.com/pdiddy/litpipe/internal/retry"
	"github.com/pdiddy/litpipe/pkg/types"
)

// unpaywallAPIBase is the Unpaywall v2 endpoint. Declared as a var so
// tests can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2"

// StrategyDeps carries the shared wiring every strategy draws from.
type StrategyDeps struct {
	HTTPClient  *http.Client
	Credentials types.Credentials
	MaxRetries  int
	// Spawner backs the browser-automation strategy; nil disables it.
	Spawner agent.Spawner
	// Discipline seeds the institutional-proxy database selection.
	Discipline string
	Databases  []string
}

// UnpaywallStrategy looks a DOI up in the Unpaywall open-access index.
// Unpaywall requires a contact email; without one the strategy is
// disabled.
type UnpaywallStrategy struct {
	hc      *http.Client
	email   string
	limiter *ratelimit.Limiter
	policy  *retry.Policy
}

// NewUnpaywallStrategy builds the strategy with its own limiter.
// Unpaywall asks integrators to stay under 100,000 requests/day.
func NewUnpaywallStrategy(deps StrategyDeps) *UnpaywallStrategy {
	return &UnpaywallStrategy{
		hc:      deps.HTTPClient,
		email:   deps.Credentials.UnpaywallEmail,
		limiter: ratelimit.New(10, 10, 100000),
		policy:  retry.NewPolicy(deps.MaxRetries, retryableHTTP),
	}
}

// Name returns the strategy tag recorded on success.
func (s *UnpaywallStrategy) Name() string { return "unpaywall" }

// PDFURL returns the best open-access PDF location for the DOI.
func (s *UnpaywallStrategy) PDFURL(ctx context.Context, doi string) (string, error) {
	if s.email == "" {
		return "", fmt.Errorf("unpaywall requires an email: %w", ErrStrategyDisabled)
	}
	norm := types.NormalizeDOI(doi)
	if norm == "" {
		return "", fmt.Errorf("invalid DOI %q", doi)
	}

	reqURL := unpaywallAPIBase + "/" + url.PathEscape(norm) + "?email=" + url.QueryEscape(s.email)

	var ur unpaywallResponse
	if err := s.policy.Execute(ctx, func() error {
		if err := s.limiter.Acquire(ctx, 1); err != nil {
			return err
		}
		return fetchJSON(ctx, s.hc, reqURL, nil, &ur)
	}); err != nil {
		return "", err
	}

	if !ur.IsOA || ur.BestOALocation == nil {
		return "", fmt.Errorf("%s is not open access: %w", norm, ErrNoPDF)
	}

	pdfURL := ur.BestOALocation.URLForPDF
	if pdfURL == "" {
		// Some records only expose the landing page, which often still
		// serves the PDF directly.
		pdfURL = ur.BestOALocation.URL
	}
	if pdfURL == "" {
		return "", fmt.Errorf("no PDF URL in best OA location for %s: %w", norm, ErrNoPDF)
	}
	return pdfURL, nil
}

type unpaywallResponse struct {
	IsOA           bool               `json:"is_oa"`
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
	URL       string `json:"url"`
}

// httpStatusError reports a non-2xx lookup response.
type httpStatusError struct {
	code int
	url  string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.code, e.url)
}

// retryableHTTP retries 429 and 5xx lookup failures.
func retryableHTTP(err error) bool {
	var se *httpStatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.code == http.StatusTooManyRequests || se.code >= 500
}

// fetchJSON performs one GET and decodes the body. 404 and other non-2xx
// statuses surface as *httpStatusError.
func fetchJSON(ctx context.Context, hc *http.Client, reqURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{code: resp.StatusCode, url: reqURL}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
