// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/litpipe/internal/ratelimit"
	"github.com/pdiddy/litpipe/internal/retry"
	"github.com/pdiddy/litpipe/pkg/types"
)

// Client searches a single bibliographic API. Each backend (Crossref,
// OpenAlex, Semantic Scholar) normalizes its source schema into the
// canonical PaperRecord shape and stamps SourceAPI.
type Client interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.PaperRecord, error)
	GetByDOI(ctx context.Context, doi string) (*types.PaperRecord, error)
}

// Sentinel errors classifying API failures. RateLimited and Server are
// retryable; NotFound never is.
var (
	ErrRateLimited = errors.New("rate limited")
	ErrServer      = errors.New("server error")
	ErrNotFound    = errors.New("not found")
)

// StatusError reports a non-2xx HTTP response from a backend. It
// matches the sentinel errors above through errors.Is so retry
// policies can classify by status class.
type StatusError struct {
	Source string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned HTTP %d", e.Source, e.Code)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Code == http.StatusTooManyRequests
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrServer:
		return e.Code >= 500 && e.Code < 600
	}
	return false
}

// retryPolicy builds the per-client policy: retry on 429 and 5xx,
// never on 404 or decode failures.
func retryPolicy(maxRetries int) *retry.Policy {
	return retry.NewPolicy(maxRetries, retry.RetryableAny(ErrRateLimited, ErrServer))
}

// getJSON performs one rate-limited, retried GET and decodes the JSON
// body into out. headers may be nil. A 404 surfaces as a *StatusError
// matching ErrNotFound without being retried.
func getJSON(ctx context.Context, hc *http.Client, limiter *ratelimit.Limiter, policy *retry.Policy, source, reqURL string, headers map[string]string, out any) error {
	return policy.Execute(ctx, func() error {
		if err := limiter.Acquire(ctx, 1); err != nil {
			return err
		}

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
			return fmt.Errorf("%s API request: %w", source, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return &StatusError{Source: source, Code: resp.StatusCode}
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("parsing %s response: %w", source, err)
		}
		return nil
	})
}
