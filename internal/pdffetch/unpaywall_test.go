// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdffetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litpipe/internal/ratelimit"
	"github.com/pdiddy/litpipe/pkg/types"
)

func testFastLimiter() *ratelimit.Limiter {
	return ratelimit.New(1000, 1000, 0)
}

func testCreds() types.Credentials {
	return types.Credentials{}
}

func testDeps(creds types.Credentials) StrategyDeps {
	return StrategyDeps{
		HTTPClient:  &http.Client{Timeout: 5 * time.Second},
		Credentials: creds,
		MaxRetries:  0,
	}
}

func swapUnpaywallBase(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	orig := unpaywallAPIBase
	unpaywallAPIBase = srv.URL
	t.Cleanup(func() {
		unpaywallAPIBase = orig
		srv.Close()
	})
}

func TestUnpaywallPDFURL(t *testing.T) {
	var gotPath, gotEmail string
	swapUnpaywallBase(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotEmail = r.URL.Query().Get("email")
		w.Write([]byte(`{"is_oa": true, "best_oa_location": {"url_for_pdf": "https://repo.example/x.pdf"}}`))
	})

	s := NewUnpaywallStrategy(testDeps(types.Credentials{UnpaywallEmail: "dev@example.org"}))
	url, err := s.PDFURL(context.Background(), "doi:10.1234/Test")
	require.NoError(t, err)
	assert.Equal(t, "https://repo.example/x.pdf", url)
	assert.Equal(t, "/10.1234%2FTest", gotPath)
	assert.Equal(t, "dev@example.org", gotEmail)
}

func TestUnpaywallLandingPageFallback(t *testing.T) {
	swapUnpaywallBase(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_oa": true, "best_oa_location": {"url": "https://journal.example/landing"}}`))
	})

	s := NewUnpaywallStrategy(testDeps(types.Credentials{UnpaywallEmail: "dev@example.org"}))
	url, err := s.PDFURL(context.Background(), "10.1/x")
	require.NoError(t, err)
	assert.Equal(t, "https://journal.example/landing", url)
}

func TestUnpaywallNotOpenAccess(t *testing.T) {
	swapUnpaywallBase(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_oa": false}`))
	})

	s := NewUnpaywallStrategy(testDeps(types.Credentials{UnpaywallEmail: "dev@example.org"}))
	_, err := s.PDFURL(context.Background(), "10.1/x")
	assert.ErrorIs(t, err, ErrNoPDF)
}

func TestUnpaywallDisabledWithoutEmail(t *testing.T) {
	s := NewUnpaywallStrategy(testDeps(types.Credentials{}))
	_, err := s.PDFURL(context.Background(), "10.1/x")
	assert.ErrorIs(t, err, ErrStrategyDisabled)
}

func TestUnpaywallInvalidDOI(t *testing.T) {
	s := NewUnpaywallStrategy(testDeps(types.Credentials{UnpaywallEmail: "dev@example.org"}))
	_, err := s.PDFURL(context.Background(), "not-a-doi")
	assert.Error(t, err)
}

func TestUnpaywallRetriesServerError(t *testing.T) {
	calls := 0
	swapUnpaywallBase(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"is_oa": true, "best_oa_location": {"url_for_pdf": "https://repo.example/x.pdf"}}`))
	})

	deps := testDeps(types.Credentials{UnpaywallEmail: "dev@example.org"})
	deps.MaxRetries = 2
	s := NewUnpaywallStrategy(deps)
	s.policy.BaseDelay = time.Millisecond

	_, err := s.PDFURL(context.Background(), "10.1/x")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
