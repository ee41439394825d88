// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdffetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litpipe/pkg/types"
)

func swapCOREBase(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	orig := coreAPIBase
	coreAPIBase = srv.URL
	t.Cleanup(func() {
		coreAPIBase = orig
		srv.Close()
	})
}

func newCOREStrategy(t *testing.T, apiKey string) *COREStrategy {
	s := NewCOREStrategy(testDeps(types.Credentials{COREAPIKey: apiKey}))
	// The free-tier limiter paces at 10/min; tests need full speed.
	s.limiter = testFastLimiter()
	return s
}

func TestCOREPDFURL(t *testing.T) {
	var gotAuth, gotQuery string
	swapCOREBase(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"results": [{"downloadUrl": "https://core.example/dl.pdf"}]}`))
	})

	s := newCOREStrategy(t, "sekrit")
	url, err := s.PDFURL(context.Background(), "10.1/x")
	require.NoError(t, err)
	assert.Equal(t, "https://core.example/dl.pdf", url)
	assert.Equal(t, "Bearer sekrit", gotAuth)
	assert.Equal(t, `doi:"10.1/x"`, gotQuery)
}

func TestCORELinkFallback(t *testing.T) {
	swapCOREBase(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"links": [
			{"type": "display", "url": "https://core.example/view"},
			{"type": "download", "url": "https://core.example/get"}
		]}]}`))
	})

	s := newCOREStrategy(t, "sekrit")
	url, err := s.PDFURL(context.Background(), "10.1/x")
	require.NoError(t, err)
	assert.Equal(t, "https://core.example/get", url)
}

func TestCORENoResults(t *testing.T) {
	swapCOREBase(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	})

	s := newCOREStrategy(t, "sekrit")
	_, err := s.PDFURL(context.Background(), "10.1/x")
	assert.ErrorIs(t, err, ErrNoPDF)
}

func TestCOREDisabledWithoutKey(t *testing.T) {
	s := NewCOREStrategy(testDeps(types.Credentials{}))
	_, err := s.PDFURL(context.Background(), "10.1/x")
	assert.ErrorIs(t, err, ErrStrategyDisabled)
}
