// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litpipe/internal/agent"
	"github.com/pdiddy/litpipe/internal/pdffetch"
	"github.com/pdiddy/litpipe/internal/search"
	"github.com/pdiddy/litpipe/internal/session"
	"github.com/pdiddy/litpipe/pkg/types"
)

// stubClient returns a fixed result set for every query.
type stubClient struct {
	name    string
	records []types.PaperRecord
}

func (c *stubClient) Name() string { return c.name }

func (c *stubClient) Search(ctx context.Context, query string, limit int) ([]types.PaperRecord, error) {
	return c.records, nil
}

func (c *stubClient) GetByDOI(ctx context.Context, doi string) (*types.PaperRecord, error) {
	return nil, nil
}

// urlStrategy resolves every DOI to the same URL.
type urlStrategy struct{ url string }

func (s *urlStrategy) Name() string { return "stub" }

func (s *urlStrategy) PDFURL(ctx context.Context, doi string) (string, error) {
	return s.url, nil
}

// failingStrategy never finds a PDF.
type failingStrategy struct{}

func (failingStrategy) Name() string { return "stub" }

func (failingStrategy) PDFURL(ctx context.Context, doi string) (string, error) {
	return "", pdffetch.ErrNoPDF
}

func testSpawner(t *testing.T) agent.Spawner {
	t.Helper()
	return agent.SpawnerFunc(func(ctx context.Context, kind agent.Kind, payload any) (json.RawMessage, error) {
		switch kind {
		case agent.KindQueryExpander:
			return json.Marshal(agent.ExpandOutput{
				ExpandedQueries: []string{"microservice observability", "distributed tracing"},
				Keywords:        []string{"microservice", "observability"},
			})
		case agent.KindDisciplineClassifier:
			return json.Marshal(agent.ClassifyOutput{
				Discipline: "computer_science",
				Confidence: 0.9,
			})
		case agent.KindRelevanceScorer:
			raw, _ := json.Marshal(payload)
			var in agent.RelevanceInput
			if err := json.Unmarshal(raw, &in); err != nil {
				return nil, err
			}
			out := agent.RelevanceOutput{}
			for _, p := range in.Papers {
				out.Scores = append(out.Scores, agent.RelevanceScore{
					PaperIndex:     p.Index,
					RelevanceScore: 0.8,
				})
			}
			return json.Marshal(out)
		default:
			return nil, agent.ErrUnavailable
		}
	})
}

func testConfig(t *testing.T) *types.PipelineConfig {
	t.Helper()
	cfg := types.DefaultPipelineConfig()
	cfg.Query = "microservice observability"
	cfg.Mode = types.ModeStandard
	cfg.CitationStyle = "apa7"
	cfg.BaseDir = t.TempDir()
	return &cfg
}

func candidateRecords() []types.PaperRecord {
	c1, c2 := 120, 4
	return []types.PaperRecord{
		{
			DOI:       "10.1/alpha",
			Title:     "Observability for Microservices",
			Authors:   []string{"John Smith"},
			Year:      2023,
			Venue:     "IEEE Software",
			Citations: &c1,
			SourceAPI: "crossref",
		},
		{
			DOI:       "10.2/beta",
			Title:     "Tracing Distributed Systems",
			Authors:   []string{"Alice Doe"},
			Year:      2019,
			Citations: &c2,
			SourceAPI: "openalex",
		},
	}
}

func pdfServer(t *testing.T) *httptest.Server {
	t.Helper()
	body := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("x"), 2048)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	srv := pdfServer(t)

	var out bytes.Buffer
	p := New(cfg, testSpawner(t), zerolog.Nop(), &out)
	p.clients = []search.Client{&stubClient{name: "crossref", records: candidateRecords()}}
	p.strategies = []pdffetch.Strategy{&urlStrategy{url: srv.URL}}

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Statistics.PapersFound)
	assert.Equal(t, 2, summary.Statistics.PapersSelected)
	assert.Equal(t, 2, summary.Statistics.PDFsDownloaded)
	assert.Equal(t, 1.0, summary.Statistics.PDFSuccessRate)
	// The downloaded bodies are not parseable PDFs, so extraction
	// yields nothing and the run is partial.
	assert.Zero(t, summary.QuoteCount)
	assert.True(t, summary.Partial)

	for _, name := range []string{CSVFile, ResultsFile, CSLFile} {
		if _, err := os.Stat(filepath.Join(summary.RunDir, name)); err != nil {
			t.Errorf("missing export %s: %v", name, err)
		}
	}
	for _, doi := range []string{"10.1_alpha", "10.2_beta"} {
		if _, err := os.Stat(filepath.Join(summary.RunDir, "pdfs", doi+".pdf")); err != nil {
			t.Errorf("missing pdf for %s: %v", doi, err)
		}
	}

	store, err := session.Open(summary.RunDir)
	require.NoError(t, err)
	defer store.Close()

	info, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summary.SessionID, info.ID)
	assert.Equal(t, session.StatusPartial, info.Status)

	papers, err := store.LoadPapers(context.Background())
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, "10.1/alpha", papers[0].DOI, "higher-cited recent paper ranks first")
	assert.Equal(t, "stub", papers[0].PDFSource)
	assert.NotEmpty(t, papers[0].PDFPath)

	var results map[string]any
	raw, err := os.ReadFile(filepath.Join(summary.RunDir, ResultsFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &results))
	assert.Equal(t, session.StatusPartial, results["status"])
	assert.Equal(t, "microservice observability", results["query"])
}

func TestRunPartialWhenNoPDFs(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	p := New(cfg, testSpawner(t), zerolog.Nop(), &out)
	p.clients = []search.Client{&stubClient{name: "crossref", records: candidateRecords()}}
	p.strategies = []pdffetch.Strategy{failingStrategy{}}

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Partial)
	assert.Zero(t, summary.Statistics.PDFsDownloaded)
	assert.Zero(t, summary.Statistics.PDFSuccessRate)
}

func TestRunSurvivesCandidatesWithoutDOI(t *testing.T) {
	cfg := testConfig(t)

	// Two DOI-less records would collide on the store's per-session
	// paper key if they reached the save path.
	records := append(candidateRecords(),
		types.PaperRecord{Title: "Telemetry Pipelines Without Registration", Year: 2021, SourceAPI: "semantic_scholar"},
		types.PaperRecord{Title: "A Survey of Service Mesh Failures", Year: 2020, SourceAPI: "openalex"},
	)

	var out bytes.Buffer
	p := New(cfg, testSpawner(t), zerolog.Nop(), &out)
	p.clients = []search.Client{&stubClient{name: "crossref", records: records}}
	p.strategies = []pdffetch.Strategy{failingStrategy{}}

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Statistics.PapersFound)
	assert.Equal(t, 2, summary.Statistics.PapersSelected)

	store, err := session.Open(summary.RunDir)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.Load(context.Background())
	require.NoError(t, err)
	papers, err := store.LoadPapers(context.Background())
	require.NoError(t, err)
	require.Len(t, papers, 2)
	for _, paper := range papers {
		assert.NotEmpty(t, paper.DOI)
	}
}

func TestRunFatalWithoutCandidates(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	p := New(cfg, nil, zerolog.Nop(), &out)
	p.clients = []search.Client{&stubClient{name: "crossref"}}
	p.strategies = []pdffetch.Strategy{failingStrategy{}}

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, search.ErrNoResults)

	// The failure must still be recorded in the session.
	entries, err := os.ReadDir(cfg.BaseDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	store, err := session.Open(filepath.Join(cfg.BaseDir, entries[0].Name()))
	require.NoError(t, err)
	defer store.Close()

	info, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.StatusFailed, info.Status)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Query = ""

	p := New(cfg, nil, zerolog.Nop(), &bytes.Buffer{})
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected validation error for empty query")
	}
}

func TestRunRejectsUnknownStyle(t *testing.T) {
	cfg := testConfig(t)
	cfg.CitationStyle = "vancouver"

	p := New(cfg, nil, zerolog.Nop(), &bytes.Buffer{})
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error for unknown citation style")
	}
}

func TestExpandQueryAgent(t *testing.T) {
	exp := expandQuery(context.Background(), testSpawner(t), "microservice observability", types.ModeStandard, zerolog.Nop())
	assert.Equal(t, "agent", exp.Method)
	require.NotEmpty(t, exp.Queries)
	assert.Equal(t, "microservice observability", exp.Queries[0])
	assert.Contains(t, exp.Queries, "distributed tracing")
	assert.Contains(t, exp.Keywords, "observability")
}

func TestExpandQueryFallback(t *testing.T) {
	exp := expandQuery(context.Background(), nil, "serverless cold starts", types.ModeQuick, zerolog.Nop())
	assert.Equal(t, "keyword", exp.Method)
	assert.Equal(t, "serverless cold starts", exp.Queries[0])
	assert.LessOrEqual(t, len(exp.Queries), maxQueryVariants)
	assert.Contains(t, exp.Queries, `"serverless cold starts"`)
	assert.Contains(t, exp.Queries, "serverless AND cold AND starts")
	assert.Equal(t, []string{"serverless", "cold", "starts"}, exp.Keywords)
}

func TestExpandQuerySingleTerm(t *testing.T) {
	exp := expandQuery(context.Background(), nil, "kubernetes", types.ModeQuick, zerolog.Nop())
	assert.Equal(t, []string{"kubernetes"}, exp.Queries)
}

func TestUniqueQueriesCapsAndDedupes(t *testing.T) {
	got := uniqueQueries("q", []string{"a", "a", "q", "b", "", "c", "d", "e"})
	assert.Equal(t, []string{"q", "a", "b", "c", "d"}, got)
}
