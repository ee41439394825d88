// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/pdiddy/litpipe/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func intPtr(n int) *int { return &n }

func TestBeginAndLoad(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	cfg := types.DefaultPipelineConfig()
	id, err := store.Begin(ctx, "serverless cold starts", types.ModeStandard, &cfg)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("empty session id")
	}

	info, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.ID != id {
		t.Errorf("id = %q, want %q", info.ID, id)
	}
	if info.Query != "serverless cold starts" {
		t.Errorf("query = %q", info.Query)
	}
	if info.Mode != types.ModeStandard {
		t.Errorf("mode = %q", info.Mode)
	}
	if info.Status != StatusRunning {
		t.Errorf("status = %q, want %q", info.Status, StatusRunning)
	}
	if info.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
	if !info.CompletedAt.IsZero() {
		t.Error("completed_at set before Finish")
	}
}

func TestLoadEmptyStore(t *testing.T) {
	store := testStore(t)
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestFinishSetsStatusAndCompletedAt(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if _, err := store.Begin(ctx, "q", types.ModeQuick, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.Finish(ctx, StatusPartial); err != nil {
		t.Fatal(err)
	}

	info, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != StatusPartial {
		t.Errorf("status = %q, want %q", info.Status, StatusPartial)
	}
	if info.CompletedAt.IsZero() {
		t.Error("completed_at not set")
	}
}

func TestCandidatesRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	if _, err := store.Begin(ctx, "q", types.ModeQuick, nil); err != nil {
		t.Fatal(err)
	}

	in := []types.PaperRecord{
		{
			DOI:         "10.1/a",
			Title:       "First",
			Authors:     []string{"Ada Lovelace", "Grace Hopper"},
			Year:        2022,
			Venue:       "CACM",
			Abstract:    "An abstract.",
			Citations:   intPtr(42),
			SourceAPI:   "crossref",
			APIMetadata: map[string]any{"type": "journal-article"},
		},
		{
			Title:     "No DOI here",
			Authors:   []string{"Anon"},
			SourceAPI: "openalex",
		},
	}
	if err := store.SaveCandidates(ctx, in); err != nil {
		t.Fatal(err)
	}

	out, err := store.LoadCandidates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}
	got := out[0]
	if got.DOI != "10.1/a" || got.Title != "First" || got.Year != 2022 {
		t.Errorf("fields mismatch: %+v", got)
	}
	if len(got.Authors) != 2 || got.Authors[0] != "Ada Lovelace" {
		t.Errorf("authors = %v", got.Authors)
	}
	if got.Citations == nil || *got.Citations != 42 {
		t.Errorf("citations = %v", got.Citations)
	}
	if got.APIMetadata["type"] != "journal-article" {
		t.Errorf("api_metadata = %v", got.APIMetadata)
	}
	if out[1].Citations != nil {
		t.Error("missing citations must round-trip as nil, not zero")
	}
}

func TestSaveCandidatesReplaces(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	if _, err := store.Begin(ctx, "q", types.ModeQuick, nil); err != nil {
		t.Fatal(err)
	}

	if err := store.SaveCandidates(ctx, []types.PaperRecord{{DOI: "10.1/old"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveCandidates(ctx, []types.PaperRecord{{DOI: "10.1/new"}}); err != nil {
		t.Fatal(err)
	}

	out, err := store.LoadCandidates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].DOI != "10.1/new" {
		t.Fatalf("candidates = %+v, want single 10.1/new", out)
	}
}

func TestPapersRoundTripOrderedByRank(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	if _, err := store.Begin(ctx, "q", types.ModeQuick, nil); err != nil {
		t.Fatal(err)
	}

	papers := []types.ScoredPaper{
		{
			PaperRecord: types.PaperRecord{DOI: "10.1/b", Title: "Second", Citations: intPtr(5), SourceAPI: "crossref"},
			Scores:      types.ScoreBreakdown{Relevance: 0.5, Recency: 0.4, Quality: 0.3, Authority: 0.2, Total: 0.41},
			Rank:        2,
		},
		{
			PaperRecord: types.PaperRecord{DOI: "10.1/a", Title: "First", Volume: "12", Issue: "3", Pages: "1-20", SourceAPI: "openalex"},
			Scores:      types.ScoreBreakdown{Relevance: 0.9, Recency: 0.8, Quality: 0.7, Authority: 0.6, Total: 0.79},
			Rank:        1,
			PDFPath:     "/runs/x/pdfs/10.1_a.pdf",
			PDFSource:   "unpaywall",
		},
	}
	if err := store.SavePapers(ctx, papers); err != nil {
		t.Fatal(err)
	}

	out, err := store.LoadPapers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d papers, want 2", len(out))
	}
	if out[0].DOI != "10.1/a" || out[1].DOI != "10.1/b" {
		t.Errorf("order = %q, %q; want rank order", out[0].DOI, out[1].DOI)
	}
	if out[0].Scores.Total != 0.79 || out[0].Rank != 1 {
		t.Errorf("scores/rank mismatch: %+v", out[0].Scores)
	}
	if out[0].PDFPath != "/runs/x/pdfs/10.1_a.pdf" || out[0].PDFSource != "unpaywall" {
		t.Errorf("pdf columns mismatch: %+v", out[0])
	}
	if out[0].Volume != "12" || out[0].Pages != "1-20" {
		t.Errorf("positional fields mismatch: %+v", out[0].PaperRecord)
	}
}

func TestQuotesRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	if _, err := store.Begin(ctx, "q", types.ModeQuick, nil); err != nil {
		t.Fatal(err)
	}

	quotes := []types.Quote{
		{
			Text:          "governance frameworks ensure compliance",
			PaperDOI:      "10.1/a",
			Page:          3,
			ContextBefore: "we argue that",
			ContextAfter:  "across regulated industries",
			Relevance:     0.9,
			WordCount:     4,
			Validated:     true,
		},
	}
	if err := store.SaveQuotes(ctx, quotes); err != nil {
		t.Fatal(err)
	}

	out, err := store.LoadQuotes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d quotes, want 1", len(out))
	}
	q := out[0]
	if q.Text != quotes[0].Text || q.Page != 3 || !q.Validated {
		t.Errorf("quote mismatch: %+v", q)
	}
	if q.ContextBefore != "we argue that" || q.ContextAfter != "across regulated industries" {
		t.Errorf("contexts mismatch: %+v", q)
	}
	if q.WordCount != 4 {
		t.Errorf("word count = %d, want 4", q.WordCount)
	}
}

func TestReopenResumesSession(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	id, err := first.Begin(ctx, "q", types.ModeDeep, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.SaveCandidates(ctx, []types.PaperRecord{{DOI: "10.1/a"}}); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	info, err := second.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.ID != id {
		t.Errorf("resumed id = %q, want %q", info.ID, id)
	}
	out, err := second.LoadCandidates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d candidates after reopen, want 1", len(out))
	}
}
