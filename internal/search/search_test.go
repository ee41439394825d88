// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litpipe/pkg/types"
)

// fakeClient returns canned records or a canned error.
type fakeClient struct {
	name    string
	records []types.PaperRecord
	err     error
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) Search(ctx context.Context, query string, limit int) ([]types.PaperRecord, error) {
	return f.records, f.err
}

func (f *fakeClient) GetByDOI(ctx context.Context, doi string) (*types.PaperRecord, error) {
	return nil, fmt.Errorf("unimplemented")
}

func TestFanOutMergesAcrossSources(t *testing.T) {
	clients := []Client{
		&fakeClient{name: "crossref", records: []types.PaperRecord{
			{DOI: "10.1/a", Title: "A", SourceAPI: "crossref"},
			{DOI: "10.1/b", Title: "B", SourceAPI: "crossref"},
		}},
		&fakeClient{name: "openalex", records: []types.PaperRecord{
			{DOI: "10.1/a", Title: "A", Abstract: "longer abstract", SourceAPI: "openalex"},
		}},
	}

	var buf bytes.Buffer
	out, err := FanOut(context.Background(), []string{"q"}, clients, testSearchConfig(), zerolog.Nop(), &buf)
	require.NoError(t, err)
	assert.Len(t, out.Candidates, 2)
	assert.Equal(t, 1, out.DupsRemoved)
	assert.Empty(t, out.SourceErrors)
}

func TestFanOutDegradesOnSourceFailure(t *testing.T) {
	clients := []Client{
		&fakeClient{name: "crossref", err: errors.New("boom")},
		&fakeClient{name: "openalex", records: []types.PaperRecord{
			{DOI: "10.1/a", Title: "A", SourceAPI: "openalex"},
		}},
	}

	var buf bytes.Buffer
	out, err := FanOut(context.Background(), []string{"q"}, clients, testSearchConfig(), zerolog.Nop(), &buf)
	require.NoError(t, err)
	assert.Len(t, out.Candidates, 1)
	require.Len(t, out.SourceErrors, 1)
	assert.Contains(t, out.SourceErrors[0], "crossref")
	assert.Contains(t, buf.String(), "warning: crossref failed")
}

func TestFanOutAllSourcesFail(t *testing.T) {
	clients := []Client{
		&fakeClient{name: "crossref", err: errors.New("boom")},
		&fakeClient{name: "openalex", err: errors.New("boom")},
	}

	var buf bytes.Buffer
	_, err := FanOut(context.Background(), []string{"q"}, clients, testSearchConfig(), zerolog.Nop(), &buf)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestFanOutMultipleQueries(t *testing.T) {
	clients := []Client{
		&fakeClient{name: "crossref", records: []types.PaperRecord{
			{DOI: "10.1/a", Title: "A", SourceAPI: "crossref"},
		}},
	}

	var buf bytes.Buffer
	out, err := FanOut(context.Background(), []string{"q1", "q2", "q3"}, clients, testSearchConfig(), zerolog.Nop(), &buf)
	require.NoError(t, err)
	// Same record from every query collapses to one candidate.
	assert.Len(t, out.Candidates, 1)
	assert.Equal(t, 2, out.DupsRemoved)
}

func TestFanOutRejectsEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	_, err := FanOut(context.Background(), nil, []Client{&fakeClient{name: "x"}}, testSearchConfig(), zerolog.Nop(), &buf)
	require.Error(t, err)

	_, err = FanOut(context.Background(), []string{"q"}, nil, testSearchConfig(), zerolog.Nop(), &buf)
	require.Error(t, err)
}
