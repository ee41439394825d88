// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries bibliographic APIs and returns unified,
// deduplicated paper records.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litpipe/pkg/types"
)

// ErrNoResults means every source/query combination came back empty or
// failed. This is the only fatal outcome of the search phase.
var ErrNoResults = errors.New("no search results from any source")

// Output holds the merged candidate set and per-source accounting.
type Output struct {
	Candidates   []types.PaperRecord
	DupsRemoved  int
	SourceErrors []string
}

// FanOut runs every query against every client concurrently, merges
// and deduplicates the results. Individual source failures degrade to
// warnings; only an empty merged set is an error.
func FanOut(ctx context.Context, queries []string, clients []Client, cfg types.SearchConfig, log zerolog.Logger, w io.Writer) (Output, error) {
	if len(queries) == 0 {
		return Output{}, fmt.Errorf("no queries to search")
	}
	if len(clients) == 0 {
		return Output{}, fmt.Errorf("no search clients configured")
	}

	type sourceResult struct {
		records []types.PaperRecord
		err     error
		name    string
		query   string
	}

	ch := make(chan sourceResult, len(clients)*len(queries))
	var wg sync.WaitGroup

	for _, c := range clients {
		for _, q := range queries {
			wg.Add(1)
			go func(c Client, q string) {
				defer wg.Done()
				records, err := c.Search(ctx, q, cfg.LimitPerSource)
				ch <- sourceResult{records: records, err: err, name: c.Name(), query: q}
			}(c, q)
		}
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.PaperRecord
	var sourceErrors []string
	for sr := range ch {
		if sr.err != nil {
			msg := fmt.Sprintf("%s: %v", sr.name, sr.err)
			sourceErrors = append(sourceErrors, msg)
			log.Warn().Str("source", sr.name).Str("query", sr.query).Err(sr.err).Msg("source failed")
			fmt.Fprintf(w, "warning: %s failed for %q: %v\n", sr.name, sr.query, sr.err)
			continue
		}
		log.Debug().Str("source", sr.name).Str("query", sr.query).Int("results", len(sr.records)).Msg("source done")
		all = append(all, sr.records...)
	}

	deduped, removed := Deduplicate(all, cfg.TitleSimilarityThreshold)
	if len(deduped) == 0 {
		return Output{SourceErrors: sourceErrors}, ErrNoResults
	}

	log.Info().Int("candidates", len(deduped)).Int("duplicates_removed", removed).Msg("search complete")
	return Output{
		Candidates:   deduped,
		DupsRemoved:  removed,
		SourceErrors: sourceErrors,
	}, nil
}
