// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litpipe/internal/agent"
	"github.com/pdiddy/litpipe/pkg/types"
)

// Engine orchestrates relevance scoring, the four-dimension breakdown,
// ordering and top-N selection.
type Engine struct {
	cfg     types.RankingConfig
	scorer  *Scorer
	relProv *RelevanceProvider
	log     zerolog.Logger
}

// NewEngine wires the scorer and relevance provider. spawner may be
// nil, which pins every paper to the keyword fallback.
func NewEngine(cfg types.RankingConfig, spawner agent.Spawner, log zerolog.Logger) *Engine {
	scorer := NewScorer(cfg)
	return &Engine{
		cfg:    cfg,
		scorer: scorer,
		relProv: &RelevanceProvider{
			Spawner:   spawner,
			Scorer:    scorer,
			BatchSize: cfg.RelevanceBatchSize,
			Log:       log,
		},
		log: log,
	}
}

// Rank scores all candidates and returns the top N for the mode,
// ordered by total score descending with ranks assigned from 1. Ties
// break by citation count, then publication year, then lexically
// smaller DOI.
func (e *Engine) Rank(ctx context.Context, query string, candidates []types.PaperRecord, mode types.Mode) []types.ScoredPaper {
	// Papers are keyed by DOI downstream (store primary key, PDF file
	// names), so records without one cannot be selected.
	kept := candidates[:0:0]
	for i := range candidates {
		if candidates[i].DOI == "" {
			e.log.Warn().Str("title", candidates[i].Title).
				Str("source", candidates[i].SourceAPI).
				Msg("dropping candidate without DOI")
			continue
		}
		kept = append(kept, candidates[i])
	}
	candidates = kept
	if len(candidates) == 0 {
		return nil
	}

	relevance := e.relProv.Scores(ctx, query, candidates)

	scored := make([]types.ScoredPaper, 0, len(candidates))
	for i := range candidates {
		p := candidates[i]
		rel := relevance[RelevanceKey(&p)]
		scored = append(scored, types.ScoredPaper{
			PaperRecord: p,
			Scores:      e.scorer.Score(&p, rel),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		return lessRanked(&scored[i], &scored[j])
	})

	topN := e.cfg.TopN
	if topN <= 0 {
		topN = mode.TopN()
	}

	if e.cfg.PortfolioBalance {
		scored = selectBalanced(scored, topN)
	} else if len(scored) > topN {
		scored = scored[:topN]
	}

	for i := range scored {
		scored[i].Rank = i + 1
	}

	e.log.Info().Int("candidates", len(candidates)).Int("selected", len(scored)).
		Str("mode", string(mode)).Msg("ranking complete")
	return scored
}

// lessRanked orders a before b: higher total, then more citations,
// then newer, then lexically smaller DOI.
func lessRanked(a, b *types.ScoredPaper) bool {
	if a.Scores.Total != b.Scores.Total {
		return a.Scores.Total > b.Scores.Total
	}
	if a.CitationCount() != b.CitationCount() {
		return a.CitationCount() > b.CitationCount()
	}
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	return a.DOI < b.DOI
}
