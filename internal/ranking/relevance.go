// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litpipe/internal/agent"
	"github.com/pdiddy/litpipe/pkg/types"
)

// RelevanceProvider maps DOI → semantic relevance via the LLM agent,
// batched to respect the agent's context window. Any batch failure
// degrades that batch to the keyword fallback.
type RelevanceProvider struct {
	Spawner   agent.Spawner
	Scorer    *Scorer
	BatchSize int
	Log       zerolog.Logger
}

// Scores returns a relevance score in [0,1] for every paper, keyed by
// DOI. Papers without a DOI key by title instead; RelevanceKey picks
// the key.
func (rp *RelevanceProvider) Scores(ctx context.Context, query string, papers []types.PaperRecord) map[string]float64 {
	scores := make(map[string]float64, len(papers))

	batchSize := rp.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	for start := 0; start < len(papers); start += batchSize {
		end := start + batchSize
		if end > len(papers) {
			end = len(papers)
		}
		batch := papers[start:end]

		agentScores, err := rp.scoreBatch(ctx, query, batch)
		if err != nil {
			rp.Log.Warn().Err(err).Int("batch_start", start).Int("batch_size", len(batch)).
				Msg("relevance agent failed, using keyword fallback")
		}

		for i := range batch {
			p := &batch[i]
			if score, ok := agentScores[i]; ok {
				scores[RelevanceKey(p)] = clamp01(score)
				continue
			}
			scores[RelevanceKey(p)] = rp.Scorer.KeywordRelevance(query, p)
		}
	}
	return scores
}

// scoreBatch runs one agent call. The returned map is keyed by batch
// index; a nil map means fall back for the whole batch.
func (rp *RelevanceProvider) scoreBatch(ctx context.Context, query string, batch []types.PaperRecord) (map[int]float64, error) {
	input := agent.RelevanceInput{Query: query}
	for i, p := range batch {
		input.Papers = append(input.Papers, agent.RelevancePaper{
			Index:    i,
			Title:    p.Title,
			Abstract: p.Abstract,
			Authors:  p.Authors,
			Year:     p.Year,
		})
	}

	var out agent.RelevanceOutput
	if err := agent.Decode(ctx, rp.Spawner, agent.KindRelevanceScorer, input, &out); err != nil {
		return nil, err
	}

	scores := make(map[int]float64, len(out.Scores))
	for _, s := range out.Scores {
		if s.PaperIndex < 0 || s.PaperIndex >= len(batch) {
			continue
		}
		scores[s.PaperIndex] = s.RelevanceScore
	}
	return scores, nil
}

// RelevanceKey identifies a paper in a relevance map: the DOI when
// present, otherwise the title.
func RelevanceKey(p *types.PaperRecord) string {
	if p.DOI != "" {
		return p.DOI
	}
	return p.Title
}
