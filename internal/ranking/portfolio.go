// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"strings"

	"github.com/pdiddy/litpipe/pkg/types"
)

// portfolioPenaltyWeight scales the diversity penalty applied during
// balanced selection.
const portfolioPenaltyWeight = 0.1

// selectBalanced greedily picks up to topN papers from the
// score-ordered input, penalizing each candidate by the fraction of
// already-selected papers sharing its venue or primary author. The
// stored score breakdowns stay untouched; the penalty only steers
// selection order.
func selectBalanced(ordered []types.ScoredPaper, topN int) []types.ScoredPaper {
	if topN <= 0 || len(ordered) == 0 {
		return nil
	}
	if len(ordered) <= topN {
		return ordered
	}

	remaining := make([]types.ScoredPaper, len(ordered))
	copy(remaining, ordered)

	selected := make([]types.ScoredPaper, 0, topN)
	for len(selected) < topN && len(remaining) > 0 {
		bestIdx := 0
		bestScore := adjustedScore(&remaining[0], selected)
		for i := 1; i < len(remaining); i++ {
			if s := adjustedScore(&remaining[i], selected); s > bestScore {
				bestIdx, bestScore = i, s
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

func adjustedScore(p *types.ScoredPaper, selected []types.ScoredPaper) float64 {
	if len(selected) == 0 {
		return p.Scores.Total
	}
	shared := 0
	for i := range selected {
		if sharesVenueOrAuthor(p, &selected[i]) {
			shared++
		}
	}
	penalty := portfolioPenaltyWeight * float64(shared) / float64(len(selected))
	return p.Scores.Total - penalty
}

func sharesVenueOrAuthor(a, b *types.ScoredPaper) bool {
	va := strings.ToLower(strings.TrimSpace(a.Venue))
	vb := strings.ToLower(strings.TrimSpace(b.Venue))
	if va != "" && va == vb {
		return true
	}
	if len(a.Authors) > 0 && len(b.Authors) > 0 {
		return strings.EqualFold(a.Authors[0], b.Authors[0])
	}
	return false
}
