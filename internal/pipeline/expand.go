// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litpipe/internal/agent"
	"github.com/pdiddy/litpipe/internal/ranking"
	"github.com/pdiddy/litpipe/pkg/types"
)

// maxQueryVariants caps the expanded query set, original included.
const maxQueryVariants = 5

// Expansion is the result of the query-expansion phase.
type Expansion struct {
	// Queries always starts with the original query.
	Queries  []string
	Keywords []string
	// Method is "agent" or "keyword".
	Method string
}

// expandQuery asks the query_expander agent for variants and falls back
// to keyword recombination when the agent is unavailable. The phase
// never fails: at worst the original query is used alone.
func expandQuery(ctx context.Context, spawner agent.Spawner, query string, mode types.Mode, log zerolog.Logger) Expansion {
	if spawner != nil {
		var out agent.ExpandOutput
		err := agent.Decode(ctx, spawner, agent.KindQueryExpander, agent.ExpandInput{
			Query: query,
			Mode:  string(mode),
		}, &out)
		if err == nil {
			return Expansion{
				Queries:  uniqueQueries(query, out.ExpandedQueries),
				Keywords: out.Keywords,
				Method:   "agent",
			}
		}
		log.Warn().Err(err).Msg("query expansion agent failed, using keyword variants")
	}
	return keywordExpansion(query)
}

// keywordExpansion recombines the query's terms into search variants:
// the original, the exact phrase, and AND-joined terms.
func keywordExpansion(query string) Expansion {
	keywords := ranking.Tokenize(query)
	var variants []string
	if len(keywords) > 1 {
		variants = append(variants, fmt.Sprintf("%q", query))
		variants = append(variants, strings.Join(keywords, " AND "))
		variants = append(variants, strings.Join(keywords, " "))
	}
	return Expansion{
		Queries:  uniqueQueries(query, variants),
		Keywords: keywords,
		Method:   "keyword",
	}
}

// uniqueQueries puts the original first and drops duplicates and
// blanks, capped at maxQueryVariants.
func uniqueQueries(original string, variants []string) []string {
	queries := []string{original}
	seen := map[string]bool{strings.TrimSpace(original): true}
	for _, v := range variants {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		queries = append(queries, v)
		if len(queries) == maxQueryVariants {
			break
		}
	}
	return queries
}
