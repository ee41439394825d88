// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdffetch

import (
	"context"
	"fmt"

	"github.com/pdiddy/litpipe/internal/agent"
	"github.com/pdiddy/litpipe/pkg/types"
)

// ProxyStrategy delegates to the external browser-automation agent
// that drives institutional-proxy access. The core only carries the
// contract; without a spawner the strategy is disabled.
type ProxyStrategy struct {
	spawner    agent.Spawner
	discipline string
	databases  []string
}

// NewProxyStrategy builds the strategy from the shared deps.
func NewProxyStrategy(deps StrategyDeps) *ProxyStrategy {
	return &ProxyStrategy{
		spawner:    deps.Spawner,
		discipline: deps.Discipline,
		databases:  deps.Databases,
	}
}

// Name returns the strategy tag recorded on success.
func (s *ProxyStrategy) Name() string { return "dbis_browser" }

// PDFURL asks the agent for a fetchable PDF URL.
func (s *ProxyStrategy) PDFURL(ctx context.Context, doi string) (string, error) {
	if s.spawner == nil {
		return "", fmt.Errorf("no browser agent configured: %w", ErrStrategyDisabled)
	}
	norm := types.NormalizeDOI(doi)
	if norm == "" {
		return "", fmt.Errorf("invalid DOI %q", doi)
	}

	input := agent.ProxyFetchInput{
		DOI:        norm,
		Discipline: s.discipline,
		Databases:  s.databases,
	}
	var out agent.ProxyFetchOutput
	if err := agent.Decode(ctx, s.spawner, agent.KindProxyFetcher, input, &out); err != nil {
		return "", err
	}
	if out.PDFURL == "" {
		return "", fmt.Errorf("browser agent found no PDF for %s: %w", norm, ErrNoPDF)
	}
	return out.PDFURL, nil
}
