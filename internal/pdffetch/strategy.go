// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdffetch acquires open-access PDFs for ranked papers through
// a per-paper fallback chain of lookup strategies.
package pdffetch

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoPDF means a strategy completed its lookup but found no usable
// PDF URL (paper not open access, no download link, not indexed).
var ErrNoPDF = errors.New("no PDF available")

// ErrStrategyDisabled means a strategy is missing its credential and
// cannot run at all.
var ErrStrategyDisabled = errors.New("strategy disabled")

// Strategy resolves a DOI to a direct PDF URL. Strategies do not
// download; the chain owns download, validation and placement.
type Strategy interface {
	Name() string
	PDFURL(ctx context.Context, doi string) (string, error)
}

// BuildChain instantiates strategies by name in the configured order.
// Unknown names are an error so config typos fail loudly.
func BuildChain(names []string, deps StrategyDeps) ([]Strategy, error) {
	var chain []Strategy
	for _, name := range names {
		switch name {
		case "unpaywall":
			chain = append(chain, NewUnpaywallStrategy(deps))
		case "core":
			chain = append(chain, NewCOREStrategy(deps))
		case "dbis_browser":
			chain = append(chain, NewProxyStrategy(deps))
		default:
			return nil, fmt.Errorf("unknown acquisition strategy %q", name)
		}
	}
	return chain, nil
}
