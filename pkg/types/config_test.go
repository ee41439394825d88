// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func validConfig() PipelineConfig {
	cfg := DefaultPipelineConfig()
	cfg.Query = "quantum error correction"
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
	}{
		{"empty query", func(c *PipelineConfig) { c.Query = "" }},
		{"unknown mode", func(c *PipelineConfig) { c.Mode = Mode("exhaustive") }},
		{"unknown citation style", func(c *PipelineConfig) { c.CitationStyle = "bibtex" }},
		{"empty base dir", func(c *PipelineConfig) { c.BaseDir = "" }},
		{"zero search limit", func(c *PipelineConfig) { c.Search.LimitPerSource = 0 }},
		{"oversized search limit", func(c *PipelineConfig) { c.Search.LimitPerSource = 500 }},
		{"negative weight", func(c *PipelineConfig) { c.Ranking.RecencyWeight = -0.1 }},
		{"empty acquisition chain", func(c *PipelineConfig) { c.Acquisition.Chain = nil }},
		{"zero max quotes", func(c *PipelineConfig) { c.Extraction.MaxQuotes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}
