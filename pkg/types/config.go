// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// HTTPConfig holds shared HTTP settings used by stages that make network
// requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litpipe/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Credentials holds optional API credentials. Absence of a credential
// puts the corresponding client into its anonymous tier.
type Credentials struct {
	AnthropicAPIKey       string `json:"-" yaml:"-" mapstructure:"-"`
	COREAPIKey            string `json:"-" yaml:"-" mapstructure:"-"`
	UnpaywallEmail        string `json:"-" yaml:"-" mapstructure:"-"`
	SemanticScholarAPIKey string `json:"-" yaml:"-" mapstructure:"-"`
	CrossrefEmail         string `json:"-" yaml:"-" mapstructure:"-"`
	OpenAlexEmail         string `json:"-" yaml:"-" mapstructure:"-"`
}

// SearchConfig holds settings for the search phase.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// LimitPerSource is the maximum results requested from each API.
	LimitPerSource int `json:"limit_per_source" yaml:"limit_per_source" mapstructure:"limit_per_source" validate:"gt=0,lte=200"`

	// MaxRetries bounds retry attempts per API call.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`

	// TitleSimilarityThreshold is the token-sort ratio above which two
	// DOI-less records are considered duplicates.
	TitleSimilarityThreshold float64 `json:"title_similarity_threshold" yaml:"title_similarity_threshold" mapstructure:"title_similarity_threshold" validate:"gt=0,lte=1"`
}

// RankingConfig holds scoring weights and selection settings.
type RankingConfig struct {
	// Weights for the four scored dimensions. Any non-negative set is
	// accepted and renormalized to sum 1.
	RelevanceWeight float64 `json:"relevance_weight" yaml:"relevance_weight" mapstructure:"relevance_weight" validate:"gte=0"`
	RecencyWeight   float64 `json:"recency_weight" yaml:"recency_weight" mapstructure:"recency_weight" validate:"gte=0"`
	QualityWeight   float64 `json:"quality_weight" yaml:"quality_weight" mapstructure:"quality_weight" validate:"gte=0"`
	AuthorityWeight float64 `json:"authority_weight" yaml:"authority_weight" mapstructure:"authority_weight" validate:"gte=0"`

	// TopN overrides the mode default when positive.
	TopN int `json:"top_n" yaml:"top_n" mapstructure:"top_n" validate:"gte=0"`

	// PortfolioBalance enables the diversity penalty during selection.
	PortfolioBalance bool `json:"portfolio_balance" yaml:"portfolio_balance" mapstructure:"portfolio_balance"`

	// RelevanceBatchSize bounds papers per relevance-agent call.
	RelevanceBatchSize int `json:"relevance_batch_size" yaml:"relevance_batch_size" mapstructure:"relevance_batch_size" validate:"gt=0"`
}

// AcquisitionConfig holds settings for the PDF acquisition phase.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// DownloadTimeout bounds a single PDF download.
	DownloadTimeout time.Duration `json:"download_timeout" yaml:"download_timeout" mapstructure:"download_timeout"`

	// Chain orders the strategy names to try per paper.
	Chain []string `json:"chain" yaml:"chain" mapstructure:"chain" validate:"min=1"`

	// MaxRetries bounds retry attempts inside each strategy's HTTP calls.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`
}

// ExtractionConfig holds settings for the quote extraction phase.
type ExtractionConfig struct {
	// MaxQuotes bounds quotes requested per paper.
	MaxQuotes int `json:"max_quotes" yaml:"max_quotes" mapstructure:"max_quotes" validate:"gt=0"`

	// MaxQuoteWords is the verbatim quote word limit.
	MaxQuoteWords int `json:"max_quote_words" yaml:"max_quote_words" mapstructure:"max_quote_words" validate:"gt=0"`

	// ContextWords is the context snippet size on either side.
	ContextWords int `json:"context_words" yaml:"context_words" mapstructure:"context_words" validate:"gt=0"`
}

// AgentConfig holds settings for the LLM agent backend.
type AgentConfig struct {
	// Model is the model identifier sent to the Messages API.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// MaxTokens bounds the response size per agent call.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens" validate:"gt=0"`

	// Disabled forces every consumer onto its keyword fallback.
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`
}

// PipelineConfig groups all stage configurations plus the run surface.
type PipelineConfig struct {
	Query         string `json:"query" yaml:"query" mapstructure:"query" validate:"required"`
	Mode          Mode   `json:"mode" yaml:"mode" mapstructure:"mode" validate:"oneof=quick standard deep"`
	CitationStyle string `json:"citation_style" yaml:"citation_style" mapstructure:"citation_style" validate:"oneof=apa7 ieee harvard mla chicago"`
	BaseDir       string `json:"base_dir" yaml:"base_dir" mapstructure:"base_dir" validate:"required"`

	Search      SearchConfig      `json:"search" yaml:"search" mapstructure:"search"`
	Ranking     RankingConfig     `json:"ranking" yaml:"ranking" mapstructure:"ranking"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Extraction  ExtractionConfig  `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Agent       AgentConfig       `json:"agent" yaml:"agent" mapstructure:"agent"`

	Credentials Credentials `json:"-" yaml:"-" mapstructure:"-"`
}

var validate = validator.New()

// Validate checks the configuration against its declared constraints.
// Violations are fatal at startup; nothing downstream re-checks them.
func (c *PipelineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DefaultPipelineConfig returns the configuration used when no file or
// flags override it.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Mode:          ModeStandard,
		CitationStyle: "apa7",
		BaseDir:       "runs",
		Search: SearchConfig{
			HTTPConfig:               HTTPConfig{Timeout: 30 * time.Second, UserAgent: "litpipe/0.1"},
			LimitPerSource:           50,
			MaxRetries:               3,
			TitleSimilarityThreshold: 0.92,
		},
		Ranking: RankingConfig{
			RelevanceWeight:    0.4,
			RecencyWeight:      0.2,
			QualityWeight:      0.2,
			AuthorityWeight:    0.2,
			RelevanceBatchSize: 50,
		},
		Acquisition: AcquisitionConfig{
			HTTPConfig:      HTTPConfig{Timeout: 30 * time.Second, UserAgent: "litpipe/0.1"},
			DownloadTimeout: 120 * time.Second,
			Chain:           []string{"unpaywall", "core"},
			MaxRetries:      3,
		},
		Extraction: ExtractionConfig{
			MaxQuotes:     5,
			MaxQuoteWords: 25,
			ContextWords:  50,
		},
		Agent: AgentConfig{
			Model:     "claude-haiku-4-5",
			MaxTokens: 4096,
		},
	}
}
