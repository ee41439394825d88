// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API credentials from the environment, with an
// optional .env file merged in first. Every credential is optional;
// a missing one puts the corresponding client into its anonymous tier.
package secrets

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/pdiddy/litpipe/pkg/types"
)

// Environment variable names for each credential.
const (
	EnvAnthropicAPIKey       = "ANTHROPIC_API_KEY"
	EnvCOREAPIKey            = "CORE_API_KEY"
	EnvUnpaywallEmail        = "UNPAYWALL_EMAIL"
	EnvSemanticScholarAPIKey = "SEMANTIC_SCHOLAR_API_KEY"
	EnvCrossrefEmail         = "CROSSREF_EMAIL"
	EnvOpenAlexEmail         = "OPENALEX_EMAIL"
)

// Load merges the .env file at envPath (if it exists) into the process
// environment without overriding already-set variables, then reads the
// credential set. An absent or unreadable .env file is not an error.
func Load(envPath string) types.Credentials {
	if envPath != "" {
		// godotenv.Load never overrides variables already set in the
		// environment, so explicit exports win over the file.
		_ = godotenv.Load(envPath)
	}
	return FromEnv()
}

// FromEnv reads the credential set from the process environment.
func FromEnv() types.Credentials {
	return types.Credentials{
		AnthropicAPIKey:       os.Getenv(EnvAnthropicAPIKey),
		COREAPIKey:            os.Getenv(EnvCOREAPIKey),
		UnpaywallEmail:        os.Getenv(EnvUnpaywallEmail),
		SemanticScholarAPIKey: os.Getenv(EnvSemanticScholarAPIKey),
		CrossrefEmail:         os.Getenv(EnvCrossrefEmail),
		OpenAlexEmail:         os.Getenv(EnvOpenAlexEmail),
	}
}
