// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/litpipe/pkg/types"
)

func TestNewSpawner(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	assert.Nil(t, newSpawner(&cfg), "no API key yields the fallback path")

	cfg.Credentials.AnthropicAPIKey = "sk-test"
	assert.NotNil(t, newSpawner(&cfg))

	// agent.disabled overrides a configured key.
	cfg.Agent.Disabled = true
	assert.Nil(t, newSpawner(&cfg))
}
