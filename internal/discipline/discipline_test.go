// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discipline

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litpipe/internal/agent"
)

func TestKeywordFallbackComputerScience(t *testing.T) {
	c, err := NewClassifier(nil, zerolog.Nop())
	require.NoError(t, err)

	res := c.Classify(context.Background(), "machine learning for software testing", nil)
	assert.Equal(t, "computer_science", res.Discipline)
	assert.Equal(t, "keyword", res.Method)
	assert.Greater(t, res.Confidence, 0.0)
	assert.Contains(t, res.Databases, "IEEE Xplore")
	assert.LessOrEqual(t, len(res.Databases), 5)
}

func TestKeywordFallbackUsesExpandedQueries(t *testing.T) {
	c, err := NewClassifier(nil, zerolog.Nop())
	require.NoError(t, err)

	// Bare query matches nothing; the expansions carry the signal.
	res := c.Classify(context.Background(), "Therapieoptionen", []string{
		"clinical therapy options",
		"patient treatment outcomes",
	})
	assert.Equal(t, "medicine", res.Discipline)
}

func TestKeywordFallbackNoMatches(t *testing.T) {
	c, err := NewClassifier(nil, zerolog.Nop())
	require.NoError(t, err)

	res := c.Classify(context.Background(), "xyzzy plugh", nil)
	// Still yields a deterministic tag, just with zero confidence.
	assert.NotEmpty(t, res.Discipline)
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.Secondary)
}

func TestAgentTagSetMatchesConfig(t *testing.T) {
	c, err := NewClassifier(nil, zerolog.Nop())
	require.NoError(t, err)

	// Every tag the prompt offers must round-trip through validation,
	// including the grouped tags that only exist in the config.
	for _, tag := range []string{
		"computer_science", "engineering", "medicine", "economics",
		"psychology", "social_sciences", "natural_sciences", "law",
	} {
		spawner := agent.SpawnerFunc(func(ctx context.Context, kind agent.Kind, payload any) (json.RawMessage, error) {
			return json.Marshal(agent.ClassifyOutput{Discipline: tag, Confidence: 0.8})
		})
		c.spawner = spawner
		res := c.Classify(context.Background(), "q", nil)
		assert.Equal(t, tag, res.Discipline)
		assert.Equal(t, "agent", res.Method, "tag %s rejected by validation", tag)
		assert.NotEmpty(t, res.Databases, "tag %s should fall back to config databases", tag)
	}
}

func TestAgentClassification(t *testing.T) {
	spawner := agent.SpawnerFunc(func(ctx context.Context, kind agent.Kind, payload any) (json.RawMessage, error) {
		require.Equal(t, agent.KindDisciplineClassifier, kind)
		return json.Marshal(agent.ClassifyOutput{
			Discipline: "economics",
			Confidence: 0.9,
			Databases:  []string{"EconLit"},
		})
	})

	c, err := NewClassifier(spawner, zerolog.Nop())
	require.NoError(t, err)

	res := c.Classify(context.Background(), "inflation dynamics", nil)
	assert.Equal(t, "economics", res.Discipline)
	assert.Equal(t, "agent", res.Method)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	assert.Equal(t, []string{"EconLit"}, res.Databases)
}

func TestAgentUnknownTagFallsBack(t *testing.T) {
	spawner := agent.SpawnerFunc(func(ctx context.Context, kind agent.Kind, payload any) (json.RawMessage, error) {
		return json.Marshal(agent.ClassifyOutput{Discipline: "astrology", Confidence: 0.99})
	})

	c, err := NewClassifier(spawner, zerolog.Nop())
	require.NoError(t, err)

	res := c.Classify(context.Background(), "software architecture patterns", nil)
	assert.Equal(t, "keyword", res.Method)
	assert.Equal(t, "computer_science", res.Discipline)
}

func TestAgentErrorFallsBack(t *testing.T) {
	spawner := agent.SpawnerFunc(func(ctx context.Context, kind agent.Kind, payload any) (json.RawMessage, error) {
		return nil, fmt.Errorf("boom: %w", agent.ErrUnavailable)
	})

	c, err := NewClassifier(spawner, zerolog.Nop())
	require.NoError(t, err)

	res := c.Classify(context.Background(), "clinical drug trials", nil)
	assert.Equal(t, "keyword", res.Method)
	assert.Equal(t, "medicine", res.Discipline)
}

func TestAgentDatabasesDefaultFromConfig(t *testing.T) {
	spawner := agent.SpawnerFunc(func(ctx context.Context, kind agent.Kind, payload any) (json.RawMessage, error) {
		return json.Marshal(agent.ClassifyOutput{Discipline: "law", Confidence: 0.7})
	})

	c, err := NewClassifier(spawner, zerolog.Nop())
	require.NoError(t, err)

	res := c.Classify(context.Background(), "contract liability", nil)
	assert.Equal(t, []string{"Westlaw", "HeinOnline", "beck-online"}, res.Databases)
}

func TestNewClassifierFromFileMissing(t *testing.T) {
	_, err := NewClassifierFromFile("/nonexistent/path.yaml", nil, zerolog.Nop())
	assert.Error(t, err)
}
