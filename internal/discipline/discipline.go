// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discipline maps a research query to an academic discipline
// tag and a candidate database list for institutional-proxy search.
// Classification is advisory; the pipeline proceeds regardless.
package discipline

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litpipe/internal/agent"
	"github.com/pdiddy/litpipe/internal/ranking"
)

//go:embed disciplines.yaml
var defaultConfig []byte

// maxDatabases caps the candidate list handed to the proxy agent.
const maxDatabases = 5

// Result is one classification outcome.
type Result struct {
	Discipline string   `json:"discipline"`
	Secondary  []string `json:"secondary,omitempty"`
	Databases  []string `json:"databases,omitempty"`
	Confidence float64  `json:"confidence"`
	// Method is "agent" or "keyword".
	Method string `json:"method"`
}

type database struct {
	Name string `yaml:"name"`
}

type entry struct {
	Keywords  []string   `yaml:"keywords"`
	Databases []database `yaml:"databases"`
}

type config struct {
	Disciplines map[string]entry `yaml:"disciplines"`
}

// Classifier resolves queries against a closed discipline set. The
// agent path is preferred; the keyword fallback never fails.
type Classifier struct {
	cfg     config
	spawner agent.Spawner
	log     zerolog.Logger
}

// NewClassifier uses the embedded discipline map.
func NewClassifier(spawner agent.Spawner, log zerolog.Logger) (*Classifier, error) {
	return newFromBytes(defaultConfig, spawner, log)
}

// NewClassifierFromFile loads a custom discipline map.
func NewClassifierFromFile(path string, spawner agent.Spawner, log zerolog.Logger) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading discipline config: %w", err)
	}
	return newFromBytes(data, spawner, log)
}

func newFromBytes(data []byte, spawner agent.Spawner, log zerolog.Logger) (*Classifier, error) {
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing discipline config: %w", err)
	}
	if len(cfg.Disciplines) == 0 {
		return nil, fmt.Errorf("discipline config lists no disciplines")
	}
	return &Classifier{cfg: cfg, spawner: spawner, log: log}, nil
}

// Classify maps the query (plus optional expanded variants) to a
// discipline tag. It always returns a usable Result.
func (c *Classifier) Classify(ctx context.Context, query string, expanded []string) Result {
	if res, ok := c.classifyAgent(ctx, query, expanded); ok {
		return res
	}
	return c.classifyKeywords(query, expanded)
}

// classifyAgent asks the LLM agent and validates the returned tag
// against the closed set.
func (c *Classifier) classifyAgent(ctx context.Context, query string, expanded []string) (Result, bool) {
	input := agent.ClassifyInput{Query: query, ExpandedQueries: expanded}
	var out agent.ClassifyOutput
	if err := agent.Decode(ctx, c.spawner, agent.KindDisciplineClassifier, input, &out); err != nil {
		c.log.Debug().Err(err).Msg("discipline agent unavailable, using keyword fallback")
		return Result{}, false
	}

	ent, ok := c.cfg.Disciplines[out.Discipline]
	if !ok {
		c.log.Warn().Str("discipline", out.Discipline).Msg("agent returned unknown discipline tag")
		return Result{}, false
	}

	databases := out.Databases
	if len(databases) == 0 {
		databases = databaseNames(ent)
	}
	conf := out.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return Result{
		Discipline: out.Discipline,
		Databases:  databases,
		Confidence: conf,
		Method:     "agent",
	}, true
}

// classifyKeywords scores each discipline by the fraction of its
// keywords present in the combined query text.
func (c *Classifier) classifyKeywords(query string, expanded []string) Result {
	text := strings.ToLower(strings.Join(append([]string{query}, expanded...), " "))
	terms := make(map[string]bool)
	for _, t := range ranking.Tokenize(text) {
		terms[t] = true
	}

	type scored struct {
		name  string
		score float64
	}
	var ranked []scored
	for name, ent := range c.cfg.Disciplines {
		if len(ent.Keywords) == 0 {
			continue
		}
		matches := 0
		for _, kw := range ent.Keywords {
			if terms[strings.ToLower(kw)] {
				matches++
			}
		}
		ranked = append(ranked, scored{name: name, score: float64(matches) / float64(len(ent.Keywords))})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})

	top := ranked[0]
	var secondary []string
	for _, s := range ranked[1:] {
		if s.score <= 0 || len(secondary) == 3 {
			break
		}
		secondary = append(secondary, s.name)
	}

	confidence := top.score * 2
	if confidence > 1 {
		confidence = 1
	}
	return Result{
		Discipline: top.name,
		Secondary:  secondary,
		Databases:  databaseNames(c.cfg.Disciplines[top.name]),
		Confidence: confidence,
		Method:     "keyword",
	}
}

func databaseNames(ent entry) []string {
	var names []string
	for _, db := range ent.Databases {
		if len(names) == maxDatabases {
			break
		}
		names = append(names, db.Name)
	}
	return names
}
