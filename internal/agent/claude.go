// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
)

// claudeAPIURL is the Claude Messages API endpoint. Package-level var
// for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// prompts maps each agent kind to its instruction template. The payload
// is embedded as JSON; every template demands a bare JSON object back.
var prompts = map[Kind]*template.Template{
	KindQueryExpander: template.Must(template.New("expand").Parse(`You are an academic search strategist. Given a research question, produce search query variants that improve recall across bibliographic APIs.

Rules:
- Produce at most 5 expanded queries: synonyms, broader/narrower phrasings, and English translations where the question is not English.
- Produce a flat keyword list of the core concepts.
- Respond with a JSON object only: {"expanded_queries": [string], "keywords": [string], "reasoning": string}

Input:
{{.Payload}}
`)),
	KindDisciplineClassifier: template.Must(template.New("classify").Parse(`You are an academic discipline classifier. Map the research question to exactly one primary discipline tag from this closed set: computer_science, engineering, medicine, economics, psychology, social_sciences, natural_sciences, law.

Respond with a JSON object only: {"discipline": string, "confidence": number between 0 and 1, "databases": [string], "reasoning": string}

Input:
{{.Payload}}
`)),
	KindRelevanceScorer: template.Must(template.New("relevance").Parse(`You are a scholarly relevance judge. For each candidate paper, rate how directly it answers the research query on a 0.0-1.0 scale based on title and abstract. 1.0 means the paper's central contribution answers the query; 0.0 means unrelated.

Respond with a JSON object only: {"scores": [{"paper_index": int, "relevance_score": number, "reasoning": string}]}
Every input paper index must appear exactly once.

Input:
{{.Payload}}
`)),
	KindQuoteExtractor: template.Must(template.New("quotes").Parse(`You are a quotation extraction system. From the paper text, select short verbatim passages that answer the research query.

Rules:
- Copy passages exactly as they appear; never paraphrase.
- Each quote must be at most the given word limit.
- Prefer passages stating findings, definitions, or conclusions.
- Respond with a JSON object only: {"quotes": [{"text": string, "relevance": number between 0 and 1, "context": string}]}

Input:
{{.Payload}}
`)),
}

// ClaudeSpawner dispatches agent tasks to the Claude Messages API.
type ClaudeSpawner struct {
	APIKey    string
	Model     string
	MaxTokens int
	Client    *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is one content block in the response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Spawn renders the kind's prompt around the JSON payload, posts it to
// the Messages API, and returns the model's JSON object. Transport
// failures, non-200 responses, and non-JSON output all surface as
// ErrUnavailable so consumers degrade to their fallbacks.
func (c *ClaudeSpawner) Spawn(ctx context.Context, kind Kind, payload any) (json.RawMessage, error) {
	if c.APIKey == "" {
		return nil, ErrUnavailable
	}
	tmpl, ok := prompts[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no prompt for agent kind %q", ErrUnavailable, kind)
	}

	payloadJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	var prompt bytes.Buffer
	if err := tmpl.Execute(&prompt, struct{ Payload string }{Payload: string(payloadJSON)}); err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	body, err := json.Marshal(claudeRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt.String()}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: API returned %d: %s", ErrUnavailable, resp.StatusCode, string(b))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		raw := extractJSONObject(block.Text)
		if raw == nil {
			return nil, fmt.Errorf("%w: response is not a JSON object", ErrUnavailable)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%w: no text content in response", ErrUnavailable)
}

// extractJSONObject pulls the outermost JSON object out of model text,
// tolerating surrounding prose and markdown code fences.
func extractJSONObject(text string) json.RawMessage {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}
	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil
	}
	return json.RawMessage(candidate)
}
