// Package generator provides content producers for never-before-seen
// endpoints: an adapter for an external AI text service and a local
// deterministic template engine used as its fallback.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
)

// LLMGenerator synthesizes endpoint bodies through a Gemini-style
// generateContent HTTP API. The service is a black box: it receives a prompt
// describing the endpoint and must return a single JSON document. Any
// deviation (markdown fences, trailing prose, invalid JSON) is repaired or
// rejected here so callers only ever see valid JSON or an error.
type LLMGenerator struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

func NewLLMGenerator(baseURL, model, apiKey string, client *http.Client, logger *slog.Logger) *LLMGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &LLMGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *LLMGenerator) Generate(ctx context.Context, path, method string, level domain.AccessLevel, breadcrumbs []string) ([]byte, error) {
	prompt := buildPrompt(path, method, level, breadcrumbs)

	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			g.logger.Warn("failed to close llm response body", "error", errClose)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, fmt.Errorf("decode llm envelope: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("llm returned no candidates")
	}

	text := stripFences(gr.Candidates[0].Content.Parts[0].Text)
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("llm returned invalid JSON")
	}
	return []byte(text), nil
}

func buildPrompt(path, method string, level domain.AccessLevel, breadcrumbs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are simulating a realistic corporate REST API endpoint.\n")
	fmt.Fprintf(&b, "Endpoint: %s %s\nAccess Level: %s\n\n", method, path, level)
	b.WriteString("Generate a realistic JSON response that matches the endpoint's purpose, ")
	b.WriteString("with realistic field names, data values, timestamps, IDs and pagination where appropriate.\n")
	if len(breadcrumbs) > 0 {
		fmt.Fprintf(&b, "Include subtle hints to these related endpoints, naturally, not forced: %s\n",
			strings.Join(breadcrumbs, ", "))
	}
	b.WriteString("\nReturn ONLY valid JSON, no explanations, no markdown, no code blocks.")
	return b.String()
}

// stripFences removes markdown code fences some models wrap around JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	out := strings.Join(lines, "\n")
	return strings.TrimSpace(strings.TrimPrefix(out, "json"))
}
