// Package insights asks a Gemini model for a short narrative briefing on a
// treasury report.
package insights

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/treasury/internal/logger"
	"github.com/dvloznov/treasury/internal/report"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.5-flash"

// Narrator writes a briefing for a report.
type Narrator interface {
	Briefing(ctx context.Context, r *report.Report) (string, error)
}

type generateFunc func(ctx context.Context, model, prompt string) (string, error)

// GeminiNarrator implements Narrator with the Gemini API. Credentials come
// from the environment (GOOGLE_API_KEY or Vertex AI settings).
type GeminiNarrator struct {
	model    string
	generate generateFunc
}

var _ Narrator = (*GeminiNarrator)(nil)

// NewGeminiNarrator creates a narrator using model.
func NewGeminiNarrator(ctx context.Context, model string) (*GeminiNarrator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiNarrator: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}

	generate := func(ctx context.Context, model, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0.2),
		})
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return &GeminiNarrator{model: model, generate: generate}, nil
}

// Briefing sends the report summary to the model and returns its cleaned
// Markdown answer.
func (n *GeminiNarrator) Briefing(ctx context.Context, r *report.Report) (string, error) {
	log := logger.FromContext(ctx)
	prompt := BuildPrompt(r)

	log.Debug().Str("model", n.model).Int("prompt_chars", len(prompt)).Msg("Requesting treasury briefing")

	raw, err := n.generate(ctx, n.model, prompt)
	if err != nil {
		return "", fmt.Errorf("Briefing: generate content: %w", err)
	}
	text := cleanModelText(raw)
	if text == "" {
		return "", fmt.Errorf("Briefing: empty response from model")
	}
	return text, nil
}

// cleanModelText strips Markdown code fences the model sometimes wraps its
// answer in.
func cleanModelText(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// drop the opening fence line (``` or ```markdown)
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return ""
		}
		s = s[idx+1:]
		if end := strings.LastIndex(s, "```"); end != -1 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}
