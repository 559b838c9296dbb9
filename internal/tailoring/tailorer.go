// Package tailoring generates job-specific resume content: a tailored
// summary, headline, and skill ordering, plus a pick of the most relevant
// projects.
package tailoring

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/job-pipeline/internal/llm"
	"github.com/jonathan/job-pipeline/internal/prompts"
	"github.com/jonathan/job-pipeline/internal/schemas"
	"github.com/jonathan/job-pipeline/internal/types"
)

// Tailorer produces tailored resume content for one job description.
type Tailorer interface {
	Generate(ctx context.Context, jobDescription string, profile *types.Profile) (types.TailoredContent, error)
}

type tailorResponse struct {
	Summary  string   `json:"summary"`
	Headline string   `json:"headline"`
	Skills   []string `json:"skills"`
}

// GeminiTailorer generates content with the standard model tier.
type GeminiTailorer struct {
	client llm.Client
}

func NewGeminiTailorer(client llm.Client) *GeminiTailorer {
	return &GeminiTailorer{client: client}
}

// Generate builds tailored content targeting the given job description.
// The response is schema-validated; a summary or headline the model left
// empty fails generation rather than producing a hollow resume.
func (t *GeminiTailorer) Generate(ctx context.Context, jobDescription string, profile *types.Profile) (types.TailoredContent, error) {
	if jobDescription == "" {
		return types.TailoredContent{}, fmt.Errorf("job description is empty")
	}

	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return types.TailoredContent{}, fmt.Errorf("failed to encode profile: %w", err)
	}

	template := prompts.MustGet("tailoring.json", "tailor-content")
	prompt := prompts.Format(template, map[string]string{
		"Profile":        string(profileJSON),
		"JobDescription": jobDescription,
	})

	raw, err := t.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return types.TailoredContent{}, fmt.Errorf("LLM generation failed: %w", err)
	}

	if err := schemas.Validate(schemas.TailoredContent, raw); err != nil {
		return types.TailoredContent{}, fmt.Errorf("invalid tailored content: %w", err)
	}

	var response tailorResponse
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		return types.TailoredContent{}, fmt.Errorf("failed to parse tailored content: %w (content: %s)", err, raw)
	}

	return types.TailoredContent{
		Summary:  response.Summary,
		Headline: response.Headline,
		Skills:   response.Skills,
	}, nil
}
