// Package scoring assigns suitability scores to discovered jobs using an LLM
// judge, with a secondary sponsor-licence lookup.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/job-pipeline/internal/llm"
	"github.com/jonathan/job-pipeline/internal/prompts"
	"github.com/jonathan/job-pipeline/internal/schemas"
	"github.com/jonathan/job-pipeline/internal/types"
)

// ScoreResult is the outcome of judging one job against the profile.
type ScoreResult struct {
	Score  float64 // 0-100 suitability
	Reason string  // brief explanation from the judge
}

// Scorer judges how suitable a job is for the candidate.
type Scorer interface {
	Score(ctx context.Context, job *types.Job, profile *types.Profile) (ScoreResult, error)
}

// scoreResponse is the JSON contract the judge prompt asks for.
type scoreResponse struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// GeminiScorer scores jobs with the lite model tier.
type GeminiScorer struct {
	client llm.Client
}

func NewGeminiScorer(client llm.Client) *GeminiScorer {
	return &GeminiScorer{client: client}
}

// Score asks the judge for a 0-100 suitability score. The raw response is
// schema-validated before anything downstream trusts it.
func (s *GeminiScorer) Score(ctx context.Context, job *types.Job, profile *types.Profile) (ScoreResult, error) {
	prompt, err := buildScorePrompt(job, profile)
	if err != nil {
		return ScoreResult{}, err
	}

	raw, err := s.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("LLM generation failed: %w", err)
	}

	if err := schemas.Validate(schemas.ScoreResponse, raw); err != nil {
		return ScoreResult{}, fmt.Errorf("invalid score response: %w", err)
	}

	var response scoreResponse
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		return ScoreResult{}, fmt.Errorf("failed to parse score response: %w (content: %s)", err, raw)
	}

	if response.Score < 0 {
		response.Score = 0
	}
	if response.Score > 100 {
		response.Score = 100
	}

	return ScoreResult{Score: response.Score, Reason: response.Reason}, nil
}

func buildScorePrompt(job *types.Job, profile *types.Profile) (string, error) {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}

	description := job.Description
	if description == "" {
		description = "Not provided"
	}
	location := job.Location
	if job.Remote {
		if location == "" {
			location = "Remote"
		} else {
			location += " (remote)"
		}
	}

	template := prompts.MustGet("scoring.json", "score-job")
	return prompts.Format(template, map[string]string{
		"Profile":     string(profileJSON),
		"Title":       job.Title,
		"Company":     job.Company,
		"Location":    location,
		"Description": description,
	}), nil
}
