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

// ProjectSelector picks the n profile projects most relevant to a job.
type ProjectSelector interface {
	Pick(ctx context.Context, jobDescription string, projects []types.Project, n int) ([]string, error)
}

type projectSelectionResponse struct {
	ProjectIDs []string `json:"project_ids"`
}

// GeminiProjectSelector picks projects with the standard model tier.
type GeminiProjectSelector struct {
	client llm.Client
}

func NewGeminiProjectSelector(client llm.Client) *GeminiProjectSelector {
	return &GeminiProjectSelector{client: client}
}

// Pick returns the IDs of up to n projects judged most relevant to the job.
// IDs the model invents are dropped; duplicates collapse to the first
// occurrence. Fewer projects than n means all of them come back without an
// LLM round trip.
func (s *GeminiProjectSelector) Pick(ctx context.Context, jobDescription string, projects []types.Project, n int) ([]string, error) {
	if n <= 0 || len(projects) == 0 {
		return nil, nil
	}
	if len(projects) <= n {
		ids := make([]string, len(projects))
		for i, project := range projects {
			ids[i] = project.ID
		}
		return ids, nil
	}

	projectsJSON, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode projects: %w", err)
	}

	template := prompts.MustGet("tailoring.json", "select-projects")
	prompt := prompts.Format(template, map[string]string{
		"JobDescription": jobDescription,
		"Projects":       string(projectsJSON),
		"Count":          fmt.Sprintf("%d", n),
	})

	raw, err := s.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	if err := schemas.Validate(schemas.ProjectSelection, raw); err != nil {
		return nil, fmt.Errorf("invalid project selection: %w", err)
	}

	var response projectSelectionResponse
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		return nil, fmt.Errorf("failed to parse project selection: %w (content: %s)", err, raw)
	}

	known := make(map[string]bool, len(projects))
	for _, project := range projects {
		known[project.ID] = true
	}

	var ids []string
	seen := make(map[string]bool)
	for _, id := range response.ProjectIDs {
		if !known[id] || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if len(ids) == n {
			break
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("selection returned no known project IDs (content: %s)", raw)
	}
	return ids, nil
}
