package tailoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-pipeline/internal/llm"
	"github.com/jonathan/job-pipeline/internal/types"
)

type fakeLLM struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (f *fakeLLM) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeLLM) Close() error { return nil }

func testProfile() *types.Profile {
	return &types.Profile{
		Name:    "Sam Taylor",
		Summary: "Backend engineer.",
		Skills:  []string{"Go", "PostgreSQL", "Kubernetes"},
	}
}

func TestGenerate_TailoredContent(t *testing.T) {
	client := &fakeLLM{response: `{"summary": "Go engineer focused on distributed systems.", "headline": "Senior Go Engineer", "skills": ["Go", "Kubernetes"]}`}
	tailorer := NewGeminiTailorer(client)

	content, err := tailorer.Generate(context.Background(), "We need a Go engineer.", testProfile())
	require.NoError(t, err)
	assert.Equal(t, "Go engineer focused on distributed systems.", content.Summary)
	assert.Equal(t, "Senior Go Engineer", content.Headline)
	assert.Equal(t, []string{"Go", "Kubernetes"}, content.Skills)

	assert.Contains(t, client.prompt, "We need a Go engineer.")
	assert.Contains(t, client.prompt, "Sam Taylor")
}

func TestGenerate_EmptyJobDescription(t *testing.T) {
	tailorer := NewGeminiTailorer(&fakeLLM{})

	_, err := tailorer.Generate(context.Background(), "", testProfile())
	assert.ErrorContains(t, err, "job description is empty")
}

func TestGenerate_EmptySummaryRejected(t *testing.T) {
	client := &fakeLLM{response: `{"summary": "", "headline": "x", "skills": []}`}
	tailorer := NewGeminiTailorer(client)

	_, err := tailorer.Generate(context.Background(), "jd", testProfile())
	assert.ErrorContains(t, err, "invalid tailored content")
}

func TestGenerate_GenerationFailure(t *testing.T) {
	client := &fakeLLM{err: errors.New("timeout")}
	tailorer := NewGeminiTailorer(client)

	_, err := tailorer.Generate(context.Background(), "jd", testProfile())
	assert.ErrorContains(t, err, "LLM generation failed")
}
