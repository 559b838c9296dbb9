package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownPrompts(t *testing.T) {
	for _, tc := range []struct{ file, key string }{
		{"scoring.json", "score-job"},
		{"tailoring.json", "tailor-content"},
		{"tailoring.json", "select-projects"},
	} {
		prompt, err := Get(tc.file, tc.key)
		require.NoError(t, err, "%s/%s", tc.file, tc.key)
		assert.NotEmpty(t, prompt)
	}
}

func TestGet_MissingKey(t *testing.T) {
	_, err := Get("scoring.json", "nope")
	assert.Error(t, err)
}

func TestGet_MissingFile(t *testing.T) {
	_, err := Get("missing.json", "score-job")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	got := Format("Hello {{.Name}}, job: {{.Title}}", map[string]string{
		"Name":  "Sam",
		"Title": "Go Developer",
	})
	assert.Equal(t, "Hello Sam, job: Go Developer", got)
}

func TestFormat_UnknownPlaceholderLeftIntact(t *testing.T) {
	got := Format("{{.Known}} {{.Unknown}}", map[string]string{"Known": "x"})
	assert.Equal(t, "x {{.Unknown}}", got)
}

func TestScoreJobPromptMentionsJSONContract(t *testing.T) {
	prompt := MustGet("scoring.json", "score-job")
	assert.Contains(t, prompt, "{{.Profile}}")
	assert.Contains(t, prompt, "{{.Description}}")
	assert.Contains(t, prompt, "\"score\"")
	assert.Contains(t, prompt, "\"reason\"")
}
