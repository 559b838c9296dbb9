package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ScoreResponse(t *testing.T) {
	err := Validate(ScoreResponse, `{"score": 72.5, "reason": "strong skill overlap"}`)
	assert.NoError(t, err)
}

func TestValidate_ScoreOutOfRange(t *testing.T) {
	err := Validate(ScoreResponse, `{"score": 140, "reason": "x"}`)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "score", validationErr.Errors[0].Field)
}

func TestValidate_MissingRequiredField(t *testing.T) {
	err := Validate(ScoreResponse, `{"score": 50}`)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestValidate_TailoredContent(t *testing.T) {
	valid := `{"summary": "Engineer with Go experience.", "headline": "Go Engineer", "skills": ["Go", "PostgreSQL"]}`
	assert.NoError(t, Validate(TailoredContent, valid))

	var validationErr *ValidationError
	assert.ErrorAs(t, Validate(TailoredContent, `{"summary": "", "headline": "x", "skills": []}`), &validationErr)
}

func TestValidate_ProjectSelection(t *testing.T) {
	assert.NoError(t, Validate(ProjectSelection, `{"project_ids": ["p1", "p2"]}`))
	assert.NoError(t, Validate(ProjectSelection, `{"project_ids": []}`))

	var validationErr *ValidationError
	assert.ErrorAs(t, Validate(ProjectSelection, `{"project_ids": "p1"}`), &validationErr)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing.json", `{}`)

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "missing.json", loadErr.Name)
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(ScoreResponse, `{"score":`)
	assert.Error(t, err)
}
