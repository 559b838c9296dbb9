package docgen

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/jonathan/job-pipeline/internal/types"
)

//go:embed resume.html.tmpl
var resumeTemplate string

var resumeTmpl = template.Must(template.New("resume").Parse(resumeTemplate))

// resumeData is everything the resume template renders.
type resumeData struct {
	Profile  *types.Profile
	Content  types.TailoredContent
	Projects []types.Project
}

// renderHTML produces the resume document for one job. The tailored headline,
// summary, and skills replace the profile's own; projectIDs picks which
// profile projects appear, in the given order.
func renderHTML(profile *types.Profile, content types.TailoredContent, projectIDs []string) (string, error) {
	byID := make(map[string]types.Project, len(profile.Projects))
	for _, project := range profile.Projects {
		byID[project.ID] = project
	}

	var projects []types.Project
	for _, id := range projectIDs {
		if project, ok := byID[id]; ok {
			projects = append(projects, project)
		}
	}

	var buf bytes.Buffer
	err := resumeTmpl.Execute(&buf, resumeData{
		Profile:  profile,
		Content:  content,
		Projects: projects,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render resume template: %w", err)
	}
	return buf.String(), nil
}
