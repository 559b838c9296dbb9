package types

// Profile is the candidate profile jobs are scored and tailored against.
type Profile struct {
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Location string    `json:"location,omitempty"`
	Headline string    `json:"headline,omitempty"`
	Summary  string    `json:"summary,omitempty"`
	Skills   []string  `json:"skills,omitempty"`
	Projects []Project `json:"projects,omitempty"`
}

// Project is a showcase project the selector may pick for a tailored resume.
type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// TailoredContent is the phase-1 output for a single job.
type TailoredContent struct {
	Summary  string   `json:"summary"`
	Headline string   `json:"headline"`
	Skills   []string `json:"skills"`
}
