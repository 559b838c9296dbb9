package types

// JobPatch holds the optional fields an update may set on a job record.
// Nil fields are left unchanged.
type JobPatch struct {
	Status             *JobStatus
	SuitabilityScore   *float64
	SuitabilityReason  *string
	SponsorScore       *float64
	TailoredSummary    *string
	TailoredHeadline   *string
	TailoredSkills     []string
	SelectedProjectIDs []string
	PDFPath            *string
}
