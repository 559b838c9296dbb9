// Package selection picks which scored jobs advance to per-job processing.
package selection

import (
	"sort"

	"github.com/jonathan/job-pipeline/internal/types"
)

// SelectCandidates filters jobs to those scoring at least minScore, sorts
// them by score descending, and truncates to topN. The sort is stable, so
// jobs with equal scores keep their input order: callers pass jobs in
// discovery order and ties resolve to the earlier discovery.
//
// Unscored jobs never qualify. A topN of zero or less means no cap.
func SelectCandidates(jobs []types.Job, minScore float64, topN int) []types.Job {
	candidates := make([]types.Job, 0, len(jobs))
	for _, job := range jobs {
		if !job.HasScore() {
			continue
		}
		if *job.SuitabilityScore < minScore {
			continue
		}
		candidates = append(candidates, job)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].SuitabilityScore > *candidates[j].SuitabilityScore
	})

	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}
