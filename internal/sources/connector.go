// Package sources provides the discovery connectors and their aggregator.
package sources

import (
	"context"
	"errors"
	"strings"

	"github.com/jonathan/job-pipeline/internal/types"
)

// Source name constants.
const (
	SourceIndeed   = "indeed"
	SourceLinkedIn = "linkedin"
)

// ErrNotImplemented is returned by connectors without a working implementation.
var ErrNotImplemented = errors.New("connector not implemented")

// SearchConfig is the per-run search configuration passed to every connector.
type SearchConfig struct {
	Query             string
	Location          string
	Country           string
	ResultsWanted     int
	HoursOld          int
	Remote            bool
	FetchDescriptions bool
}

// Connector discovers job postings from one external source.
type Connector interface {
	Name() string
	Discover(ctx context.Context, cfg SearchConfig) ([]types.Job, error)
}

// Result is the outcome of one connector invocation within a run.
type Result struct {
	Source string
	Jobs   []types.Job
	Err    error
}

// Registry returns the connectors available to the pipeline, keyed by name.
func Registry(client *Client) map[string]Connector {
	return map[string]Connector{
		SourceIndeed:   NewIndeed(client),
		SourceLinkedIn: NewLinkedIn(client),
	}
}

// NormalizeSources lowercases and trims configured source names, dropping
// empty entries.
func NormalizeSources(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		name = strings.TrimPrefix(name, "www.")
		out = append(out, name)
	}
	return out
}
