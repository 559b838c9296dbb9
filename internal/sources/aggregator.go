package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/job-pipeline/internal/types"
)

// ErrNoSourcesSucceeded means every configured connector failed and there is
// nothing to import.
var ErrNoSourcesSucceeded = errors.New("all discovery sources failed")

// DefaultSourceTimeout bounds a single connector invocation.
const DefaultSourceTimeout = 90 * time.Second

// ProgressFunc is invoked before each source starts and after it finishes.
type ProgressFunc func(source string, done, total int)

// Aggregator invokes the configured connectors and collects their results,
// tolerating individual source failures.
type Aggregator struct {
	connectors map[string]Connector
	timeout    time.Duration
	log        zerolog.Logger
}

// NewAggregator builds an aggregator over the given connector registry.
func NewAggregator(connectors map[string]Connector, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		connectors: connectors,
		timeout:    DefaultSourceTimeout,
		log:        log,
	}
}

// WithTimeout overrides the per-source timeout.
func (a *Aggregator) WithTimeout(d time.Duration) *Aggregator {
	a.timeout = d
	return a
}

// Discover runs each named source in order. Sources run sequentially:
// connectors talk to rate-limited external sites and misbehave under
// concurrent invocation. A failing source is recorded as a warning and the
// remaining sources still run; only when every source fails does Discover
// return ErrNoSourcesSucceeded.
//
// Cancellation is checked between sources, not mid-connector.
func (a *Aggregator) Discover(ctx context.Context, names []string, cfg SearchConfig, onProgress ProgressFunc) ([]Result, error) {
	names = NormalizeSources(names)
	results := make([]Result, 0, len(names))
	succeeded := 0

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if onProgress != nil {
			onProgress(name, i, len(names))
		}

		connector, ok := a.connectors[name]
		if !ok {
			err := fmt.Errorf("unknown source %q", name)
			a.log.Warn().Str("source", name).Err(err).Msg("skipping source")
			results = append(results, Result{Source: name, Err: err})
			continue
		}

		sourceCtx, cancel := context.WithTimeout(ctx, a.timeout)
		jobs, err := connector.Discover(sourceCtx, cfg)
		cancel()

		if err != nil {
			a.log.Warn().Str("source", name).Err(err).Msg("source discovery failed")
			results = append(results, Result{Source: name, Err: err})
			continue
		}

		a.log.Info().Str("source", name).Int("jobs", len(jobs)).Msg("source discovery complete")
		results = append(results, Result{Source: name, Jobs: jobs})
		succeeded++

		if onProgress != nil {
			onProgress(name, i+1, len(names))
		}
	}

	if len(names) > 0 && succeeded == 0 {
		return results, ErrNoSourcesSucceeded
	}
	return results, nil
}

// FlattenJobs merges the successful results into one job list, preserving
// source order.
func FlattenJobs(results []Result) []types.Job {
	var jobs []types.Job
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		jobs = append(jobs, r.Jobs...)
	}
	return jobs
}

// Warnings collects per-source failure messages for the run log.
func Warnings(results []Result) []string {
	var warnings []string
	for _, r := range results {
		if r.Err != nil {
			warnings = append(warnings, fmt.Sprintf("source %s failed: %v", r.Source, r.Err))
		}
	}
	return warnings
}
