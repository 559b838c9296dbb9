// Package config provides configuration loading and validation for the pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Default values applied when the config file and flags leave a field unset.
const (
	DefaultTopN                = 10
	DefaultMinSuitabilityScore = 50
	DefaultResultsWanted       = 200
	DefaultHoursOld            = 72
	DefaultOutputDir           = "resumes"
)

// DefaultSources are the connectors enabled when none are configured.
var DefaultSources = []string{"indeed", "linkedin"}

// Config represents the pipeline configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Infrastructure
	DatabaseURL string `json:"database_url,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	WebhookURL  string `json:"webhook_url,omitempty" validate:"omitempty,url"`
	OutputDir   string `json:"output_dir,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`

	// Discovery
	Sources       []string `json:"sources,omitempty"`
	SearchTerm    string   `json:"search_term,omitempty"`
	Location      string   `json:"location,omitempty"`
	Country       string   `json:"country,omitempty"`
	ResultsWanted int      `json:"results_wanted,omitempty" validate:"gte=0"`
	HoursOld      int      `json:"hours_old,omitempty" validate:"gte=0"`
	Remote        bool     `json:"remote,omitempty"`

	// Selection
	TopN                int     `json:"top_n,omitempty" validate:"gte=0"`
	MinSuitabilityScore float64 `json:"min_suitability_score,omitempty" validate:"gte=0,lte=100"`

	// Feature toggles. Nil means enabled; use the accessor methods.
	EnableCrawling      *bool `json:"enable_crawling,omitempty"`
	EnableScoring       *bool `json:"enable_scoring,omitempty"`
	EnableImporting     *bool `json:"enable_importing,omitempty"`
	EnableAutoTailoring *bool `json:"enable_auto_tailoring,omitempty"`

	// Behavior
	ForceTailoring bool `json:"force_tailoring,omitempty"`
	Verbose        bool `json:"verbose,omitempty"`
}

// Load reads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.ProfilePath != "" {
		if _, err := os.Stat(c.ProfilePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: profile file not found: %s", c.ProfilePath)
		}
	}

	return nil
}

// ApplyDefaults returns a copy of the config with zero-value fields filled in.
func (c *Config) ApplyDefaults() Config {
	result := *c

	if result.TopN == 0 {
		result.TopN = DefaultTopN
	}
	if result.MinSuitabilityScore == 0 {
		result.MinSuitabilityScore = DefaultMinSuitabilityScore
	}
	if result.ResultsWanted == 0 {
		result.ResultsWanted = DefaultResultsWanted
	}
	if result.HoursOld == 0 {
		result.HoursOld = DefaultHoursOld
	}
	if result.OutputDir == "" {
		result.OutputDir = DefaultOutputDir
	}
	if len(result.Sources) == 0 {
		result.Sources = append([]string{}, DefaultSources...)
	}

	return result
}

// CrawlingEnabled reports whether the discovery stage should run.
func (c *Config) CrawlingEnabled() bool {
	return c.EnableCrawling == nil || *c.EnableCrawling
}

// ScoringEnabled reports whether the scoring stage should run.
func (c *Config) ScoringEnabled() bool {
	return c.EnableScoring == nil || *c.EnableScoring
}

// ImportingEnabled reports whether discovered jobs should be imported.
func (c *Config) ImportingEnabled() bool {
	return c.EnableImporting == nil || *c.EnableImporting
}

// AutoTailoringEnabled reports whether the processing stage should run.
func (c *Config) AutoTailoringEnabled() bool {
	return c.EnableAutoTailoring == nil || *c.EnableAutoTailoring
}
