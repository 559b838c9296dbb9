package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/job-pipeline/internal/types"
)

// LoadProfile reads the candidate profile from a JSON file.
func LoadProfile(path string) (*types.Profile, error) {
	if path == "" {
		return nil, fmt.Errorf("profile path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}

	var profile types.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %w", err)
	}

	if profile.Name == "" {
		return nil, fmt.Errorf("profile is missing a name")
	}

	return &profile, nil
}
