package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ProfileInfo describes one named solar generation profile available to
// the API/CLI without having to load its full 8,760-hour series.
type ProfileInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Site   string `json:"site"`   // e.g. site identifier at the data provider
	Market string `json:"market"` // e.g. "CAISO"
}

// ProfileList is a collection of known profiles.
type ProfileList struct {
	UpdatedAt string        `json:"updated_at"` // ISO 8601 timestamp
	Profiles  []ProfileInfo `json:"profiles"`
}

// LoadProfiles loads the profile catalog from a JSON file.
func LoadProfiles(filePath string) (*ProfileList, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	var list ProfileList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file: %w", err)
	}

	return &list, nil
}

// SaveProfiles saves the profile catalog to a JSON file.
func SaveProfiles(list *ProfileList, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}

	if err := os.WriteFile(filePath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write profiles file: %w", err)
	}

	return nil
}

// GetDefaultProfilesPath returns the default path for the profiles catalog.
func GetDefaultProfilesPath() string {
	if path := os.Getenv("PROFILES_FILE"); path != "" {
		return path
	}
	return "./data/profiles.json"
}
