package data

import (
	"encoding/json"
	"os"

	"battery-backtest/internal/model"
)

// solarJSON is the on-disk JSON shape a solar profile is loaded from: an
// hourly array, ordered hour 0..8759.
type solarJSON struct {
	Site  string            `json:"site"`
	Hours []model.SolarHour `json:"hours"`
}

// LoadSolarProfileJSON reads and validates a solar generation profile from
// a JSON file on disk.
func LoadSolarProfileJSON(path string) (*model.SolarProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc solarJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return model.NewSolarProfile(doc.Site, doc.Hours)
}
