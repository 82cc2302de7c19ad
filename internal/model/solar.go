package model

import (
	"fmt"
	"time"
)

// HoursPerYear is the fixed length of a solar generation profile.
const HoursPerYear = 8760

// SolarHour is one hour of a solar generation profile: an absolute
// hour-of-year index, its wall-clock timestamp, and the average generation
// (MW) over that hour.
type SolarHour struct {
	Hour      int       `json:"hour"`
	Timestamp time.Time `json:"timestamp"`
	SolarMW   float64   `json:"solar_mw"`
}

// SolarProfile is an ordered, validated 8760-hour solar generation series.
// It is immutable once constructed.
type SolarProfile struct {
	Site string
	data [HoursPerYear]float64
	ts   [HoursPerYear]time.Time
}

// NewSolarProfile validates hours and builds an immutable SolarProfile.
// It fails InputShapeError semantics (spec.md §7) if the profile does not
// have exactly HoursPerYear entries, in strictly increasing hour order
// starting at 0, or contains a negative generation value.
func NewSolarProfile(site string, hours []SolarHour) (*SolarProfile, error) {
	if len(hours) != HoursPerYear {
		return nil, &InputShapeError{
			Reason: fmt.Sprintf("solar profile must have exactly %d hours, got %d", HoursPerYear, len(hours)),
		}
	}
	p := &SolarProfile{Site: site}
	for i, h := range hours {
		if h.Hour != i {
			return nil, &InputShapeError{
				Reason: fmt.Sprintf("solar profile hour index out of order at position %d (got hour=%d)", i, h.Hour),
			}
		}
		if h.SolarMW < 0 {
			return nil, &InputShapeError{
				Reason: fmt.Sprintf("solar profile hour %d has negative solar_mw=%f", i, h.SolarMW),
			}
		}
		p.data[i] = h.SolarMW
		p.ts[i] = h.Timestamp
	}
	return p, nil
}

// At returns the solar generation (MW) for absolute hour-of-year h.
func (p *SolarProfile) At(h int) float64 {
	return p.data[h]
}

// Timestamp returns the wall-clock timestamp for absolute hour-of-year h.
func (p *SolarProfile) Timestamp(h int) time.Time {
	return p.ts[h]
}

// Len always returns HoursPerYear for a validated profile.
func (p *SolarProfile) Len() int {
	return HoursPerYear
}

// Total returns the sum of all hourly solar generation (MWh, since each
// hour's value is an average MW over one hour).
func (p *SolarProfile) Total() float64 {
	var sum float64
	for _, v := range p.data {
		sum += v
	}
	return sum
}
