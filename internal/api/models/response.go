package models

import "time"

// SweepResponse represents the response from a capacity sweep run. If the
// request's context was cancelled (e.g. client disconnect) mid-sweep,
// Cancelled is true and Results/CompletedCapacities only cover the
// capacities that finished before cancellation.
type SweepResponse struct {
	ID                  string            `json:"id,omitempty"`
	Status              string            `json:"status"`
	OptimalCapacity     float64           `json:"optimal_capacity_mwh"`
	Results             []CapacitySummary `json:"results"`
	Cancelled           bool              `json:"cancelled,omitempty"`
	CompletedCapacities []float64         `json:"completed_capacities,omitempty"`
}

// CapacitySummary is one tested capacity's aggregate metrics.
type CapacitySummary struct {
	CapacityMWh         float64      `json:"capacity_mwh"`
	HoursDelivered      int          `json:"hours_delivered"`
	HoursShortfall      int          `json:"hours_shortfall"`
	HoursCycleBlocked   int          `json:"hours_cycle_blocked"`
	TotalWastageMWh     float64      `json:"total_wastage_mwh"`
	WastagePct          float64      `json:"wastage_pct"`
	TotalCycles         float64      `json:"total_cycles"`
	AvgCyclesPerDay     float64      `json:"avg_cycles_per_day"`
	DegradationPct      float64      `json:"degradation_pct"`
	ServedFraction      float64      `json:"served_fraction"`
	MarginalHoursPerMWh *float64     `json:"marginal_hours_per_mwh,omitempty"`
	Ledger              []HourlyRow  `json:"ledger,omitempty"`
}

// HourlyRow is the wire shape of one hour's simulation record.
type HourlyRow struct {
	Hour        int       `json:"hour"`
	Timestamp   time.Time `json:"timestamp"`
	SolarMW     float64   `json:"solar_mw"`
	DemandMW    float64   `json:"demand_mw"`
	BatteryMW   float64   `json:"bess_mw"`
	DeliveredMW float64   `json:"committed_mw"`
	ShortfallMW float64   `json:"deficit_mw"`
	WastageMWh  float64   `json:"wastage_mwh"`
	SOCPct      float64   `json:"soc_pct"`
	State       string    `json:"state"`
	Delivery    string    `json:"delivery"` // "Yes" | "No"
}

// ErrorResponse is the standard error envelope returned by every handler.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code alongside a human message.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// BatteryInfo describes one preset in the battery catalog.
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string        `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

// BatterySpecs summarizes a preset's headline numbers for a catalog listing.
type BatterySpecs struct {
	RoundTripEfficiency float64 `json:"eta_rt"`
	MaxCyclesPerDay     float64 `json:"max_cycles_per_day"`
}

// ProfileSummary describes one entry in the solar profile catalog.
type ProfileSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Site   string `json:"site"`
	Market string `json:"market"`
}
