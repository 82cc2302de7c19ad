package models

// SweepRequest represents the request body for running a capacity sweep.
type SweepRequest struct {
	SolarSource SolarSourceConfig `json:"solar_source" binding:"required"`
	Battery     BatteryConfig     `json:"battery,omitempty"`
	BatteryFile string            `json:"battery_file,omitempty"`
	Delivery    DeliveryConfig    `json:"delivery" binding:"required"`
	Sweep       SweepConfig       `json:"sweep,omitempty"`
}

// SolarSourceConfig defines how to obtain the solar profile for a run.
type SolarSourceConfig struct {
	Type      string `json:"type" binding:"required"` // "profile_id" | "file" | "remote"
	ProfileID string `json:"profile_id,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	SiteID    string `json:"site_id,omitempty"`
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"`   // YYYY-MM-DD
}

// BatteryConfig is the wire shape of a battery template (capacity is
// overwritten per tested size by the sweep driver).
type BatteryConfig struct {
	SOCMin              float64 `json:"soc_min,omitempty"`
	SOCMax              float64 `json:"soc_max,omitempty"`
	SOCInit             float64 `json:"soc_init,omitempty"`
	RoundTripEfficiency float64 `json:"eta_rt,omitempty"`
	ChargeCRate         float64 `json:"c_c,omitempty"`
	DischargeCRate      float64 `json:"c_d,omitempty"`
	MaxCyclesPerDay     float64 `json:"max_cycles_per_day,omitempty"`
	DegradationPerCycle float64 `json:"degradation_per_cycle,omitempty"`
	AuxLoadPct          float64 `json:"aux_load_pct,omitempty"`
}

// DeliveryConfig is the wire shape of the fixed hourly delivery target.
type DeliveryConfig struct {
	TargetMW          float64 `json:"target_mw" binding:"required"`
	ChargeThresholdMW float64 `json:"charge_threshold_mw,omitempty"`
	NightBlackoutFrom int     `json:"night_blackout_from,omitempty"`
	NightBlackoutTo   int     `json:"night_blackout_to,omitempty"`
}

// SweepConfig is the wire shape of the capacity range to test.
type SweepConfig struct {
	SizeMinMWh        float64 `json:"size_min,omitempty"`
	SizeMaxMWh        float64 `json:"size_max,omitempty"`
	SizeStepMWh       float64 `json:"size_step,omitempty"`
	MarginalThreshold float64 `json:"marginal_threshold,omitempty"`
	IncludeLedger     bool    `json:"include_ledger,omitempty"` // default: false
}
