package model

// PowerSource tags which generator met a delivered hour, for the optional
// diesel co-dispatch extension (spec.md §9 design notes). T0 dispatch only
// ever produces SourceSolar/SourceBattery/SourceNone; SourceDiesel exists so
// a future dispatch branch can be added without reshaping HourlyRecord.
type PowerSource string

const (
	SourceSolar   PowerSource = "SOLAR"
	SourceBattery PowerSource = "BATTERY"
	SourceDiesel  PowerSource = "DIESEL"
	SourceNone    PowerSource = "NONE"
)

// DieselConfig is the (currently unused by dispatch.Decide) configuration
// for a backstop diesel generator. Present so config/report plumbing has a
// stable place to carry it once a diesel-aware decision branch lands.
type DieselConfig struct {
	Enabled        bool
	RatedMW        float64
	FuelLPerMWh    float64
	StartupHours   float64
	MinRunHoursOnce float64
}
