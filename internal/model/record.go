package model

import "time"

// HourlyRecord is one row of a simulation's hourly ledger.
type HourlyRecord struct {
	Hour             int
	Timestamp        time.Time
	SolarMW          float64
	DemandMW         float64
	BatteryMW        float64 // signed: positive = discharging to load, negative = charging
	StorageDeltaMWh  float64 // signed: positive = energy added to storage, negative = energy removed
	DeliveredMW      float64
	ShortfallMW      float64
	WastageMWh       float64
	SOC              float64
	State            OperatingState
	DailyCycles      float64
	CumulativeCycles float64
	CycleBlocked     bool
	Source           PowerSource
	AuxLoadMWh       float64
}

// SummaryMetrics aggregates one capacity's full-year simulation into the
// figures the sweep driver and report writer consume. MarginalHoursPerMWh
// is left at 0 until the sweep driver fills it in relative to its
// neighboring capacity (spec.md §4.4: undefined at the maximum capacity
// tested, and meaningless for a lone run).
type SummaryMetrics struct {
	CapacityMWh         float64
	HoursDelivered      int
	HoursShortfall      int
	HoursCycleBlocked   int
	TotalDemandMWh      float64
	TotalDeliveredMWh   float64
	TotalShortfallMWh   float64
	TotalSolarMWh       float64
	TotalWastageMWh     float64
	TotalCycles         float64
	TotalAuxLoadMWh     float64
	ServedFraction      float64 // TotalDeliveredMWh / TotalDemandMWh
	WastagePct          float64 // TotalWastageMWh / TotalSolarMWh
	AvgCyclesPerDay     float64 // TotalCycles / 365
	DegradationPct      float64 // TotalCycles * DegradationPerCycle * 100
	MarginalHoursPerMWh float64
	HasMarginal         bool
}
