// Package summary derives per-capacity aggregate metrics from a complete
// hourly ledger (spec.md §4.4).
package summary

import "battery-backtest/internal/model"

// Derive aggregates a full-year ledger into a SummaryMetrics for one
// capacity. MarginalHoursPerMWh is left unset (HasMarginal=false); the
// sweep driver fills it in relative to the neighboring capacity.
func Derive(capacityMWh float64, ledger []model.HourlyRecord, degradationPerCycle float64) model.SummaryMetrics {
	var s model.SummaryMetrics
	s.CapacityMWh = capacityMWh

	for _, rec := range ledger {
		s.TotalDemandMWh += rec.DemandMW
		s.TotalDeliveredMWh += rec.DeliveredMW
		s.TotalShortfallMWh += rec.ShortfallMW
		s.TotalSolarMWh += rec.SolarMW
		s.TotalWastageMWh += rec.WastageMWh
		s.TotalAuxLoadMWh += rec.AuxLoadMWh

		if rec.DeliveredMW > 0 {
			s.HoursDelivered++
		} else {
			s.HoursShortfall++
		}
		if rec.CycleBlocked {
			s.HoursCycleBlocked++
		}
	}

	if len(ledger) > 0 {
		s.TotalCycles = ledger[len(ledger)-1].CumulativeCycles
	}
	if s.TotalSolarMWh > 0 {
		s.WastagePct = s.TotalWastageMWh / s.TotalSolarMWh
	}
	if s.TotalDemandMWh > 0 {
		s.ServedFraction = s.TotalDeliveredMWh / s.TotalDemandMWh
	}
	s.AvgCyclesPerDay = s.TotalCycles / 365
	s.DegradationPct = s.TotalCycles * degradationPerCycle * 100

	return s
}
