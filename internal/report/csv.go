// Package report writes the summary and hourly CSV reports spec.md §6
// defines, with exact column order and numeric precision.
package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"battery-backtest/internal/model"
	"battery-backtest/internal/sweep"
)

// WriteSummaryCSV writes one row per tested capacity, ordered as given.
func WriteSummaryCSV(path string, results []sweep.CapacityResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"Battery Size (MWh)",
		"Hours Delivered",
		"Total Wastage (MWh)",
		"Wastage (%)",
		"Total Cycles",
		"Avg Cycles/Day",
		"Degradation (%)",
		"Marginal Hours/MWh",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		s := r.Summary
		marginal := ""
		if s.HasMarginal {
			marginal = fmtPrecision(s.MarginalHoursPerMWh, 3)
		}
		row := []string{
			fmtPrecision(s.CapacityMWh, 1),
			strconv.Itoa(s.HoursDelivered),
			fmtPrecision(s.TotalWastageMWh, 1),
			fmtPrecision(s.WastagePct*100, 2),
			fmtPrecision(s.TotalCycles, 1),
			fmtPrecision(s.AvgCyclesPerDay, 2),
			fmtPrecision(s.DegradationPct, 2),
			marginal,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// WriteHourlyCSV writes the full 8,760-row hourly ledger for one capacity.
func WriteHourlyCSV(path string, ledger []model.HourlyRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"Date (YYYY-MM-DD)",
		"Hour (0..23)",
		"Solar_Generation_MW",
		"BESS_MW",
		"BESS_Charge_MWh",
		"SOC_%",
		"Committed_MW",
		"Deficit_MW",
		"Delivery_Hour (Yes|No)",
		"Wastage_MWh",
		"State (Idle|Charging|Discharging)",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rec := range ledger {
		delivery := "No"
		if rec.DeliveredMW > 0 {
			delivery = "Yes"
		}
		row := []string{
			rec.Timestamp.Format("2006-01-02"),
			strconv.Itoa(rec.Hour % 24),
			fmtPrecision(rec.SolarMW, 1),
			fmtPrecision(rec.BatteryMW, 1),
			fmtPrecision(rec.StorageDeltaMWh, 1),
			fmtPrecision(rec.SOC*100, 1),
			fmtPrecision(rec.DeliveredMW, 1),
			fmtPrecision(rec.ShortfallMW, 1),
			delivery,
			fmtPrecision(rec.WastageMWh, 1),
			stateLabel(rec.State),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func stateLabel(s model.OperatingState) string {
	switch s {
	case model.StateCharging:
		return "Charging"
	case model.StateDischarging:
		return "Discharging"
	default:
		return "Idle"
	}
}

func fmtPrecision(x float64, decimals int) string {
	return strconv.FormatFloat(x, 'f', decimals, 64)
}
