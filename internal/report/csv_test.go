package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-backtest/internal/model"
	"battery-backtest/internal/sweep"
)

func TestWriteSummaryCSVFormatsRowsAndOmitsUnsetMarginal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	results := []sweep.CapacityResult{
		{
			Summary: model.SummaryMetrics{
				CapacityMWh: 50, HoursDelivered: 8000,
				TotalWastageMWh: 123.456, WastagePct: 0.1234,
				TotalCycles: 500.5, AvgCyclesPerDay: 1.37, DegradationPct: 0.75,
				HasMarginal: true, MarginalHoursPerMWh: 12.3456,
			},
		},
		{
			// Last (largest) capacity: no marginal defined.
			Summary: model.SummaryMetrics{CapacityMWh: 100, HoursDelivered: 8500},
		},
	}

	require.NoError(t, WriteSummaryCSV(path, results))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := string(raw)

	assert.Contains(t, lines, "Battery Size (MWh)")
	assert.Contains(t, lines, "50.0,8000,123.5,12.34,500.5,1.37,0.75,12.346")
	assert.Contains(t, lines, "100.0,8500,0.0,0.00,0.0,0.00,0.00,\n")
}

func TestWriteHourlyCSVFormatsStateAndDeliveryFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hourly.csv")
	ts := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	ledger := []model.HourlyRecord{
		{
			Hour: 25, Timestamp: ts, SolarMW: 10.3, BatteryMW: -5.5,
			StorageDeltaMWh: 4.9, SOC: 0.623, DeliveredMW: 25, ShortfallMW: 0,
			WastageMWh: 0, State: model.StateCharging,
		},
		{
			Hour: 26, Timestamp: ts, SolarMW: 0, BatteryMW: 0,
			DeliveredMW: 0, ShortfallMW: 12.5, State: model.StateIdle,
		},
	}

	require.NoError(t, WriteHourlyCSV(path, ledger))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := string(raw)

	// hour%24 == 1 for absolute hour 25.
	assert.Contains(t, lines, "2025-03-15,1,10.3,-5.5,4.9,62.3,25.0,0.0,Yes,0.0,Charging")
	assert.Contains(t, lines, "2025-03-15,2,0.0,0.0,0.0,0.0,0.0,12.5,No,0.0,Idle")
}
