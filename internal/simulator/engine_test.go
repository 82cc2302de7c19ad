package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-backtest/internal/model"
)

func flatSolarProfile(t *testing.T, mw float64) *model.SolarProfile {
	t.Helper()
	hours := make([]model.SolarHour, model.HoursPerYear)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range hours {
		hours[i] = model.SolarHour{Hour: i, Timestamp: base.Add(time.Duration(i) * time.Hour), SolarMW: mw}
	}
	p, err := model.NewSolarProfile("test-site", hours)
	require.NoError(t, err)
	return p
}

func baseBatteryParams() model.BatteryParams {
	return model.BatteryParams{
		CapacityMWh:         50,
		SOCMin:              0.10,
		SOCMax:              0.90,
		SOCInit:             0.50,
		RoundTripEfficiency: 0.85,
		ChargeCRate:         1.0,
		DischargeCRate:      1.0,
		MaxCyclesPerDay:     2,
		DegradationPerCycle: 1e-5,
	}
}

func TestRunRejectsNilSolarProfile(t *testing.T) {
	eng := New()
	_, err := eng.Run(context.Background(), model.SimulationInputs{
		Battery:  baseBatteryParams(),
		Delivery: model.DeliveryParams{TargetMW: 10},
	})
	assert.Error(t, err)
}

func TestRunRejectsInvalidBatteryParams(t *testing.T) {
	p := baseBatteryParams()
	p.RoundTripEfficiency = 2.0 // out of [0.70, 0.95]

	eng := New()
	_, err := eng.Run(context.Background(), model.SimulationInputs{
		Solar:    flatSolarProfile(t, 20),
		Battery:  p,
		Delivery: model.DeliveryParams{TargetMW: 10},
	})
	assert.Error(t, err)
}

func TestRunProducesFullYearLedger(t *testing.T) {
	eng := New()
	res, err := eng.Run(context.Background(), model.SimulationInputs{
		Solar:    flatSolarProfile(t, 20),
		Battery:  baseBatteryParams(),
		Delivery: model.DeliveryParams{TargetMW: 10},
	})
	require.NoError(t, err)
	require.Len(t, res.Ledger, model.HoursPerYear)

	for i, rec := range res.Ledger {
		assert.Equal(t, i, rec.Hour)
	}
	assert.Equal(t, 50.0, res.CapacityMWh)
	assert.Equal(t, 50.0, res.Summary.CapacityMWh)
	// Solar (20MW) exceeds target (10MW) every hour, so every hour delivers
	// in full and nothing should ever go unserved.
	assert.Equal(t, model.HoursPerYear, res.Summary.HoursDelivered)
	assert.Equal(t, 0, res.Summary.HoursShortfall)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New()
	_, err := eng.Run(ctx, model.SimulationInputs{
		Solar:    flatSolarProfile(t, 20),
		Battery:  baseBatteryParams(),
		Delivery: model.DeliveryParams{TargetMW: 10},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAppliesNightBlackoutWindow(t *testing.T) {
	eng := New()
	res, err := eng.Run(context.Background(), model.SimulationInputs{
		Solar:   flatSolarProfile(t, 5),
		Battery: baseBatteryParams(),
		Delivery: model.DeliveryParams{
			TargetMW:          10,
			NightBlackoutFrom: 0,
			NightBlackoutTo:   1,
		},
	})
	require.NoError(t, err)

	// Hour 0 of every day falls inside the blackout window: target is
	// forced to 0, so nothing can be "delivered" even though solar (5MW)
	// alone would have fallen short of the real 10MW target anyway.
	assert.Equal(t, 0.0, res.Ledger[0].DeliveredMW)
	assert.Equal(t, 0.0, res.Ledger[24].DeliveredMW)
	// Hour 1 is outside the window and reverts to the real target.
	assert.Equal(t, 10.0, res.Ledger[1].DemandMW)
}

func TestRunIsDeterministic(t *testing.T) {
	eng := New()
	inputs := model.SimulationInputs{
		Solar:    flatSolarProfile(t, 15),
		Battery:  baseBatteryParams(),
		Delivery: model.DeliveryParams{TargetMW: 10},
	}

	res1, err := eng.Run(context.Background(), inputs)
	require.NoError(t, err)
	res2, err := eng.Run(context.Background(), inputs)
	require.NoError(t, err)

	assert.Equal(t, res1.Summary, res2.Summary)
	require.Len(t, res2.Ledger, len(res1.Ledger))
	for i := range res1.Ledger {
		assert.Equal(t, res1.Ledger[i], res2.Ledger[i])
	}
}
