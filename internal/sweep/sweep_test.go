package sweep

import (
	"context"
	"sync"
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
		CapacityMWh:         10,
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

func TestRunRejectsNonPositiveStep(t *testing.T) {
	_, err := Run(context.Background(), Params{
		SizeMinMWh: 10, SizeMaxMWh: 30, SizeStepMWh: 0,
		Solar: flatSolarProfile(t, 5), BatteryParams: baseBatteryParams(),
		Delivery: model.DeliveryParams{TargetMW: 5},
	})
	assert.Error(t, err)
}

func TestRunRejectsNilSolar(t *testing.T) {
	_, err := Run(context.Background(), Params{
		SizeMinMWh: 10, SizeMaxMWh: 30, SizeStepMWh: 10,
		BatteryParams: baseBatteryParams(),
		Delivery:      model.DeliveryParams{TargetMW: 5},
	})
	assert.Error(t, err)
}

func TestRunRejectsEmptyRange(t *testing.T) {
	_, err := Run(context.Background(), Params{
		SizeMinMWh: 30, SizeMaxMWh: 10, SizeStepMWh: 10,
		Solar: flatSolarProfile(t, 5), BatteryParams: baseBatteryParams(),
		Delivery: model.DeliveryParams{TargetMW: 5},
	})
	assert.Error(t, err)
}

func TestRunSortsResultsAndReportsProgress(t *testing.T) {
	var mu sync.Mutex
	var calls []int
	outcome, err := Run(context.Background(), Params{
		SizeMinMWh: 10, SizeMaxMWh: 30, SizeStepMWh: 10,
		Solar:         flatSolarProfile(t, 2),
		BatteryParams: baseBatteryParams(),
		Delivery:      model.DeliveryParams{TargetMW: 5},
		OnProgress: func(done, total int) {
			mu.Lock()
			calls = append(calls, done)
			mu.Unlock()
			assert.Equal(t, 3, total)
		},
	})
	require.NoError(t, err)
	require.Len(t, outcome.Results, 3)

	assert.Equal(t, 10.0, outcome.Results[0].CapacityMWh)
	assert.Equal(t, 20.0, outcome.Results[1].CapacityMWh)
	assert.Equal(t, 30.0, outcome.Results[2].CapacityMWh)

	// Progress fires exactly once per capacity; the final call reports
	// every capacity done even though goroutines complete out of order.
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, calls, 3)
	max := 0
	for _, c := range calls {
		if c > max {
			max = c
		}
	}
	assert.Equal(t, 3, max)
}

func TestRunReturnsSoftCancelledOutcomeInsteadOfError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before any capacity's simulator.Run starts

	outcome, err := Run(ctx, Params{
		SizeMinMWh: 10, SizeMaxMWh: 30, SizeStepMWh: 10,
		Solar:         flatSolarProfile(t, 2),
		BatteryParams: baseBatteryParams(),
		Delivery:      model.DeliveryParams{TargetMW: 5},
	})

	require.NoError(t, err) // cancellation is soft, not a fatal error
	require.NotNil(t, outcome)
	assert.True(t, outcome.Cancelled)
	assert.Empty(t, outcome.Results)
	assert.Empty(t, outcome.CompletedCapacities)
	assert.Equal(t, 0.0, outcome.OptimalCapacity)
}

func TestRunLeavesLargestCapacityMarginalUnset(t *testing.T) {
	outcome, err := Run(context.Background(), Params{
		SizeMinMWh: 10, SizeMaxMWh: 20, SizeStepMWh: 10,
		Solar:         flatSolarProfile(t, 2),
		BatteryParams: baseBatteryParams(),
		Delivery:      model.DeliveryParams{TargetMW: 5},
	})
	require.NoError(t, err)
	require.Len(t, outcome.Results, 2)
	assert.True(t, outcome.Results[0].Summary.HasMarginal)
	assert.False(t, outcome.Results[1].Summary.HasMarginal)
}

func TestApplyMarginalsComputesForwardDelta(t *testing.T) {
	results := []CapacityResult{
		{CapacityMWh: 10, Summary: model.SummaryMetrics{HoursDelivered: 100}},
		{CapacityMWh: 20, Summary: model.SummaryMetrics{HoursDelivered: 400}},
		{CapacityMWh: 30, Summary: model.SummaryMetrics{HoursDelivered: 420}},
	}
	applyMarginals(results)

	require.True(t, results[0].Summary.HasMarginal)
	assert.InDelta(t, 30.0, results[0].Summary.MarginalHoursPerMWh, 1e-9) // (400-100)/10
	require.True(t, results[1].Summary.HasMarginal)
	assert.InDelta(t, 2.0, results[1].Summary.MarginalHoursPerMWh, 1e-9) // (420-400)/10
	assert.False(t, results[2].Summary.HasMarginal)
}

func TestSelectOptimalCapacityPicksSmallestSustainedBelowThreshold(t *testing.T) {
	results := []CapacityResult{
		{CapacityMWh: 10, Summary: model.SummaryMetrics{HasMarginal: true, MarginalHoursPerMWh: 50}},
		{CapacityMWh: 20, Summary: model.SummaryMetrics{HasMarginal: true, MarginalHoursPerMWh: 20}},
		{CapacityMWh: 30, Summary: model.SummaryMetrics{HasMarginal: true, MarginalHoursPerMWh: 10}},
		{CapacityMWh: 40, Summary: model.SummaryMetrics{HasMarginal: false}},
	}
	assert.Equal(t, 20.0, selectOptimalCapacity(results, 30))
}

func TestSelectOptimalCapacityRejectsPointThatLaterRisesAboveThreshold(t *testing.T) {
	results := []CapacityResult{
		{CapacityMWh: 10, Summary: model.SummaryMetrics{HasMarginal: true, MarginalHoursPerMWh: 20}},
		{CapacityMWh: 20, Summary: model.SummaryMetrics{HasMarginal: true, MarginalHoursPerMWh: 35}}, // spikes back up
		{CapacityMWh: 30, Summary: model.SummaryMetrics{HasMarginal: true, MarginalHoursPerMWh: 5}},
		{CapacityMWh: 40, Summary: model.SummaryMetrics{HasMarginal: false}},
	}
	// capacity 10 fails because capacity 20's marginal (35) is not sustained
	// below threshold; capacity 30 is the first point that holds through
	// the rest of the tested range.
	assert.Equal(t, 30.0, selectOptimalCapacity(results, 30))
}

func TestSelectOptimalCapacityFallsBackToLargestWhenNoneQualify(t *testing.T) {
	results := []CapacityResult{
		{CapacityMWh: 10, Summary: model.SummaryMetrics{HasMarginal: true, MarginalHoursPerMWh: 50}},
		{CapacityMWh: 20, Summary: model.SummaryMetrics{HasMarginal: false}},
	}
	assert.Equal(t, 20.0, selectOptimalCapacity(results, 30))
}
