package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() BatteryParams {
	return BatteryParams{
		CapacityMWh:         100,
		SOCMin:              0.10,
		SOCMax:              0.90,
		SOCInit:             0.50,
		RoundTripEfficiency: 0.81, // eta one-way = 0.9
		ChargeCRate:         1.0,
		DischargeCRate:      1.0,
		MaxCyclesPerDay:     2,
		DegradationPerCycle: 1e-5,
		AuxLoadPct:          0,
	}
}

func TestNewBatteryRejectsInvalidParams(t *testing.T) {
	t.Run("narrow operating window", func(t *testing.T) {
		p := validParams()
		p.SOCMax = 0.20
		_, err := NewBattery(p)
		assert.Error(t, err)
	})

	t.Run("soc_init outside bounds", func(t *testing.T) {
		p := validParams()
		p.SOCInit = 1.0
		_, err := NewBattery(p)
		assert.Error(t, err)
	})

	t.Run("rte out of bounds", func(t *testing.T) {
		p := validParams()
		p.RoundTripEfficiency = 1.2
		_, err := NewBattery(p)
		assert.Error(t, err)
	})
}

func TestChargeClampsAtSOCMax(t *testing.T) {
	p := validParams()
	p.SOCInit = 0.88
	b, err := NewBattery(p)
	require.NoError(t, err)

	// headroom = (0.90-0.88)*100 = 2 MWh stored; eta=0.9, so max accepted
	// input = 2/0.9 MW well under the 100 MW charge C-rate limit.
	accepted := b.Charge(50)
	assert.InDelta(t, 2.0/0.9, accepted, 1e-6)
	assert.InDelta(t, 0.90, b.State.SOC, 1e-9)
}

func TestChargeRespectsCRate(t *testing.T) {
	p := validParams()
	// Wide window and low SOCInit so headroom (90 MWh) exactly covers what
	// the C-rate limit would store, isolating the C-rate clamp.
	p.SOCMin, p.SOCMax, p.SOCInit = 0.05, 0.95, 0.05
	b, err := NewBattery(p)
	require.NoError(t, err)

	accepted := b.Charge(500) // far above the 100 MW C-rate limit
	assert.InDelta(t, 100.0, accepted, 1e-9)
}

func TestDischargeClampsAtSOCMin(t *testing.T) {
	p := validParams()
	p.SOCInit = 0.12
	b, err := NewBattery(p)
	require.NoError(t, err)

	delivered := b.Discharge(50)
	assert.InDelta(t, 0.10, b.State.SOC, 1e-9)
	assert.Greater(t, delivered, 0.0)
	assert.Less(t, delivered, 50.0)
}

func TestDischargeRespectsCRate(t *testing.T) {
	p := validParams()
	// Plenty of stored energy (full window) but a low discharge C-rate, so
	// the rate limit binds well before the energy-based floor does.
	p.CapacityMWh = 1000
	p.SOCMin, p.SOCMax, p.SOCInit = 0, 1, 1
	p.DischargeCRate = 0.1
	b, err := NewBattery(p)
	require.NoError(t, err)

	delivered := b.Discharge(500)
	assert.InDelta(t, 100.0, delivered, 1e-9)
}

func TestCanCycleBlocksWhenCapExhausted(t *testing.T) {
	p := validParams()
	p.MaxCyclesPerDay = 1
	b, err := NewBattery(p)
	require.NoError(t, err)

	b.Transition(StateDischarging, 0)
	assert.InDelta(t, 0.5, b.State.DailyCycles, 1e-9)

	// Reversal DISCHARGING->CHARGING costs another 1.0: 0.5+1.0 > 1.0 cap.
	assert.False(t, b.CanCycle(StateCharging))

	// But returning to IDLE only costs another 0.5: 0.5+0.5 == 1.0 cap, allowed.
	assert.True(t, b.CanCycle(StateIdle))
}

func TestResetDayIfNeededClearsDailyCyclesOnce(t *testing.T) {
	p := validParams()
	b, err := NewBattery(p)
	require.NoError(t, err)

	b.Transition(StateCharging, 0)
	assert.InDelta(t, 0.5, b.State.DailyCycles, 1e-9)

	b.ResetDayIfNeeded(24)
	assert.Equal(t, 0.0, b.State.DailyCycles)

	// Second call for the same day boundary must not reset again.
	b.Transition(StateDischarging, 24)
	b.ResetDayIfNeeded(24)
	assert.NotEqual(t, 0.0, b.State.DailyCycles)
}

func TestApplyAuxLoadFloorsAtSOCMin(t *testing.T) {
	p := validParams()
	p.AuxLoadPct = 0.5 // absurdly large, to exercise the floor
	p.SOCInit = 0.11
	b, err := NewBattery(p)
	require.NoError(t, err)

	drawn := b.ApplyAuxLoad()
	assert.InDelta(t, 0.10, b.State.SOC, 1e-9)
	assert.InDelta(t, 1.0, drawn, 1e-6) // (0.11-0.10)*100
}

func TestClampSOCPanicsOnLargeDrift(t *testing.T) {
	p := validParams()
	b, err := NewBattery(p)
	require.NoError(t, err)

	assert.Panics(t, func() {
		b.clampSOC(b.Params.SOCMax + 1.0)
	})
}
