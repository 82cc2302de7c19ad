package model

import (
	"errors"
	"fmt"
	"math"
)

// epsilon is the stable tolerance used for SOC clamps and boundary
// comparisons throughout the battery model.
const epsilon = 1e-9

// BatteryParams is the immutable technical specification of a battery.
// Units: CapacityMWh in MWh, SOC bounds/efficiencies in [0,1], C-rates as
// a multiple of capacity per hour, DegradationPerCycle and AuxLoadPct as
// fractions of capacity.
type BatteryParams struct {
	CapacityMWh         float64
	SOCMin              float64
	SOCMax              float64
	SOCInit             float64
	RoundTripEfficiency float64 // eta_rt
	ChargeCRate         float64
	DischargeCRate      float64
	MaxCyclesPerDay     float64
	DegradationPerCycle float64
	AuxLoadPct          float64
}

// OneWayEfficiency returns eta = sqrt(eta_rt), applied to each transfer
// direction independently.
func (p BatteryParams) OneWayEfficiency() float64 {
	return math.Sqrt(p.RoundTripEfficiency)
}

func (p BatteryParams) Validate() error {
	if p.CapacityMWh <= 0 {
		return errors.New("CapacityMWh must be > 0")
	}
	if p.SOCMin < 0 || p.SOCMax > 1 || p.SOCMin >= p.SOCMax {
		return errors.New("SOCMin/SOCMax must satisfy 0<=SOCMin<SOCMax<=1")
	}
	if p.SOCMax-p.SOCMin < 0.20-epsilon {
		return errors.New("operating window (SOCMax-SOCMin) must be >= 0.20")
	}
	if p.SOCInit < p.SOCMin-epsilon || p.SOCInit > p.SOCMax+epsilon {
		return errors.New("SOCInit must be within [SOCMin, SOCMax]")
	}
	if p.RoundTripEfficiency <= 0.70-epsilon || p.RoundTripEfficiency > 0.95+epsilon {
		return errors.New("RoundTripEfficiency must be in [0.70, 0.95]")
	}
	if p.ChargeCRate <= 0 || p.ChargeCRate > 2.0 || p.DischargeCRate <= 0 || p.DischargeCRate > 2.0 {
		return errors.New("ChargeCRate/DischargeCRate must be in (0, 2.0]")
	}
	if p.MaxCyclesPerDay < 1 || p.MaxCyclesPerDay > 4 {
		return errors.New("MaxCyclesPerDay must be in [1,4]")
	}
	if p.DegradationPerCycle < 0 {
		return errors.New("DegradationPerCycle must be >= 0")
	}
	if p.AuxLoadPct < 0 {
		return errors.New("AuxLoadPct must be >= 0")
	}
	return nil
}

// BatteryState is the mutable per-run state owned by the simulator.
type BatteryState struct {
	SOC          float64
	State        OperatingState
	DailyCycles  float64
	TotalCycles  float64
	lastResetDay int // hour-of-year of the last daily reset, -1 until first reset
}

// Battery bundles immutable params with the mutable state for one run.
type Battery struct {
	Params BatteryParams
	State  BatteryState
}

// NewBattery constructs a battery starting IDLE at Params.SOCInit.
func NewBattery(params BatteryParams) (*Battery, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Battery{
		Params: params,
		State: BatteryState{
			SOC:          params.SOCInit,
			State:        StateIdle,
			lastResetDay: -1,
		},
	}, nil
}

// AvailableDischargePower returns the upper bound on load-side MW for this
// hour: min((soc-soc_min)*C, C*c_d). The energy term omits the one-way
// efficiency loss, so Discharge can deliver less than this when energy-bound.
func (b *Battery) AvailableDischargePower() float64 {
	byEnergy := (b.State.SOC - b.Params.SOCMin) * b.Params.CapacityMWh
	if byEnergy < 0 {
		byEnergy = 0
	}
	byRate := b.Params.CapacityMWh * b.Params.DischargeCRate
	return math.Min(byEnergy, byRate)
}

// AvailableChargeHeadroom returns the storable energy (MWh) before SOCMax.
func (b *Battery) AvailableChargeHeadroom() float64 {
	h := (b.Params.SOCMax - b.State.SOC) * b.Params.CapacityMWh
	if h < 0 {
		return 0
	}
	return h
}

// Charge accepts input power (MW, over one hour) and returns the input-side
// power actually absorbed. The caller treats the unabsorbed remainder as
// wastage. pInMW is first clamped to the charge C-rate, then the stored
// energy (after one-way efficiency loss) is clamped to SOCMax; if clamping
// binds, the accepted input is back-solved to exactly fill to SOCMax.
func (b *Battery) Charge(pInMW float64) float64 {
	if pInMW <= 0 {
		return 0
	}
	eta := b.Params.OneWayEfficiency()

	pAccepted := math.Min(pInMW, b.Params.CapacityMWh*b.Params.ChargeCRate)
	stored := pAccepted * eta

	headroomMWh := b.AvailableChargeHeadroom()
	if stored > headroomMWh+epsilon {
		stored = headroomMWh
		pAccepted = stored / eta
	}

	b.State.SOC = b.clampSOC(b.State.SOC + stored/b.Params.CapacityMWh)
	return pAccepted
}

// Discharge delivers output power (MW, over one hour) and returns the
// load-side power actually delivered, limited by AvailableDischargePower
// and by available energy after the one-way efficiency loss.
func (b *Battery) Discharge(pOutMW float64) float64 {
	if pOutMW <= 0 {
		return 0
	}
	eta := b.Params.OneWayEfficiency()

	pDelivered := math.Min(pOutMW, b.AvailableDischargePower())

	energyByStoreMWh := (b.State.SOC - b.Params.SOCMin) * b.Params.CapacityMWh * eta
	if energyByStoreMWh < 0 {
		energyByStoreMWh = 0
	}
	if pDelivered > energyByStoreMWh+epsilon {
		pDelivered = energyByStoreMWh
	}

	drawn := pDelivered / eta
	b.State.SOC = b.clampSOC(b.State.SOC - drawn/b.Params.CapacityMWh)
	return pDelivered
}

// CanCycle reports whether transitioning from the current state to next
// keeps DailyCycles + delta within MaxCyclesPerDay.
func (b *Battery) CanCycle(next OperatingState) bool {
	delta := cycleDelta(b.State.State, next)
	return b.State.DailyCycles+delta <= b.Params.MaxCyclesPerDay+epsilon
}

// ResetDayIfNeeded resets DailyCycles to 0 the first time it is called for
// an hour where hour%24==0. Idempotent within the same day boundary.
func (b *Battery) ResetDayIfNeeded(hour int) {
	if hour%24 == 0 && hour != b.State.lastResetDay {
		b.State.DailyCycles = 0
		b.State.lastResetDay = hour
	}
}

// Transition moves the battery to next, first resetting the daily cycle
// counter if hour marks a day boundary. Transition itself always applies
// the cycle delta (spec.md Open Question #2) and does not re-check
// CanCycle — every dispatch call site gates the call on CanCycle(next)
// itself, so DailyCycles never reports above MaxCyclesPerDay; a caller
// that skips the gate can still push it over.
func (b *Battery) Transition(next OperatingState, hour int) {
	b.ResetDayIfNeeded(hour)
	if next == b.State.State {
		return
	}
	delta := cycleDelta(b.State.State, next)
	b.State.DailyCycles += delta
	b.State.TotalCycles += delta
	b.State.State = next
}

// clampSOC clamps soc into [SOCMin, SOCMax], treating drift beyond epsilon
// as an InvariantViolation bug rather than silently absorbing it.
func (b *Battery) clampSOC(soc float64) float64 {
	if soc < b.Params.SOCMin {
		if b.Params.SOCMin-soc > 10*epsilon {
			panic(NewInvariantViolation(fmt.Sprintf("soc %.12f below SOCMin %.12f by more than tolerance", soc, b.Params.SOCMin)))
		}
		return b.Params.SOCMin
	}
	if soc > b.Params.SOCMax {
		if soc-b.Params.SOCMax > 10*epsilon {
			panic(NewInvariantViolation(fmt.Sprintf("soc %.12f above SOCMax %.12f by more than tolerance", soc, b.Params.SOCMax)))
		}
		return b.Params.SOCMax
	}
	return soc
}

// ApplyAuxLoad subtracts the parasitic per-hour draw from SOC, clamped so
// SOC never falls below SOCMin. Returns the energy actually drawn (MWh).
func (b *Battery) ApplyAuxLoad() float64 {
	if b.Params.AuxLoadPct <= 0 {
		return 0
	}
	drawMWh := b.Params.AuxLoadPct * b.Params.CapacityMWh
	floorSOC := b.Params.SOCMin
	newSOC := b.State.SOC - drawMWh/b.Params.CapacityMWh
	if newSOC < floorSOC {
		drawMWh = (b.State.SOC - floorSOC) * b.Params.CapacityMWh
		newSOC = floorSOC
	}
	b.State.SOC = newSOC
	return drawMWh
}

// StoredEnergyMWh returns the energy currently stored.
func (b *Battery) StoredEnergyMWh() float64 {
	return b.State.SOC * b.Params.CapacityMWh
}
