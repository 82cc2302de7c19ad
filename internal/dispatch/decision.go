// Package dispatch implements the hourly scenario tree that decides how a
// single hour's solar and battery resources are committed against a fixed
// delivery target.
package dispatch

import (
	"fmt"

	"battery-backtest/internal/model"
)

const epsilon = 1e-9

// Branch names the scenario that produced an hour's HourlyRecord, carried
// for diagnostics and for InvariantViolation context.
type Branch string

const (
	BranchExcessSolar     Branch = "excess_solar"
	BranchBatteryAssisted Branch = "battery_assisted"
	BranchInsufficient    Branch = "insufficient"
	BranchCycleBlocked    Branch = "cycle_blocked"
)

// Context is the single hour's view of the world handed to Decide.
type Context struct {
	Hour     int
	SolarMW  float64
	Battery  *model.Battery
	Delivery model.DeliveryParams
}

// Decide evaluates the four-branch scenario tree in spec order (first
// matching branch wins) and returns the resulting HourlyRecord. It mutates
// ctx.Battery in place: charging/discharging it and applying the state
// transition implied by the chosen branch.
func Decide(ctx Context) model.HourlyRecord {
	b := ctx.Battery
	target := ctx.Delivery.TargetMW

	var rec model.HourlyRecord
	switch {
	case ctx.SolarMW >= target-epsilon:
		rec = decideExcessSolar(ctx, b, target)
	case ctx.SolarMW+b.AvailableDischargePower() >= target-epsilon:
		var handled bool
		rec, handled = decideBatteryAssisted(ctx, b, target)
		if !handled {
			rec = decideCycleBlocked(ctx, b, target)
		}
	default:
		rec = decideInsufficient(ctx, b, target)
	}
	return finish(rec, b)
}

func finish(rec model.HourlyRecord, b *model.Battery) model.HourlyRecord {
	rec.SOC = b.State.SOC
	rec.State = b.State.State
	rec.DailyCycles = b.State.DailyCycles
	rec.CumulativeCycles = b.State.TotalCycles
	return rec
}

// withStorageDelta records the MWh change in stored energy caused by the
// hour's Charge/Discharge call and aux-load draw, measured against the SOC
// snapshot taken just before them (so it reflects post-efficiency energy,
// not grid-side power).
func withStorageDelta(rec model.HourlyRecord, b *model.Battery, socBefore float64) model.HourlyRecord {
	rec.StorageDeltaMWh = (b.State.SOC - socBefore) * b.Params.CapacityMWh
	return rec
}

// decideExcessSolar implements branch 1: solar >= target.
func decideExcessSolar(ctx Context, b *model.Battery, target float64) model.HourlyRecord {
	rec := model.HourlyRecord{Hour: ctx.Hour, SolarMW: ctx.SolarMW}
	socBefore := b.State.SOC

	excess := ctx.SolarMW - target
	var accepted float64

	if excess >= ctx.Delivery.ChargeThresholdMW-epsilon && b.State.State != model.StateDischarging {
		accepted = b.Charge(excess)
		if accepted > 0 {
			if b.State.State == model.StateIdle && b.CanCycle(model.StateCharging) {
				b.Transition(model.StateCharging, ctx.Hour)
			}
			// already CHARGING: remain CHARGING, no transition needed.
		}
	}

	rec.DeliveredMW = target
	rec.ShortfallMW = 0
	rec.BatteryMW = -accepted
	rec.Source = model.SourceSolar
	wastage := excess - accepted
	if wastage < 0 {
		wastage = 0
	}
	rec.AuxLoadMWh = b.ApplyAuxLoad()
	validateBinaryDelivery(rec, target, BranchExcessSolar, ctx.Hour)
	rec.DemandMW = target
	return withWastage(withStorageDelta(rec, b, socBefore), wastage)
}

// decideBatteryAssisted implements branch 2: solar < target but solar +
// available discharge power >= target. Returns handled=false if the cycle
// cap blocks discharge, so the caller falls through to branch 4.
func decideBatteryAssisted(ctx Context, b *model.Battery, target float64) (model.HourlyRecord, bool) {
	rec := model.HourlyRecord{Hour: ctx.Hour, SolarMW: ctx.SolarMW, DemandMW: target}
	socBefore := b.State.SOC

	if !b.CanCycle(model.StateDischarging) {
		return rec, false
	}

	deficitNeeded := target - ctx.SolarMW
	delivered := b.Discharge(deficitNeeded)

	if delivered < deficitNeeded-epsilon {
		// AvailableDischargePower overestimated what Discharge could
		// realize this hour (it omits eta; Discharge's energy-based clamp
		// applies it). Discharge already mutated SOC on this failed
		// attempt, so restore it before falling through to branch (4) —
		// otherwise the battery silently loses delivered/eta MWh for zero
		// delivered MW and zero recorded wastage.
		b.State.SOC = socBefore
		return rec, false
	}

	b.Transition(model.StateDischarging, ctx.Hour)
	rec.DeliveredMW = target
	rec.ShortfallMW = 0
	rec.BatteryMW = delivered
	rec.Source = model.SourceBattery
	rec.AuxLoadMWh = b.ApplyAuxLoad()
	validateBinaryDelivery(rec, target, BranchBatteryAssisted, ctx.Hour)
	return withStorageDelta(rec, b, socBefore), true
}

// decideInsufficient implements branch 3: solar + available discharge power
// < target. No delivery occurs; any solar not consumed is offered to the
// battery as a charge.
func decideInsufficient(ctx Context, b *model.Battery, target float64) model.HourlyRecord {
	rec := model.HourlyRecord{Hour: ctx.Hour, SolarMW: ctx.SolarMW, DemandMW: target}
	socBefore := b.State.SOC
	rec.DeliveredMW = 0
	rec.ShortfallMW = target - ctx.SolarMW - b.AvailableDischargePower()
	rec.Source = model.SourceNone

	var accepted float64
	if ctx.SolarMW > 0 && b.State.State != model.StateDischarging {
		accepted = b.Charge(ctx.SolarMW)
		if accepted > 0 && b.State.State == model.StateIdle && b.CanCycle(model.StateCharging) {
			b.Transition(model.StateCharging, ctx.Hour)
		}
	} else if b.State.State == model.StateDischarging && b.CanCycle(model.StateIdle) {
		b.Transition(model.StateIdle, ctx.Hour)
	}
	rec.BatteryMW = -accepted
	rec.AuxLoadMWh = b.ApplyAuxLoad()

	wastage := ctx.SolarMW - accepted
	if wastage < 0 {
		wastage = 0
	}
	return withWastage(withStorageDelta(rec, b, socBefore), wastage)
}

// decideCycleBlocked implements branch 4: resources are sufficient on
// paper but the daily cycle cap forbids the DISCHARGING transition.
func decideCycleBlocked(ctx Context, b *model.Battery, target float64) model.HourlyRecord {
	rec := model.HourlyRecord{Hour: ctx.Hour, SolarMW: ctx.SolarMW, DemandMW: target}
	socBefore := b.State.SOC
	rec.DeliveredMW = 0
	rec.ShortfallMW = target - ctx.SolarMW
	rec.Source = model.SourceNone
	rec.CycleBlocked = true

	var accepted float64
	if ctx.SolarMW > 0 && b.State.State != model.StateDischarging {
		accepted = b.Charge(ctx.SolarMW)
		if accepted > 0 && b.State.State == model.StateIdle && b.CanCycle(model.StateCharging) {
			b.Transition(model.StateCharging, ctx.Hour)
		}
	}
	rec.BatteryMW = -accepted
	rec.AuxLoadMWh = b.ApplyAuxLoad()

	wastage := ctx.SolarMW - accepted
	if wastage < 0 {
		wastage = 0
	}
	return withWastage(withStorageDelta(rec, b, socBefore), wastage)
}

func withWastage(rec model.HourlyRecord, wastage float64) model.HourlyRecord {
	rec.WastageMWh = wastage
	return rec
}

// validateBinaryDelivery panics with an InvariantViolation if a committed
// delivery hour doesn't actually clear the target from solar + battery.
func validateBinaryDelivery(rec model.HourlyRecord, target float64, branch Branch, hour int) {
	if rec.DeliveredMW == 0 {
		return
	}
	served := rec.SolarMW
	if rec.BatteryMW > 0 {
		served += rec.BatteryMW
	}
	if served < target-10*epsilon {
		panic(model.NewInvariantViolationAt(hour, string(branch),
			fmt.Sprintf("committed delivery %f but solar+battery only provided %f (target %f)", rec.DeliveredMW, served, target)))
	}
}
