// Package simulator drives the hour-by-hour dispatch decision across a
// full year and accumulates the resulting ledger.
package simulator

import (
	"context"
	"fmt"

	"battery-backtest/internal/dispatch"
	"battery-backtest/internal/model"
	"battery-backtest/internal/summary"
)

// Engine runs one capacity's full-year simulation.
type Engine struct{}

func New() *Engine { return &Engine{} }

// Result is one capacity's complete simulation output.
type Result struct {
	CapacityMWh float64
	Ledger      []model.HourlyRecord
	Summary     model.SummaryMetrics
}

// Run executes the dispatch decision for every hour of inputs.Solar,
// mutating a freshly constructed battery and accumulating one ledger row
// per hour. It checks ctx for cancellation between hours, once every 256
// hours, so a sweep driver can abandon in-flight runs. Determinism: given identical inputs,
// two calls to Run produce bitwise-identical ledgers — no randomness, no
// wall-clock dependence.
func (e *Engine) Run(ctx context.Context, inputs model.SimulationInputs) (result *Result, err error) {
	if inputs.Solar == nil {
		return nil, fmt.Errorf("simulator: solar profile is nil")
	}

	batt, err := model.NewBattery(inputs.Battery)
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			if iv, ok := r.(*model.InvariantViolation); ok {
				err = iv
				return
			}
			panic(r)
		}
	}()

	n := inputs.Solar.Len()
	ledger := make([]model.HourlyRecord, 0, n)

	for h := 0; h < n; h++ {
		if h%256 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		batt.ResetDayIfNeeded(h)

		dctx := dispatch.Context{
			Hour:     h,
			SolarMW:  inputs.Solar.At(h),
			Battery:  batt,
			Delivery: inputs.Delivery,
		}
		if inputs.Delivery.InBlackout(h % 24) {
			dctx.Delivery.TargetMW = 0
		}

		rec := dispatch.Decide(dctx)
		rec.Timestamp = inputs.Solar.Timestamp(h)
		ledger = append(ledger, rec)
	}

	return &Result{
		CapacityMWh: inputs.Battery.CapacityMWh,
		Ledger:      ledger,
		Summary:     summary.Derive(inputs.Battery.CapacityMWh, ledger, inputs.Battery.DegradationPerCycle),
	}, nil
}
