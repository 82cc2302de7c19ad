// Package sweep runs a battery sizing sweep across a range of capacities
// in parallel and selects the optimal capacity (spec.md §4.5).
package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"battery-backtest/internal/model"
	"battery-backtest/internal/simulator"
)

// Params describes one sweep: the capacity range to test and the shared
// solar/delivery/battery-template inputs each capacity is simulated under.
type Params struct {
	SizeMinMWh  float64
	SizeMaxMWh  float64
	SizeStepMWh float64

	MarginalThresholdHoursPerMWh float64
	MaxParallel                  int // 0 => one task per logical core (runtime.NumCPU())

	Solar          *model.SolarProfile
	BatteryParams  model.BatteryParams // CapacityMWh is overwritten per capacity
	Delivery       model.DeliveryParams
	Diesel         model.DieselConfig
	OnProgress     func(done, total int)
}

// CapacityResult is one tested capacity's full result, kept alongside its
// summary so callers that want hourly detail don't have to re-run it.
type CapacityResult struct {
	CapacityMWh float64
	Summary     model.SummaryMetrics
	Ledger      []model.HourlyRecord
}

// Outcome is the complete sweep result: every tested capacity's summary,
// ordered by capacity, plus the capacity selected by the optimal-size rule.
// If the caller's context was cancelled mid-sweep, Cancelled is true and
// Results/CompletedCapacities cover only the capacities that finished
// before cancellation (spec.md §7 "Cancelled" taxonomy entry) rather than
// discarding the whole sweep.
type Outcome struct {
	Results             []CapacityResult
	OptimalCapacity     float64
	Cancelled           bool
	CompletedCapacities []float64
}

// Run simulates every capacity C_k = SizeMinMWh + k*SizeStepMWh while
// C_k <= SizeMaxMWh, in parallel bounded by MaxParallel, then applies the
// forward-marginal optimal-size rule across the capacity-ordered results.
func Run(ctx context.Context, p Params) (*Outcome, error) {
	if p.SizeStepMWh <= 0 {
		return nil, fmt.Errorf("sweep: SizeStepMWh must be > 0")
	}
	if p.Solar == nil {
		return nil, fmt.Errorf("sweep: solar profile is nil")
	}

	var capacities []float64
	for c := p.SizeMinMWh; c <= p.SizeMaxMWh+1e-9; c += p.SizeStepMWh {
		capacities = append(capacities, c)
	}
	if len(capacities) == 0 {
		return nil, fmt.Errorf("sweep: no capacities in range [%v, %v] step %v", p.SizeMinMWh, p.SizeMaxMWh, p.SizeStepMWh)
	}

	results := make([]CapacityResult, len(capacities))
	completed := make([]bool, len(capacities))

	g, gctx := errgroup.WithContext(ctx)
	limit := p.MaxParallel
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g.SetLimit(limit)

	var done int32
	for idx, capacity := range capacities {
		idx, capacity := idx, capacity
		g.Go(func() error {
			battParams := p.BatteryParams
			battParams.CapacityMWh = capacity

			eng := simulator.New()
			res, err := eng.Run(gctx, model.SimulationInputs{
				Solar:    p.Solar,
				Battery:  battParams,
				Delivery: p.Delivery,
				Diesel:   p.Diesel,
			})
			if err != nil {
				return fmt.Errorf("sweep: capacity %.2f MWh: %w", capacity, err)
			}

			results[idx] = CapacityResult{
				CapacityMWh: capacity,
				Summary:     res.Summary,
				Ledger:      res.Ledger,
			}
			completed[idx] = true
			if p.OnProgress != nil {
				n := atomic.AddInt32(&done, 1)
				p.OnProgress(int(n), len(capacities))
			}
			return nil
		})
	}

	threshold := p.MarginalThresholdHoursPerMWh
	if threshold <= 0 {
		threshold = 30
	}

	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// Soft cancellation: an in-flight hour finishes (dispatch decisions
		// are atomic) and any capacity not yet complete is simply dropped,
		// rather than discarding capacities that already finished.
		return partialOutcome(results, completed, threshold), nil
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CapacityMWh < results[j].CapacityMWh
	})

	applyMarginals(results)
	optimal := selectOptimalCapacity(results, threshold)

	return &Outcome{Results: results, OptimalCapacity: optimal}, nil
}

// partialOutcome builds a Cancelled Outcome from whichever capacities
// finished before the sweep's context was cancelled.
func partialOutcome(results []CapacityResult, completed []bool, threshold float64) *Outcome {
	done := make([]CapacityResult, 0, len(results))
	for i, ok := range completed {
		if ok {
			done = append(done, results[i])
		}
	}

	sort.Slice(done, func(i, j int) bool {
		return done[i].CapacityMWh < done[j].CapacityMWh
	})
	applyMarginals(done)

	caps := make([]float64, len(done))
	var optimal float64
	if len(done) > 0 {
		optimal = selectOptimalCapacity(done, threshold)
	}
	for i, r := range done {
		caps[i] = r.CapacityMWh
	}

	return &Outcome{
		Results:             done,
		OptimalCapacity:     optimal,
		Cancelled:           true,
		CompletedCapacities: caps,
	}
}

// applyMarginals fills each result's forward marginal hours/MWh against
// its next-larger neighbor; the largest capacity's marginal is left unset.
func applyMarginals(results []CapacityResult) {
	for i := 0; i < len(results)-1; i++ {
		cur, next := results[i], results[i+1]
		dCap := next.CapacityMWh - cur.CapacityMWh
		if dCap <= 0 {
			continue
		}
		dHours := float64(next.Summary.HoursDelivered - cur.Summary.HoursDelivered)
		results[i].Summary.MarginalHoursPerMWh = dHours / dCap
		results[i].Summary.HasMarginal = true
	}
}

// selectOptimalCapacity implements spec.md §4.5's optimal-size rule: the
// smallest capacity whose forward marginal falls below threshold and stays
// below it for every larger tested capacity. Falls back to the largest
// tested capacity if no such point exists. Ties prefer the smaller capacity,
// which falls out naturally from scanning in ascending order.
func selectOptimalCapacity(results []CapacityResult, threshold float64) float64 {
	for i, r := range results {
		if !r.Summary.HasMarginal {
			continue
		}
		if r.Summary.MarginalHoursPerMWh >= threshold {
			continue
		}
		if staysBelowForRest(results[i:], threshold) {
			return r.CapacityMWh
		}
	}
	return results[len(results)-1].CapacityMWh
}

func staysBelowForRest(rest []CapacityResult, threshold float64) bool {
	for _, r := range rest {
		if !r.Summary.HasMarginal {
			continue // the final capacity has no marginal defined; doesn't disqualify
		}
		if r.Summary.MarginalHoursPerMWh >= threshold {
			return false
		}
	}
	return true
}
