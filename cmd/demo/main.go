package main

import (
	"context"
	"flag"
	"fmt"

	"battery-backtest/internal/config"
	"battery-backtest/internal/data"
	"battery-backtest/internal/model"
	"battery-backtest/internal/simulator"
)

// Demo loads a solar profile, runs a single-capacity simulation against the
// default (or --config-supplied) battery template, and prints the first few
// hours of its ledger plus the full-year summary.
func main() {
	solarPath := flag.String("solar", "solar_profile.json", "Path to solar profile JSON")
	cfgPath := flag.String("config", "", "Path to YAML config (optional, defaults used otherwise)")
	capacity := flag.Float64("capacity", 100, "Battery capacity in MWh")
	n := flag.Int("n", 12, "Number of hours to print")
	flag.Parse()

	cfg := config.Defaults()
	if *cfgPath != "" {
		loaded, failures, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		for _, f := range failures {
			fmt.Println(f.String())
		}
		cfg = *loaded
	}

	solar, err := data.LoadSolarProfileJSON(*solarPath)
	if err != nil {
		panic(err)
	}

	battParams := cfg.Battery.ToModelParams(*capacity)

	eng := simulator.New()
	res, err := eng.Run(context.Background(), model.SimulationInputs{
		Solar:    solar,
		Battery:  battParams,
		Delivery: cfg.Delivery.ToModelParams(),
	})
	if err != nil {
		panic(err)
	}

	fmt.Printf("Loaded %d hours for %s\n", solar.Len(), solar.Site)
	fmt.Printf("Capacity=%.1f MWh Target=%.1f MW\n\n", battParams.CapacityMWh, cfg.Delivery.TargetMW)

	for i := 0; i < min(*n, len(res.Ledger)); i++ {
		r := res.Ledger[i]
		fmt.Printf(
			"hour=%-4d solar=%6.2f bess=%6.2f soc=%.3f delivered=%6.2f shortfall=%6.2f state=%-11s\n",
			r.Hour, r.SolarMW, r.BatteryMW, r.SOC, r.DeliveredMW, r.ShortfallMW, string(r.State),
		)
	}

	s := res.Summary
	fmt.Printf("\nDone. Served=%.1f%% Wastage=%.1f%% Cycles=%.2f Degradation=%.3f%%\n",
		s.ServedFraction*100, s.WastagePct*100, s.TotalCycles, s.DegradationPct)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
