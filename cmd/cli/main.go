package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"battery-backtest/internal/config"
	"battery-backtest/internal/data"
	"battery-backtest/internal/model"
	"battery-backtest/internal/report"
	"battery-backtest/internal/simulator"
	"battery-backtest/internal/sweep"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "sweep":
		cmdSweep(os.Args[2:])
	case "simulate":
		cmdSimulate(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli sweep --solar solar.json --config examples/config.yaml --out results/summary.csv")
	fmt.Println("  cli simulate --solar solar.json --config examples/config.yaml --capacity 100 --out results/hourly.csv")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - sweep tests a range of battery capacities and reports per-capacity summary metrics")
	fmt.Println("  - simulate runs a single capacity and writes its full hourly ledger")
}

func cmdSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	solarPath := fs.String("solar", "", "Path to solar profile JSON")
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "results/summary.csv", "Output CSV path")
	_ = fs.Parse(args)

	if *solarPath == "" || *cfgPath == "" {
		fmt.Println("--solar and --config are required")
		os.Exit(2)
	}

	cfg, solar := loadConfigAndSolar(*cfgPath, *solarPath)

	outcome, err := sweep.Run(context.Background(), sweep.Params{
		SizeMinMWh:                   cfg.Sweep.SizeMinMWh,
		SizeMaxMWh:                   cfg.Sweep.SizeMaxMWh,
		SizeStepMWh:                  cfg.Sweep.SizeStepMWh,
		MarginalThresholdHoursPerMWh: cfg.Sweep.MarginalThreshold,
		Solar:                        solar,
		BatteryParams:                cfg.Battery.ToModelParams(0),
		Delivery:                     cfg.Delivery.ToModelParams(),
		OnProgress: func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rsimulated %d/%d capacities", done, total)
		},
	})
	if err != nil {
		panic(err)
	}
	fmt.Fprintln(os.Stderr)

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := report.WriteSummaryCSV(*outPath, outcome.Results); err != nil {
		panic(err)
	}

	if outcome.Cancelled {
		fmt.Fprintf(os.Stderr, "sweep cancelled: %d capacities completed before cancellation\n", len(outcome.CompletedCapacities))
	}
	fmt.Printf("Wrote %d capacity rows to %s\n", len(outcome.Results), *outPath)
	fmt.Printf("Optimal capacity: %.1f MWh\n", outcome.OptimalCapacity)
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	solarPath := fs.String("solar", "", "Path to solar profile JSON")
	cfgPath := fs.String("config", "", "Path to YAML config")
	capacity := fs.Float64("capacity", 0, "Battery capacity in MWh (overrides config)")
	outPath := fs.String("out", "results/hourly.csv", "Output CSV path")
	_ = fs.Parse(args)

	if *solarPath == "" || *cfgPath == "" {
		fmt.Println("--solar and --config are required")
		os.Exit(2)
	}

	cfg, solar := loadConfigAndSolar(*cfgPath, *solarPath)

	battParams := cfg.Battery.ToModelParams(*capacity)
	if *capacity <= 0 {
		battParams.CapacityMWh = cfg.Sweep.SizeMinMWh
	}

	eng := simulator.New()
	res, err := eng.Run(context.Background(), model.SimulationInputs{
		Solar:    solar,
		Battery:  battParams,
		Delivery: cfg.Delivery.ToModelParams(),
	})
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := report.WriteHourlyCSV(*outPath, res.Ledger); err != nil {
		panic(err)
	}

	s := res.Summary
	fmt.Printf("Wrote %d hourly rows to %s\n", len(res.Ledger), *outPath)
	fmt.Printf("Capacity=%.1f MWh Served=%.1f%% Wastage=%.1f%% Cycles=%.2f\n",
		s.CapacityMWh, s.ServedFraction*100, s.WastagePct*100, s.TotalCycles)
}

func loadConfigAndSolar(cfgPath, solarPath string) (*config.Config, *model.SolarProfile) {
	cfg, failures, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	for _, f := range failures {
		fmt.Fprintln(os.Stderr, f.String())
	}

	solar, err := data.LoadSolarProfileJSON(solarPath)
	if err != nil {
		panic(err)
	}

	return cfg, solar
}
