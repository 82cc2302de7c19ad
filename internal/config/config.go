// Package config loads and validates the YAML configuration that drives a
// sizing sweep: battery template, delivery target, and capacity range.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"battery-backtest/internal/model"
)

// Config is the on-disk configuration shape.
type Config struct {
	// Optional: load battery parameters from a separate YAML (e.g.
	// examples/batteries/*.yaml). If both BatteryFile and Battery are
	// provided, Battery's non-zero fields override BatteryFile's.
	BatteryFile string         `yaml:"battery_file"`
	Battery     BatteryConfig  `yaml:"battery"`
	Delivery    DeliveryConfig `yaml:"delivery"`
	Sweep       SweepConfig    `yaml:"sweep"`
	SolarFile   string         `yaml:"solar_file"`
}

// BatteryConfig is the YAML shape of model.BatteryParams, before a specific
// capacity is substituted in by the sweep driver.
type BatteryConfig struct {
	SOCMin              float64 `yaml:"soc_min"`
	SOCMax              float64 `yaml:"soc_max"`
	SOCInit             float64 `yaml:"soc_init"`
	RoundTripEfficiency float64 `yaml:"eta_rt"`
	ChargeCRate         float64 `yaml:"c_c"`
	DischargeCRate      float64 `yaml:"c_d"`
	MaxCyclesPerDay     float64 `yaml:"max_cycles_per_day"`
	DegradationPerCycle float64 `yaml:"degradation_per_cycle"`
	AuxLoadPct          float64 `yaml:"aux_load_pct"`
}

// DeliveryConfig is the YAML shape of model.DeliveryParams.
type DeliveryConfig struct {
	TargetMW          float64 `yaml:"target_mw"`
	ChargeThresholdMW float64 `yaml:"charge_threshold_mw"`
	NightBlackoutFrom int     `yaml:"night_blackout_from"`
	NightBlackoutTo   int     `yaml:"night_blackout_to"`
}

// SweepConfig is the YAML shape of the capacity range a sweep tests.
type SweepConfig struct {
	SizeMinMWh        float64 `yaml:"size_min"`
	SizeMaxMWh        float64 `yaml:"size_max"`
	SizeStepMWh       float64 `yaml:"size_step"`
	MarginalThreshold float64 `yaml:"marginal_threshold"` // hrs/MWh
}

// Defaults mirrors spec.md §4.6's documented default config.
func Defaults() Config {
	return Config{
		Battery: BatteryConfig{
			SOCMin:              0.05,
			SOCMax:              0.95,
			SOCInit:             0.50,
			RoundTripEfficiency: 0.87,
			ChargeCRate:         1.0,
			DischargeCRate:      1.0,
			MaxCyclesPerDay:     2,
			DegradationPerCycle: 1.5e-5,
			AuxLoadPct:          0,
		},
		Delivery: DeliveryConfig{
			TargetMW:          25,
			ChargeThresholdMW: 0,
			NightBlackoutFrom: -1,
			NightBlackoutTo:   -1,
		},
		Sweep: SweepConfig{
			SizeMinMWh:        10,
			SizeMaxMWh:        500,
			SizeStepMWh:       5,
			MarginalThreshold: 30,
		},
	}
}

// Load reads, merges, and validates a config file. Validate's full failure
// list (errors and warnings together) is always returned alongside the
// config so a caller can surface warnings; Load only treats the result as
// fatal (nil Config, non-nil error) when at least one failure is
// error-severity.
func Load(path string) (*Config, []Failure, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, nil, err
	}
	failures := c.Validate()
	ce := &ConfigError{Failures: failures}
	if len(ce.Errors()) > 0 {
		return nil, failures, ce
	}
	return c, failures, nil
}

// LoadUnchecked loads and merges config, starting from Defaults(), without
// validating it. Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	c := Defaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if c.BatteryFile != "" {
		batteryPath := c.BatteryFile
		if !filepath.IsAbs(batteryPath) {
			cand := filepath.Join(filepath.Dir(path), batteryPath)
			if _, err := os.Stat(cand); err == nil {
				batteryPath = cand
			}
		}
		loaded, err := loadBatteryFile(batteryPath)
		if err != nil {
			return nil, err
		}
		// c.Battery is already filled with defaults, so overlay only the
		// fields the config file itself sets on top of the battery file.
		var explicit batteryFileWrapper
		if err := yaml.Unmarshal(raw, &explicit); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		c.Battery = MergeBattery(MergeBattery(Defaults().Battery, loaded), explicit.Battery)
	}

	return &c, nil
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

func loadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, fmt.Errorf("config: parse battery file %s: %w", path, err)
	}
	return w.Battery, nil
}

// MergeBattery overlays override's non-zero fields onto base.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.SOCMin != 0 {
		out.SOCMin = override.SOCMin
	}
	if override.SOCMax != 0 {
		out.SOCMax = override.SOCMax
	}
	if override.SOCInit != 0 {
		out.SOCInit = override.SOCInit
	}
	if override.RoundTripEfficiency != 0 {
		out.RoundTripEfficiency = override.RoundTripEfficiency
	}
	if override.ChargeCRate != 0 {
		out.ChargeCRate = override.ChargeCRate
	}
	if override.DischargeCRate != 0 {
		out.DischargeCRate = override.DischargeCRate
	}
	if override.MaxCyclesPerDay != 0 {
		out.MaxCyclesPerDay = override.MaxCyclesPerDay
	}
	if override.DegradationPerCycle != 0 {
		out.DegradationPerCycle = override.DegradationPerCycle
	}
	if override.AuxLoadPct != 0 {
		out.AuxLoadPct = override.AuxLoadPct
	}
	return out
}

// ToModelParams builds model.BatteryParams for a specific tested capacity.
func (b BatteryConfig) ToModelParams(capacityMWh float64) model.BatteryParams {
	return model.BatteryParams{
		CapacityMWh:         capacityMWh,
		SOCMin:              b.SOCMin,
		SOCMax:              b.SOCMax,
		SOCInit:             b.SOCInit,
		RoundTripEfficiency: b.RoundTripEfficiency,
		ChargeCRate:         b.ChargeCRate,
		DischargeCRate:      b.DischargeCRate,
		MaxCyclesPerDay:     b.MaxCyclesPerDay,
		DegradationPerCycle: b.DegradationPerCycle,
		AuxLoadPct:          b.AuxLoadPct,
	}
}

func (d DeliveryConfig) ToModelParams() model.DeliveryParams {
	return model.DeliveryParams{
		TargetMW:          d.TargetMW,
		ChargeThresholdMW: d.ChargeThresholdMW,
		NightBlackoutFrom: d.NightBlackoutFrom,
		NightBlackoutTo:   d.NightBlackoutTo,
	}
}
