package config

import (
	"fmt"
	"strings"
)

// Severity distinguishes a rule that must fail the whole config from one
// that is surfaced but does not block simulation.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// Failure is one validation rule's outcome.
type Failure struct {
	Rule     string
	Severity Severity
	Detail   string
}

func (f Failure) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Rule, f.Detail)
}

// ConfigError wraps every validation failure gathered by Validate. Warnings
// are included for visibility but do not by themselves cause Load to fail;
// ConfigError is only returned when at least one error-severity Failure is
// present.
type ConfigError struct {
	Failures []Failure
}

func (e *ConfigError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("config invalid (%d failure(s)): %s", len(e.Failures), strings.Join(parts, "; "))
}

// Errors returns only the error-severity failures.
func (e *ConfigError) Errors() []Failure {
	var out []Failure
	for _, f := range e.Failures {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// Warnings returns only the warn-severity failures.
func (e *ConfigError) Warnings() []Failure {
	var out []Failure
	for _, f := range e.Failures {
		if f.Severity == SeverityWarn {
			out = append(out, f)
		}
	}
	return out
}

// Validate runs the full C6 rule table against c, returning every failure
// (error and warn) rather than stopping at the first. Load() only treats
// the result as fatal if it contains an error-severity failure.
func (c *Config) Validate() []Failure {
	var fails []Failure
	b, d, s := c.Battery, c.Delivery, c.Sweep

	if !(b.SOCMin < b.SOCMax) {
		fails = append(fails, Failure{"soc_ordering", SeverityError, fmt.Sprintf("soc_min (%v) must be < soc_max (%v)", b.SOCMin, b.SOCMax)})
	}
	if !(b.SOCMin <= b.SOCInit && b.SOCInit <= b.SOCMax) {
		fails = append(fails, Failure{"soc_init_in_range", SeverityError, fmt.Sprintf("soc_init (%v) must be in [soc_min, soc_max] = [%v, %v]", b.SOCInit, b.SOCMin, b.SOCMax)})
	}
	if b.SOCMax-b.SOCMin < 0.20 {
		fails = append(fails, Failure{"operating_window", SeverityError, fmt.Sprintf("soc_max - soc_min (%v) must be >= 0.20", b.SOCMax-b.SOCMin)})
	}
	if !(s.SizeMinMWh < s.SizeMaxMWh) {
		fails = append(fails, Failure{"size_ordering", SeverityError, fmt.Sprintf("size_min (%v) must be < size_max (%v)", s.SizeMinMWh, s.SizeMaxMWh)})
	}
	if !(s.SizeStepMWh > 0) {
		fails = append(fails, Failure{"positive_step", SeverityError, fmt.Sprintf("size_step (%v) must be > 0", s.SizeStepMWh)})
	}
	if s.SizeMinMWh < 5 {
		fails = append(fails, Failure{"minimum_size", SeverityWarn, fmt.Sprintf("size_min (%v) is below the recommended 5 MWh floor", s.SizeMinMWh)})
	}
	if !(b.RoundTripEfficiency > 0 && b.RoundTripEfficiency < 1) {
		fails = append(fails, Failure{"rte_bounds", SeverityError, fmt.Sprintf("eta_rt (%v) must be in (0, 1)", b.RoundTripEfficiency)})
	}
	if !(b.ChargeCRate > 0 && b.ChargeCRate <= 2 && b.DischargeCRate > 0 && b.DischargeCRate <= 2) {
		fails = append(fails, Failure{"c_rate_bounds", SeverityError, fmt.Sprintf("c_c (%v) and c_d (%v) must be in (0, 2]", b.ChargeCRate, b.DischargeCRate)})
	}
	if s.SizeStepMWh > 0 && s.SizeMaxMWh > s.SizeMinMWh {
		count := int((s.SizeMaxMWh-s.SizeMinMWh)/s.SizeStepMWh) + 1
		if count > 100 {
			fails = append(fails, Failure{"config_count", SeverityWarn, fmt.Sprintf("sweep tests %d capacities, exceeding the recommended 100", count)})
		}
	}
	_ = d // solar/target ratio warn is checked by ValidateAgainstSolar, which needs the loaded profile

	return fails
}

// ValidateAgainstSolar adds the solar/target-ratio warning from spec.md's
// rule table, which needs the loaded SolarProfile's annual total and so
// cannot be checked by Validate alone.
func ValidateAgainstSolar(fails []Failure, totalSolarMWh float64, targetMW float64) []Failure {
	if targetMW <= 0 {
		return fails
	}
	avgSolarMW := totalSolarMWh / 8760
	if avgSolarMW/targetMW < 1.2 {
		fails = append(fails, Failure{"solar_target_ratio", SeverityWarn, fmt.Sprintf("average solar (%.2f MW) is less than 1.2x the delivery target (%.2f MW)", avgSolarMW, targetMW)})
	}
	return fails
}
