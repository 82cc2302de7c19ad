package model

// OperatingState is the battery's last action class for an hour.
type OperatingState string

const (
	StateIdle        OperatingState = "IDLE"
	StateCharging    OperatingState = "CHARGING"
	StateDischarging OperatingState = "DISCHARGING"
)

// cycleDelta returns the fractional cycle count assigned to a transition
// from `from` to `to`: 0 for no change, 1.0 for a direct CHARGING<->DISCHARGING
// reversal, 0.5 for any other state change.
func cycleDelta(from, to OperatingState) float64 {
	if from == to {
		return 0
	}
	if (from == StateCharging && to == StateDischarging) || (from == StateDischarging && to == StateCharging) {
		return 1.0
	}
	return 0.5
}
