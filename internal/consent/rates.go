package consent

// RateTable is the narrow capability consent needs from the policy package:
// the per-unit-per-second base rate for a resource (spec §4.D validation
// rule 3, §4.F base_rates). The rate is a fractional mCC amount — even the
// spec's own per-hour defaults (CPU=10) convert to well under 1 mCC per
// second — so it is a float64, rounded only once a full charge is computed.
// Kept as an interface so this package never imports policy directly,
// mirroring the teacher's narrow collaborator interfaces (spec §6).
type RateTable interface {
	BaseRatePerUnitPerSecond(resource string) (float64, bool)
}
