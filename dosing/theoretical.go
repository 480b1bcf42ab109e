/*
theoretical.go - Physical models for expected chemical consumption

PURPOSE:
  Computes how much chemical a correctly dosed system SHOULD have consumed
  on a given day, from that week's operating parameters and the contract's
  target concentration. Two models exist, selected per tank:

  CWS_BLOWDOWN (cooling towers, evaporation-loss method):
    evaporation E = circulation * tempDiff * 1.8 * 24 / 1000   [tons/day]
    cycles C     = measured hardness ratio, else stored cycles
    blowdown B   = E / (C-1) when C > 1, else 0                [tons/day]
    daily kg     = B * targetPpm / 1000

  BWS_STEAM (boilers, steam-ratio method):
    daily kg     = (weeklySteam / 7) * targetPpm / 1000

  Target ppm is grams of chemical per ton of water, so dividing by 1000
  converts grams to kilograms.

DATA QUALITY:
  A day only counts as parameter-backed when a weekly record covers it AND
  a contract with a positive ppm target is in force. Unbacked days
  contribute zero and are excluded from "has data" tracking, so reporting
  can distinguish a genuinely idle system (backed zeros) from a system
  nobody measured (no backing at all).

SEE ALSO:
  - parameters.go: Weekly record resolution
  - contracts.go: Target ppm resolution
  - aggregate.go: Sums daily values into report rows
*/
package dosing

// evaporationFactor folds the specific heat of water and the evaporative
// heat-transfer share into one empirical constant. Standard cooling tower
// practice; changing it changes every CWS figure in the system.
const evaporationFactor = 1.8

// DailyTheory is one day's theoretical usage. Backed reports whether the
// model actually ran for this day; an unbacked day is "no data", which
// aggregation treats differently from a backed zero.
type DailyTheory struct {
	Kg     float64
	Backed bool
}

// =============================================================================
// MODEL SELECTION
// =============================================================================

// UsageModel is a per-day theoretical consumption model. Implementations are
// stateless; everything they need arrives in the inputs snapshot.
type UsageModel interface {
	Name() string
	DailyUsage(day Day, inputs UsageInputs) DailyTheory
}

// ModelFor returns the model for a calculation method. MethodNone (and any
// unknown method) has no model: such tanks report actual usage only.
func ModelFor(method CalculationMethod) (UsageModel, bool) {
	switch method {
	case MethodCWSBlowdown:
		return BlowdownModel{}, true
	case MethodBWSSteam:
		return SteamModel{}, true
	default:
		return nil, false
	}
}

// DailyTheoretical computes one day's theoretical usage for a tank using its
// configured method. Tanks without a model report an unbacked zero.
func DailyTheoretical(day Day, inputs UsageInputs) DailyTheory {
	model, ok := ModelFor(inputs.Tank.Method)
	if !ok {
		return DailyTheory{}
	}
	return model.DailyUsage(day, inputs)
}

// =============================================================================
// CWS BLOWDOWN MODEL
// =============================================================================

// BlowdownModel estimates cooling tower consumption from evaporation loss.
// Water lost to evaporation concentrates the circulating water; blowdown
// discharges the concentrate, and dosage replaces chemical lost with it.
type BlowdownModel struct{}

func (BlowdownModel) Name() string { return "cws-blowdown" }

func (BlowdownModel) DailyUsage(day Day, inputs UsageInputs) DailyTheory {
	supply, ok := ActiveSupply(day, inputs.Supplies)
	if !ok || supply.TargetPPM <= 0 {
		return DailyTheory{}
	}
	rec, ok := CoveringCWS(day, inputs.CWSParams)
	if !ok {
		return DailyTheory{}
	}
	return DailyTheory{Kg: blowdownDailyKg(rec, supply.TargetPPM), Backed: true}
}

func blowdownDailyKg(rec CWSParameterRecord, targetPPM float64) float64 {
	evaporation := rec.CirculationM3H * rec.TempDiffC * evaporationFactor * 24 / 1000

	cycles := rec.EffectiveCycles()
	var blowdown float64
	if cycles > 1 {
		blowdown = evaporation / (cycles - 1)
	}
	return blowdown * targetPPM / 1000
}

// =============================================================================
// BWS STEAM MODEL
// =============================================================================

// SteamModel estimates boiler consumption from steam production: every ton
// of steam carries its share of dosed chemical out of the system.
type SteamModel struct{}

func (SteamModel) Name() string { return "bws-steam" }

func (SteamModel) DailyUsage(day Day, inputs UsageInputs) DailyTheory {
	supply, ok := ActiveSupply(day, inputs.Supplies)
	if !ok || supply.TargetPPM <= 0 {
		return DailyTheory{}
	}
	rec, ok := CoveringBWS(day, inputs.BWSParams)
	if !ok {
		return DailyTheory{}
	}
	// The weekly steam total spreads evenly over its seven days.
	return DailyTheory{Kg: rec.SteamTons / 7 * supply.TargetPPM / 1000, Backed: true}
}

// =============================================================================
// BULK PERIOD VARIANTS
// =============================================================================
// One-shot estimates for a whole period from period-scoped parameters.
// These never participate in the day-by-day path and must not be mixed with
// it: the daily model divides weekly steam by 7, the bulk variant takes the
// period total as-is.

// BulkSteamUsage returns the theoretical usage for a period given that
// period's total steam production.
func BulkSteamUsage(periodSteamTons, targetPPM float64) float64 {
	if targetPPM <= 0 {
		return 0
	}
	return periodSteamTons * targetPPM / 1000
}

// BulkBlowdownUsage returns the theoretical usage for a period of the given
// length, assuming the supplied parameter record held for the whole period.
func BulkBlowdownUsage(rec CWSParameterRecord, targetPPM float64, days int) float64 {
	if targetPPM <= 0 || days <= 0 {
		return 0
	}
	return blowdownDailyKg(rec, targetPPM) * float64(days)
}
