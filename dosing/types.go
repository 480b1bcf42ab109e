/*
Package dosing provides the usage reconciliation engine for chemical dosing
in industrial water systems.

PURPOSE:
  This package contains the pure domain model and algorithms for answering
  one question per tank and period: how much treatment chemical SHOULD have
  been consumed (theoretical usage, from operating parameters) versus how
  much WAS consumed (actual usage, from tank weight readings), and how far
  apart the two are.

KEY CONCEPTS IN THIS FILE (types.go):
  - Tank: A chemical dosing tank with geometry and a calculation method
  - ChemicalSupply: An effective-dated supply contract (ppm target, price)
  - Reading: An immutable tank measurement event (weight, refill)
  - CWSParameterRecord / BWSParameterRecord: Weekly operating parameters
  - UsageInputs: The full snapshot one engine run consumes

DESIGN PRINCIPLES:
  1. Purity: Engine functions take snapshots in and return values out.
     No I/O, no clocks, no stored state between calls.
  2. Degradation: Missing or invalid inputs degrade to zero/absent results,
     never to errors or NaN. A half-configured tank still reports.
  3. Immutability: Readings are append-only events; corrections happen by
     appending, never by editing history.
  4. Precision: decimal.Decimal for money, float64 for physical quantities.

USAGE:
  inputs := dosing.UsageInputs{Tank: tank, Supplies: supplies, Readings: readings}
  daily := dosing.AllocateDailyUsage(inputs.Readings)
  row := dosing.Aggregator{AsOf: dosing.Today()}.MonthReport(inputs, month)

SEE ALSO:
  - geometry.go: Tank level to volume conversion
  - contracts.go: Effective-dated supply resolution
  - theoretical.go: CWS/BWS daily dosage models
  - allocation.go: Reading-pair proration onto calendar days
  - aggregate.go: Monthly/annual/weekly report rows
*/
package dosing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TankID string
type SupplyID string
type ReadingID string
type RecordID string
type NoteID string

// =============================================================================
// ENUMERATIONS - Closed sets, validated at the edges
// =============================================================================

// SystemType classifies the water system a tank doses into.
type SystemType string

const (
	SystemCooling SystemType = "COOLING"
	SystemBoiler  SystemType = "BOILER"
	SystemDenox   SystemType = "DENOX"
)

func (s SystemType) Valid() bool {
	switch s {
	case SystemCooling, SystemBoiler, SystemDenox:
		return true
	}
	return false
}

// CalculationMethod selects the theoretical usage model for a tank.
// MethodNone is a valid configuration: the tank reports actual usage only.
type CalculationMethod string

const (
	MethodNone        CalculationMethod = "NONE"
	MethodCWSBlowdown CalculationMethod = "CWS_BLOWDOWN"
	MethodBWSSteam    CalculationMethod = "BWS_STEAM"
)

func (m CalculationMethod) Valid() bool {
	switch m {
	case MethodNone, MethodCWSBlowdown, MethodBWSSteam:
		return true
	}
	return false
}

// TankShape selects the geometric volume model. The empty string means the
// shape is unknown; volume falls through to the legacy linear factor.
type TankShape string

const (
	ShapeVerticalCylinder   TankShape = "VERTICAL_CYLINDER"
	ShapeRectangular        TankShape = "RECTANGULAR"
	ShapeHorizontalCylinder TankShape = "HORIZONTAL_CYLINDER"
)

func (s TankShape) Valid() bool {
	switch s {
	case ShapeVerticalCylinder, ShapeRectangular, ShapeHorizontalCylinder, "":
		return true
	}
	return false
}

// HeadType describes the end caps of a horizontal cylinder.
type HeadType string

const (
	HeadFlat           HeadType = "FLAT"
	HeadHemispherical  HeadType = "HEMISPHERICAL"
	HeadSemiElliptical HeadType = "SEMI_ELLIPTICAL_2_1"
)

func (h HeadType) Valid() bool {
	switch h {
	case HeadFlat, HeadHemispherical, HeadSemiElliptical, "":
		return true
	}
	return false
}

// =============================================================================
// TANK - Dosing tank with geometry and calculation configuration
// =============================================================================

type Tank struct {
	ID     TankID
	Name   string
	Site   string
	System SystemType
	Method CalculationMethod

	// Geometry. All linear dimensions in centimeters. Which fields matter
	// depends on Shape; unused fields are zero.
	Shape          TankShape
	DiameterCm     float64
	HeightCm       float64 // vertical extent; doubles as max fill height clamp
	LengthCm       float64
	WidthCm        float64
	SensorOffsetCm float64 // added to the raw sensor level, may be negative
	Head           HeadType

	// LitersPerCm is the legacy linear calibration factor used when no shape
	// is configured. Zero disables the fallback.
	LitersPerCm float64
}

// =============================================================================
// CHEMICAL SUPPLY - Effective-dated supply contract
// =============================================================================

// ChemicalSupply records the supply contract in force from EffectiveFrom
// onward, until superseded by a contract with a later effective day. History
// is kept forever; resolution picks the right contract per day.
type ChemicalSupply struct {
	ID            SupplyID
	TankID        TankID
	Product       string
	EffectiveFrom Day

	// TargetPPM is the dosage target in grams of chemical per ton of water.
	TargetPPM float64

	// Price per kilogram of chemical. Money, so decimal.
	Price decimal.Decimal

	// SpecificGravity of the delivered chemical in kg/L. Used to convert
	// measured volumes to mass at the import boundary and reported on
	// monthly rows.
	SpecificGravity float64
}

// =============================================================================
// READING - Immutable tank measurement event
// =============================================================================

// Reading is one observation of a tank: the chemical weight present at a
// timestamp, plus any refill that happened since the previous reading.
// Readings are append-only; the allocator tolerates duplicates and disorder.
type Reading struct {
	ID        ReadingID
	TankID    TankID
	Timestamp time.Time

	// WeightKg is the calculated chemical mass in the tank at Timestamp.
	WeightKg float64

	// LevelCm is the raw sensor level the weight was derived from, when the
	// reading came through the geometry path. Kept for audit; the engine
	// never recomputes from it.
	LevelCm *float64

	// RefillLiters is the volume of chemical added since the previous
	// reading. Zero means no refill.
	RefillLiters float64

	// RefillGravity is the specific gravity of the refilled chemical in
	// kg/L. nil means unknown, which is an explicit state: a refill of
	// unknown mass makes its interval's usage unknowable, not 1 kg/L.
	RefillGravity *float64
}

// RefillKg returns the refill mass and whether it is known. A zero-liter
// refill is known (zero mass) even without a gravity.
func (r Reading) RefillKg() (float64, bool) {
	if r.RefillLiters == 0 {
		return 0, true
	}
	if r.RefillGravity == nil {
		return 0, false
	}
	return r.RefillLiters * (*r.RefillGravity), true
}

// =============================================================================
// PARAMETER RECORDS - Weekly operating parameters
// =============================================================================

// CWSParameterRecord holds one week of cooling water system parameters,
// covering the half-open window [WeekStart, WeekStart+7d).
type CWSParameterRecord struct {
	ID        RecordID
	TankID    TankID
	WeekStart Day

	CirculationM3H float64 // recirculation rate, m3/h
	TempDiffC      float64 // temperature differential across the tower, degC
	Cycles         float64 // stored cycles of concentration

	// Measured hardness pair. When BOTH are positive their ratio overrides
	// the stored Cycles value.
	CWSHardnessPPM    float64
	MakeupHardnessPPM float64
}

// EffectiveCycles returns the cycles of concentration to use: the measured
// hardness ratio when both hardness values are positive, else the stored
// cycles value.
func (p CWSParameterRecord) EffectiveCycles() float64 {
	if p.CWSHardnessPPM > 0 && p.MakeupHardnessPPM > 0 {
		return p.CWSHardnessPPM / p.MakeupHardnessPPM
	}
	return p.Cycles
}

// BWSParameterRecord holds one week of boiler water system parameters,
// covering the half-open window [WeekStart, WeekStart+7d).
type BWSParameterRecord struct {
	ID        RecordID
	TankID    TankID
	WeekStart Day

	SteamTons float64 // steam production for the whole week, tons
}

// =============================================================================
// IMPORTANT NOTE - Report annotation
// =============================================================================

// ImportantNote is a free-text annotation pinned to a day, optionally scoped
// to one tank (empty TankID means site-wide).
type ImportantNote struct {
	ID        NoteID
	TankID    TankID
	Day       Day
	Text      string
	CreatedAt time.Time
}

// =============================================================================
// USAGE INPUTS - Snapshot consumed by one engine run
// =============================================================================

// UsageInputs bundles everything the engine needs to reconcile one tank.
// Callers assemble it (typically via Store.GetUsageInputs) and the engine
// only reads it; slices are never mutated.
type UsageInputs struct {
	Tank      Tank
	Supplies  []ChemicalSupply
	CWSParams []CWSParameterRecord
	BWSParams []BWSParameterRecord
	Readings  []Reading
}
