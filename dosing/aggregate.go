/*
aggregate.go - Rolling daily usage up into report rows

PURPOSE:
  Produces the rows the reporting layer displays: per tank and month (or
  week, or year), actual consumption next to theoretical consumption, the
  variance between them, and what the consumption cost under the contract
  in force.

KEY CONCEPTS:
  - AsOf day: theoretical usage is only summed for days up to "now";
    future days are excluded entirely, not zero-filled. The caller
    supplies the as-of day so the engine stays deterministic.
  - Unavailable theory: a month where no day was parameter-backed reports
    nil theory, distinguishing "nobody measured" from "measured zero".
    Variance is nil whenever theory is nil or zero.
  - Mid-month contract changes: the row shows the latest contract
    effective during the month, flags that a change happened, and retains
    the ordered price/gravity points for audit display.

EXAMPLE:
  agg := dosing.Aggregator{AsOf: dosing.Today()}
  row := agg.MonthReport(inputs, dosing.NewMonthKey(2026, time.March))
  if row.TheoryKg == nil {
      // no process data recorded for March
  }

SEE ALSO:
  - allocation.go: Produces the daily actual map this buckets
  - theoretical.go: Produces the per-day theory values
  - contracts.go: Month timeline for pricing and change flags
*/
package dosing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REPORT ROW TYPES
// =============================================================================

// PricePoint is one step of a month's price timeline, for audit display.
type PricePoint struct {
	EffectiveFrom Day
	Price         decimal.Decimal
}

// GravityPoint is one step of a month's specific-gravity timeline.
type GravityPoint struct {
	EffectiveFrom   Day
	SpecificGravity float64
}

// MonthRow is one tank-month of reconciled usage. Pointer fields are nil
// when the underlying value does not exist for the month (no process data,
// no contract), which renders as blank rather than a misleading zero.
type MonthRow struct {
	TankID TankID
	Month  MonthKey

	ActualKg    float64
	TheoryKg    *float64
	VariancePct *float64

	// BackedDays counts the days whose theoretical value was parameter-backed.
	BackedDays int

	// Display contract: the latest contract effective during the month.
	Price           *decimal.Decimal
	SpecificGravity *float64

	// SupplyChanged reports that more than one contract was effective
	// during the month; the point lists carry the full ordered timeline.
	SupplyChanged bool
	PricePoints   []PricePoint
	GravityPoints []GravityPoint

	Cost decimal.Decimal
}

// YearReport bundles a tank's twelve month rows with annual totals.
type YearReport struct {
	TankID TankID
	Year   int
	Months []MonthRow

	TotalActualKg float64
	TotalTheoryKg *float64
	TotalCost     decimal.Decimal
}

// WeekUsage is the weekly rollup of actual against theoretical usage.
type WeekUsage struct {
	TankID   TankID
	Window   WeekWindow
	ActualKg float64
	TheoryKg *float64
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator rolls a tank's usage snapshot into report rows. It holds only
// the as-of day; every method is a pure function of its arguments, so
// re-running any of them on the same snapshot yields identical rows.
type Aggregator struct {
	AsOf Day
}

// MonthReport reconciles one tank-month.
func (a Aggregator) MonthReport(inputs UsageInputs, month MonthKey) MonthRow {
	return a.monthRow(AllocateDailyUsage(inputs.Readings), inputs, month)
}

// YearReport reconciles all twelve months of a year plus annual totals.
// The daily allocation runs once and is shared across the months.
func (a Aggregator) YearReport(inputs UsageInputs, year int) YearReport {
	daily := AllocateDailyUsage(inputs.Readings)

	report := YearReport{
		TankID:    inputs.Tank.ID,
		Year:      year,
		Months:    make([]MonthRow, 0, 12),
		TotalCost: decimal.Zero,
	}

	var theoryTotal float64
	theoryAvailable := false
	for m := 1; m <= 12; m++ {
		row := a.monthRow(daily, inputs, NewMonthKey(year, time.Month(m)))
		report.Months = append(report.Months, row)

		report.TotalActualKg += row.ActualKg
		report.TotalCost = report.TotalCost.Add(row.Cost)
		if row.TheoryKg != nil {
			theoryTotal += *row.TheoryKg
			theoryAvailable = true
		}
	}
	if theoryAvailable {
		report.TotalTheoryKg = &theoryTotal
	}
	return report
}

// WeekReport reconciles one seven-day window. Windows are caller-chosen;
// parameter week starts are the natural alignment.
func (a Aggregator) WeekReport(inputs UsageInputs, window WeekWindow) WeekUsage {
	daily := AllocateDailyUsage(inputs.Readings)
	usage := WeekUsage{
		TankID:   inputs.Tank.ID,
		Window:   window,
		ActualKg: daily.SumDays(window.Days()),
	}
	if theory, backed := a.sumTheory(inputs, window.Days()); backed > 0 {
		usage.TheoryKg = &theory
	}
	return usage
}

// =============================================================================
// MONTH ROW ASSEMBLY
// =============================================================================

func (a Aggregator) monthRow(daily DailyUsage, inputs UsageInputs, month MonthKey) MonthRow {
	row := MonthRow{
		TankID:   inputs.Tank.ID,
		Month:    month,
		ActualKg: daily.SumDays(month.Days()),
		Cost:     decimal.Zero,
	}

	theory, backed := a.sumTheory(inputs, month.Days())
	row.BackedDays = backed
	if backed > 0 {
		row.TheoryKg = &theory
	}
	if row.TheoryKg != nil && *row.TheoryKg != 0 {
		variance := (row.ActualKg - *row.TheoryKg) / *row.TheoryKg * 100
		row.VariancePct = &variance
	}

	timeline := SuppliesInMonth(month, inputs.Supplies)
	if len(timeline) > 0 {
		display := timeline[len(timeline)-1]
		row.Price = &display.Price
		row.SpecificGravity = &display.SpecificGravity
		row.SupplyChanged = len(timeline) > 1
		for _, s := range timeline {
			row.PricePoints = append(row.PricePoints, PricePoint{EffectiveFrom: s.EffectiveFrom, Price: s.Price})
			row.GravityPoints = append(row.GravityPoints, GravityPoint{EffectiveFrom: s.EffectiveFrom, SpecificGravity: s.SpecificGravity})
		}
		if row.ActualKg > 0 && display.Price.IsPositive() {
			row.Cost = decimal.NewFromFloat(row.ActualKg).Mul(display.Price)
		}
	}
	return row
}

// sumTheory sums the daily theoretical model over the given days, skipping
// days after the as-of day entirely, and counts how many summed days were
// parameter-backed.
func (a Aggregator) sumTheory(inputs UsageInputs, days []Day) (float64, int) {
	var total float64
	backed := 0
	for _, d := range days {
		if d.After(a.AsOf) {
			continue
		}
		th := DailyTheoretical(d, inputs)
		if th.Backed {
			total += th.Kg
			backed++
		}
	}
	return total, backed
}
