package dosing_test

import (
	"math"
	"testing"
	"time"

	"github.com/clearwater/dosing-engine/dosing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// marchCoolingInputs is a fully configured cooling tower for March 2026:
// 0.432 kg/day theoretical (120 m3/h, dT 5, 4 cycles, 50 ppm) with weekly
// records covering the whole month, and readings worth 0.5 kg/day actual
// over March 1-28.
func marchCoolingInputs() dosing.UsageInputs {
	inputs := cwsInputs(
		[]dosing.ChemicalSupply{supply("s1", d(2026, time.January, 1), 50, "2.80", 1.2)},
		[]dosing.CWSParameterRecord{
			cwsRec("w0", d(2026, time.February, 23), 120, 5, 4),
			cwsRec("w1", d(2026, time.March, 2), 120, 5, 4),
			cwsRec("w2", d(2026, time.March, 9), 120, 5, 4),
			cwsRec("w3", d(2026, time.March, 16), 120, 5, 4),
			cwsRec("w4", d(2026, time.March, 23), 120, 5, 4),
			cwsRec("w5", d(2026, time.March, 30), 120, 5, 4),
		},
	)
	inputs.Readings = []dosing.Reading{
		rd("r1", at(d(2026, time.March, 1), 8), 1000),
		rd("r2", at(d(2026, time.March, 29), 8), 986),
	}
	return inputs
}

const cwsDailyKg = 120 * 5 * 1.8 * 24 / 1000 / 3 * 50 / 1000 // 0.432

// =============================================================================
// MONTH REPORT
// =============================================================================

func TestMonthReport_ActualTheoryVarianceCost(t *testing.T) {
	// GIVEN: A fully measured March
	// WHEN: Aggregating with an as-of past month end
	// THEN: Actual 14 kg, theory 31*0.432 kg, variance and cost follow

	agg := dosing.Aggregator{AsOf: d(2026, time.April, 15)}
	row := agg.MonthReport(marchCoolingInputs(), dosing.NewMonthKey(2026, time.March))

	assert.InDelta(t, 14.0, row.ActualKg, 1e-9)

	require.NotNil(t, row.TheoryKg)
	assert.InDelta(t, 31*cwsDailyKg, *row.TheoryKg, 1e-9)
	assert.Equal(t, 31, row.BackedDays)

	require.NotNil(t, row.VariancePct)
	assert.InDelta(t, (14.0-31*cwsDailyKg)/(31*cwsDailyKg)*100, *row.VariancePct, 1e-6)

	require.NotNil(t, row.Price)
	assert.True(t, row.Cost.Equal(decimal.RequireFromString("39.2")),
		"cost = 14 kg * 2.80, got %s", row.Cost)
}

func TestMonthReport_NoParameterData_TheoryUnavailable(t *testing.T) {
	// GIVEN: A cooling tower nobody measured in March
	// WHEN: Aggregating
	// THEN: Theory is nil (unavailable), not zero; actual still reports

	inputs := marchCoolingInputs()
	inputs.CWSParams = nil

	agg := dosing.Aggregator{AsOf: d(2026, time.April, 15)}
	row := agg.MonthReport(inputs, dosing.NewMonthKey(2026, time.March))

	assert.Nil(t, row.TheoryKg)
	assert.Nil(t, row.VariancePct)
	assert.Zero(t, row.BackedDays)
	assert.InDelta(t, 14.0, row.ActualKg, 1e-9)
}

func TestMonthReport_IdleBoiler_BackedZeroIsNotUnavailable(t *testing.T) {
	// GIVEN: A boiler measured every week but idle (0 steam)
	// WHEN: Aggregating
	// THEN: Theory is a real zero, distinguishing "measured idle" from
	//       "no measurements"

	inputs := bwsInputs(
		[]dosing.ChemicalSupply{supply("s1", d(2026, time.January, 1), 30, "2.10", 1.1)},
		[]dosing.BWSParameterRecord{
			bwsRec("w0", d(2026, time.March, 1), 0),
			bwsRec("w1", d(2026, time.March, 8), 0),
			bwsRec("w2", d(2026, time.March, 15), 0),
		},
	)

	agg := dosing.Aggregator{AsOf: d(2026, time.April, 15)}
	row := agg.MonthReport(inputs, dosing.NewMonthKey(2026, time.March))

	require.NotNil(t, row.TheoryKg)
	assert.Zero(t, *row.TheoryKg)
	assert.Equal(t, 21, row.BackedDays)
	assert.Nil(t, row.VariancePct, "variance undefined against zero theory")
}

func TestMonthReport_AsOfExcludesFutureDays(t *testing.T) {
	// GIVEN: As-of mid-month
	// WHEN: Aggregating March
	// THEN: Theory covers only days up to the as-of day; future days are
	//       excluded entirely, not zero-filled

	agg := dosing.Aggregator{AsOf: d(2026, time.March, 15)}
	row := agg.MonthReport(marchCoolingInputs(), dosing.NewMonthKey(2026, time.March))

	require.NotNil(t, row.TheoryKg)
	assert.Equal(t, 15, row.BackedDays)
	assert.InDelta(t, 15*cwsDailyKg, *row.TheoryKg, 1e-9)
}

func TestMonthReport_MidMonthContractChange(t *testing.T) {
	// GIVEN: Contracts from Jan 1 (50 ppm, 2.80) and Jun 15 (60 ppm, 3.10)
	// WHEN: Aggregating June
	// THEN: The row shows the June 15 contract, flags the change, and keeps
	//       both timeline points; theory switches ppm on the 15th

	inputs := bwsInputs(
		[]dosing.ChemicalSupply{
			supply("s1", d(2024, time.January, 1), 50, "2.80", 1.20),
			supply("s2", d(2024, time.June, 15), 60, "3.10", 1.18),
		},
		[]dosing.BWSParameterRecord{
			bwsRec("w1", d(2024, time.June, 1), 700),
			bwsRec("w2", d(2024, time.June, 8), 700),
			bwsRec("w3", d(2024, time.June, 15), 700),
			bwsRec("w4", d(2024, time.June, 22), 700),
			bwsRec("w5", d(2024, time.June, 29), 700),
		},
	)
	inputs.Readings = []dosing.Reading{
		rd("r1", at(d(2024, time.June, 1), 8), 2000),
		rd("r2", at(d(2024, time.July, 1), 8), 1820),
	}

	agg := dosing.Aggregator{AsOf: d(2024, time.July, 15)}
	row := agg.MonthReport(inputs, dosing.NewMonthKey(2024, time.June))

	// 14 days at 5 kg/day + 16 days at 6 kg/day.
	require.NotNil(t, row.TheoryKg)
	assert.InDelta(t, 14*5.0+16*6.0, *row.TheoryKg, 1e-9)

	assert.True(t, row.SupplyChanged)
	require.NotNil(t, row.Price)
	assert.True(t, row.Price.Equal(decimal.RequireFromString("3.10")))
	require.NotNil(t, row.SpecificGravity)
	assert.InDelta(t, 1.18, *row.SpecificGravity, 1e-9)

	require.Len(t, row.PricePoints, 2)
	assert.Equal(t, d(2024, time.January, 1), row.PricePoints[0].EffectiveFrom)
	assert.True(t, row.PricePoints[0].Price.Equal(decimal.RequireFromString("2.80")))
	assert.Equal(t, d(2024, time.June, 15), row.PricePoints[1].EffectiveFrom)

	require.Len(t, row.GravityPoints, 2)
	assert.InDelta(t, 1.20, row.GravityPoints[0].SpecificGravity, 1e-9)
	assert.InDelta(t, 1.18, row.GravityPoints[1].SpecificGravity, 1e-9)

	// 180 kg at the display price.
	assert.InDelta(t, 180.0, row.ActualKg, 1e-9)
	assert.True(t, row.Cost.Equal(decimal.RequireFromString("558")), "got %s", row.Cost)
}

func TestMonthReport_SingleContract_NoChangeFlag(t *testing.T) {
	agg := dosing.Aggregator{AsOf: d(2026, time.April, 15)}
	row := agg.MonthReport(marchCoolingInputs(), dosing.NewMonthKey(2026, time.March))

	assert.False(t, row.SupplyChanged)
	require.Len(t, row.PricePoints, 1)
	require.Len(t, row.GravityPoints, 1)
}

func TestMonthReport_NoContract(t *testing.T) {
	inputs := marchCoolingInputs()
	inputs.Supplies = nil

	agg := dosing.Aggregator{AsOf: d(2026, time.April, 15)}
	row := agg.MonthReport(inputs, dosing.NewMonthKey(2026, time.March))

	assert.Nil(t, row.Price)
	assert.Nil(t, row.SpecificGravity)
	assert.Nil(t, row.TheoryKg, "no contract means no ppm target, so no backed days")
	assert.True(t, row.Cost.IsZero())
	assert.InDelta(t, 14.0, row.ActualKg, 1e-9, "actual usage needs no contract")
}

func TestMonthReport_Idempotent(t *testing.T) {
	inputs := marchCoolingInputs()
	agg := dosing.Aggregator{AsOf: d(2026, time.April, 15)}
	month := dosing.NewMonthKey(2026, time.March)

	first := agg.MonthReport(inputs, month)
	second := agg.MonthReport(inputs, month)

	assert.Equal(t, first, second, "same snapshot, same row")
}

func TestMonthReport_MissingGravity_NoNaNInSums(t *testing.T) {
	inputs := marchCoolingInputs()
	inputs.Readings = []dosing.Reading{
		rd("r1", at(d(2026, time.March, 1), 8), 1000),
		rdRefill("r2", at(d(2026, time.March, 10), 8), 950, 60, nil),
		rd("r3", at(d(2026, time.March, 20), 8), 900),
	}

	agg := dosing.Aggregator{AsOf: d(2026, time.April, 15)}
	row := agg.MonthReport(inputs, dosing.NewMonthKey(2026, time.March))

	assert.False(t, math.IsNaN(row.ActualKg))
	assert.InDelta(t, 50.0, row.ActualKg, 1e-9,
		"only the known interval (March 10-20, 5 kg/day) contributes")
}

// =============================================================================
// YEAR REPORT
// =============================================================================

func TestYearReport_TotalsAcrossMonths(t *testing.T) {
	// GIVEN: Usage in February and March, parameters only in March
	// WHEN: Building the annual report
	// THEN: Totals sum the months; annual theory exists because one month
	//       had data

	inputs := marchCoolingInputs()
	inputs.Readings = append(inputs.Readings,
		rd("r0", at(d(2026, time.February, 1), 8), 1100),
	)
	// r0 -> r1 spans Feb 1 .. Feb 28 at 100/28 kg/day.

	agg := dosing.Aggregator{AsOf: d(2026, time.April, 15)}
	report := agg.YearReport(inputs, 2026)

	require.Len(t, report.Months, 12)
	assert.Equal(t, dosing.NewMonthKey(2026, time.January), report.Months[0].Month)
	assert.Equal(t, dosing.NewMonthKey(2026, time.December), report.Months[11].Month)

	var actualSum float64
	costSum := decimal.Zero
	for _, row := range report.Months {
		actualSum += row.ActualKg
		costSum = costSum.Add(row.Cost)
	}
	assert.InDelta(t, actualSum, report.TotalActualKg, 1e-9)
	assert.True(t, costSum.Equal(report.TotalCost))

	require.NotNil(t, report.TotalTheoryKg)
	feb, march := report.Months[1], report.Months[2]
	require.NotNil(t, feb.TheoryKg, "the Feb 23 record backs late February")
	require.NotNil(t, march.TheoryKg)
	assert.InDelta(t, *feb.TheoryKg+*march.TheoryKg, *report.TotalTheoryKg, 1e-9)
}

func TestYearReport_NoDataAtAll(t *testing.T) {
	inputs := dosing.UsageInputs{Tank: dosing.Tank{ID: "tank-1", Method: dosing.MethodCWSBlowdown}}

	agg := dosing.Aggregator{AsOf: d(2026, time.April, 15)}
	report := agg.YearReport(inputs, 2026)

	assert.Zero(t, report.TotalActualKg)
	assert.Nil(t, report.TotalTheoryKg)
	assert.True(t, report.TotalCost.IsZero())
}

// =============================================================================
// WEEK REPORT
// =============================================================================

func TestWeekReport(t *testing.T) {
	inputs := bwsInputs(
		[]dosing.ChemicalSupply{supply("s1", d(2026, time.January, 1), 50, "2.10", 1.1)},
		[]dosing.BWSParameterRecord{bwsRec("w1", d(2026, time.March, 2), 700)},
	)
	inputs.Readings = []dosing.Reading{
		rd("r1", at(d(2026, time.March, 2), 8), 1000),
		rd("r2", at(d(2026, time.March, 9), 8), 996.5),
	}

	agg := dosing.Aggregator{AsOf: d(2026, time.April, 1)}
	usage := agg.WeekReport(inputs, dosing.WeekWindow{Start: d(2026, time.March, 2)})

	assert.InDelta(t, 3.5, usage.ActualKg, 1e-9)
	require.NotNil(t, usage.TheoryKg)
	assert.InDelta(t, 7*5.0, *usage.TheoryKg, 1e-9)
}

func TestWeekReport_UnmeasuredWeek(t *testing.T) {
	inputs := bwsInputs(
		[]dosing.ChemicalSupply{supply("s1", d(2026, time.January, 1), 50, "2.10", 1.1)},
		nil,
	)

	agg := dosing.Aggregator{AsOf: d(2026, time.April, 1)}
	usage := agg.WeekReport(inputs, dosing.WeekWindow{Start: d(2026, time.March, 2)})

	assert.Nil(t, usage.TheoryKg)
	assert.Zero(t, usage.ActualKg)
}
