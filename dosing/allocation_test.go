package dosing_test

import (
	"math"
	"testing"
	"time"

	"github.com/clearwater/dosing-engine/dosing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func rd(id string, ts time.Time, weightKg float64) dosing.Reading {
	return dosing.Reading{
		ID:        dosing.ReadingID(id),
		TankID:    "tank-1",
		Timestamp: ts,
		WeightKg:  weightKg,
	}
}

func rdRefill(id string, ts time.Time, weightKg, liters float64, gravity *float64) dosing.Reading {
	r := rd(id, ts, weightKg)
	r.RefillLiters = liters
	r.RefillGravity = gravity
	return r
}

func fptr(v float64) *float64 { return &v }

func at(day dosing.Day, hour int) time.Time {
	return time.Date(day.Year, day.Month, day.Day, hour, 0, 0, 0, time.UTC)
}

// =============================================================================
// PRORATION
// =============================================================================

func TestAllocate_ThreeDayProration(t *testing.T) {
	// GIVEN: Readings three days apart, 1000 kg dropping to 850 kg, no refill
	// WHEN: Allocating daily usage
	// THEN: 150 kg spreads as 50 kg/day over the three covered days

	readings := []dosing.Reading{
		rd("r1", at(d(2026, time.March, 1), 8), 1000),
		rd("r2", at(d(2026, time.March, 4), 8), 850),
	}

	daily := dosing.AllocateDailyUsage(readings)

	require.Len(t, daily, 3)
	assert.InDelta(t, 50, daily[d(2026, time.March, 1)], 1e-9)
	assert.InDelta(t, 50, daily[d(2026, time.March, 2)], 1e-9)
	assert.InDelta(t, 50, daily[d(2026, time.March, 3)], 1e-9)

	_, has := daily[d(2026, time.March, 4)]
	assert.False(t, has, "the current reading's day belongs to the next interval")
}

func TestAllocate_RefillCountsTowardUsage(t *testing.T) {
	// GIVEN: A 50 L refill (gravity 1.2 -> 60 kg) recorded at the second reading
	// WHEN: Weight went 500 -> 480 over two days
	// THEN: Usage is (500 + 60) - 480 = 80 kg, 40 kg/day

	readings := []dosing.Reading{
		rd("r1", at(d(2026, time.March, 1), 8), 500),
		rdRefill("r2", at(d(2026, time.March, 3), 8), 480, 50, fptr(1.2)),
	}

	daily := dosing.AllocateDailyUsage(readings)

	assert.InDelta(t, 40, daily[d(2026, time.March, 1)], 1e-9)
	assert.InDelta(t, 40, daily[d(2026, time.March, 2)], 1e-9)
}

func TestAllocate_FractionalElapsedDays(t *testing.T) {
	// Readings 36 hours apart: the rate divides by 1.5 days, and the second
	// reading's calendar day stays uncovered (exclusive end).

	readings := []dosing.Reading{
		rd("r1", at(d(2026, time.March, 1), 12), 1000),
		rd("r2", at(d(2026, time.March, 3), 0), 940),
	}

	daily := dosing.AllocateDailyUsage(readings)

	require.Len(t, daily, 2)
	assert.InDelta(t, 40, daily[d(2026, time.March, 1)], 1e-9)
	assert.InDelta(t, 40, daily[d(2026, time.March, 2)], 1e-9)
}

// =============================================================================
// DATA QUALITY
// =============================================================================

func TestAllocate_MissingRefillGravity_ZeroNotNaN(t *testing.T) {
	// GIVEN: A refill with no recorded specific gravity
	// WHEN: Allocating the interval
	// THEN: The interval's rate is 0 (unknown, not guessed), never NaN,
	//       and the days are still claimed so nothing else fills them

	readings := []dosing.Reading{
		rd("r1", at(d(2026, time.March, 1), 8), 1000),
		rdRefill("r2", at(d(2026, time.March, 4), 8), 900, 80, nil),
	}

	daily := dosing.AllocateDailyUsage(readings)

	require.Len(t, daily, 3)
	for day, kg := range daily {
		assert.False(t, math.IsNaN(kg), "day %s must not be NaN", day)
		assert.Zero(t, kg)
	}
}

func TestAllocate_ZeroRefillNeedsNoGravity(t *testing.T) {
	readings := []dosing.Reading{
		rd("r1", at(d(2026, time.March, 1), 8), 1000),
		rdRefill("r2", at(d(2026, time.March, 2), 8), 970, 0, nil),
	}

	daily := dosing.AllocateDailyUsage(readings)
	assert.InDelta(t, 30, daily[d(2026, time.March, 1)], 1e-9)
}

func TestAllocate_WeightGainClampsToZero(t *testing.T) {
	// Net weight increase (level correction, unrecorded delivery) reads as
	// zero usage, not negative usage.

	readings := []dosing.Reading{
		rd("r1", at(d(2026, time.March, 1), 8), 500),
		rd("r2", at(d(2026, time.March, 3), 8), 620),
	}

	daily := dosing.AllocateDailyUsage(readings)

	require.Len(t, daily, 2)
	assert.Zero(t, daily[d(2026, time.March, 1)])
	assert.Zero(t, daily[d(2026, time.March, 2)])
}

func TestAllocate_MessyInputMatchesCleanInput(t *testing.T) {
	// GIVEN: The same history shuffled, with a duplicated reading ID
	// WHEN: Allocating both
	// THEN: Results are identical; duplicates cannot double-write a day

	clean := []dosing.Reading{
		rd("r1", at(d(2026, time.March, 1), 8), 1000),
		rd("r2", at(d(2026, time.March, 4), 8), 850),
		rd("r3", at(d(2026, time.March, 7), 8), 700),
	}
	messy := []dosing.Reading{
		clean[2],
		clean[0],
		clean[1],
		clean[1], // duplicate ID
	}

	assert.Equal(t, dosing.AllocateDailyUsage(clean), dosing.AllocateDailyUsage(messy))
}

func TestAllocate_ZeroElapsedSkipped(t *testing.T) {
	// Two distinct readings at the same instant: the pair is skipped, the
	// surrounding pairs still allocate.

	readings := []dosing.Reading{
		rd("r1", at(d(2026, time.March, 1), 8), 1000),
		rd("r2", at(d(2026, time.March, 2), 8), 950),
		rd("r2b", at(d(2026, time.March, 2), 8), 948),
		rd("r3", at(d(2026, time.March, 3), 8), 900),
	}

	daily := dosing.AllocateDailyUsage(readings)

	assert.InDelta(t, 50, daily[d(2026, time.March, 1)], 1e-9)
	assert.InDelta(t, 48, daily[d(2026, time.March, 2)], 1e-9)
}

func TestAllocate_DegenerateInputs(t *testing.T) {
	assert.Empty(t, dosing.AllocateDailyUsage(nil))
	assert.Empty(t, dosing.AllocateDailyUsage([]dosing.Reading{rd("r1", at(d(2026, time.March, 1), 8), 1000)}))
}

// =============================================================================
// CALENDAR KEYS
// =============================================================================

func TestAllocate_KeysFromLocalCalendarFields(t *testing.T) {
	// GIVEN: Readings taken at 23:30 plant time (UTC+2), where UTC is still
	//        the previous day
	// WHEN: Allocating
	// THEN: Days key on the plant-local calendar

	loc := time.FixedZone("plant", 2*60*60)
	readings := []dosing.Reading{
		rd("r1", time.Date(2026, time.March, 1, 23, 30, 0, 0, loc), 1000),
		rd("r2", time.Date(2026, time.March, 3, 23, 30, 0, 0, loc), 900),
	}

	daily := dosing.AllocateDailyUsage(readings)

	require.Len(t, daily, 2)
	assert.InDelta(t, 50, daily[d(2026, time.March, 1)], 1e-9)
	assert.InDelta(t, 50, daily[d(2026, time.March, 2)], 1e-9)
}

// =============================================================================
// NORMALIZATION
// =============================================================================

func TestNormalizeReadings(t *testing.T) {
	r1 := rd("r1", at(d(2026, time.March, 3), 8), 900)
	r2 := rd("r2", at(d(2026, time.March, 1), 8), 1000)
	r2dup := rd("r2", at(d(2026, time.March, 5), 8), 700) // same ID, later data

	out := dosing.NormalizeReadings([]dosing.Reading{r1, r2, r2dup})

	require.Len(t, out, 2, "duplicate IDs collapse to the first occurrence")
	assert.Equal(t, dosing.ReadingID("r2"), out[0].ID)
	assert.Equal(t, dosing.ReadingID("r1"), out[1].ID)
}

func TestNormalizeReadings_EmptyIDsNeverCollapse(t *testing.T) {
	a := rd("", at(d(2026, time.March, 1), 8), 1000)
	b := rd("", at(d(2026, time.March, 2), 8), 950)

	out := dosing.NormalizeReadings([]dosing.Reading{a, b})
	assert.Len(t, out, 2)
}

func TestDailyUsage_SumDays(t *testing.T) {
	daily := dosing.DailyUsage{
		d(2026, time.March, 1): 50,
		d(2026, time.March, 2): 30,
	}

	month := dosing.NewMonthKey(2026, time.March)
	assert.InDelta(t, 80, daily.SumDays(month.Days()), 1e-9, "absent days contribute nothing")
}
