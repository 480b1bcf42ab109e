/*
allocation.go - Prorating reading intervals onto calendar days

PURPOSE:
  Actual consumption is only known at sparse reading timestamps. This file
  spreads the usage inferred between consecutive readings evenly across the
  elapsed days, producing the per-calendar-day map that monthly and weekly
  aggregation buckets from.

ALGORITHM (per consecutive reading pair):
  1. elapsed = (curr.ts - prev.ts) in fractional days; skip pairs <= 0
  2. refillKg = curr.RefillLiters * curr.RefillGravity
     (unknown gravity on a nonzero refill makes the interval unknowable)
  3. usedKg = (prev.WeightKg + refillKg) - curr.WeightKg
  4. rate = max(0, usedKg / elapsed); unknowable intervals rate 0
  5. write rate to each calendar day in [prev's day, curr's day),
     first writer wins

  Negative inferred usage means the tank gained weight net of refills
  (level correction, unrecorded delivery); it clamps to zero rather than
  reporting negative consumption.

SEE ALSO:
  - types.go: Reading.RefillKg encapsulates step 2
  - aggregate.go: Buckets the resulting map into report rows
*/
package dosing

import "sort"

// DailyUsage maps calendar days to actual chemical consumption in kg.
type DailyUsage map[Day]float64

// SumDays totals the map over the given days. Days without a value
// contribute nothing.
func (u DailyUsage) SumDays(days []Day) float64 {
	var total float64
	for _, d := range days {
		total += u[d]
	}
	return total
}

// =============================================================================
// ALLOCATION
// =============================================================================

// AllocateDailyUsage computes the per-day actual usage map from a tank's
// reading history. The history may arrive unsorted and with duplicates;
// it is normalized first. Pure function: the input slice is not modified.
func AllocateDailyUsage(readings []Reading) DailyUsage {
	ordered := NormalizeReadings(readings)
	daily := make(DailyUsage)

	for i := 1; i < len(ordered); i++ {
		prev, curr := ordered[i-1], ordered[i]

		elapsed := curr.Timestamp.Sub(prev.Timestamp).Hours() / 24
		if elapsed <= 0 {
			continue
		}

		rate := 0.0
		if refillKg, known := curr.RefillKg(); known {
			usedKg := (prev.WeightKg + refillKg) - curr.WeightKg
			if usedKg > 0 {
				rate = usedKg / elapsed
			}
		}

		// Write the rate onto [prev's day, curr's day). A day already
		// written by an earlier interval keeps its value; rate-0 intervals
		// still claim their days so later overlapping pairs cannot fill
		// them with guessed values.
		end := DayOf(curr.Timestamp)
		for d := DayOf(prev.Timestamp); d.Before(end); d = d.AddDays(1) {
			if _, taken := daily[d]; !taken {
				daily[d] = rate
			}
		}
	}
	return daily
}

// NormalizeReadings returns the history de-duplicated by reading ID (first
// occurrence wins) and sorted ascending by timestamp. Readings without an
// ID are never treated as duplicates of each other.
func NormalizeReadings(readings []Reading) []Reading {
	seen := make(map[ReadingID]bool, len(readings))
	out := make([]Reading, 0, len(readings))
	for _, r := range readings {
		if r.ID != "" {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
