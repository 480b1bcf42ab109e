package dosing_test

import (
	"testing"
	"time"

	"github.com/clearwater/dosing-engine/dosing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cwsRec(id string, week dosing.Day, circ, tempDiff, cycles float64) dosing.CWSParameterRecord {
	return dosing.CWSParameterRecord{
		ID:             dosing.RecordID(id),
		TankID:         "tank-1",
		WeekStart:      week,
		CirculationM3H: circ,
		TempDiffC:      tempDiff,
		Cycles:         cycles,
	}
}

func bwsRec(id string, week dosing.Day, steamTons float64) dosing.BWSParameterRecord {
	return dosing.BWSParameterRecord{
		ID:        dosing.RecordID(id),
		TankID:    "tank-1",
		WeekStart: week,
		SteamTons: steamTons,
	}
}

func TestCoveringCWS_HalfOpenWindow(t *testing.T) {
	// GIVEN: A record for the week starting Monday 2026-03-02
	// WHEN: Resolving days around the window edges
	// THEN: Days 0..6 resolve, day 7 does not

	history := []dosing.CWSParameterRecord{
		cwsRec("w1", d(2026, time.March, 2), 120, 5, 4),
	}

	_, ok := dosing.CoveringCWS(d(2026, time.March, 2), history)
	assert.True(t, ok, "window start is covered")

	_, ok = dosing.CoveringCWS(d(2026, time.March, 8), history)
	assert.True(t, ok, "sixth day after start is covered")

	_, ok = dosing.CoveringCWS(d(2026, time.March, 9), history)
	assert.False(t, ok, "start+7 begins the next window")

	_, ok = dosing.CoveringCWS(d(2026, time.March, 1), history)
	assert.False(t, ok)
}

func TestCoveringCWS_NoNearestFallback(t *testing.T) {
	// A gap week stays a gap; the resolver never borrows an adjacent record.

	history := []dosing.CWSParameterRecord{
		cwsRec("w1", d(2026, time.March, 2), 120, 5, 4),
		cwsRec("w3", d(2026, time.March, 16), 120, 5, 4),
	}

	_, ok := dosing.CoveringCWS(d(2026, time.March, 11), history)
	assert.False(t, ok, "the week of March 9 was never measured")
}

func TestCoveringCWS_OverlapLaterStartWins(t *testing.T) {
	// Overlaps are not supposed to happen but are not enforced either; the
	// record starting later wins, like contract resolution.

	history := []dosing.CWSParameterRecord{
		cwsRec("early", d(2026, time.March, 2), 100, 5, 4),
		cwsRec("late", d(2026, time.March, 5), 200, 5, 4),
	}

	got, ok := dosing.CoveringCWS(d(2026, time.March, 6), history)
	require.True(t, ok)
	assert.Equal(t, dosing.RecordID("late"), got.ID)

	got, ok = dosing.CoveringCWS(d(2026, time.March, 3), history)
	require.True(t, ok)
	assert.Equal(t, dosing.RecordID("early"), got.ID, "before the overlap the early record still governs")
}

func TestCoveringBWS_HalfOpenWindow(t *testing.T) {
	history := []dosing.BWSParameterRecord{
		bwsRec("w1", d(2026, time.March, 2), 700),
	}

	got, ok := dosing.CoveringBWS(d(2026, time.March, 8), history)
	require.True(t, ok)
	assert.Equal(t, dosing.RecordID("w1"), got.ID)

	_, ok = dosing.CoveringBWS(d(2026, time.March, 9), history)
	assert.False(t, ok)
}

func TestEffectiveCycles_HardnessOverride(t *testing.T) {
	// Both hardness values present: the measured ratio overrides the stored
	// cycles value, even when the stored value looks sane.

	rec := cwsRec("w1", d(2026, time.March, 2), 120, 5, 4)
	rec.CWSHardnessPPM = 900
	rec.MakeupHardnessPPM = 300

	assert.InDelta(t, 3.0, rec.EffectiveCycles(), 1e-9)
}

func TestEffectiveCycles_PartialHardness_UsesStored(t *testing.T) {
	rec := cwsRec("w1", d(2026, time.March, 2), 120, 5, 4)
	rec.CWSHardnessPPM = 900 // makeup missing

	assert.InDelta(t, 4.0, rec.EffectiveCycles(), 1e-9)

	rec.CWSHardnessPPM = 0
	rec.MakeupHardnessPPM = 300
	assert.InDelta(t, 4.0, rec.EffectiveCycles(), 1e-9)
}
