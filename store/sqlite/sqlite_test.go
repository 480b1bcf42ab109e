package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearwater/dosing-engine/dosing"
	"github.com/clearwater/dosing-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(y int, m time.Month, d int) dosing.Day { return dosing.NewDay(y, m, d) }

func coolingTank(id, name string) dosing.Tank {
	return dosing.Tank{
		ID:             dosing.TankID(id),
		Name:           name,
		Site:           "plant-north",
		System:         dosing.SystemCooling,
		Method:         dosing.MethodCWSBlowdown,
		Shape:          dosing.ShapeVerticalCylinder,
		DiameterCm:     100,
		HeightCm:       150,
		SensorOffsetCm: -2.5,
	}
}

func contract(id, tankID string, from dosing.Day, price string) dosing.ChemicalSupply {
	return dosing.ChemicalSupply{
		ID:              dosing.SupplyID(id),
		TankID:          dosing.TankID(tankID),
		Product:         "inhibitor A",
		EffectiveFrom:   from,
		TargetPPM:       50,
		Price:           decimal.RequireFromString(price),
		SpecificGravity: 1.2,
	}
}

func reading(id string, at time.Time, kg float64) dosing.Reading {
	return dosing.Reading{
		ID:        dosing.ReadingID(id),
		TankID:    "tank-1",
		Timestamp: at,
		WeightKg:  kg,
	}
}

// =============================================================================
// TANK CATALOG
// =============================================================================

func TestTankRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	want := coolingTank("tank-1", "CWS-1 inhibitor")
	require.NoError(t, store.SaveTank(ctx, want))

	got, err := store.GetTank(ctx, "tank-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveTank_UpsertReplaces(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	tank := coolingTank("tank-1", "CWS-1 inhibitor")
	require.NoError(t, store.SaveTank(ctx, tank))

	tank.HeightCm = 180
	tank.Method = dosing.MethodNone
	require.NoError(t, store.SaveTank(ctx, tank))

	got, err := store.GetTank(ctx, "tank-1")
	require.NoError(t, err)
	assert.Equal(t, 180.0, got.HeightCm)
	assert.Equal(t, dosing.MethodNone, got.Method)

	tanks, err := store.ListTanks(ctx)
	require.NoError(t, err)
	assert.Len(t, tanks, 1, "upsert must not create a second row")
}

func TestGetTank_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetTank(context.Background(), "nope")
	require.ErrorIs(t, err, dosing.ErrTankNotFound)
	assert.True(t, dosing.IsNotFound(err))
}

func TestListTanks_OrderedByName(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTank(ctx, coolingTank("t2", "Boiler B")))
	require.NoError(t, store.SaveTank(ctx, coolingTank("t3", "Cooling C")))
	require.NoError(t, store.SaveTank(ctx, coolingTank("t1", "Ammonia A")))

	tanks, err := store.ListTanks(ctx)
	require.NoError(t, err)
	require.Len(t, tanks, 3)
	assert.Equal(t, "Ammonia A", tanks[0].Name)
	assert.Equal(t, "Boiler B", tanks[1].Name)
	assert.Equal(t, "Cooling C", tanks[2].Name)
}

// =============================================================================
// SUPPLY CONTRACTS
// =============================================================================

func TestSupplyRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	want := contract("s1", "tank-1", day(2026, time.February, 10), "2.80")
	require.NoError(t, store.SaveSupply(ctx, want))

	got, err := store.GetSupply(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.TankID, got.TankID)
	assert.Equal(t, want.Product, got.Product)
	assert.Equal(t, want.EffectiveFrom, got.EffectiveFrom)
	assert.Equal(t, want.TargetPPM, got.TargetPPM)
	assert.Equal(t, want.SpecificGravity, got.SpecificGravity)
	assert.True(t, got.Price.Equal(want.Price), "price must survive exactly, got %s", got.Price)
}

func TestGetSupply_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetSupply(context.Background(), "nope")
	require.ErrorIs(t, err, dosing.ErrSupplyNotFound)
}

func TestListSupplies_PerTankOrderedByEffectiveDay(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSupply(ctx, contract("s2", "tank-1", day(2026, time.June, 15), "3.10")))
	require.NoError(t, store.SaveSupply(ctx, contract("s1", "tank-1", day(2026, time.January, 1), "2.80")))
	require.NoError(t, store.SaveSupply(ctx, contract("other", "tank-2", day(2026, time.March, 1), "9.99")))

	supplies, err := store.ListSupplies(ctx, "tank-1")
	require.NoError(t, err)
	require.Len(t, supplies, 2)
	assert.Equal(t, dosing.SupplyID("s1"), supplies[0].ID)
	assert.Equal(t, dosing.SupplyID("s2"), supplies[1].ID)
}

// =============================================================================
// WEEKLY PARAMETER RECORDS
// =============================================================================

func TestCWSRecords_RoundTripOrderedByWeek(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	later := dosing.CWSParameterRecord{
		ID: "w2", TankID: "tank-1", WeekStart: day(2026, time.March, 9),
		CirculationM3H: 120, TempDiffC: 5, Cycles: 3,
	}
	earlier := dosing.CWSParameterRecord{
		ID: "w1", TankID: "tank-1", WeekStart: day(2026, time.March, 2),
		CirculationM3H: 110, TempDiffC: 4.5, Cycles: 3,
		CWSHardnessPPM: 450, MakeupHardnessPPM: 150,
	}
	require.NoError(t, store.SaveCWSRecord(ctx, later))
	require.NoError(t, store.SaveCWSRecord(ctx, earlier))

	records, err := store.ListCWSRecords(ctx, "tank-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, earlier, records[0])
	assert.Equal(t, later, records[1])
}

func TestBWSRecords_RoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	rec := dosing.BWSParameterRecord{
		ID: "b1", TankID: "tank-1", WeekStart: day(2026, time.March, 2), SteamTons: 21,
	}
	require.NoError(t, store.SaveBWSRecord(ctx, rec))

	records, err := store.ListBWSRecords(ctx, "tank-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec, records[0])
}

// =============================================================================
// READING HISTORY
// =============================================================================

func TestAppendReading_DuplicateIDRejected(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	r := reading("r1", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), 1000)
	require.NoError(t, store.AppendReading(ctx, r))

	err := store.AppendReading(ctx, r)
	require.ErrorIs(t, err, dosing.ErrDuplicateReading)
	assert.True(t, dosing.IsClientError(err))

	var dup *dosing.DuplicateReadingError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, dosing.ReadingID("r1"), dup.ReadingID)
}

func TestAppendReading_AnonymousNeverCollides(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// Two readings without IDs are distinct events, not duplicates.
	require.NoError(t, store.AppendReading(ctx, reading("", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), 1000)))
	require.NoError(t, store.AppendReading(ctx, reading("", time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), 995)))

	readings, err := store.LoadReadings(ctx, "tank-1")
	require.NoError(t, err)
	assert.Len(t, readings, 2)
}

func TestAppendReadingBatch_RollsBackOnDuplicate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendReading(ctx, reading("r1", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), 1000)))

	batch := []dosing.Reading{
		reading("r2", time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), 995),
		reading("r1", time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC), 990),
		reading("r3", time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC), 985),
	}
	require.ErrorIs(t, store.AppendReadingBatch(ctx, batch), dosing.ErrDuplicateReading)

	readings, err := store.LoadReadings(ctx, "tank-1")
	require.NoError(t, err)
	require.Len(t, readings, 1, "failed batch must not leave partial writes")
	assert.Equal(t, dosing.ReadingID("r1"), readings[0].ID)
}

func TestAppendReadingBatch_InBatchDuplicate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	batch := []dosing.Reading{
		reading("r1", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), 1000),
		reading("r1", time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), 995),
	}
	require.ErrorIs(t, store.AppendReadingBatch(ctx, batch), dosing.ErrDuplicateReading)

	readings, err := store.LoadReadings(ctx, "tank-1")
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestLoadReadings_ChronologicalAcrossOffsets(t *testing.T) {
	// GIVEN: Readings stored with different UTC offsets, where plain string
	//        ordering of the stored timestamps would invert the instants
	// WHEN: Loading history
	// THEN: Readings come back in instant order, local days intact

	store := newStore(t)
	ctx := context.Background()

	tokyo := time.FixedZone("plant-east", 9*60*60)
	first := reading("a", time.Date(2026, 3, 1, 23, 0, 0, 0, tokyo), 1000) // 14:00 UTC
	second := reading("b", time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC), 995)

	require.NoError(t, store.AppendReading(ctx, second))
	require.NoError(t, store.AppendReading(ctx, first))

	readings, err := store.LoadReadings(ctx, "tank-1")
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, dosing.ReadingID("a"), readings[0].ID)
	assert.Equal(t, dosing.ReadingID("b"), readings[1].ID)
	assert.True(t, readings[0].Timestamp.Equal(first.Timestamp))

	// The plant-local calendar day survives the round trip.
	assert.Equal(t, day(2026, time.March, 1), dosing.DayOf(readings[0].Timestamp))
}

func TestReadingRoundTrip_OptionalFields(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	level := 82.5
	gravity := 1.2
	r := dosing.Reading{
		ID:            "r1",
		TankID:        "tank-1",
		Timestamp:     time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		WeightKg:      1000,
		LevelCm:       &level,
		RefillLiters:  200,
		RefillGravity: &gravity,
	}
	require.NoError(t, store.AppendReading(ctx, r))
	require.NoError(t, store.AppendReading(ctx, reading("r2", time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), 995)))

	readings, err := store.LoadReadings(ctx, "tank-1")
	require.NoError(t, err)
	require.Len(t, readings, 2)

	got := readings[0]
	require.NotNil(t, got.LevelCm)
	assert.Equal(t, 82.5, *got.LevelCm)
	assert.Equal(t, 200.0, got.RefillLiters)
	require.NotNil(t, got.RefillGravity)
	assert.Equal(t, 1.2, *got.RefillGravity)

	// Absent optionals stay absent.
	assert.Nil(t, readings[1].LevelCm)
	assert.Nil(t, readings[1].RefillGravity)
}

func TestReadingExists(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendReading(ctx, reading("r1", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), 1000)))
	require.NoError(t, store.AppendReading(ctx, reading("", time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), 995)))

	exists, err := store.ReadingExists(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ReadingExists(ctx, "r2")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.ReadingExists(ctx, "")
	require.NoError(t, err)
	assert.False(t, exists, "anonymous readings have no identity to collide on")
}

// =============================================================================
// NOTES
// =============================================================================

func TestListNotes_InclusiveRange(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	saveNote := func(id string, d dosing.Day) {
		require.NoError(t, store.SaveNote(ctx, dosing.ImportantNote{
			ID:        dosing.NoteID(id),
			TankID:    "tank-1",
			Day:       d,
			Text:      "shock dosed after biofilm alarm",
			CreatedAt: time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC),
		}))
	}
	saveNote("n1", day(2026, time.March, 10))
	saveNote("n2", day(2026, time.March, 15))
	saveNote("n3", day(2026, time.March, 20))

	notes, err := store.ListNotes(ctx, day(2026, time.March, 10), day(2026, time.March, 15))
	require.NoError(t, err)
	require.Len(t, notes, 2, "both range ends are inclusive")
	assert.Equal(t, dosing.NoteID("n1"), notes[0].ID)
	assert.Equal(t, dosing.NoteID("n2"), notes[1].ID)
	assert.Equal(t, "shock dosed after biofilm alarm", notes[0].Text)
}

// =============================================================================
// REPORT SNAPSHOTS
// =============================================================================

func TestSnapshotRoundTripAndReplace(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	month := dosing.NewMonthKey(2026, time.March)
	theory := 12.5
	variance := 8.0
	price := decimal.RequireFromString("3.2")
	gravity := 1.2
	snap := dosing.ReportSnapshot{
		TankID:      "tank-1",
		Month:       month,
		GeneratedAt: time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC),
		Row: dosing.MonthRow{
			TankID:          "tank-1",
			Month:           month,
			ActualKg:        13.5,
			TheoryKg:        &theory,
			VariancePct:     &variance,
			BackedDays:      31,
			Price:           &price,
			SpecificGravity: &gravity,
			Cost:            decimal.RequireFromString("43.2"),
		},
	}
	require.NoError(t, store.SaveSnapshot(ctx, snap))

	got, err := store.GetSnapshot(ctx, "tank-1", month)
	require.NoError(t, err)
	assert.Equal(t, snap.TankID, got.TankID)
	assert.Equal(t, month, got.Month)
	assert.True(t, got.GeneratedAt.Equal(snap.GeneratedAt))
	assert.Equal(t, 13.5, got.Row.ActualKg)
	require.NotNil(t, got.Row.TheoryKg)
	assert.InDelta(t, theory, *got.Row.TheoryKg, 1e-12)
	require.NotNil(t, got.Row.Price)
	assert.True(t, got.Row.Price.Equal(price))
	assert.True(t, got.Row.Cost.Equal(snap.Row.Cost))
	assert.Equal(t, 31, got.Row.BackedDays)

	// Saving the same tank-month again replaces, never duplicates.
	snap.Row.ActualKg = 14.0
	require.NoError(t, store.SaveSnapshot(ctx, snap))

	got, err = store.GetSnapshot(ctx, "tank-1", month)
	require.NoError(t, err)
	assert.Equal(t, 14.0, got.Row.ActualKg)

	snaps, err := store.ListSnapshots(ctx, "tank-1", 2026)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestGetSnapshot_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetSnapshot(context.Background(), "tank-1", dosing.NewMonthKey(2026, time.March))
	require.ErrorIs(t, err, dosing.ErrSnapshotNotFound)
}

func TestListSnapshots_YearScopedOrderedByMonth(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	save := func(year int, month time.Month) {
		require.NoError(t, store.SaveSnapshot(ctx, dosing.ReportSnapshot{
			TankID:      "tank-1",
			Month:       dosing.NewMonthKey(year, month),
			GeneratedAt: time.Now(),
		}))
	}
	save(2026, time.June)
	save(2026, time.February)
	save(2025, time.December)

	snaps, err := store.ListSnapshots(ctx, "tank-1", 2026)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, time.February, snaps[0].Month.Month)
	assert.Equal(t, time.June, snaps[1].Month.Month)
}

// =============================================================================
// ENGINE SNAPSHOT ASSEMBLY AND LIFECYCLE
// =============================================================================

func TestGetUsageInputs_AssemblesEverything(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTank(ctx, coolingTank("tank-1", "CWS-1")))
	require.NoError(t, store.SaveSupply(ctx, contract("s1", "tank-1", day(2026, time.January, 1), "2.8")))
	require.NoError(t, store.SaveSupply(ctx, contract("s2", "tank-1", day(2026, time.June, 15), "3.1")))
	require.NoError(t, store.SaveCWSRecord(ctx, dosing.CWSParameterRecord{
		ID: "w1", TankID: "tank-1", WeekStart: day(2026, time.March, 2),
		CirculationM3H: 120, TempDiffC: 5, Cycles: 3,
	}))
	require.NoError(t, store.AppendReading(ctx, reading("r1", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), 1000)))
	require.NoError(t, store.AppendReading(ctx, reading("r2", time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), 995)))

	inputs, err := store.GetUsageInputs(ctx, "tank-1")
	require.NoError(t, err)
	assert.Equal(t, dosing.TankID("tank-1"), inputs.Tank.ID)
	assert.Len(t, inputs.Supplies, 2)
	assert.Len(t, inputs.CWSParams, 1)
	assert.Empty(t, inputs.BWSParams)
	assert.Len(t, inputs.Readings, 2)

	_, err = store.GetUsageInputs(ctx, "nope")
	require.ErrorIs(t, err, dosing.ErrTankNotFound)
}

func TestReset_ClearsEverything(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTank(ctx, coolingTank("tank-1", "CWS-1")))
	require.NoError(t, store.AppendReading(ctx, reading("r1", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), 1000)))
	require.NoError(t, store.SaveSnapshot(ctx, dosing.ReportSnapshot{
		TankID: "tank-1", Month: dosing.NewMonthKey(2026, time.March), GeneratedAt: time.Now(),
	}))

	require.NoError(t, store.Reset(ctx))

	tanks, err := store.ListTanks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tanks)

	readings, err := store.LoadReadings(ctx, "tank-1")
	require.NoError(t, err)
	assert.Empty(t, readings)

	_, err = store.GetSnapshot(ctx, "tank-1", dosing.NewMonthKey(2026, time.March))
	require.ErrorIs(t, err, dosing.ErrSnapshotNotFound)

	// The store stays usable after a reset.
	require.NoError(t, store.SaveTank(ctx, coolingTank("tank-1", "CWS-1")))
}
