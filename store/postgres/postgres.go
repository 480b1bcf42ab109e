/*
Package postgres provides the PostgreSQL-backed implementation of the dosing
store, for multi-site deployments.

PURPOSE:
  Implements dosing.Store (including dosing.SnapshotStore) on PostgreSQL via
  the pgx stdlib driver. Mirrors store/sqlite table for table; only dialect
  details differ.

DIALECT NOTES:
  - $n placeholders instead of ?
  - Duplicate readings are detected by SQLSTATE 23505 (unique_violation)
    instead of error-string matching
  - created_at/updated_at audit columns default to now() server-side
  - row_json is JSONB
  - Reading timestamps stay RFC3339 TEXT so the plant-local calendar day
    survives the round trip; ordering casts to timestamptz

CONCURRENCY:
  No store-level mutex. PostgreSQL's own concurrency control handles
  simultaneous readers and writers; the batch append runs in a transaction.

USAGE:
  store, err := postgres.New(ctx, "postgres://dosing:secret@db:5432/dosing")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - dosing/store.go: Interface definition
  - store/sqlite: Single-site implementation and the shared table layout
*/
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"github.com/clearwater/dosing-engine/dosing"
)

// Store implements dosing.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ dosing.Store = (*Store)(nil)

// New connects to PostgreSQL with the given DSN and migrates the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema. The DDL carries no bind parameters so
// it goes through the simple protocol as one multi-statement batch.
func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tanks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		site TEXT,
		system TEXT NOT NULL,
		method TEXT NOT NULL,
		shape TEXT,
		diameter_cm DOUBLE PRECISION NOT NULL DEFAULT 0,
		height_cm DOUBLE PRECISION NOT NULL DEFAULT 0,
		length_cm DOUBLE PRECISION NOT NULL DEFAULT 0,
		width_cm DOUBLE PRECISION NOT NULL DEFAULT 0,
		sensor_offset_cm DOUBLE PRECISION NOT NULL DEFAULT 0,
		head TEXT,
		liters_per_cm DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS supplies (
		id TEXT PRIMARY KEY,
		tank_id TEXT NOT NULL,
		product TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		target_ppm DOUBLE PRECISION NOT NULL,
		price TEXT NOT NULL,
		specific_gravity DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_supplies_tank_effective
		ON supplies(tank_id, effective_from);

	CREATE TABLE IF NOT EXISTS cws_parameters (
		id TEXT PRIMARY KEY,
		tank_id TEXT NOT NULL,
		week_start TEXT NOT NULL,
		circulation_m3h DOUBLE PRECISION NOT NULL DEFAULT 0,
		temp_diff_c DOUBLE PRECISION NOT NULL DEFAULT 0,
		cycles DOUBLE PRECISION NOT NULL DEFAULT 0,
		cws_hardness_ppm DOUBLE PRECISION NOT NULL DEFAULT 0,
		makeup_hardness_ppm DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_cws_tank_week
		ON cws_parameters(tank_id, week_start);

	CREATE TABLE IF NOT EXISTS bws_parameters (
		id TEXT PRIMARY KEY,
		tank_id TEXT NOT NULL,
		week_start TEXT NOT NULL,
		steam_tons DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_bws_tank_week
		ON bws_parameters(tank_id, week_start);

	CREATE TABLE IF NOT EXISTS readings (
		id TEXT NOT NULL,
		tank_id TEXT NOT NULL,
		taken_at TEXT NOT NULL,
		weight_kg DOUBLE PRECISION NOT NULL,
		level_cm DOUBLE PRECISION,
		refill_liters DOUBLE PRECISION NOT NULL DEFAULT 0,
		refill_gravity DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_readings_unique_id
		ON readings(id) WHERE id <> '';

	CREATE INDEX IF NOT EXISTS idx_readings_tank_taken
		ON readings(tank_id, taken_at);

	CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		tank_id TEXT NOT NULL DEFAULT '',
		day TEXT NOT NULL,
		note TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notes_day
		ON notes(day);

	CREATE TABLE IF NOT EXISTS report_snapshots (
		tank_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		generated_at TEXT NOT NULL,
		row_json JSONB NOT NULL,
		PRIMARY KEY (tank_id, year, month)
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// =============================================================================
// TANK CATALOG
// =============================================================================

// SaveTank inserts or replaces a tank definition.
func (s *Store) SaveTank(ctx context.Context, tank dosing.Tank) error {
	query := `
		INSERT INTO tanks (id, name, site, system, method, shape, diameter_cm,
			height_cm, length_cm, width_cm, sensor_offset_cm, head, liters_per_cm)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			site = excluded.site,
			system = excluded.system,
			method = excluded.method,
			shape = excluded.shape,
			diameter_cm = excluded.diameter_cm,
			height_cm = excluded.height_cm,
			length_cm = excluded.length_cm,
			width_cm = excluded.width_cm,
			sensor_offset_cm = excluded.sensor_offset_cm,
			head = excluded.head,
			liters_per_cm = excluded.liters_per_cm,
			updated_at = now()
	`

	_, err := s.db.ExecContext(ctx, query,
		tank.ID, tank.Name, tank.Site, string(tank.System), string(tank.Method),
		string(tank.Shape), tank.DiameterCm, tank.HeightCm, tank.LengthCm,
		tank.WidthCm, tank.SensorOffsetCm, string(tank.Head), tank.LitersPerCm,
	)
	return err
}

// GetTank retrieves a tank by ID.
func (s *Store) GetTank(ctx context.Context, id dosing.TankID) (dosing.Tank, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, site, system, method, shape, diameter_cm, height_cm,
		       length_cm, width_cm, sensor_offset_cm, head, liters_per_cm
		FROM tanks WHERE id = $1
	`, id)

	tank, err := scanTank(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dosing.Tank{}, dosing.ErrTankNotFound
	}
	return tank, err
}

// ListTanks returns all tanks ordered by name.
func (s *Store) ListTanks(ctx context.Context) ([]dosing.Tank, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, site, system, method, shape, diameter_cm, height_cm,
		       length_cm, width_cm, sensor_offset_cm, head, liters_per_cm
		FROM tanks ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tanks []dosing.Tank
	for rows.Next() {
		tank, err := scanTank(rows)
		if err != nil {
			return nil, err
		}
		tanks = append(tanks, tank)
	}
	return tanks, rows.Err()
}

func scanTank(row scanner) (dosing.Tank, error) {
	var t dosing.Tank
	err := row.Scan(
		&t.ID, &t.Name, &t.Site, &t.System, &t.Method, &t.Shape,
		&t.DiameterCm, &t.HeightCm, &t.LengthCm, &t.WidthCm,
		&t.SensorOffsetCm, &t.Head, &t.LitersPerCm,
	)
	return t, err
}

// =============================================================================
// SUPPLY CONTRACTS
// =============================================================================

// SaveSupply inserts or replaces a supply contract.
func (s *Store) SaveSupply(ctx context.Context, supply dosing.ChemicalSupply) error {
	query := `
		INSERT INTO supplies (id, tank_id, product, effective_from, target_ppm,
			price, specific_gravity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			tank_id = excluded.tank_id,
			product = excluded.product,
			effective_from = excluded.effective_from,
			target_ppm = excluded.target_ppm,
			price = excluded.price,
			specific_gravity = excluded.specific_gravity
	`

	_, err := s.db.ExecContext(ctx, query,
		supply.ID, supply.TankID, supply.Product,
		supply.EffectiveFrom.String(), supply.TargetPPM,
		supply.Price.String(), supply.SpecificGravity,
	)
	return err
}

// GetSupply retrieves a supply contract by ID.
func (s *Store) GetSupply(ctx context.Context, id dosing.SupplyID) (dosing.ChemicalSupply, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tank_id, product, effective_from, target_ppm, price, specific_gravity
		FROM supplies WHERE id = $1
	`, id)

	supply, err := scanSupply(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dosing.ChemicalSupply{}, dosing.ErrSupplyNotFound
	}
	return supply, err
}

// ListSupplies returns a tank's contract history ordered by effective day.
func (s *Store) ListSupplies(ctx context.Context, tankID dosing.TankID) ([]dosing.ChemicalSupply, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tank_id, product, effective_from, target_ppm, price, specific_gravity
		FROM supplies
		WHERE tank_id = $1
		ORDER BY effective_from ASC
	`, tankID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var supplies []dosing.ChemicalSupply
	for rows.Next() {
		supply, err := scanSupply(rows)
		if err != nil {
			return nil, err
		}
		supplies = append(supplies, supply)
	}
	return supplies, rows.Err()
}

func scanSupply(row scanner) (dosing.ChemicalSupply, error) {
	var (
		supply        dosing.ChemicalSupply
		effectiveFrom string
		price         string
	)
	err := row.Scan(
		&supply.ID, &supply.TankID, &supply.Product,
		&effectiveFrom, &supply.TargetPPM, &price, &supply.SpecificGravity,
	)
	if err != nil {
		return supply, err
	}

	supply.EffectiveFrom, err = dosing.ParseDay(effectiveFrom)
	if err != nil {
		return supply, fmt.Errorf("supply %s: %w", supply.ID, err)
	}
	supply.Price, err = decimal.NewFromString(price)
	if err != nil {
		return supply, fmt.Errorf("supply %s: parse price %q: %w", supply.ID, price, err)
	}
	return supply, nil
}

// =============================================================================
// WEEKLY PARAMETER RECORDS
// =============================================================================

// SaveCWSRecord inserts or replaces a weekly cooling water record.
func (s *Store) SaveCWSRecord(ctx context.Context, rec dosing.CWSParameterRecord) error {
	query := `
		INSERT INTO cws_parameters (id, tank_id, week_start, circulation_m3h,
			temp_diff_c, cycles, cws_hardness_ppm, makeup_hardness_ppm)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			tank_id = excluded.tank_id,
			week_start = excluded.week_start,
			circulation_m3h = excluded.circulation_m3h,
			temp_diff_c = excluded.temp_diff_c,
			cycles = excluded.cycles,
			cws_hardness_ppm = excluded.cws_hardness_ppm,
			makeup_hardness_ppm = excluded.makeup_hardness_ppm
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.TankID, rec.WeekStart.String(),
		rec.CirculationM3H, rec.TempDiffC, rec.Cycles,
		rec.CWSHardnessPPM, rec.MakeupHardnessPPM,
	)
	return err
}

// ListCWSRecords returns a tank's cooling water records ordered by week.
func (s *Store) ListCWSRecords(ctx context.Context, tankID dosing.TankID) ([]dosing.CWSParameterRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tank_id, week_start, circulation_m3h, temp_diff_c, cycles,
		       cws_hardness_ppm, makeup_hardness_ppm
		FROM cws_parameters
		WHERE tank_id = $1
		ORDER BY week_start ASC
	`, tankID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []dosing.CWSParameterRecord
	for rows.Next() {
		var (
			rec       dosing.CWSParameterRecord
			weekStart string
		)
		if err := rows.Scan(
			&rec.ID, &rec.TankID, &weekStart,
			&rec.CirculationM3H, &rec.TempDiffC, &rec.Cycles,
			&rec.CWSHardnessPPM, &rec.MakeupHardnessPPM,
		); err != nil {
			return nil, err
		}
		rec.WeekStart, err = dosing.ParseDay(weekStart)
		if err != nil {
			return nil, fmt.Errorf("cws record %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveBWSRecord inserts or replaces a weekly boiler water record.
func (s *Store) SaveBWSRecord(ctx context.Context, rec dosing.BWSParameterRecord) error {
	query := `
		INSERT INTO bws_parameters (id, tank_id, week_start, steam_tons)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			tank_id = excluded.tank_id,
			week_start = excluded.week_start,
			steam_tons = excluded.steam_tons
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.TankID, rec.WeekStart.String(), rec.SteamTons,
	)
	return err
}

// ListBWSRecords returns a tank's boiler water records ordered by week.
func (s *Store) ListBWSRecords(ctx context.Context, tankID dosing.TankID) ([]dosing.BWSParameterRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tank_id, week_start, steam_tons
		FROM bws_parameters
		WHERE tank_id = $1
		ORDER BY week_start ASC
	`, tankID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []dosing.BWSParameterRecord
	for rows.Next() {
		var (
			rec       dosing.BWSParameterRecord
			weekStart string
		)
		if err := rows.Scan(&rec.ID, &rec.TankID, &weekStart, &rec.SteamTons); err != nil {
			return nil, err
		}
		rec.WeekStart, err = dosing.ParseDay(weekStart)
		if err != nil {
			return nil, fmt.Errorf("bws record %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// READING HISTORY (append-only)
// =============================================================================

// AppendReading adds a reading to the history.
func (s *Store) AppendReading(ctx context.Context, r dosing.Reading) error {
	return appendReading(ctx, s.db, r)
}

func appendReading(ctx context.Context, db execer, r dosing.Reading) error {
	query := `
		INSERT INTO readings (id, tank_id, taken_at, weight_kg, level_cm,
			refill_liters, refill_gravity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := db.ExecContext(ctx, query,
		r.ID, r.TankID,
		r.Timestamp.Format(time.RFC3339Nano),
		r.WeightKg, r.LevelCm, r.RefillLiters, r.RefillGravity,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return &dosing.DuplicateReadingError{TankID: r.TankID, ReadingID: r.ID}
		}
		return fmt.Errorf("failed to append reading: %w", err)
	}

	return nil
}

// AppendReadingBatch adds multiple readings atomically. A duplicate anywhere
// in the batch rolls the whole batch back.
func (s *Store) AppendReadingBatch(ctx context.Context, rs []dosing.Reading) error {
	seen := make(map[dosing.ReadingID]bool, len(rs))
	for _, r := range rs {
		if r.ID == "" {
			continue
		}
		if seen[r.ID] {
			return &dosing.DuplicateReadingError{TankID: r.TankID, ReadingID: r.ID}
		}
		seen[r.ID] = true
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, r := range rs {
		if err := appendReading(ctx, sqlTx, r); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// LoadReadings returns a tank's full history in chronological order.
func (s *Store) LoadReadings(ctx context.Context, tankID dosing.TankID) ([]dosing.Reading, error) {
	// The cast normalizes mixed UTC offsets; the raw column keeps them.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tank_id, taken_at, weight_kg, level_cm, refill_liters, refill_gravity
		FROM readings
		WHERE tank_id = $1
		ORDER BY taken_at::timestamptz ASC, created_at ASC
	`, tankID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []dosing.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func scanReading(row scanner) (dosing.Reading, error) {
	var (
		r             dosing.Reading
		takenAt       string
		levelCm       sql.NullFloat64
		refillGravity sql.NullFloat64
	)
	err := row.Scan(
		&r.ID, &r.TankID, &takenAt, &r.WeightKg,
		&levelCm, &r.RefillLiters, &refillGravity,
	)
	if err != nil {
		return r, err
	}

	r.Timestamp, err = time.Parse(time.RFC3339Nano, takenAt)
	if err != nil {
		return r, fmt.Errorf("reading %s: parse timestamp %q: %w", r.ID, takenAt, err)
	}
	if levelCm.Valid {
		v := levelCm.Float64
		r.LevelCm = &v
	}
	if refillGravity.Valid {
		v := refillGravity.Float64
		r.RefillGravity = &v
	}
	return r, nil
}

// ReadingExists checks whether a reading ID was already appended.
func (s *Store) ReadingExists(ctx context.Context, id dosing.ReadingID) (bool, error) {
	// Anonymous readings never collide
	if id == "" {
		return false, nil
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM readings WHERE id = $1",
		id,
	).Scan(&count)

	return count > 0, err
}

// =============================================================================
// NOTES
// =============================================================================

// SaveNote inserts or replaces a note.
func (s *Store) SaveNote(ctx context.Context, note dosing.ImportantNote) error {
	query := `
		INSERT INTO notes (id, tank_id, day, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			tank_id = excluded.tank_id,
			day = excluded.day,
			note = excluded.note
	`

	_, err := s.db.ExecContext(ctx, query,
		note.ID, note.TankID, note.Day.String(), note.Text,
		note.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// ListNotes returns all notes in the inclusive day range, ordered by day.
func (s *Store) ListNotes(ctx context.Context, from, to dosing.Day) ([]dosing.ImportantNote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tank_id, day, note, created_at
		FROM notes
		WHERE day >= $1 AND day <= $2
		ORDER BY day ASC, id ASC
	`, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []dosing.ImportantNote
	for rows.Next() {
		var (
			n         dosing.ImportantNote
			day       string
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.TankID, &day, &n.Text, &createdAt); err != nil {
			return nil, err
		}
		n.Day, err = dosing.ParseDay(day)
		if err != nil {
			return nil, fmt.Errorf("note %s: %w", n.ID, err)
		}
		n.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// =============================================================================
// ENGINE SNAPSHOT ASSEMBLY
// =============================================================================

// GetUsageInputs loads everything the engine needs for one tank.
func (s *Store) GetUsageInputs(ctx context.Context, tankID dosing.TankID) (dosing.UsageInputs, error) {
	tank, err := s.GetTank(ctx, tankID)
	if err != nil {
		return dosing.UsageInputs{}, err
	}
	supplies, err := s.ListSupplies(ctx, tankID)
	if err != nil {
		return dosing.UsageInputs{}, err
	}
	cws, err := s.ListCWSRecords(ctx, tankID)
	if err != nil {
		return dosing.UsageInputs{}, err
	}
	bws, err := s.ListBWSRecords(ctx, tankID)
	if err != nil {
		return dosing.UsageInputs{}, err
	}
	readings, err := s.LoadReadings(ctx, tankID)
	if err != nil {
		return dosing.UsageInputs{}, err
	}

	return dosing.UsageInputs{
		Tank:      tank,
		Supplies:  supplies,
		CWSParams: cws,
		BWSParams: bws,
		Readings:  readings,
	}, nil
}

// =============================================================================
// REPORT SNAPSHOTS (dosing.SnapshotStore interface)
// =============================================================================

// SaveSnapshot stores a report snapshot, replacing any previous one for the
// same tank-month.
func (s *Store) SaveSnapshot(ctx context.Context, snap dosing.ReportSnapshot) error {
	rowJSON, err := json.Marshal(snap.Row)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot row: %w", err)
	}

	query := `
		INSERT INTO report_snapshots (tank_id, year, month, generated_at, row_json)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tank_id, year, month) DO UPDATE SET
			generated_at = excluded.generated_at,
			row_json = excluded.row_json
	`

	_, err = s.db.ExecContext(ctx, query,
		snap.TankID, snap.Month.Year, int(snap.Month.Month),
		snap.GeneratedAt.Format(time.RFC3339Nano),
		string(rowJSON),
	)
	return err
}

// GetSnapshot retrieves the cached row for a tank-month.
func (s *Store) GetSnapshot(ctx context.Context, tankID dosing.TankID, month dosing.MonthKey) (dosing.ReportSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT tank_id, year, month, generated_at, row_json
		FROM report_snapshots
		WHERE tank_id = $1 AND year = $2 AND month = $3
	`, tankID, month.Year, int(month.Month))

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dosing.ReportSnapshot{}, dosing.ErrSnapshotNotFound
	}
	return snap, err
}

// ListSnapshots returns a tank's snapshots for a year, ordered by month.
func (s *Store) ListSnapshots(ctx context.Context, tankID dosing.TankID, year int) ([]dosing.ReportSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tank_id, year, month, generated_at, row_json
		FROM report_snapshots
		WHERE tank_id = $1 AND year = $2
		ORDER BY month ASC
	`, tankID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []dosing.ReportSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func scanSnapshot(row scanner) (dosing.ReportSnapshot, error) {
	var (
		snap        dosing.ReportSnapshot
		year, month int
		generatedAt string
		rowJSON     []byte
	)
	err := row.Scan(&snap.TankID, &year, &month, &generatedAt, &rowJSON)
	if err != nil {
		return snap, err
	}

	snap.Month = dosing.NewMonthKey(year, time.Month(month))
	snap.GeneratedAt, _ = time.Parse(time.RFC3339Nano, generatedAt)
	if err := json.Unmarshal(rowJSON, &snap.Row); err != nil {
		return snap, fmt.Errorf("failed to decode snapshot row: %w", err)
	}
	return snap, nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Reset clears all data. Demo/scenario support; not for production use.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		TRUNCATE tanks, supplies, cws_parameters, bws_parameters,
		         readings, notes, report_snapshots
	`)
	return err
}

// Helper types and functions

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
