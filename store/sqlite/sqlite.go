/*
Package sqlite provides the SQLite-backed implementation of the dosing store.

PURPOSE:
  Implements dosing.Store (including dosing.SnapshotStore) on SQLite for
  single-site deployments. The PostgreSQL implementation in store/postgres
  follows the same patterns; only SQL dialect details differ.

APPEND-ONLY ENFORCEMENT:
  The readings table is append-only:
  - No UPDATE statements on readings
  - No DELETE statements on readings (Reset wipes everything, but that is
    the demo/scenario escape hatch, not a data path)
  - A wrong reading is corrected by appending a corrected one

STORAGE CONVENTIONS:
  Days:       TEXT "2006-01-02" (sorts chronologically as a string)
  Timestamps: TEXT RFC3339 with the original UTC offset preserved, so a
              reading keeps the plant-local calendar day it was taken on
  Money:      TEXT decimal strings, parsed with shopspring/decimal
  Snapshots:  The whole report row as a JSON blob (row_json)

KEY TABLES:
  tanks:            Tank catalog with geometry configuration
  supplies:         Effective-dated supply contracts
  cws_parameters:   Weekly cooling water parameter records
  bws_parameters:   Weekly boiler water parameter records
  readings:         Immutable measurement history (append-only)
  notes:            Day-pinned report annotations
  report_snapshots: Cached monthly report rows

INDEXES:
  - idx_readings_unique_id:    Rejects duplicate reading IDs (anonymous
                               readings, id = '', are exempt)
  - idx_readings_tank_taken:   History loads per tank (hot path)
  - idx_supplies_tank_effective: Contract timeline resolution
  - idx_cws_tank_week / idx_bws_tank_week: Weekly record lookups

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of the single connection pool.
  With PostgreSQL, database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/dosing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  inputs, err := store.GetUsageInputs(ctx, tankID)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - dosing/store.go: Interface definition
  - dosing/store/memory.go: In-memory implementation for tests
  - store/postgres: Multi-site PostgreSQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/clearwater/dosing-engine/dosing"
)

// Store implements dosing.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ dosing.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and sidesteps
	// SQLITE_BUSY; the store serializes writers anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Tank catalog
	CREATE TABLE IF NOT EXISTS tanks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		site TEXT,
		system TEXT NOT NULL,
		method TEXT NOT NULL,
		shape TEXT,
		diameter_cm REAL DEFAULT 0,
		height_cm REAL DEFAULT 0,
		length_cm REAL DEFAULT 0,
		width_cm REAL DEFAULT 0,
		sensor_offset_cm REAL DEFAULT 0,
		head TEXT,
		liters_per_cm REAL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Supply contracts (effective-dated, history kept forever)
	CREATE TABLE IF NOT EXISTS supplies (
		id TEXT PRIMARY KEY,
		tank_id TEXT NOT NULL,
		product TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		target_ppm REAL NOT NULL,
		price TEXT NOT NULL,
		specific_gravity REAL NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_supplies_tank_effective
		ON supplies(tank_id, effective_from);

	-- Weekly cooling water parameter records
	CREATE TABLE IF NOT EXISTS cws_parameters (
		id TEXT PRIMARY KEY,
		tank_id TEXT NOT NULL,
		week_start TEXT NOT NULL,
		circulation_m3h REAL DEFAULT 0,
		temp_diff_c REAL DEFAULT 0,
		cycles REAL DEFAULT 0,
		cws_hardness_ppm REAL DEFAULT 0,
		makeup_hardness_ppm REAL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cws_tank_week
		ON cws_parameters(tank_id, week_start);

	-- Weekly boiler water parameter records
	CREATE TABLE IF NOT EXISTS bws_parameters (
		id TEXT PRIMARY KEY,
		tank_id TEXT NOT NULL,
		week_start TEXT NOT NULL,
		steam_tons REAL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bws_tank_week
		ON bws_parameters(tank_id, week_start);

	-- Readings (append-only measurement history)
	CREATE TABLE IF NOT EXISTS readings (
		id TEXT NOT NULL,
		tank_id TEXT NOT NULL,
		taken_at TEXT NOT NULL,
		weight_kg REAL NOT NULL,
		level_cm REAL,
		refill_liters REAL NOT NULL DEFAULT 0,
		refill_gravity REAL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: the same reading ID cannot be recorded twice. Anonymous
	-- readings (id = '') are exempt; they never deduplicate.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_readings_unique_id
		ON readings(id) WHERE id != '';

	-- For per-tank history loads (hot path)
	CREATE INDEX IF NOT EXISTS idx_readings_tank_taken
		ON readings(tank_id, taken_at);

	-- Notes (day-pinned report annotations)
	CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		tank_id TEXT NOT NULL DEFAULT '',
		day TEXT NOT NULL,
		note TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notes_day
		ON notes(day);

	-- Cached monthly report rows
	CREATE TABLE IF NOT EXISTS report_snapshots (
		tank_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		generated_at TEXT NOT NULL,
		row_json TEXT NOT NULL,
		PRIMARY KEY (tank_id, year, month)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TANK CATALOG
// =============================================================================

// SaveTank inserts or replaces a tank definition.
func (s *Store) SaveTank(ctx context.Context, tank dosing.Tank) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO tanks (id, name, site, system, method, shape, diameter_cm,
			height_cm, length_cm, width_cm, sensor_offset_cm, head, liters_per_cm,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
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
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		tank.ID, tank.Name, tank.Site, string(tank.System), string(tank.Method),
		string(tank.Shape), tank.DiameterCm, tank.HeightCm, tank.LengthCm,
		tank.WidthCm, tank.SensorOffsetCm, string(tank.Head), tank.LitersPerCm,
		now, now,
	)
	return err
}

// GetTank retrieves a tank by ID.
func (s *Store) GetTank(ctx context.Context, id dosing.TankID) (dosing.Tank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getTank(ctx, id)
}

func (s *Store) getTank(ctx context.Context, id dosing.TankID) (dosing.Tank, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, site, system, method, shape, diameter_cm, height_cm,
		       length_cm, width_cm, sensor_offset_cm, head, liters_per_cm
		FROM tanks WHERE id = ?
	`, id)

	tank, err := scanTank(row)
	if err == sql.ErrNoRows {
		return dosing.Tank{}, dosing.ErrTankNotFound
	}
	return tank, err
}

// ListTanks returns all tanks ordered by name.
func (s *Store) ListTanks(ctx context.Context) ([]dosing.Tank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

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
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO supplies (id, tank_id, product, effective_from, target_ppm,
			price, specific_gravity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
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
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetSupply retrieves a supply contract by ID.
func (s *Store) GetSupply(ctx context.Context, id dosing.SupplyID) (dosing.ChemicalSupply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, tank_id, product, effective_from, target_ppm, price, specific_gravity
		FROM supplies WHERE id = ?
	`, id)

	supply, err := scanSupply(row)
	if err == sql.ErrNoRows {
		return dosing.ChemicalSupply{}, dosing.ErrSupplyNotFound
	}
	return supply, err
}

// ListSupplies returns a tank's contract history ordered by effective day.
func (s *Store) ListSupplies(ctx context.Context, tankID dosing.TankID) ([]dosing.ChemicalSupply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listSupplies(ctx, tankID)
}

func (s *Store) listSupplies(ctx context.Context, tankID dosing.TankID) ([]dosing.ChemicalSupply, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tank_id, product, effective_from, target_ppm, price, specific_gravity
		FROM supplies
		WHERE tank_id = ?
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
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO cws_parameters (id, tank_id, week_start, circulation_m3h,
			temp_diff_c, cycles, cws_hardness_ppm, makeup_hardness_ppm, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
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
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListCWSRecords returns a tank's cooling water records ordered by week.
func (s *Store) ListCWSRecords(ctx context.Context, tankID dosing.TankID) ([]dosing.CWSParameterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listCWSRecords(ctx, tankID)
}

func (s *Store) listCWSRecords(ctx context.Context, tankID dosing.TankID) ([]dosing.CWSParameterRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tank_id, week_start, circulation_m3h, temp_diff_c, cycles,
		       cws_hardness_ppm, makeup_hardness_ppm
		FROM cws_parameters
		WHERE tank_id = ?
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
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO bws_parameters (id, tank_id, week_start, steam_tons, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tank_id = excluded.tank_id,
			week_start = excluded.week_start,
			steam_tons = excluded.steam_tons
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.TankID, rec.WeekStart.String(), rec.SteamTons,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListBWSRecords returns a tank's boiler water records ordered by week.
func (s *Store) ListBWSRecords(ctx context.Context, tankID dosing.TankID) ([]dosing.BWSParameterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listBWSRecords(ctx, tankID)
}

func (s *Store) listBWSRecords(ctx context.Context, tankID dosing.TankID) ([]dosing.BWSParameterRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tank_id, week_start, steam_tons
		FROM bws_parameters
		WHERE tank_id = ?
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
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendReading(ctx, s.db, r)
}

func (s *Store) appendReading(ctx context.Context, db execer, r dosing.Reading) error {
	query := `
		INSERT INTO readings (id, tank_id, taken_at, weight_kg, level_cm,
			refill_liters, refill_gravity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		r.ID, r.TankID,
		r.Timestamp.Format(time.RFC3339Nano),
		r.WeightKg, r.LevelCm, r.RefillLiters, r.RefillGravity,
		time.Now().UTC().Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return &dosing.DuplicateReadingError{TankID: r.TankID, ReadingID: r.ID}
		}
		return fmt.Errorf("failed to append reading: %w", err)
	}

	return nil
}

// AppendReadingBatch adds multiple readings atomically. A duplicate anywhere
// in the batch rolls the whole batch back.
func (s *Store) AppendReadingBatch(ctx context.Context, rs []dosing.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicate IDs within the batch first
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
		if err := s.appendReading(ctx, sqlTx, r); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// LoadReadings returns a tank's full history in chronological order.
func (s *Store) LoadReadings(ctx context.Context, tankID dosing.TankID) ([]dosing.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadReadings(ctx, tankID)
}

func (s *Store) loadReadings(ctx context.Context, tankID dosing.TankID) ([]dosing.Reading, error) {
	// datetime() normalizes mixed UTC offsets; the raw column keeps them.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tank_id, taken_at, weight_kg, level_cm, refill_liters, refill_gravity
		FROM readings
		WHERE tank_id = ?
		ORDER BY datetime(taken_at) ASC, created_at ASC
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
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Anonymous readings never collide
	if id == "" {
		return false, nil
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM readings WHERE id = ?",
		id,
	).Scan(&count)

	return count > 0, err
}

// =============================================================================
// NOTES
// =============================================================================

// SaveNote inserts or replaces a note.
func (s *Store) SaveNote(ctx context.Context, note dosing.ImportantNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO notes (id, tank_id, day, note, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
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
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tank_id, day, note, created_at
		FROM notes
		WHERE day >= ? AND day <= ?
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
	s.mu.RLock()
	defer s.mu.RUnlock()

	tank, err := s.getTank(ctx, tankID)
	if err != nil {
		return dosing.UsageInputs{}, err
	}
	supplies, err := s.listSupplies(ctx, tankID)
	if err != nil {
		return dosing.UsageInputs{}, err
	}
	cws, err := s.listCWSRecords(ctx, tankID)
	if err != nil {
		return dosing.UsageInputs{}, err
	}
	bws, err := s.listBWSRecords(ctx, tankID)
	if err != nil {
		return dosing.UsageInputs{}, err
	}
	readings, err := s.loadReadings(ctx, tankID)
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
	s.mu.Lock()
	defer s.mu.Unlock()

	rowJSON, err := json.Marshal(snap.Row)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot row: %w", err)
	}

	query := `
		INSERT INTO report_snapshots (tank_id, year, month, generated_at, row_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tank_id, year, month) DO UPDATE SET
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
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT tank_id, year, month, generated_at, row_json
		FROM report_snapshots
		WHERE tank_id = ? AND year = ? AND month = ?
	`, tankID, month.Year, int(month.Month))

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return dosing.ReportSnapshot{}, dosing.ErrSnapshotNotFound
	}
	return snap, err
}

// ListSnapshots returns a tank's snapshots for a year, ordered by month.
func (s *Store) ListSnapshots(ctx context.Context, tankID dosing.TankID, year int) ([]dosing.ReportSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT tank_id, year, month, generated_at, row_json
		FROM report_snapshots
		WHERE tank_id = ? AND year = ?
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
		rowJSON     string
	)
	err := row.Scan(&snap.TankID, &year, &month, &generatedAt, &rowJSON)
	if err != nil {
		return snap, err
	}

	snap.Month = dosing.NewMonthKey(year, time.Month(month))
	snap.GeneratedAt, _ = time.Parse(time.RFC3339Nano, generatedAt)
	if err := json.Unmarshal([]byte(rowJSON), &snap.Row); err != nil {
		return snap, fmt.Errorf("failed to decode snapshot row: %w", err)
	}
	return snap, nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Reset clears all data. Demo/scenario support; not for production use.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM tanks;
		DELETE FROM supplies;
		DELETE FROM cws_parameters;
		DELETE FROM bws_parameters;
		DELETE FROM readings;
		DELETE FROM notes;
		DELETE FROM report_snapshots;
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

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
