/*
store.go - Persistence interface for tanks, contracts, parameters, readings

PURPOSE:
  Defines the interface between the engine and the database. The engine
  itself never touches a Store; callers use one to assemble UsageInputs
  snapshots and hand those to the pure functions.

KEY INTERFACES:
  Store:         Catalog entities + the append-only reading history
  SnapshotStore: Cached monthly report rows (snapshot.go)

APPEND-ONLY READINGS:
  Readings are measurement events. The interface exposes Append and Load
  but NO update or delete: a wrong reading is corrected by appending a
  corrected one, and the allocator's normalization handles the rest.
  Appending an ID that already exists fails with ErrDuplicateReading.

IMPLEMENTATIONS:
  - store/sqlite: Production single-site deployments (CGO, WAL)
  - store/postgres: Multi-site deployments
  - dosing/store: In-memory for tests and demos

EXAMPLE:
  inputs, err := store.GetUsageInputs(ctx, tankID)
  if err != nil { ... }
  row := dosing.Aggregator{AsOf: dosing.Today()}.MonthReport(inputs, month)

SEE ALSO:
  - snapshot.go: SnapshotStore
  - errors.go: Sentinel errors the implementations return
*/
package dosing

import "context"

// Store handles persistence of all dosing entities.
// Readings are APPEND-ONLY: no update, no delete. Ever.
type Store interface {
	// --- Tank catalog ---

	// SaveTank inserts or replaces a tank definition.
	SaveTank(ctx context.Context, tank Tank) error

	// GetTank returns ErrTankNotFound for unknown IDs.
	GetTank(ctx context.Context, id TankID) (Tank, error)

	// ListTanks returns all tanks ordered by name.
	ListTanks(ctx context.Context) ([]Tank, error)

	// --- Supply contracts ---

	SaveSupply(ctx context.Context, supply ChemicalSupply) error
	GetSupply(ctx context.Context, id SupplyID) (ChemicalSupply, error)

	// ListSupplies returns a tank's contract history ordered by effective day.
	ListSupplies(ctx context.Context, tankID TankID) ([]ChemicalSupply, error)

	// --- Weekly parameter records ---

	SaveCWSRecord(ctx context.Context, rec CWSParameterRecord) error
	ListCWSRecords(ctx context.Context, tankID TankID) ([]CWSParameterRecord, error)

	SaveBWSRecord(ctx context.Context, rec BWSParameterRecord) error
	ListBWSRecords(ctx context.Context, tankID TankID) ([]BWSParameterRecord, error)

	// --- Reading history (append-only) ---

	// AppendReading persists one reading. Returns ErrDuplicateReading if the
	// ID was appended before.
	AppendReading(ctx context.Context, r Reading) error

	// AppendReadingBatch persists multiple readings atomically. Either all
	// succeed or none do.
	AppendReadingBatch(ctx context.Context, rs []Reading) error

	// LoadReadings returns a tank's full history ordered by timestamp.
	LoadReadings(ctx context.Context, tankID TankID) ([]Reading, error)

	// ReadingExists checks whether a reading ID was already appended.
	ReadingExists(ctx context.Context, id ReadingID) (bool, error)

	// --- Notes ---

	SaveNote(ctx context.Context, note ImportantNote) error
	ListNotes(ctx context.Context, from, to Day) ([]ImportantNote, error)

	// --- Engine snapshot assembly ---

	// GetUsageInputs loads everything the engine needs for one tank.
	// Returns ErrTankNotFound for unknown tanks; empty histories are fine.
	GetUsageInputs(ctx context.Context, tankID TankID) (UsageInputs, error)

	SnapshotStore

	// Reset clears all data. Demo/scenario support; not for production use.
	Reset(ctx context.Context) error

	Close() error
}
