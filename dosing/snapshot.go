/*
snapshot.go - Cached monthly report rows

PURPOSE:
  Month rows are cheap to compute but the reporting UI reads them far more
  often than readings arrive. A ReportSnapshot is one precomputed MonthRow
  with its generation time; the background refresher regenerates snapshots
  and the API serves reads from them when present.

  Snapshots are always REGENERATED from a fresh UsageInputs snapshot, never
  incrementally patched. The engine stays pure; staleness is bounded by the
  refresher interval.

SEE ALSO:
  - aggregate.go: Produces the MonthRow being cached
  - ../api/refresher.go: Drives regeneration
*/
package dosing

import (
	"context"
	"time"
)

// ReportSnapshot is one cached tank-month report row.
type ReportSnapshot struct {
	TankID      TankID
	Month       MonthKey
	GeneratedAt time.Time
	Row         MonthRow
}

// BuildSnapshot computes a fresh snapshot for a tank-month.
func BuildSnapshot(agg Aggregator, inputs UsageInputs, month MonthKey, at time.Time) ReportSnapshot {
	return ReportSnapshot{
		TankID:      inputs.Tank.ID,
		Month:       month,
		GeneratedAt: at,
		Row:         agg.MonthReport(inputs, month),
	}
}

// SnapshotStore persists report snapshots. Saving the same tank-month again
// replaces the previous snapshot.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap ReportSnapshot) error

	// GetSnapshot returns ErrSnapshotNotFound when the tank-month has not
	// been generated yet.
	GetSnapshot(ctx context.Context, tankID TankID, month MonthKey) (ReportSnapshot, error)

	// ListSnapshots returns a tank's snapshots for a year, ordered by month.
	ListSnapshots(ctx context.Context, tankID TankID, year int) ([]ReportSnapshot, error)
}
