/*
Package importer loads plant CSV exports into a store.

PURPOSE:
  The batch ingestion path. Treatment sites hand over their data as
  spreadsheet exports, not API calls: a tank catalog, supply contracts,
  weekly parameter sheets and months of tank readings at once. Run drives
  the CSV loaders against a store in dependency order and reports what it
  moved.

ORDERING:
  Tanks import before supplies, and both before readings, so a single run
  is self-contained: level-only reading rows resolve geometry and gravity
  against what the same run just saved. The conversion context is built
  from the store rather than the input files, so a readings-only run
  against an already populated database works the same way.

IDEMPOTENCE:
  Readings are append-only with unique IDs. Rows whose ID is already in
  the store are skipped and counted, so re-running an export after a
  partial failure is safe. Tanks, supplies and parameter records are
  upserts and simply overwrite.

USAGE:
  sum, err := importer.Run(ctx, store, importer.Files{
      Tanks:    "tanks.csv",
      Readings: "readings.csv",
  })

SEE ALSO:
  - loader.go: the per-file CSV parsing
  - ../cmd/import: the CLI wrapping this
*/
package importer

import (
	"context"
	"fmt"

	"github.com/clearwater/dosing-engine/dosing"
	"github.com/clearwater/dosing-engine/logging"
)

// =============================================================================
// RUN API
// =============================================================================

// Files names the CSV inputs of one import run. Empty paths are skipped.
type Files struct {
	Tanks    string
	Supplies string
	CWS      string
	BWS      string
	Readings string
}

// Summary counts what one import run moved into the store.
type Summary struct {
	Tanks           int
	Supplies        int
	CWSRecords      int
	BWSRecords      int
	Readings        int
	SkippedReadings int
}

// Run loads the named files into the store in dependency order. The first
// failing file aborts the run; earlier files stay imported.
func Run(ctx context.Context, st dosing.Store, files Files) (Summary, error) {
	loader := NewLoader()
	var sum Summary

	if files.Tanks != "" {
		tanks, err := loader.LoadTanks(files.Tanks)
		if err != nil {
			return sum, fmt.Errorf("import tanks: %w", err)
		}
		for _, tank := range tanks {
			if err := st.SaveTank(ctx, tank); err != nil {
				return sum, fmt.Errorf("import tanks: save %s: %w", tank.ID, err)
			}
		}
		sum.Tanks = len(tanks)
		logging.Infof("[Importer] Loaded %d tanks from %s", len(tanks), files.Tanks)
	}

	if files.Supplies != "" {
		supplies, err := loader.LoadSupplies(files.Supplies)
		if err != nil {
			return sum, fmt.Errorf("import supplies: %w", err)
		}
		for _, supply := range supplies {
			if _, err := st.GetTank(ctx, supply.TankID); err != nil {
				return sum, fmt.Errorf("import supplies: %s: %w", supply.ID, err)
			}
			if err := st.SaveSupply(ctx, supply); err != nil {
				return sum, fmt.Errorf("import supplies: save %s: %w", supply.ID, err)
			}
		}
		sum.Supplies = len(supplies)
		logging.Infof("[Importer] Loaded %d supplies from %s", len(supplies), files.Supplies)
	}

	if files.CWS != "" {
		recs, err := loader.LoadCWSRecords(files.CWS)
		if err != nil {
			return sum, fmt.Errorf("import cws parameters: %w", err)
		}
		for _, rec := range recs {
			if _, err := st.GetTank(ctx, rec.TankID); err != nil {
				return sum, fmt.Errorf("import cws parameters: %s: %w", rec.ID, err)
			}
			if err := st.SaveCWSRecord(ctx, rec); err != nil {
				return sum, fmt.Errorf("import cws parameters: save %s: %w", rec.ID, err)
			}
		}
		sum.CWSRecords = len(recs)
		logging.Infof("[Importer] Loaded %d cws parameter records from %s", len(recs), files.CWS)
	}

	if files.BWS != "" {
		recs, err := loader.LoadBWSRecords(files.BWS)
		if err != nil {
			return sum, fmt.Errorf("import bws parameters: %w", err)
		}
		for _, rec := range recs {
			if _, err := st.GetTank(ctx, rec.TankID); err != nil {
				return sum, fmt.Errorf("import bws parameters: %s: %w", rec.ID, err)
			}
			if err := st.SaveBWSRecord(ctx, rec); err != nil {
				return sum, fmt.Errorf("import bws parameters: save %s: %w", rec.ID, err)
			}
		}
		sum.BWSRecords = len(recs)
		logging.Infof("[Importer] Loaded %d bws parameter records from %s", len(recs), files.BWS)
	}

	if files.Readings != "" {
		rctx, err := storeReadingContext(ctx, st)
		if err != nil {
			return sum, fmt.Errorf("import readings: %w", err)
		}
		readings, err := loader.LoadReadings(files.Readings, rctx)
		if err != nil {
			return sum, fmt.Errorf("import readings: %w", err)
		}

		fresh := make([]dosing.Reading, 0, len(readings))
		for _, r := range readings {
			exists, err := st.ReadingExists(ctx, r.ID)
			if err != nil {
				return sum, fmt.Errorf("import readings: %w", err)
			}
			if exists {
				sum.SkippedReadings++
				continue
			}
			fresh = append(fresh, r)
		}
		if len(fresh) > 0 {
			if err := st.AppendReadingBatch(ctx, fresh); err != nil {
				return sum, fmt.Errorf("import readings: %w", err)
			}
		}
		sum.Readings = len(fresh)
		logging.Infof("[Importer] Loaded %d readings from %s (%d already present)", len(fresh), files.Readings, sum.SkippedReadings)
	}

	return sum, nil
}

// storeReadingContext snapshots the tank catalog and contract histories for
// level-to-weight conversion.
func storeReadingContext(ctx context.Context, st dosing.Store) (ReadingContext, error) {
	tanks, err := st.ListTanks(ctx)
	if err != nil {
		return ReadingContext{}, err
	}

	rctx := ReadingContext{
		Tanks:    make(map[dosing.TankID]dosing.Tank, len(tanks)),
		Supplies: make(map[dosing.TankID][]dosing.ChemicalSupply, len(tanks)),
	}
	for _, tank := range tanks {
		rctx.Tanks[tank.ID] = tank
		supplies, err := st.ListSupplies(ctx, tank.ID)
		if err != nil {
			return ReadingContext{}, err
		}
		rctx.Supplies[tank.ID] = supplies
	}
	return rctx, nil
}
