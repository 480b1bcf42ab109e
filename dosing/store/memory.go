// Package store provides the in-memory Store implementation.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/clearwater/dosing-engine/dosing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

var _ dosing.Store = (*Memory)(nil)

type Memory struct {
	mu        sync.RWMutex
	tanks     map[dosing.TankID]dosing.Tank
	supplies  map[dosing.SupplyID]dosing.ChemicalSupply
	cws       map[dosing.RecordID]dosing.CWSParameterRecord
	bws       map[dosing.RecordID]dosing.BWSParameterRecord
	readings  map[dosing.TankID][]dosing.Reading
	readingID map[dosing.ReadingID]bool
	notes     map[dosing.NoteID]dosing.ImportantNote
	snapshots map[snapKey]dosing.ReportSnapshot
}

type snapKey struct {
	TankID dosing.TankID
	Month  dosing.MonthKey
}

func NewMemory() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.tanks = make(map[dosing.TankID]dosing.Tank)
	m.supplies = make(map[dosing.SupplyID]dosing.ChemicalSupply)
	m.cws = make(map[dosing.RecordID]dosing.CWSParameterRecord)
	m.bws = make(map[dosing.RecordID]dosing.BWSParameterRecord)
	m.readings = make(map[dosing.TankID][]dosing.Reading)
	m.readingID = make(map[dosing.ReadingID]bool)
	m.notes = make(map[dosing.NoteID]dosing.ImportantNote)
	m.snapshots = make(map[snapKey]dosing.ReportSnapshot)
}

// =============================================================================
// TANK CATALOG
// =============================================================================

func (m *Memory) SaveTank(_ context.Context, tank dosing.Tank) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tanks[tank.ID] = tank
	return nil
}

func (m *Memory) GetTank(_ context.Context, id dosing.TankID) (dosing.Tank, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tank, ok := m.tanks[id]
	if !ok {
		return dosing.Tank{}, dosing.ErrTankNotFound
	}
	return tank, nil
}

func (m *Memory) ListTanks(_ context.Context) ([]dosing.Tank, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]dosing.Tank, 0, len(m.tanks))
	for _, t := range m.tanks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// =============================================================================
// SUPPLY CONTRACTS
// =============================================================================

func (m *Memory) SaveSupply(_ context.Context, supply dosing.ChemicalSupply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supplies[supply.ID] = supply
	return nil
}

func (m *Memory) GetSupply(_ context.Context, id dosing.SupplyID) (dosing.ChemicalSupply, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.supplies[id]
	if !ok {
		return dosing.ChemicalSupply{}, dosing.ErrSupplyNotFound
	}
	return s, nil
}

func (m *Memory) ListSupplies(_ context.Context, tankID dosing.TankID) ([]dosing.ChemicalSupply, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.suppliesLocked(tankID), nil
}

func (m *Memory) suppliesLocked(tankID dosing.TankID) []dosing.ChemicalSupply {
	var out []dosing.ChemicalSupply
	for _, s := range m.supplies {
		if s.TankID == tankID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveFrom.Before(out[j].EffectiveFrom) })
	return out
}

// =============================================================================
// WEEKLY PARAMETER RECORDS
// =============================================================================

func (m *Memory) SaveCWSRecord(_ context.Context, rec dosing.CWSParameterRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cws[rec.ID] = rec
	return nil
}

func (m *Memory) ListCWSRecords(_ context.Context, tankID dosing.TankID) ([]dosing.CWSParameterRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cwsLocked(tankID), nil
}

func (m *Memory) cwsLocked(tankID dosing.TankID) []dosing.CWSParameterRecord {
	var out []dosing.CWSParameterRecord
	for _, rec := range m.cws {
		if rec.TankID == tankID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out
}

func (m *Memory) SaveBWSRecord(_ context.Context, rec dosing.BWSParameterRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bws[rec.ID] = rec
	return nil
}

func (m *Memory) ListBWSRecords(_ context.Context, tankID dosing.TankID) ([]dosing.BWSParameterRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bwsLocked(tankID), nil
}

func (m *Memory) bwsLocked(tankID dosing.TankID) []dosing.BWSParameterRecord {
	var out []dosing.BWSParameterRecord
	for _, rec := range m.bws {
		if rec.TankID == tankID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out
}

// =============================================================================
// READING HISTORY - Append-only
// =============================================================================

func (m *Memory) AppendReading(_ context.Context, r dosing.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(r)
}

func (m *Memory) AppendReadingBatch(_ context.Context, rs []dosing.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check the whole batch first so a mid-batch duplicate cannot leave a
	// partial write behind.
	seen := make(map[dosing.ReadingID]bool, len(rs))
	for _, r := range rs {
		if r.ID == "" {
			continue
		}
		if m.readingID[r.ID] || seen[r.ID] {
			return &dosing.DuplicateReadingError{TankID: r.TankID, ReadingID: r.ID}
		}
		seen[r.ID] = true
	}
	for _, r := range rs {
		if err := m.appendLocked(r); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) appendLocked(r dosing.Reading) error {
	if r.ID != "" {
		if m.readingID[r.ID] {
			return &dosing.DuplicateReadingError{TankID: r.TankID, ReadingID: r.ID}
		}
		m.readingID[r.ID] = true
	}

	rs := m.readings[r.TankID]
	i := sort.Search(len(rs), func(i int) bool {
		return rs[i].Timestamp.After(r.Timestamp)
	})
	rs = append(rs, dosing.Reading{})
	copy(rs[i+1:], rs[i:])
	rs[i] = r
	m.readings[r.TankID] = rs
	return nil
}

func (m *Memory) LoadReadings(_ context.Context, tankID dosing.TankID) ([]dosing.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]dosing.Reading, len(m.readings[tankID]))
	copy(out, m.readings[tankID])
	return out, nil
}

func (m *Memory) ReadingExists(_ context.Context, id dosing.ReadingID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readingID[id], nil
}

// =============================================================================
// NOTES
// =============================================================================

func (m *Memory) SaveNote(_ context.Context, note dosing.ImportantNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[note.ID] = note
	return nil
}

func (m *Memory) ListNotes(_ context.Context, from, to dosing.Day) ([]dosing.ImportantNote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []dosing.ImportantNote
	for _, n := range m.notes {
		if n.Day.AfterOrEqual(from) && n.Day.BeforeOrEqual(to) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// ENGINE SNAPSHOT ASSEMBLY
// =============================================================================

func (m *Memory) GetUsageInputs(_ context.Context, tankID dosing.TankID) (dosing.UsageInputs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tank, ok := m.tanks[tankID]
	if !ok {
		return dosing.UsageInputs{}, dosing.ErrTankNotFound
	}

	readings := make([]dosing.Reading, len(m.readings[tankID]))
	copy(readings, m.readings[tankID])

	return dosing.UsageInputs{
		Tank:      tank,
		Supplies:  m.suppliesLocked(tankID),
		CWSParams: m.cwsLocked(tankID),
		BWSParams: m.bwsLocked(tankID),
		Readings:  readings,
	}, nil
}

// =============================================================================
// REPORT SNAPSHOTS
// =============================================================================

func (m *Memory) SaveSnapshot(_ context.Context, snap dosing.ReportSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapKey{TankID: snap.TankID, Month: snap.Month}] = snap
	return nil
}

func (m *Memory) GetSnapshot(_ context.Context, tankID dosing.TankID, month dosing.MonthKey) (dosing.ReportSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[snapKey{TankID: tankID, Month: month}]
	if !ok {
		return dosing.ReportSnapshot{}, dosing.ErrSnapshotNotFound
	}
	return snap, nil
}

func (m *Memory) ListSnapshots(_ context.Context, tankID dosing.TankID, year int) ([]dosing.ReportSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []dosing.ReportSnapshot
	for k, snap := range m.snapshots {
		if k.TankID == tankID && k.Month.Year == year {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Month < out[j].Month.Month })
	return out, nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

func (m *Memory) Close() error { return nil }
