/*
refresher.go - Background snapshot refresher

PURPOSE:
  Periodically re-materializes month-row snapshots so report reads stay
  cheap. Covers the current and the previous month of every tank: late
  readings and parameter corrections commonly land a few days into the
  following month.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Recomputes through the same pure engine the report endpoints use
  - Last write wins; a snapshot is a cache, never the source of truth

CONFIGURATION:
  - Interval: How often to refresh (default: 1 hour)
  - Enabled: Whether the refresher is active (default: true)

USAGE:
  refresher := NewSnapshotRefresher(store)
  refresher.Start()
  // ... later
  refresher.Stop()

SEE ALSO:
  - handlers.go: GetMonthReport serves these snapshots
  - dosing/snapshot.go: BuildSnapshot
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/clearwater/dosing-engine/dosing"
	"github.com/clearwater/dosing-engine/logging"
)

// SnapshotRefresher re-materializes report snapshots in the background.
type SnapshotRefresher struct {
	Store    dosing.Store
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSnapshotRefresher creates a new refresher.
func NewSnapshotRefresher(store dosing.Store) *SnapshotRefresher {
	return &SnapshotRefresher{
		Store:    store,
		Interval: 1 * time.Hour,
		Enabled:  true,
		stop:     make(chan bool),
	}
}

// Start begins the refresher.
func (sr *SnapshotRefresher) Start() {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if !sr.Enabled {
		logging.Info("[Refresher] Disabled, not starting")
		return
	}

	sr.ticker = time.NewTicker(sr.Interval)
	sr.wg.Add(1)

	go sr.run()

	logging.Infof("[Refresher] Started with interval: %v", sr.Interval)
}

// Stop stops the refresher.
func (sr *SnapshotRefresher) Stop() {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.ticker != nil {
		sr.ticker.Stop()
		close(sr.stop)
		sr.wg.Wait()
		logging.Info("[Refresher] Stopped")
	}
}

func (sr *SnapshotRefresher) run() {
	defer sr.wg.Done()

	// Refresh immediately on start
	sr.refreshAll()

	for {
		select {
		case <-sr.ticker.C:
			sr.refreshAll()
		case <-sr.stop:
			return
		}
	}
}

// RunNow triggers an immediate refresh (for testing/admin).
func (sr *SnapshotRefresher) RunNow() {
	sr.refreshAll()
}

func (sr *SnapshotRefresher) refreshAll() {
	ctx := context.Background()
	now := time.Now().UTC()
	today := dosing.Today()

	// The previous month keeps absorbing late readings and corrections
	// for a while, so rebuild it alongside the current one.
	months := []dosing.MonthKey{dosing.MonthOf(today).Prev(), dosing.MonthOf(today)}

	tanks, err := sr.Store.ListTanks(ctx)
	if err != nil {
		logging.Errorf("[Refresher] Error listing tanks: %v", err)
		return
	}

	refreshed := 0
	failed := 0

	for _, tank := range tanks {
		inputs, err := sr.Store.GetUsageInputs(ctx, tank.ID)
		if err != nil {
			logging.Errorf("[Refresher] Error loading inputs for %s: %v", tank.ID, err)
			failed++
			continue
		}

		agg := dosing.Aggregator{AsOf: today}
		for _, month := range months {
			snap := dosing.BuildSnapshot(agg, inputs, month, now)
			if err := sr.Store.SaveSnapshot(ctx, snap); err != nil {
				logging.Errorf("[Refresher] Error saving snapshot %s/%s: %v", tank.ID, month, err)
				failed++
				continue
			}
			refreshed++
		}
	}

	if refreshed > 0 || failed > 0 {
		logging.Infof("[Refresher] Completed: %d refreshed, %d failed", refreshed, failed)
	}
}
