/*
refresher_test.go - Tests for the background snapshot refresher

Tests for:
- RunNow materializing the current and previous months
- Enabled flag gating the background loop
- Clean start/stop
*/
package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearwater/dosing-engine/dosing"
)

func TestRefresher_RunNowBuildsSnapshots(t *testing.T) {
	// GIVEN: A store with one seeded tank
	h, _ := newTestServer(t)
	tankID := seedMarchTower(t, h)

	refresher := NewSnapshotRefresher(h.Store)

	// WHEN: Forcing a refresh
	refresher.RunNow()

	// THEN: The current and the previous month are materialized
	ctx := context.Background()
	current := dosing.MonthOf(dosing.Today())
	for _, month := range []dosing.MonthKey{current.Prev(), current} {
		snap, err := h.Store.GetSnapshot(ctx, tankID, month)
		if err != nil {
			t.Fatalf("Expected a snapshot for %s: %v", month, err)
		}
		if snap.GeneratedAt.IsZero() {
			t.Errorf("Snapshot for %s is missing its generation time", month)
		}
	}
}

func TestRefresher_DisabledDoesNotRun(t *testing.T) {
	// GIVEN: A disabled refresher over a seeded store
	h, _ := newTestServer(t)
	tankID := seedMarchTower(t, h)

	refresher := NewSnapshotRefresher(h.Store)
	refresher.Enabled = false

	// WHEN: Starting and stopping
	refresher.Start()
	refresher.Stop()

	// THEN: Nothing was materialized
	_, err := h.Store.GetSnapshot(context.Background(), tankID, dosing.MonthOf(dosing.Today()))
	if !errors.Is(err, dosing.ErrSnapshotNotFound) {
		t.Errorf("Expected no snapshot from a disabled refresher, got err=%v", err)
	}
}

func TestRefresher_StartStop(t *testing.T) {
	// GIVEN: A fast refresher over a seeded store
	h, _ := newTestServer(t)
	tankID := seedMarchTower(t, h)

	refresher := NewSnapshotRefresher(h.Store)
	refresher.Interval = 10 * time.Millisecond

	// WHEN: Running briefly and stopping
	refresher.Start()
	time.Sleep(30 * time.Millisecond)
	refresher.Stop()

	// THEN: The startup refresh materialized the current month
	_, err := h.Store.GetSnapshot(context.Background(), tankID, dosing.MonthOf(dosing.Today()))
	if err != nil {
		t.Fatalf("Expected a snapshot after the refresher ran: %v", err)
	}
}
