// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package events

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/veripatrol/internal/geofence"
	syncpkg "github.com/tomtom215/veripatrol/internal/sync"
)

func TestProximityRoundTrip(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := bus.SubscribeProximity(ctx)
	if err != nil {
		t.Fatalf("SubscribeProximity: %v", err)
	}

	sent := geofence.ProximityChange{
		CheckpointID:   "cp-1",
		CheckpointName: "North Gate",
		DistanceMeters: 9.7,
		InRange:        true,
		ObservedAt:     time.Date(2026, 3, 14, 22, 15, 0, 0, time.UTC),
	}
	bus.NotifyProximityChanged(sent)

	select {
	case got := <-changes:
		if got.CheckpointID != sent.CheckpointID || got.InRange != sent.InRange {
			t.Errorf("Received %+v, want %+v", got, sent)
		}
		if got.DistanceMeters != sent.DistanceMeters {
			t.Errorf("DistanceMeters = %v, want %v", got.DistanceMeters, sent.DistanceMeters)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Proximity event never arrived")
	}
}

func TestSyncStatusRoundTrip(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := bus.SubscribeSyncStatus(ctx)
	if err != nil {
		t.Fatalf("SubscribeSyncStatus: %v", err)
	}

	bus.NotifySyncStatus(syncpkg.StatusChange{
		Phase:     syncpkg.PhaseCompleted,
		Attempted: 3,
		Succeeded: 2,
		Failed:    1,
		Pending:   1,
		Timestamp: time.Now(),
	})

	select {
	case got := <-changes:
		if got.Phase != syncpkg.PhaseCompleted {
			t.Errorf("Phase = %q, want completed", got.Phase)
		}
		if got.Succeeded != 2 || got.Failed != 1 {
			t.Errorf("Counts = %d/%d, want 2/1", got.Succeeded, got.Failed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Sync status event never arrived")
	}
}

func TestMultipleSubscribersEachReceive(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := bus.SubscribeProximity(ctx)
	if err != nil {
		t.Fatalf("SubscribeProximity: %v", err)
	}
	second, err := bus.SubscribeProximity(ctx)
	if err != nil {
		t.Fatalf("SubscribeProximity: %v", err)
	}

	bus.NotifyProximityChanged(geofence.ProximityChange{CheckpointID: "cp-1", InRange: true})

	for i, ch := range []<-chan geofence.ProximityChange{first, second} {
		select {
		case got := <-ch:
			if got.CheckpointID != "cp-1" {
				t.Errorf("Subscriber %d got %q, want cp-1", i, got.CheckpointID)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Subscriber %d never received the event", i)
		}
	}
}

func TestSyncStatusBurstKeepsEmissionOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := bus.SubscribeSyncStatus(ctx)
	if err != nil {
		t.Fatalf("SubscribeSyncStatus: %v", err)
	}

	// A sync run emits its statuses sequentially; subscribers must observe
	// them in that order or a consumer could see a run complete before it
	// started. Stays under dispatchBuffer so nothing is shed.
	const n = 200
	for i := 0; i < n; i++ {
		bus.NotifySyncStatus(syncpkg.StatusChange{Phase: syncpkg.PhaseStarting, Attempted: i})
	}

	for i := 0; i < n; i++ {
		select {
		case got := <-changes:
			if got.Attempted != i {
				t.Fatalf("Event %d arrived with sequence %d, delivery reordered", i, got.Attempted)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("Event %d never arrived", i)
		}
	}
}

func TestProximityBurstKeepsEmissionOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := bus.SubscribeProximity(ctx)
	if err != nil {
		t.Fatalf("SubscribeProximity: %v", err)
	}

	// One position fix can flip several checkpoints at once; an enter
	// observed after a later exit would leave consumers with stale range
	// state.
	bus.NotifyProximityChanged(geofence.ProximityChange{CheckpointID: "cp-1", InRange: true})
	bus.NotifyProximityChanged(geofence.ProximityChange{CheckpointID: "cp-1", InRange: false})

	want := []bool{true, false}
	for i, inRange := range want {
		select {
		case got := <-changes:
			if got.InRange != inRange {
				t.Fatalf("Transition %d InRange = %v, want %v", i, got.InRange, inRange)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Transition %d never arrived", i)
		}
	}
}

func TestPublishAfterCloseIsNoOp(t *testing.T) {
	bus := NewBus()
	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}

	// Must not panic or block.
	bus.NotifyProximityChanged(geofence.ProximityChange{CheckpointID: "cp-1"})
	bus.NotifySyncStatus(syncpkg.StatusChange{Phase: syncpkg.PhaseCompleted})
}
