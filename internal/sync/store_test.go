// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package sync

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/veripatrol/internal/models"
)

func testPendingItem(entityType models.EntityType, entityID string) pendingItem {
	return pendingItem{
		SyncQueueItem: models.SyncQueueItem{
			EntityType:   entityType,
			EntityID:     entityID,
			PendingSince: time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC),
		},
		Payload: []byte(`{"k":"v"}`),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Save(ctx, testPendingItem(models.EntityReport, "r-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, testPendingItem(models.EntityPhoto, "p-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	items, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Loaded %d items, want 2", len(items))
	}

	if err := store.Delete(ctx, models.EntityReport, "r-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, models.EntityReport, "absent"); err != nil {
		t.Errorf("Deleting absent item should be a no-op, got %v", err)
	}

	items, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 1 || items[0].EntityID != "p-1" {
		t.Errorf("Remaining items = %v, want only p-1", items)
	}
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	item := testPendingItem(models.EntityCheckpoint, "ver-1")
	if err := store.Save(ctx, item); err != nil {
		t.Fatalf("Save: %v", err)
	}

	items, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Loaded %d items, want 1", len(items))
	}
	got := items[0]
	if got.EntityType != models.EntityCheckpoint || got.EntityID != "ver-1" {
		t.Errorf("Loaded item = %s/%s, want checkpoint/ver-1", got.EntityType, got.EntityID)
	}
	if string(got.Payload) != `{"k":"v"}` {
		t.Errorf("Payload = %s, want original bytes preserved", got.Payload)
	}
	if !got.PendingSince.Equal(item.PendingSince) {
		t.Errorf("PendingSince = %v, want %v", got.PendingSince, item.PendingSince)
	}

	// Overwrite on same key, not duplicate.
	if err := store.Save(ctx, item); err != nil {
		t.Fatalf("Re-save: %v", err)
	}
	items, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("After re-save loaded %d items, want 1", len(items))
	}

	if err := store.Delete(ctx, models.EntityCheckpoint, "ver-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	items, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("After delete loaded %d items, want 0", len(items))
	}
}

func TestBadgerStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	if err := store.Save(ctx, testPendingItem(models.EntityReport, "r-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer reopened.Close()

	items, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if len(items) != 1 || items[0].EntityID != "r-1" {
		t.Errorf("Items after reopen = %v, want the persisted r-1", items)
	}
}

func TestBadgerStoreClosed(t *testing.T) {
	store, err := OpenBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}

	ctx := context.Background()
	if err := store.Save(ctx, testPendingItem(models.EntityReport, "r-1")); err == nil {
		t.Error("Save on closed store should fail")
	}
	if err := store.Delete(ctx, models.EntityReport, "r-1"); err == nil {
		t.Error("Delete on closed store should fail")
	}
	if _, err := store.Load(ctx); err == nil {
		t.Error("Load on closed store should fail")
	}
}
