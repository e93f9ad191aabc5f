// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package sync

import (
	"context"
	"sync"

	"github.com/tomtom215/veripatrol/internal/models"
)

// PendingStore persists the pending queue across restarts. The coordinator
// writes through on enqueue/removal and loads once at startup; the in-memory
// queue stays authoritative, so store failures degrade to warnings rather
// than failing the operation.
type PendingStore interface {
	// Save persists one pending item, overwriting any previous entry for the
	// same (entity type, entity id).
	Save(ctx context.Context, item pendingItem) error

	// Delete removes a pending item after confirmed backend acceptance.
	// Deleting an absent item is a no-op.
	Delete(ctx context.Context, entityType models.EntityType, entityID string) error

	// Load returns every persisted pending item.
	Load(ctx context.Context) ([]pendingItem, error)

	// Close releases store resources.
	Close() error
}

// MemoryStore is a PendingStore for embedded library use and tests. It adds
// no durability beyond the coordinator's own queues.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]pendingItem
}

// NewMemoryStore creates an empty in-memory pending store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]pendingItem)}
}

func memoryKey(entityType models.EntityType, entityID string) string {
	return string(entityType) + "/" + entityID
}

// Save implements PendingStore.
func (s *MemoryStore) Save(_ context.Context, item pendingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[memoryKey(item.EntityType, item.EntityID)] = item
	return nil
}

// Delete implements PendingStore.
func (s *MemoryStore) Delete(_ context.Context, entityType models.EntityType, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, memoryKey(entityType, entityID))
	return nil
}

// Load implements PendingStore.
func (s *MemoryStore) Load(_ context.Context) ([]pendingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]pendingItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	return items, nil
}

// Close implements PendingStore.
func (s *MemoryStore) Close() error {
	return nil
}
