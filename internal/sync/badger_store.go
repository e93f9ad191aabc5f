// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package sync

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/tomtom215/veripatrol/internal/logging"
	"github.com/tomtom215/veripatrol/internal/models"
)

// pendingKeyPrefix namespaces queue entries in the badger keyspace.
const pendingKeyPrefix = "pending/"

// BadgerStore is a PendingStore backed by BadgerDB, giving the offline
// queue crash-safe durability: entities recorded while the device is
// offline survive a process restart and are pushed on the next sync cycle.
type BadgerStore struct {
	db *badger.DB

	mu     sync.Mutex
	closed bool
}

// OpenBadgerStore opens (or creates) the durable pending queue at dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil). // badger's own logger is too chatty; we log outcomes
		WithSyncWrites(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("sync: opening pending store at %s: %w", dir, err)
	}

	logging.Info().Str("dir", dir).Msg("Durable pending store opened")
	return &BadgerStore{db: db}, nil
}

func pendingKey(entityType models.EntityType, entityID string) []byte {
	return []byte(pendingKeyPrefix + string(entityType) + "/" + entityID)
}

// Save implements PendingStore with a synchronous, fsynced write.
func (s *BadgerStore) Save(_ context.Context, item pendingItem) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("sync: pending store is closed")
	}
	s.mu.Unlock()

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("sync: marshalling pending item %s/%s: %w", item.EntityType, item.EntityID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(pendingKey(item.EntityType, item.EntityID), data)
	})
	if err != nil {
		return fmt.Errorf("sync: persisting pending item %s/%s: %w", item.EntityType, item.EntityID, err)
	}
	return nil
}

// Delete implements PendingStore. Deleting an absent key is a no-op.
func (s *BadgerStore) Delete(_ context.Context, entityType models.EntityType, entityID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("sync: pending store is closed")
	}
	s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(pendingKey(entityType, entityID))
	})
	if err != nil {
		return fmt.Errorf("sync: deleting pending item %s/%s: %w", entityType, entityID, err)
	}
	return nil
}

// Load implements PendingStore with a prefix scan over the queue keyspace.
// Entries that fail to decode are skipped with a warning rather than
// blocking startup.
func (s *BadgerStore) Load(_ context.Context) ([]pendingItem, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("sync: pending store is closed")
	}
	s.mu.Unlock()

	var items []pendingItem
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(pendingKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var item pendingItem
				if err := json.Unmarshal(val, &item); err != nil {
					logging.Warn().Err(err).
						Str("key", string(it.Item().Key())).
						Msg("Skipping undecodable pending entry")
					return nil
				}
				items = append(items, item)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sync: loading pending queue: %w", err)
	}
	return items, nil
}

// Close implements PendingStore. Idempotent.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
