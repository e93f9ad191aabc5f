// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/tomtom215/veripatrol/internal/logging"
	"github.com/tomtom215/veripatrol/internal/metrics"
	"github.com/tomtom215/veripatrol/internal/models"
)

// DefaultItemTimeout bounds each backend push so a hung network call cannot
// block the whole batch.
const DefaultItemTimeout = 15 * time.Second

// Options configures a Coordinator. The zero value is usable: no status
// events, no durable store, default item timeout.
type Options struct {
	// Notifier receives status events; nil disables them.
	Notifier StatusNotifier

	// Store persists the pending queue across restarts; nil keeps the queue
	// in memory only.
	Store PendingStore

	// ItemTimeout is the per-item bound on one backend push.
	// Default: DefaultItemTimeout.
	ItemTimeout time.Duration
}

// Coordinator maintains pending-entity queues per entity type and reconciles
// them against the backend with partial-failure semantics.
//
// Concurrency model:
//   - mu guards the pending maps and the isSyncing single-flight flag; it is
//     never held across a backend call. Pending-store writes are local and
//     bounded and run under mu, so the durable queue changes in the same
//     order as the in-memory maps.
//   - one mutex per entity type serializes SyncAll's per-type batch with
//     targeted SyncEntity/SyncType calls touching the same type.
//   - a SyncAll invoked while one is in flight returns the current pending
//     snapshot immediately and performs no network calls.
type Coordinator struct {
	submitter   Submitter
	notifier    StatusNotifier
	store       PendingStore
	itemTimeout time.Duration

	mu        sync.Mutex
	pending   map[models.EntityType]map[string]pendingItem
	isSyncing bool

	typeLocks map[models.EntityType]*sync.Mutex

	schedMu   sync.Mutex
	scheduled bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewCoordinator creates a sync coordinator pushing to the given backend
// submitter. Persisted pending items, if a store is configured, are loaded
// before the coordinator is returned.
func NewCoordinator(submitter Submitter, opts Options) (*Coordinator, error) {
	if submitter == nil {
		return nil, fmt.Errorf("sync: submitter must not be nil")
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = DefaultItemTimeout
	}

	c := &Coordinator{
		submitter:   submitter,
		notifier:    opts.Notifier,
		store:       opts.Store,
		itemTimeout: opts.ItemTimeout,
		pending:     make(map[models.EntityType]map[string]pendingItem),
		typeLocks:   make(map[models.EntityType]*sync.Mutex),
	}
	for _, et := range models.EntityTypes() {
		c.pending[et] = make(map[string]pendingItem)
		c.typeLocks[et] = &sync.Mutex{}
	}

	if c.store != nil {
		items, err := c.store.Load(context.Background())
		if err != nil {
			return nil, fmt.Errorf("sync: loading persisted queue: %w", err)
		}
		for _, item := range items {
			if !item.EntityType.Valid() {
				logging.Warn().Str("entity_type", string(item.EntityType)).Msg("Skipping persisted item with unknown entity type")
				continue
			}
			c.pending[item.EntityType][item.EntityID] = item
		}
		if len(items) > 0 {
			logging.Info().Int("items", len(items)).Msg("Restored pending sync queue")
		}
	}
	c.updatePendingMetrics()

	return c, nil
}

// Enqueue records a locally created entity as pending until the backend
// confirms acceptance. Re-enqueueing an already-pending entity keeps the
// original PendingSince. The payload is handed opaquely to the backend.
func (c *Coordinator) Enqueue(ctx context.Context, entityType models.EntityType, entityID string, payload []byte) error {
	if !entityType.Valid() {
		return fmt.Errorf("sync: unknown entity type %q", entityType)
	}
	if entityID == "" {
		return fmt.Errorf("sync: entity id must not be empty")
	}

	c.mu.Lock()
	item, exists := c.pending[entityType][entityID]
	if !exists {
		item = pendingItem{
			SyncQueueItem: models.SyncQueueItem{
				EntityType:   entityType,
				EntityID:     entityID,
				PendingSince: time.Now(),
			},
			Payload: payload,
		}
		c.pending[entityType][entityID] = item
		// Persisted while mu is still held: a concurrent sync confirming
		// this item must not have its store delete overtaken by this save,
		// or the accepted item would resurrect on restart.
		c.persistSave(ctx, item)
	}
	c.mu.Unlock()

	if !exists {
		c.updatePendingMetrics()
		logging.Debug().
			Str("entity_type", string(entityType)).
			Str("entity_id", entityID).
			Msg("Entity enqueued for sync")
	}
	return nil
}

// EnqueueVerification enqueues a checkpoint verification record, serialized
// as the backend payload. Implements patrol.SyncEnqueuer.
func (c *Coordinator) EnqueueVerification(ctx context.Context, v models.Verification) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sync: marshalling verification %s: %w", v.ID, err)
	}
	return c.Enqueue(ctx, models.EntityCheckpoint, v.ID, payload)
}

// SyncAll pushes every pending item of every entity type to the backend.
// Each item's outcome is independent: a failure never aborts the rest of the
// batch or other types. Successes leave the queue; failures stay pending
// with a recorded reason.
//
// Single-flight: if a sync is already running, SyncAll returns immediately
// with the current pending snapshot as the result and performs no new work.
//
// Cancellation is cooperative, checked between items: already-synced items
// stay synced, the remainder stays pending, and a partial result is returned.
func (c *Coordinator) SyncAll(ctx context.Context) models.SyncResult {
	c.mu.Lock()
	if c.isSyncing {
		snapshot := c.pendingSnapshotLocked()
		c.mu.Unlock()
		metrics.SyncSingleFlightRejections.Inc()
		logging.Debug().Msg("Sync already in flight, returning pending snapshot")
		return snapshot
	}
	c.isSyncing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.isSyncing = false
		c.mu.Unlock()
	}()

	start := time.Now()
	var result models.SyncResult
	for _, et := range models.EntityTypes() {
		successes, failures := c.syncTypeBatch(ctx, et)
		result.Successes = append(result.Successes, successes...)
		result.Failures = append(result.Failures, failures...)
		if ctx.Err() != nil {
			logging.Warn().Str("entity_type", string(et)).Msg("Sync cancelled, remaining items stay pending")
			break
		}
	}

	result.PendingCount = c.totalPending()
	metrics.SyncRunsTotal.Inc()
	metrics.SyncRunDuration.Observe(time.Since(start).Seconds())

	c.notify(StatusChange{
		Phase:     PhaseCompleted,
		Attempted: len(result.Successes) + len(result.Failures),
		Succeeded: len(result.Successes),
		Failed:    len(result.Failures),
		Pending:   result.PendingCount,
		Timestamp: time.Now(),
	})
	logging.Info().
		Int("succeeded", len(result.Successes)).
		Int("failed", len(result.Failures)).
		Int("pending", result.PendingCount).
		Dur("duration", time.Since(start)).
		Msg("Sync run completed")

	return result
}

// SyncType pushes all pending items of one entity type, with the same
// per-item independent-failure semantics as SyncAll, scoped to that type.
func (c *Coordinator) SyncType(ctx context.Context, entityType models.EntityType) (models.SyncResult, error) {
	if !entityType.Valid() {
		return models.SyncResult{}, fmt.Errorf("sync: unknown entity type %q", entityType)
	}

	successes, failures := c.syncTypeBatch(ctx, entityType)
	return models.SyncResult{
		Successes:    successes,
		Failures:     failures,
		PendingCount: c.totalPending(),
	}, nil
}

// SyncEntity pushes a single pending entity. Returns true on confirmed
// acceptance; a backend failure returns false with the item kept pending.
// Fails with ErrNotPending when the entity is not queued; an unknown entity
// type is a programming error.
func (c *Coordinator) SyncEntity(ctx context.Context, entityType models.EntityType, entityID string) (bool, error) {
	if !entityType.Valid() {
		return false, fmt.Errorf("sync: unknown entity type %q", entityType)
	}

	// Serializes against SyncAll batches and concurrent targeted syncs for
	// the same type (and therefore the same id).
	lock := c.typeLocks[entityType]
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	item, ok := c.pending[entityType][entityID]
	c.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("%w: %s/%s", ErrNotPending, entityType, entityID)
	}

	accepted, reason := c.pushItem(ctx, item)
	if !accepted {
		logging.Warn().
			Str("entity_type", string(entityType)).
			Str("entity_id", entityID).
			Str("reason", reason).
			Msg("Targeted sync failed, item stays pending")
		return false, nil
	}

	c.removePending(ctx, entityType, entityID)
	return true, nil
}

// Status returns a point-in-time snapshot of pending counts per entity
// type. Internal queue state is never exposed by reference.
func (c *Coordinator) Status() map[models.EntityType]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := make(map[models.EntityType]int, len(c.pending))
	for et, items := range c.pending {
		status[et] = len(items)
	}
	return status
}

// syncTypeBatch pushes one type's pending items under the type lock.
// Cancellation observed between items leaves the remainder pending.
func (c *Coordinator) syncTypeBatch(ctx context.Context, entityType models.EntityType) ([]models.SyncSuccess, []models.SyncFailure) {
	c.mu.Lock()
	items := make([]pendingItem, 0, len(c.pending[entityType]))
	for _, item := range c.pending[entityType] {
		items = append(items, item)
	}
	c.mu.Unlock()

	if len(items) == 0 {
		return nil, nil
	}

	c.notify(StatusChange{
		Phase:      PhaseStarting,
		EntityType: entityType,
		Attempted:  len(items),
		Timestamp:  time.Now(),
	})

	lock := c.typeLocks[entityType]
	lock.Lock()
	defer lock.Unlock()

	var successes []models.SyncSuccess
	var failures []models.SyncFailure
	for _, item := range items {
		if ctx.Err() != nil {
			// Cooperative cancellation: items not yet started are skipped,
			// never interrupted mid-push.
			break
		}

		// The snapshot was taken before the type lock; a targeted sync may
		// have drained this item already.
		c.mu.Lock()
		_, still := c.pending[entityType][item.EntityID]
		c.mu.Unlock()
		if !still {
			continue
		}

		accepted, reason := c.pushItem(ctx, item)
		if accepted {
			c.removePending(ctx, entityType, item.EntityID)
			successes = append(successes, models.SyncSuccess{EntityType: entityType, EntityID: item.EntityID})
			metrics.SyncItemsTotal.WithLabelValues(string(entityType), "success").Inc()
		} else {
			failures = append(failures, models.SyncFailure{EntityType: entityType, EntityID: item.EntityID, Reason: reason})
			metrics.SyncItemsTotal.WithLabelValues(string(entityType), "failure").Inc()
		}
	}

	phase := PhaseSuccess
	if len(failures) > 0 {
		phase = PhaseFailed
	}
	c.mu.Lock()
	remaining := len(c.pending[entityType])
	c.mu.Unlock()
	c.notify(StatusChange{
		Phase:      phase,
		EntityType: entityType,
		Attempted:  len(items),
		Succeeded:  len(successes),
		Failed:     len(failures),
		Pending:    remaining,
		Timestamp:  time.Now(),
	})

	return successes, failures
}

// pushItem performs one bounded backend push. Any error, rejection, timeout,
// or panic from the submitter becomes a per-item failure; a single malformed
// item must not poison the rest of the run.
func (c *Coordinator) pushItem(ctx context.Context, item pendingItem) (accepted bool, reason string) {
	pushCtx, cancel := context.WithTimeout(ctx, c.itemTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			accepted = false
			reason = fmt.Sprintf("panic during submit: %v", r)
			logging.Error().
				Str("entity_type", string(item.EntityType)).
				Str("entity_id", item.EntityID).
				Interface("panic", r).
				Msg("Recovered panic from backend submit")
		}
	}()

	result, err := c.submitter.Submit(pushCtx, item.EntityType, item.EntityID, item.Payload)
	if err != nil {
		return false, err.Error()
	}
	if !result.Accepted {
		if result.Reason == "" {
			return false, "rejected by backend"
		}
		return false, result.Reason
	}
	return true, ""
}

// removePending is the short critical section dropping a confirmed item from
// the queue and the durable store, immediately after the network call. Map
// and store mutate under the same mu hold so they never disagree on order.
func (c *Coordinator) removePending(ctx context.Context, entityType models.EntityType, entityID string) {
	c.mu.Lock()
	delete(c.pending[entityType], entityID)
	if c.store != nil {
		if err := c.store.Delete(ctx, entityType, entityID); err != nil {
			logging.Warn().Err(err).
				Str("entity_type", string(entityType)).
				Str("entity_id", entityID).
				Msg("Failed to delete synced item from pending store")
		}
	}
	c.mu.Unlock()

	c.updatePendingMetrics()
}

// persistSave writes one pending item through to the durable store.
// Caller must hold mu.
func (c *Coordinator) persistSave(ctx context.Context, item pendingItem) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, item); err != nil {
		logging.Warn().Err(err).
			Str("entity_type", string(item.EntityType)).
			Str("entity_id", item.EntityID).
			Msg("Failed to persist pending item, queue remains in memory")
	}
}

// pendingSnapshotLocked builds the everything-still-pending result returned
// to single-flight rejected callers. Caller must hold mu.
func (c *Coordinator) pendingSnapshotLocked() models.SyncResult {
	total := 0
	for _, items := range c.pending {
		total += len(items)
	}
	return models.SyncResult{PendingCount: total}
}

func (c *Coordinator) totalPending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, items := range c.pending {
		total += len(items)
	}
	return total
}

func (c *Coordinator) updatePendingMetrics() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for et, items := range c.pending {
		metrics.SyncPendingItems.WithLabelValues(string(et)).Set(float64(len(items)))
	}
}

func (c *Coordinator) notify(change StatusChange) {
	if c.notifier == nil {
		return
	}
	c.notifier.NotifySyncStatus(change)
}
