// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/veripatrol/internal/models"
)

// ErrNotPending indicates a targeted sync for an entity that is not in the
// pending queue.
var ErrNotPending = errors.New("sync: entity is not pending")

// SubmitResult is the backend's verdict on one pushed entity.
type SubmitResult struct {
	Accepted bool   `json:"accepted"`
	RemoteID string `json:"remote_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Submitter is the backend submission endpoint, one opaque network call per
// entity. The coordinator bounds each call with a per-item timeout; a
// Submitter must honor context cancellation.
type Submitter interface {
	Submit(ctx context.Context, entityType models.EntityType, entityID string, payload []byte) (SubmitResult, error)
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, entityType models.EntityType, entityID string, payload []byte) (SubmitResult, error)

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context, entityType models.EntityType, entityID string, payload []byte) (SubmitResult, error) {
	return f(ctx, entityType, entityID, payload)
}

// Phase identifies a point in a sync run's progress.
type Phase string

const (
	// PhaseStarting is emitted before a type's pending batch is pushed.
	PhaseStarting Phase = "starting"

	// PhaseSuccess is emitted after a type's batch completed with no failures.
	PhaseSuccess Phase = "success"

	// PhaseFailed is emitted after a type's batch completed with at least one failure.
	PhaseFailed Phase = "failed"

	// PhaseCompleted is emitted once per run with aggregate counts.
	PhaseCompleted Phase = "completed"
)

// StatusChange describes sync progress for one entity type, or the whole run
// for PhaseCompleted (EntityType empty).
type StatusChange struct {
	Phase      Phase             `json:"phase"`
	EntityType models.EntityType `json:"entity_type,omitempty"`
	Attempted  int               `json:"attempted"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Pending    int               `json:"pending"`
	Timestamp  time.Time         `json:"timestamp"`
}

// StatusNotifier receives sync status events. Implementations must be
// fire-and-forget; the coordinator never blocks on subscriber processing.
type StatusNotifier interface {
	NotifySyncStatus(change StatusChange)
}

// pendingItem is a queue entry plus the opaque payload handed to the backend.
type pendingItem struct {
	models.SyncQueueItem
	Payload []byte `json:"payload,omitempty"`
}
