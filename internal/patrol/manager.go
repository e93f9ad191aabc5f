// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package patrol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/veripatrol/internal/logging"
	"github.com/tomtom215/veripatrol/internal/metrics"
	"github.com/tomtom215/veripatrol/internal/models"
)

// State identifies the patrol lifecycle state.
type State string

const (
	// StateInactive means no patrol is in progress.
	StateInactive State = "inactive"

	// StateActive means a patrol is in progress and checkpoints can be verified.
	StateActive State = "active"

	// StateCompleted means every checkpoint of the current patrol has been
	// verified. The status is retained for reads until the next patrol starts.
	StateCompleted State = "completed"
)

// snapshot is the per-patrol copy of a checkpoint plus its verified flag.
// Created when a patrol starts, destroyed when it ends.
type snapshot struct {
	checkpoint models.Checkpoint
	verified   bool
}

// Manager owns the active-patrol state machine, checkpoint verification
// counts, and per-patrol checkpoint snapshots. At most one patrol is active
// at a time.
//
// All state transitions are serialized behind a single mutex: the location
// timer and a user-tapped verify action can race on the same patrol.
type Manager struct {
	mu         sync.Mutex
	store      CheckpointStore
	state      State
	status     models.PatrolStatus
	haveStatus bool
	snapshots  map[string]*snapshot

	// now is the clock; overridden in tests.
	now func() time.Time
}

// NewManager creates a patrol lifecycle manager backed by the given
// checkpoint store. The store must be non-nil.
func NewManager(store CheckpointStore) *Manager {
	return &Manager{
		store:     store,
		state:     StateInactive,
		snapshots: make(map[string]*snapshot),
		now:       time.Now,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// StartPatrol begins a patrol for the given location. It loads the
// location's checkpoints, clones them into unverified snapshots, and
// transitions to Active.
//
// Fails with ErrPatrolAlreadyActive while any patrol is active, including
// the same location; an explicit EndPatrol is required first. Fails with
// ErrLocationNotFound when the location has no checkpoints.
func (m *Manager) StartPatrol(ctx context.Context, locationID string) (models.PatrolStatus, error) {
	if locationID == "" {
		return models.PatrolStatus{}, fmt.Errorf("patrol: location id must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateActive {
		return models.PatrolStatus{}, fmt.Errorf("%w: location %s", ErrPatrolAlreadyActive, m.status.LocationID)
	}

	checkpoints, err := m.store.CheckpointsByLocation(ctx, locationID)
	if err != nil {
		return models.PatrolStatus{}, fmt.Errorf("patrol: loading checkpoints for %s: %w", locationID, err)
	}
	if len(checkpoints) == 0 {
		return models.PatrolStatus{}, fmt.Errorf("%w: %s", ErrLocationNotFound, locationID)
	}

	m.snapshots = make(map[string]*snapshot, len(checkpoints))
	for _, cp := range checkpoints {
		m.snapshots[cp.ID] = &snapshot{checkpoint: cp}
	}
	m.status = models.PatrolStatus{
		LocationID:       locationID,
		TotalCheckpoints: len(checkpoints),
		StartTime:        m.now(),
	}
	m.haveStatus = true
	m.state = StateActive

	metrics.PatrolsStarted.Inc()
	logging.Info().
		Str("location_id", locationID).
		Int("checkpoints", len(checkpoints)).
		Msg("Patrol started")

	return m.status, nil
}

// VerifyCheckpoint marks the given checkpoint verified on the active patrol.
// Returns the updated status and whether this call changed state; verifying
// an already-verified checkpoint is a successful no-op (idempotent).
//
// When the last checkpoint is verified, the patrol auto-completes: EndTime
// is set and the state transitions to Completed without a separate EndPatrol.
func (m *Manager) VerifyCheckpoint(checkpointID string) (models.PatrolStatus, bool, error) {
	if checkpointID == "" {
		return models.PatrolStatus{}, false, fmt.Errorf("patrol: checkpoint id must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return models.PatrolStatus{}, false, fmt.Errorf("%w: cannot verify checkpoint %s", ErrNotActive, checkpointID)
	}

	snap, ok := m.snapshots[checkpointID]
	if !ok {
		return models.PatrolStatus{}, false, fmt.Errorf("%w: %s", ErrCheckpointNotFound, checkpointID)
	}
	if snap.verified {
		return m.status, false, nil
	}

	snap.verified = true
	m.status.VerifiedCheckpoints++
	metrics.PatrolCheckpointVerifications.Inc()

	if m.status.VerifiedCheckpoints == m.status.TotalCheckpoints {
		end := m.now()
		m.status.EndTime = &end
		m.state = StateCompleted
		metrics.PatrolsCompleted.Inc()
		logging.Info().
			Str("location_id", m.status.LocationID).
			Int("checkpoints", m.status.TotalCheckpoints).
			Msg("Patrol completed")
	}

	return m.status, true, nil
}

// ActiveCheckpoint returns the master-data copy of a checkpoint on the
// active patrol. Fails with ErrNotActive when no patrol is active and
// ErrCheckpointNotFound when the id is not among the active snapshots.
func (m *Manager) ActiveCheckpoint(checkpointID string) (models.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return models.Checkpoint{}, fmt.Errorf("%w: cannot resolve checkpoint %s", ErrNotActive, checkpointID)
	}
	snap, ok := m.snapshots[checkpointID]
	if !ok {
		return models.Checkpoint{}, fmt.Errorf("%w: %s", ErrCheckpointNotFound, checkpointID)
	}
	return snap.checkpoint, nil
}

// EndPatrol ends the current patrol, setting EndTime if completion has not
// already set it, clearing the active snapshots, and transitioning to
// Inactive. The final status snapshot is retained for PatrolStatus reads
// until the next patrol starts.
//
// Fails with ErrNotActive when no patrol is in progress.
func (m *Manager) EndPatrol() (models.PatrolStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateInactive {
		return models.PatrolStatus{}, ErrNotActive
	}

	if m.status.EndTime == nil {
		end := m.now()
		m.status.EndTime = &end
	}
	final := m.status

	m.snapshots = make(map[string]*snapshot)
	m.state = StateInactive

	logging.Info().
		Str("location_id", final.LocationID).
		Int("verified", final.VerifiedCheckpoints).
		Int("total", final.TotalCheckpoints).
		Msg("Patrol ended")

	return final, nil
}

// PatrolStatus returns the status for a location. The current or retained
// patrol is served from memory as a copy; any other location is aggregated
// from the external store's verification history, or a zeroed status when no
// history exists. Internal state is never exposed by reference.
func (m *Manager) PatrolStatus(ctx context.Context, locationID string) (models.PatrolStatus, error) {
	m.mu.Lock()
	if m.haveStatus && m.status.LocationID == locationID {
		status := m.status
		m.mu.Unlock()
		return status, nil
	}
	m.mu.Unlock()

	counts, err := m.store.HistoricalCounts(ctx, locationID)
	if err != nil {
		return models.PatrolStatus{}, fmt.Errorf("patrol: loading history for %s: %w", locationID, err)
	}

	return models.PatrolStatus{
		LocationID:          locationID,
		TotalCheckpoints:    counts.Total,
		VerifiedCheckpoints: counts.Verified,
		StartTime:           counts.LastStart,
		EndTime:             counts.LastEnd,
	}, nil
}
