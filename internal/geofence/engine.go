// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package geofence

import (
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/veripatrol/internal/geo"
	"github.com/tomtom215/veripatrol/internal/logging"
	"github.com/tomtom215/veripatrol/internal/metrics"
	"github.com/tomtom215/veripatrol/internal/models"
)

// DefaultThresholdFeet is the proximity threshold applied when no explicit
// threshold is configured.
const DefaultThresholdFeet = 50.0

// Engine tracks a monitored checkpoint set and per-checkpoint proximity
// state, computing in-range transitions from position updates.
//
// The engine exclusively owns its proximity state; it is mutated only by
// CheckProximity. All methods are safe for concurrent use, serialized behind
// a single mutex since the location timer and user actions can race.
type Engine struct {
	mu              sync.Mutex
	thresholdFeet   float64
	thresholdMeters float64
	monitored       map[string]models.Checkpoint
	inRange         map[string]bool
	monitoring      bool
	notifier        Notifier
}

// NewEngine creates a geofence engine with the given proximity threshold in
// feet. A nil notifier disables transition notifications. The threshold is
// validated here and again on StartMonitoring; it is never silently clamped.
func NewEngine(thresholdFeet float64, notifier Notifier) (*Engine, error) {
	if thresholdFeet <= 0 {
		return nil, fmt.Errorf("%w: threshold must be positive, got %v", ErrInvalidConfiguration, thresholdFeet)
	}
	meters, err := geo.FeetToMeters(thresholdFeet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	return &Engine{
		thresholdFeet:   thresholdFeet,
		thresholdMeters: meters,
		monitored:       make(map[string]models.Checkpoint),
		inRange:         make(map[string]bool),
		notifier:        notifier,
	}, nil
}

// ThresholdFeet returns the configured proximity threshold in feet.
func (e *Engine) ThresholdFeet() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thresholdFeet
}

// StartMonitoring replaces the monitored checkpoint set and resets every
// checkpoint's proximity state to out-of-range. No transition events are
// emitted; there is no prior state to compare against.
//
// Fails with ErrInvalidConfiguration if the threshold is invalid or any
// checkpoint carries out-of-range coordinates.
func (e *Engine) StartMonitoring(checkpoints []models.Checkpoint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.thresholdFeet <= 0 {
		return fmt.Errorf("%w: threshold must be positive, got %v", ErrInvalidConfiguration, e.thresholdFeet)
	}
	for _, cp := range checkpoints {
		if !geo.ValidCoordinates(cp.Latitude, cp.Longitude) {
			return fmt.Errorf("%w: checkpoint %s has invalid coordinates (%v, %v)",
				ErrInvalidConfiguration, cp.ID, cp.Latitude, cp.Longitude)
		}
	}

	e.monitored = make(map[string]models.Checkpoint, len(checkpoints))
	e.inRange = make(map[string]bool, len(checkpoints))
	for _, cp := range checkpoints {
		e.monitored[cp.ID] = cp
		e.inRange[cp.ID] = false
	}
	e.monitoring = true

	metrics.GeofenceMonitoredCheckpoints.Set(float64(len(e.monitored)))
	logging.Info().
		Int("checkpoints", len(checkpoints)).
		Float64("threshold_feet", e.thresholdFeet).
		Msg("Geofence monitoring started")

	return nil
}

// StopMonitoring clears the monitored set and all proximity state. Idempotent.
func (e *Engine) StopMonitoring() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.monitoring && len(e.monitored) == 0 {
		return
	}

	e.monitored = make(map[string]models.Checkpoint)
	e.inRange = make(map[string]bool)
	e.monitoring = false

	metrics.GeofenceMonitoredCheckpoints.Set(0)
	logging.Info().Msg("Geofence monitoring stopped")
}

// CheckProximity evaluates a position fix against every monitored checkpoint
// and returns the IDs currently in range. A ProximityChanged notification is
// emitted for each checkpoint whose in-range state differs from the stored
// state; the stored state is then updated regardless.
//
// Not monitoring means an empty result and no notifications. The method
// performs no I/O and is O(number of monitored checkpoints).
func (e *Engine) CheckProximity(lat, lon float64) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.monitoring {
		return nil
	}

	metrics.GeofenceProximityChecks.Inc()

	var ids []string
	now := time.Now()
	for id, cp := range e.monitored {
		distance := geo.DistanceMeters(lat, lon, cp.Latitude, cp.Longitude)
		within := distance <= e.thresholdMeters

		if within != e.inRange[id] {
			metrics.GeofenceProximityTransitions.Inc()
			e.notify(ProximityChange{
				CheckpointID:   id,
				CheckpointName: cp.Name,
				DistanceMeters: distance,
				InRange:        within,
				ObservedAt:     now,
			})
		}
		e.inRange[id] = within

		if within {
			ids = append(ids, id)
		}
	}

	return ids
}

// InRangeSnapshot returns a copy of the per-checkpoint proximity state.
// The internal map is never exposed by reference.
func (e *Engine) InRangeSnapshot() map[string]bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := make(map[string]bool, len(e.inRange))
	for id, in := range e.inRange {
		snapshot[id] = in
	}
	return snapshot
}

// notify publishes a transition to the configured notifier. Called with the
// engine mutex held; notifier implementations must not call back into the
// engine and must not block on subscriber processing.
func (e *Engine) notify(change ProximityChange) {
	if e.notifier == nil {
		return
	}
	e.notifier.NotifyProximityChanged(change)
	logging.Debug().
		Str("checkpoint_id", change.CheckpointID).
		Float64("distance_m", change.DistanceMeters).
		Bool("in_range", change.InRange).
		Msg("Proximity transition")
}
