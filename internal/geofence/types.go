// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

// Package geofence converts raw position fixes into per-checkpoint proximity
// state using great-circle distance and a configurable threshold, emitting
// transition events when a checkpoint moves in or out of range.
//
// Proximity is advisory: transitions never mutate patrol state on their own.
// Checkpoint verification remains an explicit, user-initiated action handled
// by the patrol package.
package geofence

import (
	"errors"
	"time"
)

// ErrInvalidConfiguration indicates an invalid threshold or checkpoint
// coordinates, rejected before monitoring starts.
var ErrInvalidConfiguration = errors.New("geofence: invalid configuration")

// ProximityChange describes one checkpoint moving in or out of range.
type ProximityChange struct {
	CheckpointID   string    `json:"checkpoint_id"`
	CheckpointName string    `json:"checkpoint_name,omitempty"`
	DistanceMeters float64   `json:"distance_meters"`
	InRange        bool      `json:"in_range"`
	ObservedAt     time.Time `json:"observed_at"`
}

// Notifier receives proximity transitions. Implementations must be
// fire-and-forget: the engine calls NotifyProximityChanged synchronously
// under its lock and must never be blocked by subscriber processing.
type Notifier interface {
	NotifyProximityChanged(change ProximityChange)
}
