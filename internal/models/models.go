// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

// Package models defines the core data types shared by the geofence engine,
// the patrol lifecycle manager, and the sync coordinator.
package models

import (
	"fmt"
	"time"
)

// Checkpoint is immutable master data for a fixed, named geographic point a
// patrol must visit and verify. Per-patrol verification status is NOT stored
// on this record; the patrol manager keeps its own per-patrol snapshot.
type Checkpoint struct {
	ID          string    `json:"id"`
	LocationID  string    `json:"location_id"`
	Name        string    `json:"name"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	LastUpdated time.Time `json:"last_updated"`
}

// Location is a patrol site owning a set of checkpoints. Read-only to this core.
type Location struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PatrolStatus is a point-in-time view of one timed traversal of a location's
// checkpoint set.
//
// Invariants: 0 <= VerifiedCheckpoints <= TotalCheckpoints; EndTime is non-nil
// exactly when the patrol completed or was explicitly ended.
type PatrolStatus struct {
	LocationID          string     `json:"location_id"`
	TotalCheckpoints    int        `json:"total_checkpoints"`
	VerifiedCheckpoints int        `json:"verified_checkpoints"`
	StartTime           time.Time  `json:"start_time"`
	EndTime             *time.Time `json:"end_time,omitempty"`
}

// Complete reports whether every checkpoint of the patrol has been verified.
func (s PatrolStatus) Complete() bool {
	return s.TotalCheckpoints > 0 && s.VerifiedCheckpoints == s.TotalCheckpoints
}

// Verification is the immutable record produced on a first-time successful
// checkpoint verification. Once created it is enqueued for sync and never
// mutated.
type Verification struct {
	ID           string    `json:"id"`
	CheckpointID string    `json:"checkpoint_id"`
	UserID       string    `json:"user_id"`
	Timestamp    time.Time `json:"timestamp"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
}

// HistoricalCounts is the aggregate verification history for a location,
// served by the external checkpoint store for patrols that are no longer
// held in memory.
type HistoricalCounts struct {
	Total     int        `json:"total"`
	Verified  int        `json:"verified"`
	LastStart time.Time  `json:"last_start"`
	LastEnd   *time.Time `json:"last_end,omitempty"`
}

// EntityType identifies the kind of locally recorded change awaiting
// backend acceptance.
type EntityType string

const (
	EntityTimeRecord EntityType = "time_record"
	EntityLocation   EntityType = "location"
	EntityPhoto      EntityType = "photo"
	EntityReport     EntityType = "report"
	EntityCheckpoint EntityType = "checkpoint"
)

// EntityTypes lists all known entity types in stable processing order.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityTimeRecord,
		EntityLocation,
		EntityPhoto,
		EntityReport,
		EntityCheckpoint,
	}
}

// Valid reports whether the entity type is one of the known values.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTimeRecord, EntityLocation, EntityPhoto, EntityReport, EntityCheckpoint:
		return true
	default:
		return false
	}
}

// ParseEntityType converts a string into an EntityType, rejecting unknown values.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

// SyncQueueItem is one pending entity: a locally recorded change not yet
// confirmed accepted by the backend. Owned by the sync coordinator and
// removed only on confirmed acceptance.
type SyncQueueItem struct {
	EntityType   EntityType `json:"entity_type"`
	EntityID     string     `json:"entity_id"`
	PendingSince time.Time  `json:"pending_since"`
}

// SyncSuccess records one entity accepted by the backend during a sync run.
type SyncSuccess struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
}

// SyncFailure records one entity the backend did not accept, with a reason
// for operator feedback. The entity stays pending.
type SyncFailure struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Reason     string     `json:"reason"`
}

// SyncResult summarizes one sync run. PendingCount is derived from the
// coordinator's queues after the run.
type SyncResult struct {
	Successes    []SyncSuccess `json:"successes"`
	Failures     []SyncFailure `json:"failures"`
	PendingCount int           `json:"pending_count"`
}
