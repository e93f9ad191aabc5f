// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package patrol

import (
	"errors"
	"fmt"
)

// Recoverable domain failures, surfaced to the caller as wrapped sentinels.
// None of these are fatal to the process.
var (
	// ErrNotActive indicates an operation that requires an active patrol.
	ErrNotActive = errors.New("patrol: no active patrol")

	// ErrPatrolAlreadyActive indicates a start attempt while a patrol is
	// already active. This includes restarting the same location; an explicit
	// EndPatrol is required first.
	ErrPatrolAlreadyActive = errors.New("patrol: a patrol is already active")

	// ErrLocationNotFound indicates a location with no checkpoints.
	ErrLocationNotFound = errors.New("patrol: location not found")

	// ErrCheckpointNotFound indicates a checkpoint that is not part of the
	// active patrol's snapshot set.
	ErrCheckpointNotFound = errors.New("patrol: checkpoint not found")

	// ErrOutOfRange indicates a verification attempt from outside the
	// configured proximity threshold.
	ErrOutOfRange = errors.New("patrol: out of checkpoint range")
)

// OutOfRangeError carries the measured distance for user feedback when a
// verification is attempted outside the proximity threshold.
type OutOfRangeError struct {
	CheckpointID    string
	DistanceMeters  float64
	ThresholdMeters float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("patrol: checkpoint %s is %.1fm away (threshold %.1fm)",
		e.CheckpointID, e.DistanceMeters, e.ThresholdMeters)
}

// Is makes errors.Is(err, ErrOutOfRange) match.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
