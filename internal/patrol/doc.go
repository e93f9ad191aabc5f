// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

/*
Package patrol implements the active-patrol state machine and the
user-initiated checkpoint verification path.

# Lifecycle

A patrol moves through three states:

	Inactive --StartPatrol--> Active --last VerifyCheckpoint--> Completed
	   ^                        |                                   |
	   +-------EndPatrol--------+-----------EndPatrol---------------+

StartPatrol clones the location's checkpoint master data into per-patrol
snapshots with a verified flag; the snapshots are destroyed when the patrol
ends. At most one patrol is active at a time, and starting while one is
active is rejected (including a restart of the same location).

The Completed status is retained for PatrolStatus reads until the next
patrol starts. Status reads for other locations aggregate from the external
CheckpointStore's verification history.

# Verification

VerificationService is the orchestration layer between the geofence distance
math and the lifecycle manager. Every successful first-time verification
produces exactly one immutable Verification record, handed to the sync
coordinator as a pending item. Re-verifying an already-verified checkpoint
is a successful no-op.

All patrol state transitions are serialized behind a single mutex; the
periodic location timer and user actions can race on the same patrol.
*/
package patrol
