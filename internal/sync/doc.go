// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

// Package sync reconciles locally recorded patrol entities with the remote
// backend after offline periods.
//
// Entities created while disconnected (time records, locations, photos,
// reports, checkpoint verifications) accumulate in per-type pending queues.
// A sync run pushes each pending item to the backend independently: one
// item's failure never aborts the rest of the batch, successes leave the
// queue immediately after confirmation, and failures stay pending with a
// recorded reason for the next cycle.
//
// Key pieces:
//
//   - Coordinator: the queues plus SyncAll / SyncType / SyncEntity, with a
//     single-flight guard so overlapping full syncs collapse into one.
//   - PendingStore: optional durability for the queue (BadgerStore for
//     crash-safe persistence, MemoryStore for embedded use and tests).
//   - ResilientSubmitter: circuit breaker and rate limiter wrapping the
//     backend submitter, so a dead backend fails fast instead of hanging
//     every batch, and reconnect bursts are smoothed.
//   - ScheduleSync: a recurring timer driving SyncAll; overlapping ticks are
//     absorbed by the single-flight guard.
package sync
