// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

/*
Package metrics provides Prometheus metrics collection and export for observability.

Metrics are registered with the default registry via promauto and exposed at
the /metrics endpoint in Prometheus text format.

# Available Metrics

Geofence Metrics:
  - geofence_monitored_checkpoints: Checkpoints under proximity monitoring (gauge)
  - geofence_proximity_checks_total: Location updates evaluated (counter)
  - geofence_proximity_transitions_total: In-range/out-of-range transitions (counter)

Patrol Metrics:
  - patrols_started_total: Patrols started (counter)
  - patrols_completed_total: Patrols with all checkpoints verified (counter)
  - patrol_checkpoint_verifications_total: First-time verifications (counter)
  - patrol_verification_rejections_total: Rejected verification attempts (counter)
    Labels: reason (not_active, out_of_range, state)

Sync Metrics:
  - sync_runs_total: Completed full sync runs (counter)
  - sync_run_duration_seconds: Full run duration (histogram)
    Buckets: 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300
  - sync_single_flight_rejections_total: Overlapping sync requests absorbed (counter)
  - sync_items_total: Items pushed to the backend (counter)
    Labels: entity_type, result (success, failure)
  - sync_pending_items: Pending queue depth (gauge)
    Labels: entity_type

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_transitions_total: State transitions (counter)
    Labels: name, from, to
  - circuit_breaker_requests_total: Requests through the breaker (counter)
    Labels: name, result (success, failure, rejected)
*/
package metrics
