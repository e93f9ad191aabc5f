// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the patrol core:
// - geofence monitoring activity
// - patrol lifecycle and verification outcomes
// - offline sync queue depth and run results
// - backend circuit breaker health

var (
	// Geofence Metrics
	GeofenceMonitoredCheckpoints = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geofence_monitored_checkpoints",
			Help: "Number of checkpoints currently monitored for proximity",
		},
	)

	GeofenceProximityChecks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geofence_proximity_checks_total",
			Help: "Total location updates evaluated against monitored checkpoints",
		},
	)

	GeofenceProximityTransitions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geofence_proximity_transitions_total",
			Help: "Total in-range/out-of-range state transitions detected",
		},
	)

	// Patrol Lifecycle Metrics
	PatrolsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "patrols_started_total",
			Help: "Total patrols started",
		},
	)

	PatrolsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "patrols_completed_total",
			Help: "Total patrols that verified every checkpoint",
		},
	)

	PatrolCheckpointVerifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "patrol_checkpoint_verifications_total",
			Help: "Total first-time checkpoint verifications recorded",
		},
	)

	VerificationRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrol_verification_rejections_total",
			Help: "Verification attempts rejected before being recorded",
		},
		[]string{"reason"},
	)

	// Sync Metrics
	SyncRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total completed full sync runs",
		},
	)

	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_run_duration_seconds",
			Help:    "Duration of full sync runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	SyncSingleFlightRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_single_flight_rejections_total",
			Help: "Sync requests absorbed because a run was already in flight",
		},
	)

	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_items_total",
			Help: "Pending items pushed to the backend, by entity type and outcome",
		},
		[]string{"entity_type", "result"},
	)

	SyncPendingItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_pending_items",
			Help: "Current pending queue depth per entity type",
		},
		[]string{"entity_type"},
	)

	// Circuit Breaker Metrics
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	BreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through the breaker, by outcome",
		},
		[]string{"name", "result"},
	)
)
