// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(PatrolsStarted)
	PatrolsStarted.Inc()
	if got := testutil.ToFloat64(PatrolsStarted); got != before+1 {
		t.Errorf("PatrolsStarted = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(GeofenceProximityChecks)
	GeofenceProximityChecks.Inc()
	if got := testutil.ToFloat64(GeofenceProximityChecks); got != before+1 {
		t.Errorf("GeofenceProximityChecks = %v, want %v", got, before+1)
	}
}

func TestLabeledMetricsResolve(t *testing.T) {
	// Unknown label values would panic at call time; exercise every label set
	// the codebase uses.
	VerificationRejections.WithLabelValues("not_active").Inc()
	VerificationRejections.WithLabelValues("out_of_range").Inc()
	VerificationRejections.WithLabelValues("state").Inc()

	SyncItemsTotal.WithLabelValues("report", "success").Inc()
	SyncItemsTotal.WithLabelValues("report", "failure").Inc()
	SyncPendingItems.WithLabelValues("checkpoint").Set(3)

	BreakerState.WithLabelValues("patrol-backend").Set(0)
	BreakerTransitions.WithLabelValues("patrol-backend", "closed", "open").Inc()
	BreakerRequests.WithLabelValues("patrol-backend", "rejected").Inc()

	if got := testutil.ToFloat64(SyncPendingItems.WithLabelValues("checkpoint")); got != 3 {
		t.Errorf("SyncPendingItems gauge = %v, want 3", got)
	}
}

func TestGaugeSetAndReset(t *testing.T) {
	GeofenceMonitoredCheckpoints.Set(5)
	if got := testutil.ToFloat64(GeofenceMonitoredCheckpoints); got != 5 {
		t.Errorf("GeofenceMonitoredCheckpoints = %v, want 5", got)
	}
	GeofenceMonitoredCheckpoints.Set(0)
	if got := testutil.ToFloat64(GeofenceMonitoredCheckpoints); got != 0 {
		t.Errorf("GeofenceMonitoredCheckpoints = %v, want 0", got)
	}
}
