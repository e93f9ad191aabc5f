// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package patrol

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tomtom215/veripatrol/internal/geo"
	"github.com/tomtom215/veripatrol/internal/logging"
	"github.com/tomtom215/veripatrol/internal/metrics"
	"github.com/tomtom215/veripatrol/internal/models"
)

// SyncEnqueuer receives first-time verification records as new pending sync
// items. Implemented by the sync coordinator.
type SyncEnqueuer interface {
	EnqueueVerification(ctx context.Context, v models.Verification) error
}

// VerificationService orchestrates the geofence distance check and the
// patrol lifecycle manager for the explicit, user-initiated verification
// path. Passive proximity polling never reaches this service; it is the only
// writer path that produces new pending sync items.
type VerificationService struct {
	manager         *Manager
	enqueuer        SyncEnqueuer
	thresholdMeters float64
}

// NewVerificationService creates a verification service with the given
// proximity threshold in feet. The threshold is rejected if not positive.
func NewVerificationService(manager *Manager, thresholdFeet float64, enqueuer SyncEnqueuer) (*VerificationService, error) {
	if thresholdFeet <= 0 {
		return nil, fmt.Errorf("patrol: verification threshold must be positive, got %v", thresholdFeet)
	}
	meters, err := geo.FeetToMeters(thresholdFeet)
	if err != nil {
		return nil, fmt.Errorf("patrol: %w", err)
	}

	return &VerificationService{
		manager:         manager,
		enqueuer:        enqueuer,
		thresholdMeters: meters,
	}, nil
}

// Verify turns a user-initiated verification request into a validated,
// idempotent state change:
//
//  1. Requires an active patrol holding the checkpoint (ErrNotActive,
//     ErrCheckpointNotFound).
//  2. Requires the position to be within the proximity threshold of the
//     checkpoint's master coordinates; failure is an OutOfRangeError
//     carrying the measured distance.
//  3. Marks the checkpoint verified through the manager, propagating its
//     idempotent semantics.
//  4. On a first-time verification, constructs the immutable verification
//     record and hands it to the sync coordinator as a pending item.
//
// The returned record is nil on an idempotent repeat: exactly one pending
// sync item is produced per first-time successful verification, none on
// repeats or failures.
func (s *VerificationService) Verify(ctx context.Context, checkpointID, userID string, lat, lon float64, timestamp time.Time) (*models.Verification, models.PatrolStatus, error) {
	if checkpointID == "" || userID == "" {
		return nil, models.PatrolStatus{}, fmt.Errorf("patrol: checkpoint id and user id must not be empty")
	}
	if !geo.ValidCoordinates(lat, lon) {
		return nil, models.PatrolStatus{}, fmt.Errorf("patrol: invalid coordinates (%v, %v)", lat, lon)
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	checkpoint, err := s.manager.ActiveCheckpoint(checkpointID)
	if err != nil {
		metrics.VerificationRejections.WithLabelValues("not_active").Inc()
		return nil, models.PatrolStatus{}, err
	}

	distance := geo.DistanceMeters(lat, lon, checkpoint.Latitude, checkpoint.Longitude)
	if distance > s.thresholdMeters {
		metrics.VerificationRejections.WithLabelValues("out_of_range").Inc()
		return nil, models.PatrolStatus{}, &OutOfRangeError{
			CheckpointID:    checkpointID,
			DistanceMeters:  distance,
			ThresholdMeters: s.thresholdMeters,
		}
	}

	status, firstTime, err := s.manager.VerifyCheckpoint(checkpointID)
	if err != nil {
		metrics.VerificationRejections.WithLabelValues("state").Inc()
		return nil, models.PatrolStatus{}, err
	}
	if !firstTime {
		// Double-verification is success, not an error; no new sync item.
		return nil, status, nil
	}

	verification := models.Verification{
		ID:           uuid.NewString(),
		CheckpointID: checkpointID,
		UserID:       userID,
		Timestamp:    timestamp,
		Latitude:     lat,
		Longitude:    lon,
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueVerification(ctx, verification); err != nil {
			// The state change already happened; surface the queue failure to
			// the caller rather than rolling back the verified flag.
			return &verification, status, fmt.Errorf("patrol: enqueueing verification %s: %w", verification.ID, err)
		}
	}

	logging.Info().
		Str("checkpoint_id", checkpointID).
		Str("user_id", userID).
		Float64("distance_m", distance).
		Int("verified", status.VerifiedCheckpoints).
		Int("total", status.TotalCheckpoints).
		Msg("Checkpoint verified")

	return &verification, status, nil
}
