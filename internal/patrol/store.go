// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package patrol

import (
	"context"

	"github.com/tomtom215/veripatrol/internal/models"
)

// CheckpointStore is the external checkpoint/location read interface.
// Persistence mapping belongs to the surrounding application, not this core.
type CheckpointStore interface {
	// CheckpointsByLocation returns the checkpoint master data for a location.
	// An unknown location returns an empty slice, not an error.
	CheckpointsByLocation(ctx context.Context, locationID string) ([]models.Checkpoint, error)

	// CheckpointByID returns a single checkpoint's master data.
	CheckpointByID(ctx context.Context, id string) (models.Checkpoint, error)

	// HistoricalCounts returns the aggregate verification history for a
	// location. A location with no history returns the zero value, not an
	// error.
	HistoricalCounts(ctx context.Context, locationID string) (models.HistoricalCounts, error)
}
