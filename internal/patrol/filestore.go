// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package patrol

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tomtom215/veripatrol/internal/geo"
	"github.com/tomtom215/veripatrol/internal/logging"
	"github.com/tomtom215/veripatrol/internal/models"
	"gopkg.in/yaml.v3"
)

// rosterFile is the YAML shape of a checkpoint roster.
type rosterFile struct {
	Locations []rosterLocation `yaml:"locations"`
}

type rosterLocation struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Checkpoints []rosterCheckpoint `yaml:"checkpoints"`
}

type rosterCheckpoint struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// FileStore is a CheckpointStore backed by a YAML roster file, for
// standalone deployments without a live backend. The roster is loaded once;
// historical counts are kept in memory and reset on restart.
type FileStore struct {
	checkpoints map[string][]models.Checkpoint
	byID        map[string]models.Checkpoint
}

// LoadFileStore reads and validates a checkpoint roster.
func LoadFileStore(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patrol: reading checkpoint roster %s: %w", path, err)
	}

	var roster rosterFile
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("patrol: parsing checkpoint roster %s: %w", path, err)
	}

	store := &FileStore{
		checkpoints: make(map[string][]models.Checkpoint),
		byID:        make(map[string]models.Checkpoint),
	}

	now := time.Now()
	total := 0
	for _, loc := range roster.Locations {
		if loc.ID == "" {
			return nil, fmt.Errorf("patrol: roster location with empty id")
		}
		for _, rc := range loc.Checkpoints {
			if rc.ID == "" {
				return nil, fmt.Errorf("patrol: roster checkpoint with empty id in location %s", loc.ID)
			}
			if !geo.ValidCoordinates(rc.Latitude, rc.Longitude) {
				return nil, fmt.Errorf("patrol: checkpoint %s has invalid coordinates (%v, %v)", rc.ID, rc.Latitude, rc.Longitude)
			}
			if _, dup := store.byID[rc.ID]; dup {
				return nil, fmt.Errorf("patrol: duplicate checkpoint id %s in roster", rc.ID)
			}
			cp := models.Checkpoint{
				ID:          rc.ID,
				LocationID:  loc.ID,
				Name:        rc.Name,
				Latitude:    rc.Latitude,
				Longitude:   rc.Longitude,
				LastUpdated: now,
			}
			store.checkpoints[loc.ID] = append(store.checkpoints[loc.ID], cp)
			store.byID[rc.ID] = cp
			total++
		}
	}

	logging.Info().
		Int("locations", len(store.checkpoints)).
		Int("checkpoints", total).
		Str("path", path).
		Msg("Checkpoint roster loaded")
	return store, nil
}

// CheckpointsByLocation implements CheckpointStore. The store is immutable
// after load, so callers get fresh copies.
func (s *FileStore) CheckpointsByLocation(_ context.Context, locationID string) ([]models.Checkpoint, error) {
	src := s.checkpoints[locationID]
	out := make([]models.Checkpoint, len(src))
	copy(out, src)
	return out, nil
}

// CheckpointByID implements CheckpointStore.
func (s *FileStore) CheckpointByID(_ context.Context, checkpointID string) (models.Checkpoint, error) {
	cp, ok := s.byID[checkpointID]
	if !ok {
		return models.Checkpoint{}, fmt.Errorf("%w: %s", ErrCheckpointNotFound, checkpointID)
	}
	return cp, nil
}

// HistoricalCounts implements CheckpointStore. A roster file carries no
// verification history.
func (s *FileStore) HistoricalCounts(_ context.Context, _ string) (models.HistoricalCounts, error) {
	return models.HistoricalCounts{}, nil
}
