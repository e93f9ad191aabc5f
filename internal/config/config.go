// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

// Package config provides layered configuration loading for Veripatrol.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults
//  2. Config File: optional YAML file (CONFIG_PATH or default search paths)
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Veripatrol daemon.
type Config struct {
	Logging  LoggingConfig  `koanf:"logging"`
	Geofence GeofenceConfig `koanf:"geofence"`
	Sync     SyncConfig     `koanf:"sync"`
	Queue    QueueConfig    `koanf:"queue"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Patrol   PatrolConfig   `koanf:"patrol"`
}

// LoggingConfig controls the global zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"  validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// GeofenceConfig controls checkpoint proximity detection.
type GeofenceConfig struct {
	// ThresholdFeet is the in-range radius around each checkpoint.
	ThresholdFeet float64 `koanf:"threshold_feet" validate:"gt=0"`
}

// SyncConfig controls the offline sync coordinator and its backend
// protection.
type SyncConfig struct {
	// Interval between scheduled full sync runs.
	Interval time.Duration `koanf:"interval" validate:"gt=0"`

	// ItemTimeout bounds a single backend push.
	ItemTimeout time.Duration `koanf:"item_timeout" validate:"gt=0"`

	// BackendURL is the submission endpoint for pending entities.
	BackendURL string `koanf:"backend_url"`

	// SubmitsPerSecond rate-limits backend pushes. 0 disables limiting.
	SubmitsPerSecond float64 `koanf:"submits_per_second" validate:"gte=0"`

	// Breaker settings for the backend circuit breaker.
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gte=0,lte=1"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
}

// QueueConfig controls pending-queue durability.
type QueueConfig struct {
	// Durable persists the pending queue in BadgerDB; false keeps it in
	// memory only (embedded library use, tests).
	Durable bool `koanf:"durable"`

	// Path is the BadgerDB directory when durable.
	Path string `koanf:"path" validate:"required_if=Durable true"`
}

// MetricsConfig controls the Prometheus/health listener.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Listen  string `koanf:"listen" validate:"required_if=Enabled true"`
}

// PatrolConfig points at the checkpoint roster for standalone deployments.
type PatrolConfig struct {
	// CheckpointsPath is a YAML file listing locations and their checkpoints.
	CheckpointsPath string `koanf:"checkpoints_path"`
}

// Validate checks the configuration for consistency. Returns an error
// naming the first offending field.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: field %s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config: validation: %w", err)
	}

	if c.Sync.ItemTimeout >= c.Sync.Interval {
		return fmt.Errorf("config: sync.item_timeout (%v) must be shorter than sync.interval (%v)", c.Sync.ItemTimeout, c.Sync.Interval)
	}
	return nil
}
