// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/veripatrol/config.yaml",
	"/etc/veripatrol/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Geofence: GeofenceConfig{
			ThresholdFeet: 50.0,
		},
		Sync: SyncConfig{
			Interval:            5 * time.Minute,
			ItemTimeout:         15 * time.Second,
			BackendURL:          "",
			SubmitsPerSecond:    0, // unlimited
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerTimeout:      2 * time.Minute,
		},
		Queue: QueueConfig{
			Durable: true,
			Path:    "/data/veripatrol/queue",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Listen:  "127.0.0.1:9465",
		},
		Patrol: PatrolConfig{
			CheckpointsPath: "",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading file %s: %w", path, err)
		}
	}

	// VERIPATROL_SYNC_INTERVAL -> sync.interval, etc.
	if err := k.Load(env.Provider("VERIPATROL_", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps VERIPATROL_* environment variables to config paths.
// Unknown variables are skipped so unrelated environment noise cannot leak
// into the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "VERIPATROL_"))

	envMappings := map[string]string{
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"geofence_threshold_feet": "geofence.threshold_feet",

		"sync_interval":              "sync.interval",
		"sync_item_timeout":          "sync.item_timeout",
		"sync_backend_url":           "sync.backend_url",
		"sync_submits_per_second":    "sync.submits_per_second",
		"sync_breaker_min_requests":  "sync.breaker_min_requests",
		"sync_breaker_failure_ratio": "sync.breaker_failure_ratio",
		"sync_breaker_timeout":       "sync.breaker_timeout",

		"queue_durable": "queue.durable",
		"queue_path":    "queue.path",

		"metrics_enabled": "metrics.enabled",
		"metrics_listen":  "metrics.listen",

		"checkpoints_path": "patrol.checkpoints_path",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
