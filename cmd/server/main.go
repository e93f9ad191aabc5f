// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

// Package main is the entry point for the Veripatrol daemon.
//
// Veripatrol tracks guard patrols through geofenced checkpoints and
// reconciles offline-recorded activity with a remote backend. The daemon
// wires the library core into a standalone process:
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML, environment)
//  2. Logging: global zerolog logger
//  3. Pending store: BadgerDB (durable) or in-memory queue persistence
//  4. Event bus: in-process Watermill pub/sub for proximity and sync events
//  5. Checkpoint roster: standalone-mode master data, validated at startup
//  6. Sync: coordinator with circuit-broken backend submitter
//  7. Supervision: suture tree running the sync scheduler and the
//     metrics/health listener
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): VERIPATROL_* environment variables, a YAML config file
// (CONFIG_PATH or ./config.yaml), and built-in defaults.
//
// # Standalone Mode
//
// Without a configured backend (VERIPATROL_SYNC_BACKEND_URL unset), the
// daemon records everything locally: verifications accumulate in the
// durable pending queue and are pushed once a backend is configured.
// Checkpoint master data comes from a YAML roster file
// (VERIPATROL_CHECKPOINTS_PATH).
//
// # Signal Handling
//
// The daemon shuts down gracefully on SIGINT and SIGTERM: the scheduler
// stops, in-flight sync items finish their bounded pushes, and the pending
// queue is left durable for the next start.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/veripatrol/internal/config"
	"github.com/tomtom215/veripatrol/internal/events"
	"github.com/tomtom215/veripatrol/internal/logging"
	"github.com/tomtom215/veripatrol/internal/models"
	"github.com/tomtom215/veripatrol/internal/patrol"
	"github.com/tomtom215/veripatrol/internal/supervisor"
	syncpkg "github.com/tomtom215/veripatrol/internal/sync"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("version", version).Msg("Veripatrol starting")

	// Pending queue persistence.
	var store syncpkg.PendingStore
	if cfg.Queue.Durable {
		badgerStore, err := syncpkg.OpenBadgerStore(cfg.Queue.Path)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open pending queue store")
		}
		store = badgerStore
	} else {
		logging.Warn().Msg("Durable queue disabled; pending items will not survive restarts")
		store = syncpkg.NewMemoryStore()
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing pending store")
		}
	}()

	bus := events.NewBus()
	defer bus.Close()

	// Backend submitter. Without a backend URL the daemon runs
	// record-only: entities stay queued until a backend is configured.
	var submitter syncpkg.Submitter
	backendConfigured := cfg.Sync.BackendURL != ""
	if backendConfigured {
		httpSubmitter, err := syncpkg.NewHTTPSubmitter(cfg.Sync.BackendURL, cfg.Sync.ItemTimeout)
		if err != nil {
			logging.Fatal().Err(err).Msg("Invalid backend URL")
		}
		submitter, err = syncpkg.NewResilientSubmitter(httpSubmitter, syncpkg.BreakerConfig{
			Name:         "patrol-backend",
			MinRequests:  cfg.Sync.BreakerMinRequests,
			FailureRatio: cfg.Sync.BreakerFailureRatio,
			Timeout:      cfg.Sync.BreakerTimeout,
		}, cfg.Sync.SubmitsPerSecond)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to build backend submitter")
		}
	} else {
		logging.Warn().Msg("No backend configured; running record-only")
		submitter = syncpkg.SubmitterFunc(func(_ context.Context, _ models.EntityType, _ string, _ []byte) (syncpkg.SubmitResult, error) {
			return syncpkg.SubmitResult{}, errors.New("no backend configured")
		})
	}

	coordinator, err := syncpkg.NewCoordinator(submitter, syncpkg.Options{
		Notifier:    bus,
		Store:       store,
		ItemTimeout: cfg.Sync.ItemTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create sync coordinator")
	}

	// Standalone-mode roster. The patrol manager, verification service, and
	// geofence engine are constructed by whatever front end embeds this
	// daemon; loading here fails fast on a malformed roster file before the
	// supervision tree starts.
	if cfg.Patrol.CheckpointsPath != "" {
		if _, err := patrol.LoadFileStore(cfg.Patrol.CheckpointsPath); err != nil {
			logging.Fatal().Err(err).Msg("Failed to load checkpoint roster")
		}
	} else {
		logging.Info().Msg("No checkpoint roster configured; patrol lifecycle runs against the embedding application's store")
	}

	// Supervision tree.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if backendConfigured {
		tree.AddSyncService(&supervisor.SyncSchedulerService{
			Coordinator: coordinator,
			Interval:    cfg.Sync.Interval,
		})
	}
	if cfg.Metrics.Enabled {
		tree.AddAPIService(&supervisor.MetricsServerService{Listen: cfg.Metrics.Listen})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor exited with error")
		os.Exit(1)
	}
	logging.Info().Msg("Veripatrol stopped")
}
