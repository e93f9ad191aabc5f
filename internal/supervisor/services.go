// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tomtom215/veripatrol/internal/logging"
	syncpkg "github.com/tomtom215/veripatrol/internal/sync"
)

// SyncSchedulerService runs the sync coordinator's periodic schedule as a
// supervised service.
type SyncSchedulerService struct {
	Coordinator *syncpkg.Coordinator
	Interval    time.Duration
}

// Serve implements suture.Service. Blocks until the context is canceled.
func (s *SyncSchedulerService) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", s.Interval).Msg("Starting sync scheduler service")
	err := s.Coordinator.Serve(ctx, s.Interval)
	logging.Info().Msg("Sync scheduler service stopped")
	return err
}

// MetricsServerService exposes /metrics and /healthz on a dedicated
// listener as a supervised service.
//
// The daemon has no request-routing API surface; a plain ServeMux with two
// fixed endpoints is all the listener carries.
type MetricsServerService struct {
	Listen string
}

// Serve implements suture.Service.
func (s *MetricsServerService) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:              s.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("listen", s.Listen).Msg("Metrics listener starting")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("Metrics listener shutdown error")
		}
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Str("listen", s.Listen).Msg("Metrics listener failed")
			return err
		}
		return nil
	}
}
