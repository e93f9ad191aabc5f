// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tomtom215/veripatrol/internal/logging"
	"github.com/tomtom215/veripatrol/internal/metrics"
	"github.com/tomtom215/veripatrol/internal/models"
	"golang.org/x/time/rate"
)

// BreakerConfig tunes the circuit breaker protecting the backend.
type BreakerConfig struct {
	// Name labels the breaker in logs and metrics.
	Name string

	// MaxRequests allowed in half-open state. Default: 3.
	MaxRequests uint32

	// Interval resets failure counts in closed state. Default: 1m.
	Interval time.Duration

	// Timeout before transitioning from open to half-open. Default: 2m.
	Timeout time.Duration

	// MinRequests before the failure ratio is considered. Default: 10.
	MinRequests uint32

	// FailureRatio at which the circuit opens. Default: 0.6.
	FailureRatio float64
}

// DefaultBreakerConfig returns the breaker settings used in production.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "patrol-backend",
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// ResilientSubmitter wraps a backend Submitter with a circuit breaker and a
// rate limiter. The breaker prevents cascading failures when the backend is
// unavailable or slow; the limiter protects it from reconnect bursts after
// long offline periods.
//
// A breaker-open rejection surfaces as an ordinary per-item submit error,
// which the coordinator records as a failure and retries on a later cycle.
//
// DETERMINISM NOTE: The breaker uses real time for its interval and timeout
// calculations. Tests should exercise the wrapped submitter directly.
type ResilientSubmitter struct {
	inner   Submitter
	cb      *gobreaker.CircuitBreaker[SubmitResult]
	limiter *rate.Limiter
	name    string
}

// NewResilientSubmitter wraps inner with breaker cfg and an optional rate
// limit of submitsPerSecond (0 disables limiting).
func NewResilientSubmitter(inner Submitter, cfg BreakerConfig, submitsPerSecond float64) (*ResilientSubmitter, error) {
	if inner == nil {
		return nil, fmt.Errorf("sync: inner submitter must not be nil")
	}
	if cfg.Name == "" {
		cfg.Name = "patrol-backend"
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		cfg.FailureRatio = 0.6
	}

	metrics.BreakerState.WithLabelValues(cfg.Name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[SubmitResult](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit to backend")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("from", breakerStateString(from)).
				Str("to", breakerStateString(to)).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.BreakerTransitions.WithLabelValues(name, breakerStateString(from), breakerStateString(to)).Inc()
		},
	})

	var limiter *rate.Limiter
	if submitsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(submitsPerSecond), 1)
	}

	return &ResilientSubmitter{
		inner:   inner,
		cb:      cb,
		limiter: limiter,
		name:    cfg.Name,
	}, nil
}

// Submit implements Submitter with breaker and rate-limit protection.
func (r *ResilientSubmitter) Submit(ctx context.Context, entityType models.EntityType, entityID string, payload []byte) (SubmitResult, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return SubmitResult{}, fmt.Errorf("sync: rate limit wait: %w", err)
		}
	}

	result, err := r.cb.Execute(func() (SubmitResult, error) {
		res, err := r.inner.Submit(ctx, entityType, entityID, payload)
		if err != nil {
			return SubmitResult{}, err
		}
		// A backend rejection is a per-item business failure, not a sign of
		// backend unhealth; it must not trip the breaker.
		return res, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.BreakerRequests.WithLabelValues(r.name, "rejected").Inc()
			return SubmitResult{}, fmt.Errorf("sync: backend circuit open: %w", err)
		}
		metrics.BreakerRequests.WithLabelValues(r.name, "failure").Inc()
		return SubmitResult{}, err
	}

	metrics.BreakerRequests.WithLabelValues(r.name, "success").Inc()
	return result, nil
}

func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
