// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/veripatrol/internal/logging"
)

// ScheduleSync starts a recurring timer invoking SyncAll at the given
// interval. A tick firing while a sync is already in flight is a no-op by
// virtue of the single-flight guard, not an error. Calling ScheduleSync
// while a schedule is active replaces it.
func (c *Coordinator) ScheduleSync(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("sync: schedule interval must be positive, got %v", interval)
	}

	c.schedMu.Lock()
	defer c.schedMu.Unlock()

	if c.scheduled {
		c.stopScheduleLocked()
	}

	c.stopChan = make(chan struct{})
	c.scheduled = true
	c.wg.Add(1)
	go c.scheduleLoop(interval, c.stopChan)

	logging.Info().Dur("interval", interval).Msg("Periodic sync scheduled")
	return nil
}

// CancelScheduledSync stops the recurring sync timer and waits for the loop
// goroutine to exit. Idempotent; an in-flight sync run is not interrupted.
func (c *Coordinator) CancelScheduledSync() {
	c.schedMu.Lock()
	defer c.schedMu.Unlock()

	if !c.scheduled {
		return
	}
	c.stopScheduleLocked()
	logging.Info().Msg("Periodic sync cancelled")
}

// stopScheduleLocked stops the current loop. Caller must hold schedMu.
func (c *Coordinator) stopScheduleLocked() {
	close(c.stopChan)
	c.wg.Wait()
	c.scheduled = false
}

func (c *Coordinator) scheduleLoop(interval time.Duration, stop <-chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// The single-flight guard turns an overlapping tick into an
			// immediate pending-snapshot return.
			result := c.SyncAll(context.Background())
			logging.Debug().
				Int("succeeded", len(result.Successes)).
				Int("failed", len(result.Failures)).
				Int("pending", result.PendingCount).
				Msg("Scheduled sync tick")
		}
	}
}

// Serve runs the coordinator as a supervised service: it schedules periodic
// syncs at the given interval and blocks until the context is cancelled.
// Implements the suture.Service contract through a closure in the supervisor
// package.
func (c *Coordinator) Serve(ctx context.Context, interval time.Duration) error {
	if err := c.ScheduleSync(interval); err != nil {
		return err
	}
	<-ctx.Done()
	c.CancelScheduledSync()
	return ctx.Err()
}
