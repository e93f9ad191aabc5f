// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

// Package events distributes proximity and sync-status notifications over an
// in-process Watermill pub/sub. Producers (the geofence engine, the sync
// coordinator) publish fire-and-forget; any number of subscribers (UI
// bridges, alerting, tests) consume independently.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/tomtom215/veripatrol/internal/geofence"
	"github.com/tomtom215/veripatrol/internal/logging"
	syncpkg "github.com/tomtom215/veripatrol/internal/sync"
)

// Topics carried by the bus.
const (
	TopicProximity  = "geofence.proximity"
	TopicSyncStatus = "sync.status"
)

// dispatchBuffer bounds how many events can be queued for delivery before
// the bus starts shedding. Producers never block on a saturated bus.
const dispatchBuffer = 256

type busEvent struct {
	topic string
	msg   *message.Message
}

// Bus is an in-process event bus. It implements geofence.Notifier and
// sync.StatusNotifier; both notification paths are non-blocking for the
// producer, and events keep their emission order: a single dispatch
// goroutine drains one internal channel, so a producer's sequential
// notifications reach subscribers in the order they were emitted.
type Bus struct {
	pubsub   *gochannel.GoChannel
	dispatch chan busEvent
	done     chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewBus creates the event bus. The output buffer absorbs slow subscribers
// so producers never stall on notification delivery.
func NewBus() *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 64,
		},
		newWatermillLogger(),
	)
	b := &Bus{
		pubsub:   pubsub,
		dispatch: make(chan busEvent, dispatchBuffer),
		done:     make(chan struct{}),
	}
	go b.dispatchLoop()
	return b
}

// NotifyProximityChanged implements geofence.Notifier.
func (b *Bus) NotifyProximityChanged(change geofence.ProximityChange) {
	b.publish(TopicProximity, change)
}

// NotifySyncStatus implements sync.StatusNotifier.
func (b *Bus) NotifySyncStatus(change syncpkg.StatusChange) {
	b.publish(TopicSyncStatus, change)
}

// publish serializes and hands the event to the dispatch goroutine without
// surfacing errors to the producer. Notification delivery is advisory; a
// failed or shed publish is logged and dropped.
func (b *Bus) publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Warn().Err(err).Str("topic", topic).Msg("Dropping undecodable event payload")
		return
	}
	ev := busEvent{topic: topic, msg: message.NewMessage(watermill.NewUUID(), data)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	// Producers notify synchronously from inside their critical sections, so
	// enqueueing must never block them. The single dispatch channel keeps
	// emission order; a full buffer sheds the event instead of stalling.
	select {
	case b.dispatch <- ev:
	default:
		logging.Warn().Str("topic", topic).Msg("Event bus saturated, dropping event")
	}
}

// dispatchLoop is the only goroutine publishing to the pub/sub, preserving
// the order events were handed to publish.
func (b *Bus) dispatchLoop() {
	defer close(b.done)
	for ev := range b.dispatch {
		if err := b.pubsub.Publish(ev.topic, ev.msg); err != nil {
			logging.Warn().Err(err).Str("topic", ev.topic).Msg("Event publish failed")
		}
	}
}

// SubscribeProximity delivers decoded proximity transitions until the
// context is cancelled or the bus closes.
func (b *Bus) SubscribeProximity(ctx context.Context) (<-chan geofence.ProximityChange, error) {
	msgs, err := b.pubsub.Subscribe(ctx, TopicProximity)
	if err != nil {
		return nil, fmt.Errorf("events: subscribing to %s: %w", TopicProximity, err)
	}

	out := make(chan geofence.ProximityChange)
	go func() {
		defer close(out)
		for msg := range msgs {
			var change geofence.ProximityChange
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				logging.Warn().Err(err).Msg("Skipping malformed proximity event")
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// SubscribeSyncStatus delivers decoded sync status changes until the context
// is cancelled or the bus closes.
func (b *Bus) SubscribeSyncStatus(ctx context.Context) (<-chan syncpkg.StatusChange, error) {
	msgs, err := b.pubsub.Subscribe(ctx, TopicSyncStatus)
	if err != nil {
		return nil, fmt.Errorf("events: subscribing to %s: %w", TopicSyncStatus, err)
	}

	out := make(chan syncpkg.StatusChange)
	go func() {
		defer close(out)
		for msg := range msgs {
			var change syncpkg.StatusChange
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				logging.Warn().Err(err).Msg("Skipping malformed sync status event")
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close drains queued events, shuts the bus down, and closes all subscriber
// channels. Idempotent.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.dispatch)
	b.mu.Unlock()

	<-b.done
	return b.pubsub.Close()
}
