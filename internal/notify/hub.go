package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ikkim/restaurant-pos/pkg/logger"
)

// Policy decides what Publish does when the hub queue is full.
type Policy int

const (
	// PolicyDrop discards the event immediately. Publish never blocks.
	PolicyDrop Policy = iota
	// PolicyBlock waits up to Options.BlockTimeout for room, then drops.
	PolicyBlock
)

func (p Policy) String() string {
	if p == PolicyBlock {
		return "block"
	}
	return "drop"
}

// ParsePolicy maps a config value onto a Policy; unknown values mean drop.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), "block") {
		return PolicyBlock
	}
	return PolicyDrop
}

type Options struct {
	QueueSize    int
	Policy       Policy
	BlockTimeout time.Duration
}

const (
	defaultQueueSize    = 256
	defaultBlockTimeout = 200 * time.Millisecond
	defaultSubBuffer    = 64
)

// Hub is an in-process publish/subscribe bus. Publishers hand events to a
// bounded queue; a single dispatcher goroutine (Run) copies each event into
// the bounded channel of every matching subscription. A full subscription
// channel loses the event for that subscriber only.
type Hub struct {
	opts  Options
	queue chan Event

	mu   sync.RWMutex
	subs map[*Subscription]struct{}

	published atomic.Uint64
	dropped   atomic.Uint64
}

func NewHub(opts Options) *Hub {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.BlockTimeout <= 0 {
		opts.BlockTimeout = defaultBlockTimeout
	}
	return &Hub{
		opts:  opts,
		queue: make(chan Event, opts.QueueSize),
		subs:  make(map[*Subscription]struct{}),
	}
}

// Publish enqueues e and reports whether it was accepted.
func (h *Hub) Publish(e Event) bool {
	select {
	case h.queue <- e:
		h.published.Add(1)
		return true
	default:
	}

	if h.opts.Policy == PolicyBlock {
		timer := time.NewTimer(h.opts.BlockTimeout)
		defer timer.Stop()
		select {
		case h.queue <- e:
			h.published.Add(1)
			return true
		case <-timer.C:
		}
	}

	h.dropped.Add(1)
	logger.Warn("Notification queue full, event dropped", map[string]interface{}{
		"event_type": e.Type,
		"order_id":   e.OrderID,
		"policy":     h.opts.Policy.String(),
	})
	return false
}

// Subscribe registers a consumer. With no types it receives every event.
func (h *Hub) Subscribe(name string, buffer int, types ...EventType) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubBuffer
	}
	sub := &Subscription{
		name: name,
		ch:   make(chan Event, buffer),
	}
	if len(types) > 0 {
		sub.types = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	logger.Debug("Notification subscriber registered", map[string]interface{}{
		"subscriber": name,
		"buffer":     buffer,
		"types":      fmt.Sprint(types),
	})
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}

// Run dispatches queued events until ctx is cancelled. Events still queued
// at that point are delivered before every subscription is closed.
func (h *Hub) Run(ctx context.Context) error {
	logger.Info("Notification hub started", map[string]interface{}{
		"queue_size": h.opts.QueueSize,
		"policy":     h.opts.Policy.String(),
	})

	for {
		select {
		case e := <-h.queue:
			h.dispatch(e)
		case <-ctx.Done():
			h.drain()
			h.closeAll()
			logger.Info("Notification hub stopped", map[string]interface{}{
				"published": h.published.Load(),
				"dropped":   h.dropped.Load(),
			})
			return nil
		}
	}
}

func (h *Hub) drain() {
	for {
		select {
		case e := <-h.queue:
			h.dispatch(e)
		default:
			return
		}
	}
}

func (h *Hub) dispatch(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if !sub.wants(e.Type) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			sub.dropped.Add(1)
			logger.Warn("Notification subscriber is slow, event dropped", map[string]interface{}{
				"subscriber": sub.name,
				"event_type": e.Type,
			})
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

type Stats struct {
	Published   uint64 `json:"published"`
	Dropped     uint64 `json:"dropped"`
	Queued      int    `json:"queued"`
	Subscribers int    `json:"subscribers"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	n := len(h.subs)
	h.mu.RUnlock()
	return Stats{
		Published:   h.published.Load(),
		Dropped:     h.dropped.Load(),
		Queued:      len(h.queue),
		Subscribers: n,
	}
}

type Subscription struct {
	name    string
	types   map[EventType]struct{}
	ch      chan Event
	dropped atomic.Uint64
}

func (s *Subscription) wants(t EventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// C is closed when the subscription is removed or the hub stops.
func (s *Subscription) C() <-chan Event { return s.ch }

func (s *Subscription) Name() string { return s.name }

func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }
