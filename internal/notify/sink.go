package notify

import (
	"context"

	"github.com/ikkim/restaurant-pos/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Sink receives hub events outside the publishing goroutine.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

type sinkFunc struct {
	name string
	fn   func(ctx context.Context, e Event) error
}

func (s sinkFunc) Name() string                               { return s.name }
func (s sinkFunc) Deliver(ctx context.Context, e Event) error { return s.fn(ctx, e) }

// SinkFunc adapts a function to Sink.
func SinkFunc(name string, fn func(ctx context.Context, e Event) error) Sink {
	return sinkFunc{name: name, fn: fn}
}

// Publisher is satisfied by the Redis client and the AMQP publisher.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// PublisherSink forwards every event as JSON to topic.
func PublisherSink(name string, pub Publisher, topic string) Sink {
	return SinkFunc(name, func(ctx context.Context, e Event) error {
		payload, err := e.Marshal()
		if err != nil {
			return err
		}
		return pub.Publish(ctx, topic, payload)
	})
}

// Serve runs the hub dispatcher and one pump goroutine per sink under a
// single errgroup. It returns when ctx is cancelled. A failed delivery is
// logged and the sink keeps running.
func Serve(ctx context.Context, hub *Hub, buffer int, sinks ...Sink) error {
	subs := make([]*Subscription, len(sinks))
	for i, sink := range sinks {
		subs[i] = hub.Subscribe(sink.Name(), buffer)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	for i, sink := range sinks {
		sink, sub := sink, subs[i]
		g.Go(func() error {
			pump(gctx, sub, sink)
			return nil
		})
	}
	return g.Wait()
}

// pump delivers until the subscription channel is closed, which the hub
// does after draining its queue on shutdown.
func pump(ctx context.Context, sub *Subscription, sink Sink) {
	for e := range sub.C() {
		if err := sink.Deliver(context.WithoutCancel(ctx), e); err != nil {
			logger.Error("Notification sink delivery failed", err, map[string]interface{}{
				"sink":       sink.Name(),
				"event_type": e.Type,
				"event_id":   e.ID,
			})
		}
	}
	logger.Debug("Notification sink stopped", map[string]interface{}{
		"sink":    sink.Name(),
		"dropped": sub.Dropped(),
	})
}
