package service

import (
	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/ikkim/restaurant-pos/pkg/logger"
)

// EventPublisher is satisfied by *notify.Hub. Publish must not block the
// caller for long; it reports false when the event was dropped.
type EventPublisher interface {
	Publish(e notify.Event) bool
}

type discardPublisher struct{}

func (discardPublisher) Publish(notify.Event) bool { return true }

func publisherOrDiscard(p EventPublisher) EventPublisher {
	if p == nil {
		return discardPublisher{}
	}
	return p
}

// emit is called only after the owning transaction committed.
func emit(p EventPublisher, t notify.EventType, orderID uint, data map[string]interface{}) {
	if !p.Publish(notify.NewEvent(t, orderID, data)) {
		logger.Warn("Notification dropped", map[string]interface{}{
			"type":     t,
			"order_id": orderID,
		})
	}
}
