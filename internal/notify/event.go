package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventNewOrder          EventType = "NEW_ORDER"
	EventOrderUpdated      EventType = "ORDER_UPDATED"
	EventOrderReady        EventType = "ORDER_READY"
	EventPaymentConfirmed  EventType = "PAYMENT_CONFIRMED"
	EventLowStock          EventType = "LOW_STOCK"
	EventExpiredIngredient EventType = "EXPIRED_INGREDIENT"
)

// AllEventTypes is the complete vocabulary.
var AllEventTypes = []EventType{
	EventNewOrder,
	EventOrderUpdated,
	EventOrderReady,
	EventPaymentConfirmed,
	EventLowStock,
	EventExpiredIngredient,
}

// Staff panel roles. Kept as strings so this package stays a leaf.
const (
	RoleManager = "manager"
	RoleCashier = "cashier"
	RoleChef    = "chef"
)

var audience = map[EventType][]string{
	EventNewOrder:          {RoleCashier, RoleChef, RoleManager},
	EventOrderUpdated:      {RoleCashier, RoleChef, RoleManager},
	EventOrderReady:        {RoleCashier, RoleManager},
	EventPaymentConfirmed:  {RoleCashier, RoleChef, RoleManager},
	EventLowStock:          {RoleChef, RoleManager},
	EventExpiredIngredient: {RoleChef, RoleManager},
}

// Audience lists the panel roles an event type is routed to.
func Audience(t EventType) []string {
	return audience[t]
}

type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	OrderID    uint                   `json:"order_id,omitempty"`
	Roles      []string               `json:"roles"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NewEvent stamps an event with an id, its default audience and the time.
func NewEvent(t EventType, orderID uint, data map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OrderID:    orderID,
		Roles:      Audience(t),
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// For reports whether role is in the event's audience.
func (e Event) For(role string) bool {
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
