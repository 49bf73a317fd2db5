package model

import (
	"fmt"
	"strconv"
	"strings"
)

type OrderStatus int // 주문 진행 상태

const (
	OrderStatusNew       OrderStatus = 0
	OrderStatusConfirmed OrderStatus = 1
	OrderStatusPreparing OrderStatus = 2
	OrderStatusCooking   OrderStatus = 3
	OrderStatusReady     OrderStatus = 4
	OrderStatusCompleted OrderStatus = 5
	OrderStatusCancelled OrderStatus = 6
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusNew:       "new",
	OrderStatusConfirmed: "confirmed",
	OrderStatusPreparing: "preparing",
	OrderStatusCooking:   "cooking",
	OrderStatusReady:     "ready",
	OrderStatusCompleted: "completed",
	OrderStatusCancelled: "cancelled",
}

func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

// IsTerminal reports whether no further transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// ParseOrderStatus accepts either the numeric code or the lowercase name.
func ParseOrderStatus(v string) (OrderStatus, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if n, err := strconv.Atoi(v); err == nil {
		s := OrderStatus(n)
		if s.Valid() {
			return s, nil
		}
		return 0, fmt.Errorf("unknown order status %d", n)
	}
	for s, name := range orderStatusNames {
		if name == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", v)
}

// OrderAction names a lifecycle step.
type OrderAction string

const (
	ActionConfirm       OrderAction = "confirm"
	ActionSendToKitchen OrderAction = "send_to_kitchen"
	ActionStartCooking  OrderAction = "start_cooking"
	ActionMarkReady     OrderAction = "mark_ready"
	ActionComplete      OrderAction = "complete"
	ActionCancel        OrderAction = "cancel"
)

// Transition is one edge of the order lifecycle graph.
type Transition struct {
	Action      OrderAction
	From        []OrderStatus
	To          OrderStatus
	RequirePaid bool
}

// Allows reports whether the edge leaves from s.
func (t Transition) Allows(s OrderStatus) bool {
	for _, from := range t.From {
		if from == s {
			return true
		}
	}
	return false
}

// OrderTransitions is the complete lifecycle graph. Every status change in
// the system is looked up here; nothing else encodes the ordering.
var OrderTransitions = []Transition{
	{Action: ActionConfirm, From: []OrderStatus{OrderStatusNew}, To: OrderStatusConfirmed},
	{Action: ActionSendToKitchen, From: []OrderStatus{OrderStatusConfirmed}, To: OrderStatusPreparing, RequirePaid: true},
	{Action: ActionStartCooking, From: []OrderStatus{OrderStatusPreparing}, To: OrderStatusCooking},
	{Action: ActionMarkReady, From: []OrderStatus{OrderStatusCooking}, To: OrderStatusReady},
	{Action: ActionComplete, From: []OrderStatus{OrderStatusReady}, To: OrderStatusCompleted},
	{Action: ActionCancel, From: []OrderStatus{OrderStatusNew, OrderStatusConfirmed, OrderStatusPreparing}, To: OrderStatusCancelled},
}

// TransitionFor looks up an edge by action.
func TransitionFor(action OrderAction) (Transition, bool) {
	for _, t := range OrderTransitions {
		if t.Action == action {
			return t, true
		}
	}
	return Transition{}, false
}

// TransitionTo looks up the edge that ends in target. Every status is the
// target of at most one edge.
func TransitionTo(target OrderStatus) (Transition, bool) {
	for _, t := range OrderTransitions {
		if t.To == target {
			return t, true
		}
	}
	return Transition{}, false
}

// CanTransition reports whether from -> to is an edge of the graph.
func CanTransition(from, to OrderStatus) bool {
	t, ok := TransitionTo(to)
	return ok && t.Allows(from)
}
