package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func registered(t *testing.T, hub *Hub, clients ...*Client) {
	for _, c := range clients {
		hub.Register(c)
	}
	require.Eventually(t, func() bool {
		total := 0
		for _, n := range hub.OnlineCount() {
			total += n
		}
		return total == len(clients)
	}, time.Second, 5*time.Millisecond)
}

func next(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &body))
		return body
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func quiet(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected message %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DeliversByRole(t *testing.T) {
	hub := startHub(t)
	cashier := NewClient(hub, nil, 1, notify.RoleCashier)
	chef := NewClient(hub, nil, 2, notify.RoleChef)
	registered(t, hub, cashier, chef)

	require.NoError(t, hub.Deliver(context.Background(), notify.NewEvent(notify.EventOrderReady, 12, nil)))
	body := next(t, cashier)
	assert.Equal(t, "ORDER_READY", body["type"])
	assert.Equal(t, float64(12), body["order_id"])
	quiet(t, chef)

	require.NoError(t, hub.Deliver(context.Background(), notify.NewEvent(notify.EventLowStock, 0, map[string]interface{}{"name": "Beef"})))
	assert.Equal(t, "LOW_STOCK", next(t, chef)["type"])
	quiet(t, cashier)
}

func TestHub_SubscribeNarrowsEvents(t *testing.T) {
	hub := startHub(t)
	chef := NewClient(hub, nil, 2, notify.RoleChef)
	registered(t, hub, chef)

	hub.HandleClientMessage(chef, []byte(`{"type":"subscribe","event_types":["NEW_ORDER"]}`))
	assert.Equal(t, "subscribed", next(t, chef)["type"])

	require.NoError(t, hub.Deliver(context.Background(), notify.NewEvent(notify.EventOrderUpdated, 3, nil)))
	require.NoError(t, hub.Deliver(context.Background(), notify.NewEvent(notify.EventNewOrder, 4, nil)))
	body := next(t, chef)
	assert.Equal(t, "NEW_ORDER", body["type"])
	assert.Equal(t, float64(4), body["order_id"])

	hub.HandleClientMessage(chef, []byte(`{"type":"ping"}`))
	assert.Equal(t, "pong", next(t, chef)["type"])
}

func TestHub_RateLimit(t *testing.T) {
	hub := startHub(t)
	cashier := NewClient(hub, nil, 1, notify.RoleCashier)
	registered(t, hub, cashier)

	for i := 0; i < maxMessagesPerSecond+5; i++ {
		hub.HandleClientMessage(cashier, []byte(`{"type":"ping"}`))
	}
	assert.Len(t, cashier.Send, maxMessagesPerSecond)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	cashier := NewClient(hub, nil, 1, notify.RoleCashier)
	registered(t, hub, cashier)

	hub.Unregister(cashier)
	select {
	case _, ok := <-cashier.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Empty(t, hub.OnlineCount())
	assert.Equal(t, "websocket", hub.Name())
}

func TestHub_StoppedHubDoesNotBlockCallers(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	chef := NewClient(hub, nil, 2, notify.RoleChef)
	registered(t, hub, chef)
	cancel()
	<-stopped

	_, open := <-chef.Send
	assert.False(t, open)

	finished := make(chan struct{})
	go func() {
		// more than the unregister buffer holds
		for i := 0; i < 512; i++ {
			hub.Unregister(chef)
		}
		late := NewClient(hub, nil, 3, notify.RoleCashier)
		hub.Register(late)
		_, open := <-late.Send
		assert.False(t, open)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after the hub stopped")
	}
	assert.Empty(t, hub.OnlineCount())
}
