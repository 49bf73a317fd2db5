package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	"github.com/ikkim/restaurant-pos/internal/db"
	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupNotificationTest(t *testing.T) NotificationService {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return NewNotificationService(repository.NewNotificationRepository(testDB))
}

func TestNotificationService_RecordFansOutByRole(t *testing.T) {
	svc := setupNotificationTest(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, notify.NewEvent(notify.EventNewOrder, 42, map[string]interface{}{"total_amount": "150000"})))
	require.NoError(t, svc.Record(ctx, notify.NewEvent(notify.EventOrderReady, 42, nil)))
	require.NoError(t, svc.Sink().Deliver(ctx, notify.NewEvent(notify.EventLowStock, 0, map[string]interface{}{"name": "Beef"})))

	// cashier: new order + ready
	list, total, unread, err := svc.GetNotifications(model.RoleCashier, "", nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(2), unread)
	require.Len(t, list, 2)

	// chef: new order + low stock
	list, total, _, err = svc.GetNotifications(model.RoleChef, string(notify.EventLowStock), nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Low stock: Beef", list[0].Title)
	assert.Nil(t, list[0].OrderID)

	var payload notify.Event
	require.NoError(t, json.Unmarshal([]byte(list[0].Payload), &payload))
	assert.Equal(t, notify.EventLowStock, payload.Type)

	managerCount, err := svc.GetUnreadCount(model.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, int64(3), managerCount)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	svc := setupNotificationTest(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, notify.NewEvent(notify.EventNewOrder, 7, nil)))
	require.NoError(t, svc.Record(ctx, notify.NewEvent(notify.EventPaymentConfirmed, 7, nil)))

	list, _, _, err := svc.GetNotifications(model.RoleCashier, string(notify.EventNewOrder), nil, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "New order #7", list[0].Title)

	// another role's inbox cannot be touched
	_, err = svc.MarkAsRead(list[0].ID, model.RoleChef)
	assert.Error(t, err)

	read, err := svc.MarkAsRead(list[0].ID, model.RoleCashier)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	unread, err := svc.GetUnreadCount(model.RoleCashier)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, svc.MarkAllAsRead(model.RoleCashier))
	unread, err = svc.GetUnreadCount(model.RoleCashier)
	require.NoError(t, err)
	assert.Zero(t, unread)

	chefUnread, err := svc.GetUnreadCount(model.RoleChef)
	require.NoError(t, err)
	assert.Equal(t, int64(2), chefUnread)

	isRead := true
	list, total, _, err := svc.GetNotifications(model.RoleCashier, "", &isRead, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	_, err = svc.MarkAsRead(9999, model.RoleCashier)
	assert.Error(t, err)
}

func TestNotificationService_PurgeRead(t *testing.T) {
	svc := setupNotificationTest(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, notify.NewEvent(notify.EventNewOrder, 1, nil)))
	require.NoError(t, svc.Record(ctx, notify.NewEvent(notify.EventOrderReady, 1, nil)))
	require.NoError(t, svc.MarkAllAsRead(model.RoleCashier))

	// retention not reached yet
	deleted, err := svc.PurgeRead(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = svc.PurgeRead(-time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, total, _, err := svc.GetNotifications(model.RoleCashier, "", nil, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)

	// unread inboxes are kept
	_, total, _, err = svc.GetNotifications(model.RoleManager, "", nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
