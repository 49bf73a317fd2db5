package controller

import (
	"context"
	"net/http"
	"testing"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationController_RoleInbox(t *testing.T) {
	env := setupControllerTest(t)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(env.db))
	ctrl := NewNotificationController(notifications)

	env.router.GET("/notifications", ctrl.GetNotifications)
	env.router.GET("/notifications/unread-count", ctrl.GetUnreadCount)
	env.router.PUT("/notifications/:id/read", ctrl.MarkAsRead)
	env.router.PUT("/notifications/read-all", ctrl.MarkAllAsRead)

	ctx := context.Background()
	require.NoError(t, notifications.Record(ctx, notify.NewEvent(notify.EventOrderReady, 7, nil)))
	require.NoError(t, notifications.Record(ctx, notify.NewEvent(notify.EventLowStock, 0, map[string]interface{}{"name": "Rau thom"})))

	w := env.do(t, testRequest{method: http.MethodGet, path: "/notifications", role: model.RoleChef, userID: 3})
	require.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, float64(1), response["total"])
	chefItem := response["data"].([]interface{})[0].(map[string]interface{})

	// 다른 역할의 알림은 읽음 처리 불가
	w = env.do(t, testRequest{method: http.MethodPut, path: "/notifications/" + itoa(uint(chefItem["id"].(float64))) + "/read", role: model.RoleCashier, userID: 4})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, testRequest{method: http.MethodPut, path: "/notifications/" + itoa(uint(chefItem["id"].(float64))) + "/read", role: model.RoleChef, userID: 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// admin 은 manager 인박스
	w = env.do(t, testRequest{method: http.MethodGet, path: "/notifications/unread-count", role: model.RoleAdmin, userID: 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody(t, w)["unread_count"])

	w = env.do(t, testRequest{method: http.MethodPut, path: "/notifications/read-all", role: model.RoleManager, userID: 2})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, testRequest{method: http.MethodGet, path: "/notifications?is_read=false", role: model.RoleManager, userID: 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["total"])

	w = env.do(t, testRequest{method: http.MethodGet, path: "/notifications"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
