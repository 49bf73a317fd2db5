package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

// NotificationController 알림 컨트롤러. 알림은 역할 단위 인박스다.
type NotificationController struct {
	service service.NotificationService
}

// NewNotificationController 알림 컨트롤러 생성자
func NewNotificationController(service service.NotificationService) *NotificationController {
	return &NotificationController{
		service: service,
	}
}

// 관리자는 manager 인박스를 본다
func inboxRole(c *gin.Context) (model.UserRole, bool) {
	role, ok := middleware.GetUserRole(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return "", false
	}
	if role == model.RoleAdmin {
		return model.RoleManager, true
	}
	return role, true
}

// GetNotifications godoc
// @Summary 알림 목록 조회
// @Description 내 역할의 알림 목록을 조회합니다
// @Tags notifications
// @Produce json
// @Param page query int false "페이지 번호" default(1)
// @Param page_size query int false "페이지 크기" default(20)
// @Param type query string false "알림 타입 (NEW_ORDER, ORDER_READY, LOW_STOCK ...)"
// @Param is_read query bool false "읽음 상태"
// @Success 200 {object} gin.H{data=[]model.Notification,total=int,page=int,page_size=int,unread_count=int}
// @Failure 401 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (c *NotificationController) GetNotifications(ctx *gin.Context) {
	role, ok := inboxRole(ctx)
	if !ok {
		return
	}

	page, pageSize := pagination(ctx)
	notifications, total, unreadCount, err := c.service.GetNotifications(
		role,
		ctx.Query("type"),
		optionalBool(ctx, "is_read"),
		page,
		pageSize,
	)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":         notifications,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
		"unread_count": unreadCount,
	})
}

// GetUnreadCount godoc
// @Summary 읽지 않은 알림 수
// @Tags notifications
// @Produce json
// @Success 200 {object} gin.H{unread_count=int}
// @Security BearerAuth
// @Router /api/v1/notifications/unread-count [get]
func (c *NotificationController) GetUnreadCount(ctx *gin.Context) {
	role, ok := inboxRole(ctx)
	if !ok {
		return
	}

	count, err := c.service.GetUnreadCount(role)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"unread_count": count,
	})
}

// MarkAsRead godoc
// @Summary 알림 읽음 처리
// @Tags notifications
// @Produce json
// @Param id path int true "알림 ID"
// @Success 200 {object} gin.H{data=model.Notification}
// @Failure 404 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/notifications/{id}/read [put]
func (c *NotificationController) MarkAsRead(ctx *gin.Context) {
	role, ok := inboxRole(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	notification, err := c.service.MarkAsRead(id, role)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": notification,
	})
}

// MarkAllAsRead godoc
// @Summary 모든 알림 읽음 처리
// @Tags notifications
// @Produce json
// @Success 200 {object} gin.H{message=string}
// @Security BearerAuth
// @Router /api/v1/notifications/read-all [put]
func (c *NotificationController) MarkAllAsRead(ctx *gin.Context) {
	role, ok := inboxRole(ctx)
	if !ok {
		return
	}

	if err := c.service.MarkAllAsRead(role); err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "all notifications marked as read",
	})
}
