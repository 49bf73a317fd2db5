package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/ikkim/restaurant-pos/pkg/logger"
)

// NotificationService 스태프 알림함 서비스 인터페이스
type NotificationService interface {
	// Record 허브 이벤트를 대상 역할별로 저장
	Record(ctx context.Context, e notify.Event) error
	Sink() notify.Sink

	GetNotifications(role model.UserRole, notifType string, isRead *bool, page, pageSize int) ([]model.Notification, int64, int64, error)
	GetUnreadCount(role model.UserRole) (int64, error)
	MarkAsRead(notificationID uint, role model.UserRole) (*model.Notification, error)
	MarkAllAsRead(role model.UserRole) error
	PurgeRead(olderThan time.Duration) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

// NewNotificationService 알림 서비스 생성자
func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

var notificationTitles = map[notify.EventType]string{
	notify.EventNewOrder:          "New order #%d",
	notify.EventOrderUpdated:      "Order #%d updated",
	notify.EventOrderReady:        "Order #%d is ready",
	notify.EventPaymentConfirmed:  "Payment received for order #%d",
	notify.EventLowStock:          "Low stock: %v",
	notify.EventExpiredIngredient: "Expired ingredient: %v",
}

func notificationTitle(e notify.Event) string {
	format, ok := notificationTitles[e.Type]
	if !ok {
		return string(e.Type)
	}
	if e.OrderID != 0 {
		return fmt.Sprintf(format, e.OrderID)
	}
	return fmt.Sprintf(format, e.Data["name"])
}

// Record 이벤트 1건 -> 역할별 알림 N건
func (s *notificationService) Record(_ context.Context, e notify.Event) error {
	payload, err := e.Marshal()
	if err != nil {
		return apperrors.Internal("notification.Record", err)
	}

	var orderID *uint
	if e.OrderID != 0 {
		id := e.OrderID
		orderID = &id
	}

	title := notificationTitle(e)
	notifications := make([]model.Notification, 0, len(e.Roles))
	for _, role := range e.Roles {
		notifications = append(notifications, model.Notification{
			Type:       string(e.Type),
			TargetRole: model.UserRole(role),
			OrderID:    orderID,
			Title:      title,
			Payload:    string(payload),
		})
	}

	if err := s.repo.CreateNotifications(notifications); err != nil {
		return apperrors.Storage("notification.Record", err)
	}
	return nil
}

// Sink 허브에 연결할 저장 싱크
func (s *notificationService) Sink() notify.Sink {
	return notify.SinkFunc("inbox", s.Record)
}

// GetNotifications 알림 목록 조회 (목록, 전체 개수, 안읽은 개수)
func (s *notificationService) GetNotifications(
	role model.UserRole,
	notifType string,
	isRead *bool,
	page, pageSize int,
) ([]model.Notification, int64, int64, error) {
	// 페이지 기본값
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize

	notifications, total, err := s.repo.GetNotifications(role, notifType, isRead, pageSize, offset)
	if err != nil {
		return nil, 0, 0, apperrors.Storage("notification.GetNotifications", err)
	}

	// 안읽은 개수
	unread, err := s.repo.GetUnreadCount(role)
	if err != nil {
		return nil, 0, 0, apperrors.Storage("notification.GetNotifications", err)
	}

	return notifications, total, unread, nil
}

func (s *notificationService) GetUnreadCount(role model.UserRole) (int64, error) {
	count, err := s.repo.GetUnreadCount(role)
	if err != nil {
		return 0, apperrors.Storage("notification.GetUnreadCount", err)
	}
	return count, nil
}

// MarkAsRead 알림 읽음 처리 (다른 역할의 알림은 거부)
func (s *notificationService) MarkAsRead(notificationID uint, role model.UserRole) (*model.Notification, error) {
	const op = "notification.MarkAsRead"
	notFound := apperrors.New(apperrors.KindNotFound, apperrors.ResourceNotFound, "notification not found")

	notification, err := s.repo.GetNotificationByID(notificationID)
	if err != nil {
		return nil, apperrors.FromDB(op, err, notFound)
	}
	if notification.TargetRole != role {
		return nil, notFound.WithOp(op)
	}

	if err := s.repo.MarkAsRead(notificationID); err != nil {
		return nil, apperrors.Storage(op, err)
	}
	notification.IsRead = true
	return notification, nil
}

// MarkAllAsRead 역할의 알림 전체 읽음 처리
func (s *notificationService) MarkAllAsRead(role model.UserRole) error {
	if err := s.repo.MarkAllAsRead(role); err != nil {
		return apperrors.Storage("notification.MarkAllAsRead", err)
	}
	return nil
}

// PurgeRead 보관 기간이 지난 읽은 알림 삭제
func (s *notificationService) PurgeRead(olderThan time.Duration) (int64, error) {
	deleted, err := s.repo.DeleteReadBefore(time.Now().Add(-olderThan))
	if err != nil {
		return 0, apperrors.Storage("notification.PurgeRead", err)
	}
	if deleted > 0 {
		logger.Info("Read notifications purged", map[string]interface{}{
			"deleted":    deleted,
			"older_than": olderThan.String(),
		})
	}
	return deleted, nil
}
