package repository

import (
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"gorm.io/gorm"
)

// NotificationRepository 스태프 알림함 저장소
type NotificationRepository interface {
	CreateNotifications(notifications []model.Notification) error
	GetNotificationByID(id uint) (*model.Notification, error)
	GetNotifications(role model.UserRole, notifType string, isRead *bool, limit, offset int) ([]model.Notification, int64, error)
	GetUnreadCount(role model.UserRole) (int64, error)
	MarkAsRead(id uint) error
	MarkAllAsRead(role model.UserRole) error
	DeleteReadBefore(cutoff time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) inbox(role model.UserRole) *gorm.DB {
	return r.db.Model(&model.Notification{}).Where("target_role = ?", role)
}

// CreateNotifications 이벤트 1건의 역할별 알림을 한 번에 저장
func (r *notificationRepository) CreateNotifications(notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	if err := r.db.Create(&notifications).Error; err != nil {
		logger.Error("Failed to store notifications", err, map[string]interface{}{
			"type":  notifications[0].Type,
			"count": len(notifications),
		})
		return err
	}

	logger.Debug("Notifications stored", map[string]interface{}{
		"type":  notifications[0].Type,
		"count": len(notifications),
	})
	return nil
}

func (r *notificationRepository) GetNotificationByID(id uint) (*model.Notification, error) {
	var notification model.Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		logLookupError("Failed to find notification", err, map[string]interface{}{
			"notification_id": id,
		})
		return nil, err
	}
	return &notification, nil
}

// GetNotifications 역할 알림함 (최신순)
func (r *notificationRepository) GetNotifications(
	role model.UserRole,
	notifType string,
	isRead *bool,
	limit, offset int,
) ([]model.Notification, int64, error) {
	query := r.inbox(role)
	if notifType != "" {
		query = query.Where("type = ?", notifType)
	}
	if isRead != nil {
		query = query.Where("is_read = ?", *isRead)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count notifications", err, map[string]interface{}{
			"role": role,
		})
		return nil, 0, err
	}

	var notifications []model.Notification
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		logger.Error("Failed to list notifications", err, map[string]interface{}{
			"role": role,
			"type": notifType,
		})
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *notificationRepository) GetUnreadCount(role model.UserRole) (int64, error) {
	var count int64
	if err := r.inbox(role).Where("is_read = ?", false).Count(&count).Error; err != nil {
		logger.Error("Failed to count unread notifications", err, map[string]interface{}{
			"role": role,
		})
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) MarkAsRead(id uint) error {
	return r.db.Model(&model.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

func (r *notificationRepository) MarkAllAsRead(role model.UserRole) error {
	result := r.inbox(role).Where("is_read = ?", false).Update("is_read", true)
	if result.Error != nil {
		logger.Error("Failed to mark notifications read", result.Error, map[string]interface{}{
			"role": role,
		})
		return result.Error
	}

	logger.Debug("Notifications marked read", map[string]interface{}{
		"role":    role,
		"updated": result.RowsAffected,
	})
	return nil
}

// DeleteReadBefore 읽은 알림 중 cutoff 이전 것을 삭제. 안 읽은 알림은 남긴다.
func (r *notificationRepository) DeleteReadBefore(cutoff time.Time) (int64, error) {
	result := r.db.
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&model.Notification{})
	if result.Error != nil {
		logger.Error("Failed to purge read notifications", result.Error, map[string]interface{}{
			"cutoff": cutoff,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
