package scheduler

import (
	"time"

	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/robfig/cron/v3"
)

// IngredientSweeper 재료 상태 재계산 (유통기한 / 재고 부족)
type IngredientSweeper interface {
	RefreshStatuses() (int, error)
}

// CartSweeper 방치된 장바구니 정리
type CartSweeper interface {
	AbandonStaleCarts(olderThan time.Duration) (int64, error)
}

// NotificationPurger 읽은 알림 보관 기간 정리
type NotificationPurger interface {
	PurgeRead(olderThan time.Duration) (int64, error)
}

type Config struct {
	IngredientSpec   string
	CartSpec         string
	CartAbandonAfter time.Duration
	// 비어있으면 알림 정리 작업을 등록하지 않는다
	NotificationSpec      string
	NotificationRetention time.Duration
}

// MaintenanceScheduler 주기적 정리 작업 스케줄러
type MaintenanceScheduler struct {
	cron          *cron.Cron
	cfg           Config
	ingredients   IngredientSweeper
	carts         CartSweeper
	notifications NotificationPurger
}

// NewMaintenanceScheduler 스케줄러 생성
func NewMaintenanceScheduler(cfg Config, ingredients IngredientSweeper, carts CartSweeper, notifications NotificationPurger) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.DiscardLogger),
		)),
		cfg:           cfg,
		ingredients:   ingredients,
		carts:         carts,
		notifications: notifications,
	}
}

// SweepIngredients 재료 상태 갱신. 상태가 바뀐 재료는 서비스가 알림을 보낸다.
func (s *MaintenanceScheduler) SweepIngredients() {
	changed, err := s.ingredients.RefreshStatuses()
	if err != nil {
		logger.Error("Scheduled ingredient sweep failed", err)
		return
	}
	logger.Info("Scheduled ingredient sweep finished", map[string]interface{}{
		"changed": changed,
	})
}

// SweepCarts 오래된 Active 장바구니를 Abandoned 처리
func (s *MaintenanceScheduler) SweepCarts() {
	abandoned, err := s.carts.AbandonStaleCarts(s.cfg.CartAbandonAfter)
	if err != nil {
		logger.Error("Scheduled cart sweep failed", err)
		return
	}
	logger.Info("Scheduled cart sweep finished", map[string]interface{}{
		"abandoned":  abandoned,
		"older_than": s.cfg.CartAbandonAfter.String(),
	})
}

// PurgeNotifications 보관 기간이 지난 읽은 알림 삭제
func (s *MaintenanceScheduler) PurgeNotifications() {
	deleted, err := s.notifications.PurgeRead(s.cfg.NotificationRetention)
	if err != nil {
		logger.Error("Scheduled notification purge failed", err)
		return
	}
	logger.Info("Scheduled notification purge finished", map[string]interface{}{
		"deleted":   deleted,
		"retention": s.cfg.NotificationRetention.String(),
	})
}

// Start 스케줄러 시작
func (s *MaintenanceScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.IngredientSpec, s.SweepIngredients); err != nil {
		logger.Error("Failed to add cron job for ingredient sweep", err, map[string]interface{}{
			"spec": s.cfg.IngredientSpec,
		})
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.CartSpec, s.SweepCarts); err != nil {
		logger.Error("Failed to add cron job for cart sweep", err, map[string]interface{}{
			"spec": s.cfg.CartSpec,
		})
		return err
	}
	if s.cfg.NotificationSpec != "" && s.notifications != nil {
		if _, err := s.cron.AddFunc(s.cfg.NotificationSpec, s.PurgeNotifications); err != nil {
			logger.Error("Failed to add cron job for notification purge", err, map[string]interface{}{
				"spec": s.cfg.NotificationSpec,
			})
			return err
		}
	}

	s.cron.Start()
	logger.Info("Maintenance scheduler started", map[string]interface{}{
		"ingredient_spec": s.cfg.IngredientSpec,
		"cart_spec":       s.cfg.CartSpec,
		"jobs":            len(s.cron.Entries()),
	})
	return nil
}

// Stop 스케줄러 중지. 실행 중인 작업이 끝날 때까지 기다린다.
func (s *MaintenanceScheduler) Stop() {
	logger.Info("Stopping maintenance scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Maintenance scheduler stopped")
}

// Entries 등록된 작업 수
func (s *MaintenanceScheduler) Entries() int {
	return len(s.cron.Entries())
}
