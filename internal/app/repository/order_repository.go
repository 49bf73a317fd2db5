package repository

import (
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository

	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByIDForUpdate(id uint) (*model.Order, error)
	List(filter model.OrderFilter) ([]model.Order, int64, error)

	TransitionStatus(id uint, from []model.OrderStatus, to model.OrderStatus, requirePaid bool) (bool, error)
	ClaimChef(id, chefID uint) (bool, error)
	UpdatePaymentStatus(id uint, status model.PaymentStatus) error
	SetPaymentStatusIf(id uint, from []model.PaymentStatus, to model.PaymentStatus) (bool, error)
	SetPayMethod(id uint, method model.PayMethod) error
	AppendNote(id uint, note string) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) preloadOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(q *gorm.DB) *gorm.DB {
		return q.Order("order_items.id ASC")
	})
}

// Create inserts the order together with its Items.
func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"customer_id":  order.CustomerID,
		"total_amount": order.TotalAmount.String(),
		"items":        len(order.Items),
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"customer_id":  order.CustomerID,
			"total_amount": order.TotalAmount.String(),
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":     order.ID,
		"total_amount": order.TotalAmount.String(),
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder(r.db).First(&order, id).Error; err != nil {
		logLookupError("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status.String(),
	})
	return &order, nil
}

func (r *orderRepository) FindByIDForUpdate(id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error
	if err != nil {
		logLookupError("Failed to lock order in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(filter model.OrderFilter) ([]model.Order, int64, error) {
	query := r.db.Model(&model.Order{})

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ChefID != nil {
		query = query.Where("assigned_chef_id = ?", *filter.ChefID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count orders in database", err)
		return nil, 0, err
	}

	if filter.OldestFirst {
		query = query.Order("created_at ASC").Order("id ASC")
	} else {
		query = query.Order("created_at DESC").Order("id DESC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var orders []model.Order
	if err := r.preloadOrder(query).Find(&orders).Error; err != nil {
		logger.Error("Failed to list orders in database", err, map[string]interface{}{
			"statuses": filter.Statuses,
		})
		return nil, 0, err
	}

	logger.Debug("Orders listed from database", map[string]interface{}{
		"count": len(orders),
		"total": total,
	})
	return orders, total, nil
}

// TransitionStatus moves the order to `to` only if its current status is one
// of `from` (and, with requirePaid, it is Paid). The check and the write are
// one statement, so a concurrent transition makes this return false.
func (r *orderRepository) TransitionStatus(id uint, from []model.OrderStatus, to model.OrderStatus, requirePaid bool) (bool, error) {
	logger.Debug("Transitioning order status in database", map[string]interface{}{
		"order_id": id,
		"to":       to.String(),
	})

	query := r.db.Model(&model.Order{}).Where("id = ? AND status IN ?", id, from)
	if requirePaid {
		query = query.Where("payment_status = ?", model.PaymentStatusPaid)
	}
	result := query.Updates(map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		logger.Error("Failed to transition order status in database", result.Error, map[string]interface{}{
			"order_id": id,
			"to":       to.String(),
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClaimChef assigns the chef unless another chef already holds the order.
func (r *orderRepository) ClaimChef(id, chefID uint) (bool, error) {
	result := r.db.Model(&model.Order{}).
		Where("id = ? AND (assigned_chef_id IS NULL OR assigned_chef_id = ?)", id, chefID).
		Updates(map[string]interface{}{
			"assigned_chef_id": chefID,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to assign chef in database", result.Error, map[string]interface{}{
			"order_id": id,
			"chef_id":  chefID,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *orderRepository) UpdatePaymentStatus(id uint, status model.PaymentStatus) error {
	logger.Debug("Updating order payment status in database", map[string]interface{}{
		"order_id":       id,
		"payment_status": status.String(),
	})

	result := r.db.Model(&model.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"payment_status": status,
		"updated_at":     time.Now(),
	})
	if result.Error != nil {
		logger.Error("Failed to update order payment status in database", result.Error, map[string]interface{}{
			"order_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetPaymentStatusIf is the compare-and-set used by payment and refund.
func (r *orderRepository) SetPaymentStatusIf(id uint, from []model.PaymentStatus, to model.PaymentStatus) (bool, error) {
	result := r.db.Model(&model.Order{}).
		Where("id = ? AND payment_status IN ?", id, from).
		Updates(map[string]interface{}{
			"payment_status": to,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to set order payment status in database", result.Error, map[string]interface{}{
			"order_id": id,
			"to":       to.String(),
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *orderRepository) SetPayMethod(id uint, method model.PayMethod) error {
	err := r.db.Model(&model.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"pay_method": method,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		logger.Error("Failed to update order pay method in database", err, map[string]interface{}{
			"order_id": id,
			"method":   method.String(),
		})
	}
	return err
}

// AppendNote adds a line to the order notes without touching the rest of the row.
func (r *orderRepository) AppendNote(id uint, note string) error {
	var order model.Order
	if err := r.db.Select("id", "notes").First(&order, id).Error; err != nil {
		logLookupError("Failed to find order for note in database", err, map[string]interface{}{
			"order_id": id,
		})
		return err
	}
	notes := note
	if order.Notes != "" {
		notes = order.Notes + "\n" + note
	}
	err := r.db.Model(&model.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"notes":      notes,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		logger.Error("Failed to append order note in database", err, map[string]interface{}{
			"order_id": id,
		})
	}
	return err
}
