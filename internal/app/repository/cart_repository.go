package repository

import (
	"errors"
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository

	Create(cart *model.Cart) error
	FindByID(id uint) (*model.Cart, error)
	FindActiveByCustomer(customerID uint) (*model.Cart, error)
	FindActiveByCustomerForUpdate(customerID uint) (*model.Cart, error)
	FindByCustomer(customerID uint) ([]model.Cart, error)

	FindItem(cartID, productID uint) (*model.CartItem, error)
	UpsertItem(item *model.CartItem) error
	SetItemQuantity(cartID, productID uint, quantity int) (bool, error)
	DeleteItem(cartID, productID uint) (bool, error)
	DeleteItems(cartID uint) error
	RecomputeTotal(cartID uint) (decimal.Decimal, error)

	MarkCheckedOut(cartID uint) (bool, error)
	AbandonStale(cutoff time.Time) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) Create(cart *model.Cart) error {
	logger.Debug("Creating cart in database", map[string]interface{}{
		"customer_id": cart.CustomerID,
	})

	if err := r.db.Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"customer_id": cart.CustomerID,
		})
		return err
	}

	logger.Debug("Cart created in database", map[string]interface{}{
		"cart_id":     cart.ID,
		"customer_id": cart.CustomerID,
	})
	return nil
}

func (r *cartRepository) withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(q *gorm.DB) *gorm.DB {
		return q.Order("cart_items.id ASC")
	})
}

func (r *cartRepository) FindByID(id uint) (*model.Cart, error) {
	logger.Debug("Finding cart by ID in database", map[string]interface{}{
		"cart_id": id,
	})

	var cart model.Cart
	if err := r.withItems(r.db).First(&cart, id).Error; err != nil {
		logLookupError("Failed to find cart by ID in database", err, map[string]interface{}{
			"cart_id": id,
		})
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindActiveByCustomer(customerID uint) (*model.Cart, error) {
	logger.Debug("Finding active cart in database", map[string]interface{}{
		"customer_id": customerID,
	})

	var cart model.Cart
	err := r.withItems(r.db).
		Where("customer_id = ? AND status = ?", customerID, model.CartStatusActive).
		First(&cart).Error
	if err != nil {
		logLookupError("Failed to find active cart in database", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return nil, err
	}

	logger.Debug("Active cart found in database", map[string]interface{}{
		"cart_id":     cart.ID,
		"customer_id": customerID,
		"items":       len(cart.Items),
	})
	return &cart, nil
}

// FindActiveByCustomerForUpdate locks the cart row for the rest of the
// transaction. Items are loaded after the lock is taken.
func (r *cartRepository) FindActiveByCustomerForUpdate(customerID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ? AND status = ?", customerID, model.CartStatusActive).
		First(&cart).Error
	if err != nil {
		logLookupError("Failed to lock active cart in database", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return nil, err
	}

	if err := r.db.Where("cart_id = ?", cart.ID).Order("id ASC").Find(&cart.Items).Error; err != nil {
		logger.Error("Failed to load cart items in database", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindByCustomer(customerID uint) ([]model.Cart, error) {
	var carts []model.Cart
	err := r.withItems(r.db).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&carts).Error
	if err != nil {
		logger.Error("Failed to list carts by customer in database", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return nil, err
	}
	return carts, nil
}

func (r *cartRepository) FindItem(cartID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if err != nil {
		logLookupError("Failed to find cart item in database", err, map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
		})
		return nil, err
	}
	return &item, nil
}

// UpsertItem inserts the line or, when (cart_id, product_id) already exists,
// adds item.Quantity to it. The stored unit price snapshot is kept.
func (r *cartRepository) UpsertItem(item *model.CartItem) error {
	logger.Debug("Upserting cart item in database", map[string]interface{}{
		"cart_id":    item.CartID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"subtotal":   gorm.Expr("cart_items.unit_price * (cart_items.quantity + excluded.quantity)"),
			"notes":      gorm.Expr("CASE WHEN excluded.notes <> '' THEN excluded.notes ELSE cart_items.notes END"),
			"updated_at": time.Now(),
		}),
	}).Create(item).Error
	if err != nil {
		logger.Error("Failed to upsert cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) SetItemQuantity(cartID, productID uint, quantity int) (bool, error) {
	logger.Debug("Updating cart item quantity in database", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
		"quantity":   quantity,
	})

	result := r.db.Model(&model.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Updates(map[string]interface{}{
			"quantity": quantity,
			"subtotal": gorm.Expr("unit_price * ?", quantity),
		})
	if result.Error != nil {
		logger.Error("Failed to update cart item quantity in database", result.Error, map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *cartRepository) DeleteItem(cartID, productID uint) (bool, error) {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
	})

	result := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete cart item from database", result.Error, map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *cartRepository) DeleteItems(cartID uint) error {
	logger.Debug("Deleting cart items from database", map[string]interface{}{
		"cart_id": cartID,
	})

	if err := r.db.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items from database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}

// RecomputeTotal re-aggregates SUM(subtotal) and stores it on the cart.
func (r *cartRepository) RecomputeTotal(cartID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Model(&model.CartItem{}).
		Select("COALESCE(SUM(subtotal), 0)").
		Where("cart_id = ?", cartID).
		Row().Scan(&total)
	if err != nil {
		logger.Error("Failed to sum cart items in database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return decimal.Zero, err
	}
	total = total.Round(2)

	err = r.db.Model(&model.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"total_amount": total,
			"updated_at":   time.Now(),
		}).Error
	if err != nil {
		logger.Error("Failed to update cart total in database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return decimal.Zero, err
	}

	logger.Debug("Cart total recomputed in database", map[string]interface{}{
		"cart_id": cartID,
		"total":   total.String(),
	})
	return total, nil
}

// MarkCheckedOut flips an Active cart to CheckedOut and releases the
// per-customer active slot. False when the cart was no longer Active.
func (r *cartRepository) MarkCheckedOut(cartID uint) (bool, error) {
	result := r.db.Model(&model.Cart{}).
		Where("id = ? AND status = ?", cartID, model.CartStatusActive).
		Updates(map[string]interface{}{
			"status":             model.CartStatusCheckedOut,
			"active_customer_id": nil,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to check out cart in database", result.Error, map[string]interface{}{
			"cart_id": cartID,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *cartRepository) AbandonStale(cutoff time.Time) (int64, error) {
	result := r.db.Model(&model.Cart{}).
		Where("status = ? AND updated_at < ?", model.CartStatusActive, cutoff).
		Updates(map[string]interface{}{
			"status":             model.CartStatusAbandoned,
			"active_customer_id": nil,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to abandon stale carts in database", result.Error, map[string]interface{}{
			"cutoff": cutoff,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// logLookupError keeps routine misses out of the error log.
func logLookupError(msg string, err error, fields map[string]interface{}) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Debug(msg, fields)
		return
	}
	logger.Error(msg, err, fields)
}
