package repository

import (
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderAggregate is one bucket of order counts and totals.
type OrderAggregate struct {
	Count int64
	Total decimal.Decimal
}

// ProductSales is one row of the best-sellers report.
type ProductSales struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// ReportRepository runs read-only aggregate queries. All ranges are
// half-open: from <= t < to.
type ReportRepository interface {
	PaidOrderTotal(from, to time.Time) (OrderAggregate, error)
	OrdersByStatus(from, to time.Time) (map[model.OrderStatus]int64, error)
	PaidOrdersByMethod(from, to time.Time) (map[model.PayMethod]OrderAggregate, error)
	RefundTotal(from, to time.Time) (OrderAggregate, error)
	PaidOrdersBetween(from, to time.Time) ([]model.Order, error)
	TopProducts(from, to time.Time, limit int) ([]ProductSales, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// paidOrders matches orders that collected money, including ones refunded
// later; refunds are reported separately.
func (r *reportRepository) paidOrders(from, to time.Time) *gorm.DB {
	return r.db.Model(&model.Order{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("payment_status IN ?", []model.PaymentStatus{model.PaymentStatusPaid, model.PaymentStatusRefunded})
}

func (r *reportRepository) PaidOrderTotal(from, to time.Time) (OrderAggregate, error) {
	var agg OrderAggregate
	row := r.paidOrders(from, to).Select("COUNT(*), COALESCE(SUM(total_amount), 0)").Row()
	if err := row.Scan(&agg.Count, &agg.Total); err != nil {
		logger.Error("Failed to aggregate paid orders", err, map[string]interface{}{
			"from": from,
			"to":   to,
		})
		return OrderAggregate{}, err
	}
	agg.Total = agg.Total.Round(2)
	return agg, nil
}

func (r *reportRepository) OrdersByStatus(from, to time.Time) (map[model.OrderStatus]int64, error) {
	rows, err := r.db.Model(&model.Order{}).
		Select("status, COUNT(*)").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("status").
		Rows()
	if err != nil {
		logger.Error("Failed to count orders by status", err)
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.OrderStatus]int64)
	for rows.Next() {
		var status model.OrderStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *reportRepository) PaidOrdersByMethod(from, to time.Time) (map[model.PayMethod]OrderAggregate, error) {
	rows, err := r.paidOrders(from, to).
		Select("pay_method, COUNT(*), COALESCE(SUM(total_amount), 0)").
		Group("pay_method").
		Rows()
	if err != nil {
		logger.Error("Failed to aggregate orders by pay method", err)
		return nil, err
	}
	defer rows.Close()

	result := make(map[model.PayMethod]OrderAggregate)
	for rows.Next() {
		var method model.PayMethod
		var agg OrderAggregate
		if err := rows.Scan(&method, &agg.Count, &agg.Total); err != nil {
			return nil, err
		}
		agg.Total = agg.Total.Round(2)
		result[method] = agg
	}
	return result, rows.Err()
}

// RefundTotal sums refund payments by paid_at; Total is positive.
func (r *reportRepository) RefundTotal(from, to time.Time) (OrderAggregate, error) {
	var agg OrderAggregate
	row := r.db.Model(&model.Payment{}).
		Select("COUNT(*), COALESCE(SUM(amount), 0)").
		Where("paid_at >= ? AND paid_at < ?", from, to).
		Where("status = ? AND amount < 0", model.PaymentRecordSuccess).
		Row()
	if err := row.Scan(&agg.Count, &agg.Total); err != nil {
		logger.Error("Failed to aggregate refunds", err)
		return OrderAggregate{}, err
	}
	agg.Total = agg.Total.Abs().Round(2)
	return agg, nil
}

func (r *reportRepository) PaidOrdersBetween(from, to time.Time) ([]model.Order, error) {
	var orders []model.Order
	if err := r.paidOrders(from, to).Order("created_at ASC").Find(&orders).Error; err != nil {
		logger.Error("Failed to list paid orders", err)
		return nil, err
	}
	return orders, nil
}

// TopProducts ranks products by units sold on non-cancelled orders.
func (r *reportRepository) TopProducts(from, to time.Time, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Table("order_items").
		Select("order_items.product_id, order_items.product_name, SUM(order_items.quantity), COALESCE(SUM(order_items.subtotal), 0)").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.created_at < ?", from, to).
		Where("orders.status <> ?", model.OrderStatusCancelled).
		Group("order_items.product_id, order_items.product_name").
		Order("SUM(order_items.quantity) DESC").
		Order("order_items.product_id ASC").
		Limit(limit).
		Rows()
	if err != nil {
		logger.Error("Failed to rank top products", err)
		return nil, err
	}
	defer rows.Close()

	var result []ProductSales
	for rows.Next() {
		var ps ProductSales
		if err := rows.Scan(&ps.ProductID, &ps.ProductName, &ps.Quantity, &ps.Revenue); err != nil {
			return nil, err
		}
		ps.Revenue = ps.Revenue.Round(2)
		result = append(result, ps)
	}
	return result, rows.Err()
}
