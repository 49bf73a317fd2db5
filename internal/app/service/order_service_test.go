package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countOrders(t *testing.T, env *testEnv) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func TestOrderService_CreateOrderFromCart(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	env.createProduct(t, 11, "Tra Da", 5000)

	_, err := env.carts.AddToCart(7, 10, 2, "extra herbs")
	require.NoError(t, err)
	cart, err := env.carts.AddToCart(7, 11, 3, "")
	require.NoError(t, err)

	order, err := env.orders.CreateOrderFromCart(7, "Le Van C", "0987654321", model.PayMethodTransfer, "table 4")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusNew, order.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, model.PayMethodTransfer, order.PayMethod)
	assert.Equal(t, "Le Van C", order.CustomerName)
	assert.Equal(t, "table 4", order.Notes)
	require.NotNil(t, order.CustomerID)
	assert.Equal(t, uint(7), *order.CustomerID)
	require.NotNil(t, order.SourceCartID)
	assert.Equal(t, cart.ID, *order.SourceCartID)
	assert.True(t, dec(115000).Equal(order.TotalAmount))

	require.Len(t, order.Items, 2)
	sum := dec(0)
	for _, item := range order.Items {
		sum = sum.Add(item.Subtotal)
	}
	assert.True(t, sum.Equal(order.TotalAmount))
	assert.Equal(t, "Pho Bo", order.Items[0].ProductName)
	assert.Equal(t, "extra herbs", order.Items[0].Notes)

	// the cart is consumed
	_, err = env.carts.GetActiveCart(7)
	assert.ErrorIs(t, err, ErrCartNotFound)

	assert.Equal(t, []notify.EventType{notify.EventNewOrder}, env.events.types())
}

func TestOrderService_CreateOrderFromCart_UsesCustomerProfile(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	require.NoError(t, env.customers.Create(&model.Customer{ID: 7, Name: "Pham Thi D", Phone: "0911111111"}))

	_, err := env.carts.AddToCart(7, 10, 1, "")
	require.NoError(t, err)

	order, err := env.orders.CreateOrderFromCart(7, "", "", model.PayMethodCash, "")
	require.NoError(t, err)
	assert.Equal(t, "Pham Thi D", order.CustomerName)
	assert.Equal(t, "0911111111", order.PhoneNumber)
}

func TestOrderService_CreateOrderFromCart_Rejections(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)

	t.Run("no cart", func(t *testing.T) {
		_, err := env.orders.CreateOrderFromCart(7, "A", "1", model.PayMethodCash, "")
		assert.ErrorIs(t, err, ErrCartNotFound)
	})

	t.Run("empty cart", func(t *testing.T) {
		_, err := env.carts.GetOrCreateActiveCart(8)
		require.NoError(t, err)
		_, err = env.orders.CreateOrderFromCart(8, "A", "1", model.PayMethodCash, "")
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := env.carts.AddToCart(9, 10, 1, "")
		require.NoError(t, err)
		_, err = env.orders.CreateOrderFromCart(9, "A", "1", model.PayMethod(42), "")
		assert.ErrorIs(t, err, ErrUnsupportedMethod)
	})

	t.Run("no name", func(t *testing.T) {
		_, err := env.orders.CreateOrderFromCart(9, "  ", "", model.PayMethodCash, "")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	assert.Equal(t, int64(0), countOrders(t, env))
	assert.Zero(t, env.events.count(notify.EventNewOrder))
}

func TestOrderService_CreateOrderFromCart_RollsBackOnInvalidCart(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	env.createProduct(t, 11, "Bun Cha", 45000)

	_, err := env.carts.AddToCart(7, 10, 1, "")
	require.NoError(t, err)
	before, err := env.carts.AddToCart(7, 11, 1, "")
	require.NoError(t, err)

	require.NoError(t, env.productRp.UpdateAvailability(11, false))

	_, err = env.orders.CreateOrderFromCart(7, "A", "1", model.PayMethodCash, "")
	assert.ErrorIs(t, err, ErrCartInvalid)
	assert.Contains(t, err.Error(), "Bun Cha is unavailable")

	assert.Equal(t, int64(0), countOrders(t, env))
	cart, err := env.carts.GetActiveCart(7)
	require.NoError(t, err)
	assert.Equal(t, before.ID, cart.ID)
	assert.Len(t, cart.Items, 2)

	// fixing the cart makes checkout succeed with the same cart
	_, err = env.carts.RemoveFromCart(7, 11)
	require.NoError(t, err)
	order, err := env.orders.CreateOrderFromCart(7, "A", "1", model.PayMethodCash, "")
	require.NoError(t, err)
	assert.Equal(t, before.ID, *order.SourceCartID)
}

func TestOrderService_CreateOrderFromCart_RollsBackWhenCartFlipFails(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)

	before, err := env.carts.AddToCart(7, 10, 2, "")
	require.NoError(t, err)

	// the order and its items are already written when the cart update fails
	require.NoError(t, env.db.Callback().Update().Before("gorm:update").
		Register("test:fail_cart_update", func(tx *gorm.DB) {
			if tx.Statement.Table == "carts" {
				_ = tx.AddError(errors.New("cart update failed"))
			}
		}))

	_, err = env.orders.CreateOrderFromCart(7, "A", "1", model.PayMethodCash, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindStorage, apperrors.KindOf(err))

	require.NoError(t, env.db.Callback().Update().Remove("test:fail_cart_update"))

	assert.Equal(t, int64(0), countOrders(t, env))
	var items int64
	require.NoError(t, env.db.Model(&model.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)
	assert.Zero(t, env.events.count(notify.EventNewOrder))

	cart, err := env.carts.GetActiveCart(7)
	require.NoError(t, err)
	assert.Equal(t, before.ID, cart.ID)
	assert.Equal(t, model.CartStatusActive, cart.Status)
	assert.Len(t, cart.Items, 1)
}

func TestOrderService_OrderItemsIgnoreLaterMenuChanges(t *testing.T) {
	env := setupServices(t)
	product := env.createProduct(t, 10, "Pho Bo", 50000)

	order := env.placeOrder(t, 7, 10, 2)

	product.Price = dec(65000)
	product.Name = "Pho Bo Moi"
	require.NoError(t, env.productRp.Update(product))

	got, err := env.orders.GetOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Pho Bo", got.Items[0].ProductName)
	assert.True(t, dec(50000).Equal(got.Items[0].UnitPrice))
	assert.True(t, dec(100000).Equal(got.TotalAmount))
}

func TestOrderService_FullLifecycle(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	ctx := context.Background()

	order := env.placeOrder(t, 7, 10, 1)

	order, err := env.orders.Confirm(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, order.Status)

	_, err = env.orders.SendToKitchen(order.ID)
	assert.ErrorIs(t, err, ErrOrderNotPaid)

	_, err = env.payments.ProcessPayment(ctx, order.ID, model.PayMethodCash, PaymentRequest{})
	require.NoError(t, err)

	steps := []struct {
		do   func(uint) (*model.Order, error)
		want model.OrderStatus
	}{
		{env.orders.SendToKitchen, model.OrderStatusPreparing},
		{env.orders.StartCooking, model.OrderStatusCooking},
		{env.orders.MarkReady, model.OrderStatusReady},
		{env.orders.Complete, model.OrderStatusCompleted},
	}
	for _, step := range steps {
		order, err = step.do(order.ID)
		require.NoError(t, err)
		assert.Equal(t, step.want, order.Status)
	}

	assert.Equal(t, []notify.EventType{
		notify.EventNewOrder,
		notify.EventOrderUpdated, // confirmed
		notify.EventPaymentConfirmed,
		notify.EventOrderUpdated, // preparing
		notify.EventOrderUpdated, // cooking
		notify.EventOrderUpdated, // ready
		notify.EventOrderReady,
		notify.EventOrderUpdated, // completed
	}, env.events.types())

	// terminal
	_, err = env.orders.Cancel(order.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = env.orders.Complete(order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_RejectsSkippedSteps(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	order := env.paidOrder(t, 7, 10, 1)

	tests := []struct {
		name string
		do   func(uint) (*model.Order, error)
	}{
		{"send to kitchen before confirm", env.orders.SendToKitchen},
		{"start cooking from new", env.orders.StartCooking},
		{"ready from new", env.orders.MarkReady},
		{"complete from new", env.orders.Complete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.do(order.ID)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}

	got, err := env.orders.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusNew, got.Status)

	_, err = env.orders.Confirm(9999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	order := env.placeOrder(t, 7, 10, 1)

	got, err := env.orders.UpdateOrderStatus(order.ID, model.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, got.Status)

	_, err = env.orders.UpdateOrderStatus(order.ID, model.OrderStatusNew)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.orders.UpdateOrderStatus(order.ID, model.OrderStatusReady)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.orders.UpdateOrderStatus(order.ID, model.OrderStatus(99))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestOrderService_Cancel(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)

	order := env.placeOrder(t, 7, 10, 1)

	cancelled, err := env.orders.Cancel(order.ID, "customer left")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.Contains(t, cancelled.Notes, "cancelled: customer left")

	_, err = env.orders.Confirm(order.ID)
	assert.ErrorIs(t, err, ErrOrderCancelled)
	_, err = env.orders.Cancel(order.ID, "")
	assert.ErrorIs(t, err, ErrOrderCancelled)

	_, err = env.payments.ProcessPayment(context.Background(), order.ID, model.PayMethodCash, PaymentRequest{})
	assert.ErrorIs(t, err, ErrOrderCancelled)
}

func TestOrderService_CancelAllowedUntilCooking(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)

	preparing := env.paidOrder(t, 7, 10, 1)
	_, err := env.orders.Confirm(preparing.ID)
	require.NoError(t, err)
	_, err = env.orders.SendToKitchen(preparing.ID)
	require.NoError(t, err)

	got, err := env.orders.Cancel(preparing.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)

	cooking := env.paidOrder(t, 8, 10, 1)
	for _, step := range []func(uint) (*model.Order, error){env.orders.Confirm, env.orders.SendToKitchen, env.orders.StartCooking} {
		_, err := step(cooking.ID)
		require.NoError(t, err)
	}
	_, err = env.orders.Cancel(cooking.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_CompleteAwardsLoyaltyPoints(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	require.NoError(t, env.customers.Create(&model.Customer{ID: 7, Name: "Vo Thi E", Phone: "0922222222"}))

	order := env.paidOrder(t, 7, 10, 3)
	for _, step := range []func(uint) (*model.Order, error){
		env.orders.Confirm, env.orders.SendToKitchen, env.orders.StartCooking, env.orders.MarkReady, env.orders.Complete,
	} {
		_, err := step(order.ID)
		require.NoError(t, err)
	}

	customer, err := env.customers.FindByID(7)
	require.NoError(t, err)
	assert.Equal(t, 15, customer.LoyaltyPoints)
}

func TestOrderService_UpdatePaymentStatus(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	order := env.placeOrder(t, 7, 10, 1)
	env.events.reset()

	got, err := env.orders.UpdatePaymentStatus(order.ID, model.PaymentStatusPaid)
	require.NoError(t, err)
	assert.True(t, got.IsPaid())
	assert.Equal(t, 1, env.events.count(notify.EventPaymentConfirmed))

	_, err = env.orders.UpdatePaymentStatus(9999, model.PaymentStatusPaid)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_ListOrders(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)

	first := env.placeOrder(t, 7, 10, 1)
	env.placeOrder(t, 7, 10, 2)
	env.placeOrder(t, 8, 10, 1)
	_, err := env.orders.Confirm(first.ID)
	require.NoError(t, err)

	orders, total, err := env.orders.ListCustomerOrders(7, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)

	orders, total, err = env.orders.ListOrders(model.OrderFilter{Statuses: []model.OrderStatus{model.OrderStatusNew}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, o := range orders {
		assert.Equal(t, model.OrderStatusNew, o.Status)
	}

	_, _, err = env.orders.ListOrders(model.OrderFilter{Statuses: []model.OrderStatus{model.OrderStatus(42)}})
	assert.Error(t, err)
}
