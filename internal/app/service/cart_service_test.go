package service

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCartConsistent(t *testing.T, cart *model.Cart) {
	t.Helper()
	sum := decimal.Zero
	for _, item := range cart.Items {
		assert.Greater(t, item.Quantity, 0)
		assert.True(t, model.LineTotal(item.UnitPrice, item.Quantity).Equal(item.Subtotal),
			"subtotal %s for %d x %s", item.Subtotal, item.Quantity, item.UnitPrice)
		sum = sum.Add(item.Subtotal)
	}
	assert.True(t, sum.Equal(cart.TotalAmount), "total %s, sum of subtotals %s", cart.TotalAmount, sum)
}

func TestCartService_CheckoutScenario(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)

	_, err := env.carts.AddToCart(7, 10, 2, "")
	require.NoError(t, err)
	cart, err := env.carts.AddToCart(7, 10, 1, "")
	require.NoError(t, err)

	assert.True(t, dec(150000).Equal(cart.TotalAmount))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assertCartConsistent(t, cart)

	order, err := env.cashier.CheckoutCart(7, "Tran Thi B", "0912345678", model.PayMethodCash, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusNew, order.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, order.PaymentStatus)
	assert.True(t, dec(150000).Equal(order.TotalAmount))

	res, err := env.cashier.ConfirmCashPayment(context.Background(), order.ID, nil, "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, res.Order.PaymentStatus)

	payments, err := env.payments.ListPayments(order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, dec(150000).Equal(payments[0].Amount))
	assert.Equal(t, model.PayMethodCash, payments[0].Method)
	assert.Equal(t, model.PaymentRecordSuccess, payments[0].Status)
}

func TestCartService_GetOrCreateActiveCart(t *testing.T) {
	env := setupServices(t)

	first, err := env.carts.GetOrCreateActiveCart(7)
	require.NoError(t, err)
	assert.True(t, first.TotalAmount.IsZero())
	assert.Equal(t, model.CartStatusActive, first.Status)

	second, err := env.carts.GetOrCreateActiveCart(7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := env.carts.GetOrCreateActiveCart(8)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCartService_GetActiveCart_None(t *testing.T) {
	env := setupServices(t)

	_, err := env.carts.GetActiveCart(7)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartService_AddToCart_Rejections(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	off := env.createProduct(t, 11, "Bun Cha", 45000)
	require.NoError(t, env.productRp.UpdateAvailability(off.ID, false))

	tests := []struct {
		name      string
		productID uint
		quantity  int
		wantErr   error
	}{
		{name: "zero quantity", productID: 10, quantity: 0, wantErr: ErrInvalidQuantity},
		{name: "negative quantity", productID: 10, quantity: -2, wantErr: ErrInvalidQuantity},
		{name: "missing product", productID: 999, quantity: 1, wantErr: ErrProductNotFound},
		{name: "unavailable product", productID: 11, quantity: 1, wantErr: ErrProductUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.carts.AddToCart(7, tt.productID, tt.quantity, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCartService_AddToCart_SnapshotsProduct(t *testing.T) {
	env := setupServices(t)
	product := env.createProduct(t, 10, "Pho Bo", 50000)

	_, err := env.carts.AddToCart(7, 10, 1, "no onions")
	require.NoError(t, err)

	product.Price = dec(60000)
	product.Name = "Pho Bo Dac Biet"
	require.NoError(t, env.productRp.Update(product))

	cart, err := env.carts.AddToCart(7, 10, 1, "")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Pho Bo", cart.Items[0].ProductName)
	assert.True(t, dec(50000).Equal(cart.Items[0].UnitPrice))
	assert.Equal(t, "no onions", cart.Items[0].Notes)
	assertCartConsistent(t, cart)
}

func TestCartService_UpdateQuantity(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	env.createProduct(t, 11, "Cha Gio", 30000)

	_, err := env.carts.AddToCart(7, 10, 2, "")
	require.NoError(t, err)
	_, err = env.carts.AddToCart(7, 11, 1, "")
	require.NoError(t, err)

	cart, err := env.carts.UpdateQuantity(7, 10, 5)
	require.NoError(t, err)
	assert.True(t, dec(280000).Equal(cart.TotalAmount))
	assertCartConsistent(t, cart)

	// zero removes the line
	cart, err = env.carts.UpdateQuantity(7, 10, 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, uint(11), cart.Items[0].ProductID)
	assert.True(t, dec(30000).Equal(cart.TotalAmount))

	_, err = env.carts.UpdateQuantity(7, 10, 3)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	_, err = env.carts.UpdateQuantity(99, 10, 3)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartService_RemoveAndClear(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	env.createProduct(t, 11, "Cha Gio", 30000)

	_, err := env.carts.AddToCart(7, 10, 1, "")
	require.NoError(t, err)
	_, err = env.carts.AddToCart(7, 11, 2, "")
	require.NoError(t, err)

	cart, err := env.carts.RemoveFromCart(7, 10)
	require.NoError(t, err)
	assert.True(t, dec(60000).Equal(cart.TotalAmount))

	_, err = env.carts.RemoveFromCart(7, 10)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	cart, err = env.carts.ClearCart(7)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalAmount.IsZero())
	assert.True(t, cart.IsActive())
}

func TestCartService_ValidateCart(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	env.createProduct(t, 11, "Cha Gio", 30000)

	v, err := env.carts.ValidateCart(7)
	require.NoError(t, err)
	assert.False(t, v.Valid)

	_, err = env.carts.GetOrCreateActiveCart(7)
	require.NoError(t, err)
	v, err = env.carts.ValidateCart(7)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	require.Len(t, v.Problems, 1)
	assert.Equal(t, "cart is empty", v.Problems[0].Reason)

	_, err = env.carts.AddToCart(7, 10, 1, "")
	require.NoError(t, err)
	_, err = env.carts.AddToCart(7, 11, 1, "")
	require.NoError(t, err)
	v, err = env.carts.ValidateCart(7)
	require.NoError(t, err)
	assert.True(t, v.Valid)

	require.NoError(t, env.productRp.UpdateAvailability(11, false))
	require.NoError(t, env.productRp.Delete(10))
	v, err = env.carts.ValidateCart(7)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	require.Len(t, v.Problems, 2)
	assert.Equal(t, uint(10), v.Problems[0].ProductID)
	assert.Equal(t, uint(11), v.Problems[1].ProductID)
}

func TestCartService_AbandonStaleCarts(t *testing.T) {
	env := setupServices(t)

	stale, err := env.carts.GetOrCreateActiveCart(7)
	require.NoError(t, err)
	fresh, err := env.carts.GetOrCreateActiveCart(8)
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&model.Cart{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour)).Error)

	n, err := env.carts.AbandonStaleCarts(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = env.carts.GetActiveCart(7)
	assert.ErrorIs(t, err, ErrCartNotFound)
	still, err := env.carts.GetActiveCart(8)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, still.ID)

	// the customer starts over with a new cart
	next, err := env.carts.GetOrCreateActiveCart(7)
	require.NoError(t, err)
	assert.NotEqual(t, stale.ID, next.ID)
}
