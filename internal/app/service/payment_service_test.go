package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_CashWithChange(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	order := env.placeOrder(t, 7, 10, 3)
	ctx := context.Background()

	short := dec(100000)
	_, err := env.cashier.ConfirmCashPayment(ctx, order.ID, &short, "")
	assert.ErrorIs(t, err, ErrInsufficientCash)

	got, err := env.orders.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusUnpaid, got.PaymentStatus)

	tendered := dec(200000)
	res, err := env.cashier.ConfirmCashPayment(ctx, order.ID, &tendered, "")
	require.NoError(t, err)
	assert.True(t, res.Order.IsPaid())
	require.NotNil(t, res.Payment.ChangeDue)
	assert.True(t, dec(50000).Equal(*res.Payment.ChangeDue))
	assert.True(t, dec(150000).Equal(res.Payment.Amount))
	assert.NotEmpty(t, res.Payment.Reference)
}

func TestPaymentService_TransferUpdatesPayMethod(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	order := env.placeOrder(t, 7, 10, 1)
	require.Equal(t, model.PayMethodCash, order.PayMethod)

	res, err := env.cashier.ConfirmTransferPayment(context.Background(), order.ID, "VCB ref 8812")
	require.NoError(t, err)
	assert.Equal(t, model.PayMethodTransfer, res.Order.PayMethod)
	assert.Equal(t, model.PayMethodTransfer, res.Payment.Method)
	assert.Nil(t, res.Payment.ChangeDue)
	assert.Equal(t, "VCB ref 8812", res.Payment.Notes)
}

func TestPaymentService_Rejections(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	order := env.placeOrder(t, 7, 10, 1)
	ctx := context.Background()

	_, err := env.payments.ProcessPayment(ctx, order.ID, model.PayMethod(42), PaymentRequest{})
	assert.ErrorIs(t, err, ErrUnsupportedMethod)

	_, err = env.payments.ProcessPayment(ctx, 9999, model.PayMethodCash, PaymentRequest{})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = env.payments.ProcessPayment(ctx, order.ID, model.PayMethodCard, PaymentRequest{})
	require.NoError(t, err)

	_, err = env.payments.ProcessPayment(ctx, order.ID, model.PayMethodCash, PaymentRequest{})
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	payments, err := env.payments.ListPayments(order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	_, err = env.payments.ListPayments(9999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPaymentService_ConcurrentPaymentsSucceedOnce(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	order := env.placeOrder(t, 7, 10, 2)
	env.events.reset()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.payments.ProcessPayment(context.Background(), order.ID, model.PayMethodCash, PaymentRequest{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.Is(err, ErrAlreadyPaid):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)

	payments, err := env.payments.ListPayments(order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, 1, env.events.count(notify.EventPaymentConfirmed))
}

func TestPaymentService_IdempotencyKeyReplays(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	order := env.placeOrder(t, 7, 10, 1)
	other := env.placeOrder(t, 8, 10, 1)
	ctx := context.Background()

	req := PaymentRequest{IdempotencyKey: "till-1-0001"}
	first, err := env.payments.ProcessPayment(ctx, order.ID, model.PayMethodCash, req)
	require.NoError(t, err)
	assert.Equal(t, "till-1-0001", first.Payment.Reference)

	again, err := env.payments.ProcessPayment(ctx, order.ID, model.PayMethodCash, req)
	require.NoError(t, err)
	assert.Equal(t, first.Payment.ID, again.Payment.ID)
	assert.True(t, again.Order.IsPaid())

	_, err = env.payments.ProcessPayment(ctx, other.ID, model.PayMethodCash, req)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	payments, err := env.payments.ListPayments(order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestPaymentService_LockHeldElsewhere(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	order := env.placeOrder(t, 7, 10, 1)

	locker := &fakeLocker{}
	payments := NewPaymentService(env.db,
		repository.NewOrderRepository(env.db),
		repository.NewPaymentRepository(env.db),
		locker, env.events)

	ctx := context.Background()
	ok, release, err := locker.TryLock(ctx, fmt.Sprintf("payment:order:%d", order.ID), PaymentLockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = payments.ProcessPayment(ctx, order.ID, model.PayMethodCash, PaymentRequest{})
	assert.ErrorIs(t, err, ErrPaymentInProgress)

	release()
	res, err := payments.ProcessPayment(ctx, order.ID, model.PayMethodCash, PaymentRequest{})
	require.NoError(t, err)
	assert.True(t, res.Order.IsPaid())

	// the service released its own hold
	ok, _, err = locker.TryLock(ctx, fmt.Sprintf("payment:order:%d", order.ID), PaymentLockTTL)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPaymentService_FailedAttemptCanBeRetried(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	order := env.placeOrder(t, 7, 10, 1)
	ctx := context.Background()

	failed, err := env.payments.RecordFailedPayment(ctx, order.ID, model.PayMethodCard, "card declined")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRecordFailed, failed.Status)

	got, err := env.orders.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, got.PaymentStatus)

	_, err = env.orders.Confirm(order.ID)
	require.NoError(t, err)
	_, err = env.orders.SendToKitchen(order.ID)
	assert.ErrorIs(t, err, ErrOrderNotPaid)

	res, err := env.payments.ProcessPayment(ctx, order.ID, model.PayMethodCash, PaymentRequest{})
	require.NoError(t, err)
	assert.True(t, res.Order.IsPaid())

	_, err = env.payments.RecordFailedPayment(ctx, order.ID, model.PayMethodCard, "")
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	payments, err := env.payments.ListPayments(order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestPaymentService_Refund(t *testing.T) {
	env := setupServices(t)
	env.createProduct(t, 10, "Pho Bo", 50000)
	ctx := context.Background()

	unpaid := env.placeOrder(t, 7, 10, 1)
	_, err := env.payments.Refund(ctx, unpaid.ID, "mistake")
	assert.ErrorIs(t, err, ErrNotRefundable)

	paid := env.paidOrder(t, 8, 10, 2)
	refund, err := env.payments.Refund(ctx, paid.ID, "cold soup")
	require.NoError(t, err)
	assert.True(t, refund.IsRefund())
	assert.True(t, dec(-100000).Equal(refund.Amount))
	assert.Equal(t, "cold soup", refund.Notes)

	got, err := env.orders.GetOrder(paid.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, got.PaymentStatus)
	assert.Equal(t, model.OrderStatusNew, got.Status)

	_, err = env.payments.Refund(ctx, paid.ID, "again")
	assert.ErrorIs(t, err, ErrNotRefundable)
	_, err = env.payments.ProcessPayment(ctx, paid.ID, model.PayMethodCash, PaymentRequest{})
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	payments, err := env.payments.ListPayments(paid.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	net := payments[0].Amount.Add(payments[1].Amount)
	assert.True(t, net.IsZero())
}
