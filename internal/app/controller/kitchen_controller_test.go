package controller

import (
	"context"
	"net/http"
	"testing"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupKitchenControllerTest(t *testing.T) *controllerEnv {
	env := setupControllerTest(t)
	kitchen := NewKitchenController(env.chefs, env.auth)
	cashier := NewCashierController(env.cashier)

	env.router.GET("/kitchen/queue", kitchen.Queue)
	env.router.GET("/kitchen/my-orders", kitchen.MyOrders)
	env.router.POST("/kitchen/orders/:id/claim", kitchen.Claim)
	env.router.POST("/kitchen/orders/:id/start", kitchen.StartCooking)
	env.router.POST("/kitchen/orders/:id/ready", kitchen.MarkReady)

	env.router.GET("/cashier/pending", cashier.PendingOrders)
	env.router.GET("/cashier/ready", cashier.ReadyForPickup)
	env.router.POST("/cashier/customers/:customer_id/checkout", cashier.Checkout)
	env.router.POST("/cashier/orders/:id/confirm", cashier.ConfirmOrder)
	env.router.POST("/cashier/orders/:id/cash-payment", cashier.CashPayment)
	env.router.POST("/cashier/orders/:id/transfer-payment", cashier.TransferPayment)
	env.router.POST("/cashier/orders/:id/send-to-kitchen", cashier.SendToKitchen)
	env.router.POST("/cashier/orders/:id/hand-over", cashier.HandOver)
	env.router.POST("/cashier/orders/:id/cancel", cashier.CancelOrder)
	return env
}

func orderStatus(t *testing.T, body map[string]interface{}) model.OrderStatus {
	t.Helper()
	return model.OrderStatus(body["order"].(map[string]interface{})["status"].(float64))
}

func TestKitchenController_FullLifecycle(t *testing.T) {
	env := setupKitchenControllerTest(t)
	env.createCustomerAccount(t, "lan", "0901111111")
	cashierUser, _ := env.createStaff(t, "thungan", model.EmployeeCashier)
	chefUser, chef := env.createStaff(t, "bep", model.EmployeeChef)
	pho := env.createProduct(t, "Pho bo", 45000)
	_, err := env.carts.AddToCart(1, pho.ID, 2, "")
	require.NoError(t, err)

	asCashier := func(method, path string, body interface{}) map[string]interface{} {
		w := env.do(t, testRequest{method: method, path: path, body: body, role: model.RoleCashier, userID: cashierUser.ID})
		require.Equal(t, http.StatusOK, w.Code, "%s %s: %s", method, path, w.Body.String())
		return decodeBody(t, w)
	}
	asChef := func(path string) map[string]interface{} {
		w := env.do(t, testRequest{method: http.MethodPost, path: path, role: model.RoleChef, userID: chefUser.ID})
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", path, w.Body.String())
		return decodeBody(t, w)
	}

	w := env.do(t, testRequest{
		method: http.MethodPost,
		path:   "/cashier/customers/1/checkout",
		body:   CreateOrderRequest{PayMethod: cashPtr()},
		role:   model.RoleCashier,
		userID: cashierUser.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID := uint(decodeBody(t, w)["order"].(map[string]interface{})["id"].(float64))
	base := "/cashier/orders/" + itoa(orderID)

	pending := asCashier(http.MethodGet, "/cashier/pending", nil)
	assert.Equal(t, float64(1), pending["count"])

	assert.Equal(t, model.OrderStatusConfirmed, orderStatus(t, asCashier(http.MethodPost, base+"/confirm", nil)))

	tendered := decimal.NewFromInt(100000)
	paid := asCashier(http.MethodPost, base+"/cash-payment", CashPaymentRequest{Tendered: &tendered})
	assert.True(t, amount(t, paid["payment"].(map[string]interface{})["change_due"]).Equal(decimal.NewFromInt(10000)))

	assert.Equal(t, model.OrderStatusPreparing, orderStatus(t, asCashier(http.MethodPost, base+"/send-to-kitchen", nil)))

	w = env.do(t, testRequest{method: http.MethodGet, path: "/kitchen/queue", role: model.RoleChef, userID: chefUser.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	kitchen := "/kitchen/orders/" + itoa(orderID)
	claimed := asChef(kitchen + "/claim")
	assert.Equal(t, float64(chef.ID), claimed["order"].(map[string]interface{})["assigned_chef_id"])
	assert.Equal(t, model.OrderStatusCooking, orderStatus(t, asChef(kitchen+"/start")))
	assert.Equal(t, model.OrderStatusReady, orderStatus(t, asChef(kitchen+"/ready")))

	w = env.do(t, testRequest{method: http.MethodGet, path: "/kitchen/my-orders", role: model.RoleChef, userID: chefUser.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	ready := asCashier(http.MethodGet, "/cashier/ready", nil)
	assert.Equal(t, float64(1), ready["count"])
	assert.Equal(t, model.OrderStatusCompleted, orderStatus(t, asCashier(http.MethodPost, base+"/hand-over", nil)))

	// 완료 후 취소 불가
	w = env.do(t, testRequest{method: http.MethodPost, path: base + "/cancel", role: model.RoleCashier, userID: cashierUser.ID})
	assertErrorCode(t, w, http.StatusConflict, apperrors.OrderInvalidTransition)
}

func TestKitchenController_ClaimedByAnotherChef(t *testing.T) {
	env := setupKitchenControllerTest(t)
	env.createCustomerAccount(t, "lan", "0901111111")
	firstUser, _ := env.createStaff(t, "bep1", model.EmployeeChef)
	secondUser, _ := env.createStaff(t, "bep2", model.EmployeeChef)
	pho := env.createProduct(t, "Pho bo", 45000)
	_, err := env.carts.AddToCart(1, pho.ID, 1, "")
	require.NoError(t, err)
	order, err := env.orders.CreateOrderFromCart(1, "", "", model.PayMethodTransfer, "")
	require.NoError(t, err)
	_, err = env.cashier.ConfirmOrder(order.ID)
	require.NoError(t, err)
	_, err = env.payments.ProcessPayment(context.Background(), order.ID, model.PayMethodTransfer, service.PaymentRequest{})
	require.NoError(t, err)
	_, err = env.cashier.SendToKitchen(order.ID)
	require.NoError(t, err)

	path := "/kitchen/orders/" + itoa(order.ID) + "/start"
	w := env.do(t, testRequest{method: http.MethodPost, path: path, role: model.RoleChef, userID: firstUser.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, testRequest{method: http.MethodPost, path: "/kitchen/orders/" + itoa(order.ID) + "/ready", role: model.RoleChef, userID: secondUser.ID})
	assertErrorCode(t, w, http.StatusConflict, apperrors.OrderClaimedByOther)
}

func TestKitchenController_LoginWithoutEmployee(t *testing.T) {
	env := setupKitchenControllerTest(t)
	user := &model.User{Username: "ghost", PasswordHash: "hash", FullName: "ghost", Role: model.RoleChef, Active: true}
	require.NoError(t, env.db.Create(user).Error)

	w := env.do(t, testRequest{method: http.MethodGet, path: "/kitchen/my-orders", role: model.RoleChef, userID: user.ID})
	assertErrorCode(t, w, http.StatusForbidden, apperrors.AuthzRoleRequired)

	// 셰프가 아닌 직원은 주문을 맡을 수 없다
	cashierUser, _ := env.createStaff(t, "thungan", model.EmployeeCashier)
	w = env.do(t, testRequest{method: http.MethodPost, path: "/kitchen/orders/1/claim", role: model.RoleCashier, userID: cashierUser.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
