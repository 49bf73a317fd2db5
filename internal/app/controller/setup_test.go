package controller

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	"github.com/ikkim/restaurant-pos/internal/db"
	"github.com/ikkim/restaurant-pos/internal/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testRoleHeader = "X-Test-Role"
	testUserHeader = "X-Test-User"
	testJWTSecret  = "controller-test-secret"
)

type controllerEnv struct {
	db        *gorm.DB
	router    *gin.Engine
	customers service.CustomerService
	carts     service.CartService
	orders    service.OrderService
	payments  service.PaymentService
	chefs     service.ChefService
	cashier   service.CashierService
	products  service.ProductService
	auth      service.AuthService
}

// identityFromHeaders stands in for the JWT middleware.
func identityFromHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role := c.GetHeader(testRoleHeader); role != "" {
			id, _ := strconv.ParseUint(c.GetHeader(testUserHeader), 10, 32)
			c.Set(middleware.UserIDKey, uint(id))
			c.Set(middleware.UserRoleKey, model.UserRole(role))
		}
		c.Next()
	}
}

func setupControllerTest(t *testing.T) *controllerEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	paymentRepo := repository.NewPaymentRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	customerRepo := repository.NewCustomerRepository(testDB)
	employeeRepo := repository.NewEmployeeRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware(), identityFromHeaders())

	orders := service.NewOrderService(testDB, orderRepo, cartRepo, productRepo, customerRepo, nil)
	payments := service.NewPaymentService(testDB, orderRepo, paymentRepo, nil, nil)

	return &controllerEnv{
		db:        testDB,
		router:    router,
		customers: service.NewCustomerService(customerRepo),
		carts:     service.NewCartService(testDB, cartRepo, productRepo),
		orders:    orders,
		payments:  payments,
		chefs:     service.NewChefService(orders, orderRepo, employeeRepo),
		cashier:   service.NewCashierService(orders, payments),
		products:  service.NewProductService(productRepo, nil),
		auth: service.NewAuthService(testDB, userRepo, customerRepo, employeeRepo, nil,
			testJWTSecret, 15*time.Minute, 24*time.Hour),
	}
}

func (e *controllerEnv) createProduct(t *testing.T, name string, price int64) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:      name,
		Price:     decimal.NewFromInt(price),
		Category:  "main",
		Available: true,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

// createCustomerAccount makes a customer record owned by a customer login.
func (e *controllerEnv) createCustomerAccount(t *testing.T, username, phone string) (*model.User, *model.Customer) {
	t.Helper()
	user := &model.User{
		Username:     username,
		PasswordHash: "hash",
		FullName:     username,
		Role:         model.RoleCustomer,
		Active:       true,
	}
	require.NoError(t, e.db.Create(user).Error)
	customer := &model.Customer{UserID: &user.ID, Name: username, Phone: phone}
	require.NoError(t, e.db.Create(customer).Error)
	return user, customer
}

// createStaff makes a login linked to an employee record.
func (e *controllerEnv) createStaff(t *testing.T, username string, role model.EmployeeRole) (*model.User, *model.Employee) {
	t.Helper()
	user := &model.User{
		Username:     username,
		PasswordHash: "hash",
		FullName:     username,
		Role:         model.UserRole(role),
		Active:       true,
	}
	require.NoError(t, e.db.Create(user).Error)
	employee := &model.Employee{UserID: &user.ID, FullName: username, Role: role, Active: true, HireDate: time.Now()}
	require.NoError(t, e.db.Create(employee).Error)
	return user, employee
}

type testRequest struct {
	method string
	path   string
	body   interface{}
	role   model.UserRole
	userID uint
	header map[string]string
}

func (e *controllerEnv) do(t *testing.T, r testRequest) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if r.role != "" {
		req.Header.Set(testRoleHeader, string(r.role))
		req.Header.Set(testUserHeader, strconv.FormatUint(uint64(r.userID), 10))
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// amount reads a decimal rendered as a JSON string.
func amount(t *testing.T, v interface{}) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "expected decimal string, got %T", v)
	return decimal.RequireFromString(s)
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	require.Equal(t, code, decodeBody(t, w)["error"])
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
