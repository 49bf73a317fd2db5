package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	"github.com/ikkim/restaurant-pos/internal/db"
	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(e notify.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return true
}

func (p *recordingPublisher) types() []notify.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notify.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) count(t notify.EventType) int {
	n := 0
	for _, got := range p.types() {
		if got == t {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocker) TryLock(_ context.Context, name string, _ time.Duration) (bool, func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[name] {
		return false, func() {}, nil
	}
	l.held[name] = true
	return true, func() {
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
	}, nil
}

type testEnv struct {
	db        *gorm.DB
	events    *recordingPublisher
	carts     CartService
	orders    OrderService
	payments  PaymentService
	chefs     ChefService
	cashier   CashierService
	productRp repository.ProductRepository
	customers repository.CustomerRepository
	employees repository.EmployeeRepository
}

func setupServices(t *testing.T) *testEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	events := &recordingPublisher{}
	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	paymentRepo := repository.NewPaymentRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	customerRepo := repository.NewCustomerRepository(testDB)
	employeeRepo := repository.NewEmployeeRepository(testDB)

	orders := NewOrderService(testDB, orderRepo, cartRepo, productRepo, customerRepo, events)
	payments := NewPaymentService(testDB, orderRepo, paymentRepo, nil, events)

	return &testEnv{
		db:        testDB,
		events:    events,
		carts:     NewCartService(testDB, cartRepo, productRepo),
		orders:    orders,
		payments:  payments,
		chefs:     NewChefService(orders, orderRepo, employeeRepo),
		cashier:   NewCashierService(orders, payments),
		productRp: productRepo,
		customers: customerRepo,
		employees: employeeRepo,
	}
}

func (e *testEnv) createProduct(t *testing.T, id uint, name string, price int64) *model.Product {
	t.Helper()
	p := &model.Product{
		ID:        id,
		Name:      name,
		Price:     decimal.NewFromInt(price),
		Category:  "main",
		Available: true,
	}
	require.NoError(t, e.productRp.Create(p))
	return p
}

func (e *testEnv) createChef(t *testing.T, name string) *model.Employee {
	t.Helper()
	chef := &model.Employee{FullName: name, Role: model.EmployeeChef, Active: true, HireDate: time.Now()}
	require.NoError(t, e.employees.Create(chef))
	return chef
}

// placeOrder puts qty of product into the customer's cart and checks out.
func (e *testEnv) placeOrder(t *testing.T, customerID, productID uint, qty int) *model.Order {
	t.Helper()
	_, err := e.carts.AddToCart(customerID, productID, qty, "")
	require.NoError(t, err)
	order, err := e.orders.CreateOrderFromCart(customerID, "Nguyen Van A", "0901234567", model.PayMethodCash, "")
	require.NoError(t, err)
	return order
}

// paidOrder places an order and settles it in cash.
func (e *testEnv) paidOrder(t *testing.T, customerID, productID uint, qty int) *model.Order {
	t.Helper()
	order := e.placeOrder(t, customerID, productID, qty)
	res, err := e.payments.ProcessPayment(context.Background(), order.ID, model.PayMethodCash, PaymentRequest{})
	require.NoError(t, err)
	return res.Order
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
