package service

import (
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/pkg/logger"
)

// ChefService is the kitchen panel's view of the order lifecycle.
type ChefService interface {
	KitchenQueue() ([]model.Order, error)
	ClaimOrder(orderID, chefID uint) (*model.Order, error)
	StartCooking(orderID, chefID uint) (*model.Order, error)
	MarkReady(orderID, chefID uint) (*model.Order, error)
	ChefOrders(chefID uint) ([]model.Order, error)
}

type chefService struct {
	orders       OrderService
	orderRepo    repository.OrderRepository
	employeeRepo repository.EmployeeRepository
}

func NewChefService(
	orders OrderService,
	orderRepo repository.OrderRepository,
	employeeRepo repository.EmployeeRepository,
) ChefService {
	return &chefService{
		orders:       orders,
		orderRepo:    orderRepo,
		employeeRepo: employeeRepo,
	}
}

// KitchenQueue lists orders the kitchen is working on, oldest first.
func (s *chefService) KitchenQueue() ([]model.Order, error) {
	orders, _, err := s.orders.ListOrders(model.OrderFilter{
		Statuses:    []model.OrderStatus{model.OrderStatusPreparing, model.OrderStatusCooking},
		OldestFirst: true,
	})
	return orders, err
}

func (s *chefService) ClaimOrder(orderID, chefID uint) (*model.Order, error) {
	return s.claim("chef.ClaimOrder", orderID, chefID, func(status model.OrderStatus) bool {
		return status == model.OrderStatusPreparing || status == model.OrderStatusCooking
	})
}

// claim assigns the order to chefID once allowed accepts its current
// status. A rejected status leaves the order untouched.
func (s *chefService) claim(op string, orderID, chefID uint, allowed func(model.OrderStatus) bool) (*model.Order, error) {
	if err := s.requireChef(op, chefID); err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !allowed(order.Status) {
		return nil, ErrInvalidTransition.WithOp(op).WithMessage("order is %s", order.Status)
	}

	ok, err := s.orderRepo.ClaimChef(orderID, chefID)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	if !ok {
		logger.Warn("Claim rejected: order held by another chef", map[string]interface{}{
			"order_id": orderID,
			"chef_id":  chefID,
		})
		return nil, ErrOrderClaimedByOther.WithOp(op)
	}

	logger.Info("Order claimed by chef", map[string]interface{}{
		"order_id": orderID,
		"chef_id":  chefID,
	})
	return s.orders.GetOrder(orderID)
}

func (s *chefService) claimFor(op string, orderID, chefID uint, action model.OrderAction) error {
	t, _ := model.TransitionFor(action)
	_, err := s.claim(op, orderID, chefID, t.Allows)
	return err
}

// StartCooking claims the order for chefID when it is unclaimed, then moves
// it from Preparing to Cooking.
func (s *chefService) StartCooking(orderID, chefID uint) (*model.Order, error) {
	if err := s.claimFor("chef.StartCooking", orderID, chefID, model.ActionStartCooking); err != nil {
		return nil, err
	}
	return s.orders.StartCooking(orderID)
}

func (s *chefService) MarkReady(orderID, chefID uint) (*model.Order, error) {
	if err := s.claimFor("chef.MarkReady", orderID, chefID, model.ActionMarkReady); err != nil {
		return nil, err
	}
	return s.orders.MarkReady(orderID)
}

func (s *chefService) ChefOrders(chefID uint) ([]model.Order, error) {
	orders, _, err := s.orders.ListOrders(model.OrderFilter{ChefID: &chefID})
	return orders, err
}

func (s *chefService) requireChef(op string, chefID uint) error {
	chef, err := s.employeeRepo.FindByID(chefID)
	if err != nil {
		return apperrors.FromDB(op, err, ErrEmployeeNotFound)
	}
	if chef.Role != model.EmployeeChef || !chef.Active {
		return ErrNotAChef.WithOp(op)
	}
	return nil
}
