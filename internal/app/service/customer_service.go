package service

import (
	"errors"
	"strings"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"gorm.io/gorm"
)

type CustomerInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"required,min=6,max=20"`
	Email string `json:"email" validate:"omitempty,email"`
}

type CustomerService interface {
	RegisterCustomer(in CustomerInput) (*model.Customer, error)
	GetCustomer(id uint) (*model.Customer, error)
	FindByPhone(phone string) (*model.Customer, error)
	FindOrCreateByPhone(name, phone string) (*model.Customer, error)
	FindByUserID(userID uint) (*model.Customer, error)
	ListCustomers(search string, page, pageSize int) ([]model.Customer, int64, error)
	UpdateCustomer(id uint, in CustomerInput) (*model.Customer, error)
	AddLoyaltyPoints(id uint, points int) (*model.Customer, error)
}

type customerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func normalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", ".", "").Replace(strings.TrimSpace(phone))
}

func checkCustomer(op string, in *CustomerInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = normalizePhone(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	return validateInput(op, in)
}

func (s *customerService) RegisterCustomer(in CustomerInput) (*model.Customer, error) {
	const op = "customer.RegisterCustomer"

	if err := checkCustomer(op, &in); err != nil {
		return nil, err
	}

	customer := &model.Customer{Name: in.Name, Phone: in.Phone, Email: in.Email}
	if err := s.repo.Create(customer); err != nil {
		if apperrors.IsDuplicateKey(err) {
			return nil, ErrPhoneExists.WithOp(op)
		}
		return nil, apperrors.Storage(op, err)
	}

	logger.Info("Customer registered", map[string]interface{}{
		"customer_id": customer.ID,
	})
	return customer, nil
}

func (s *customerService) GetCustomer(id uint) (*model.Customer, error) {
	customer, err := s.repo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB("customer.GetCustomer", err, ErrCustomerNotFound)
	}
	return customer, nil
}

func (s *customerService) FindByPhone(phone string) (*model.Customer, error) {
	customer, err := s.repo.FindByPhone(normalizePhone(phone))
	if err != nil {
		return nil, apperrors.FromDB("customer.FindByPhone", err, ErrCustomerNotFound)
	}
	return customer, nil
}

// FindOrCreateByPhone is used at the counter for walk-in customers.
func (s *customerService) FindOrCreateByPhone(name, phone string) (*model.Customer, error) {
	const op = "customer.FindOrCreateByPhone"

	customer, err := s.repo.FindByPhone(normalizePhone(phone))
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Storage(op, err)
	}

	customer, err = s.RegisterCustomer(CustomerInput{Name: name, Phone: phone})
	if apperrors.Is(err, ErrPhoneExists) {
		// Registered concurrently.
		return s.FindByPhone(phone)
	}
	return customer, err
}

func (s *customerService) FindByUserID(userID uint) (*model.Customer, error) {
	customer, err := s.repo.FindByUserID(userID)
	if err != nil {
		return nil, apperrors.FromDB("customer.FindByUserID", err, ErrCustomerNotFound)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(search string, page, pageSize int) ([]model.Customer, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	customers, total, err := s.repo.List(strings.TrimSpace(search), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, apperrors.Storage("customer.ListCustomers", err)
	}
	return customers, total, nil
}

func (s *customerService) UpdateCustomer(id uint, in CustomerInput) (*model.Customer, error) {
	const op = "customer.UpdateCustomer"

	if err := checkCustomer(op, &in); err != nil {
		return nil, err
	}
	customer, err := s.repo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrCustomerNotFound)
	}

	customer.Name = in.Name
	customer.Phone = in.Phone
	customer.Email = in.Email
	if err := s.repo.Update(customer); err != nil {
		if apperrors.IsDuplicateKey(err) {
			return nil, ErrPhoneExists.WithOp(op)
		}
		return nil, apperrors.Storage(op, err)
	}
	return customer, nil
}

func (s *customerService) AddLoyaltyPoints(id uint, points int) (*model.Customer, error) {
	const op = "customer.AddLoyaltyPoints"

	if points <= 0 {
		return nil, apperrors.Validation("", "points must be positive").WithOp(op)
	}
	if err := s.repo.AddLoyaltyPoints(id, points); err != nil {
		return nil, apperrors.FromDB(op, err, ErrCustomerNotFound)
	}

	logger.Info("Loyalty points added", map[string]interface{}{
		"customer_id": id,
		"points":      points,
	})
	return s.GetCustomer(id)
}
