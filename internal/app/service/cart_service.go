package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartService interface {
	GetOrCreateActiveCart(customerID uint) (*model.Cart, error)
	GetActiveCart(customerID uint) (*model.Cart, error)
	AddToCart(customerID, productID uint, quantity int, notes string) (*model.Cart, error)
	UpdateQuantity(customerID, productID uint, quantity int) (*model.Cart, error)
	RemoveFromCart(customerID, productID uint) (*model.Cart, error)
	ClearCart(customerID uint) (*model.Cart, error)
	ValidateCart(customerID uint) (*model.CartValidation, error)
	AbandonStaleCarts(olderThan time.Duration) (int64, error)
}

type cartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
) CartService {
	return &cartService{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetOrCreateActiveCart(customerID uint) (*model.Cart, error) {
	const op = "cart.GetOrCreateActiveCart"

	cart, err := s.cartRepo.FindActiveByCustomer(customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Storage(op, err)
	}

	active := customerID
	cart = &model.Cart{
		CustomerID:       customerID,
		ActiveCustomerID: &active,
		TotalAmount:      decimal.Zero,
		Status:           model.CartStatusActive,
	}
	if err := s.cartRepo.Create(cart); err != nil {
		if !apperrors.IsDuplicateKey(err) {
			return nil, apperrors.Storage(op, err)
		}
		// Another request created the cart first; use theirs.
		logger.Debug("Active cart created concurrently, re-reading", map[string]interface{}{
			"customer_id": customerID,
		})
		cart, err = s.cartRepo.FindActiveByCustomer(customerID)
		if err != nil {
			return nil, apperrors.FromDB(op, err, ErrCartNotFound)
		}
		return cart, nil
	}

	logger.Info("Active cart created", map[string]interface{}{
		"customer_id": customerID,
		"cart_id":     cart.ID,
	})
	cart.Items = []model.CartItem{}
	return cart, nil
}

func (s *cartService) GetActiveCart(customerID uint) (*model.Cart, error) {
	cart, err := s.cartRepo.FindActiveByCustomer(customerID)
	if err != nil {
		return nil, apperrors.FromDB("cart.GetActiveCart", err, ErrCartNotFound)
	}
	return cart, nil
}

func (s *cartService) AddToCart(customerID, productID uint, quantity int, notes string) (*model.Cart, error) {
	const op = "cart.AddToCart"

	logger.Info("Adding product to cart", map[string]interface{}{
		"customer_id": customerID,
		"product_id":  productID,
		"quantity":    quantity,
	})

	if quantity <= 0 {
		return nil, ErrInvalidQuantity.WithOp(op)
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrProductNotFound)
	}
	if !product.Available {
		logger.Warn("Add to cart rejected: product unavailable", map[string]interface{}{
			"product_id": productID,
		})
		return nil, ErrProductUnavailable.WithOp(op).WithMessage("%s is unavailable", product.Name)
	}

	cart, err := s.GetOrCreateActiveCart(customerID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		carts := s.cartRepo.WithTx(tx)
		locked, err := s.lockActive(carts, customerID, cart.ID)
		if err != nil {
			return err
		}

		item := &model.CartItem{
			CartID:      locked.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			ImageURL:    product.ImageURL,
			Quantity:    quantity,
			Subtotal:    model.LineTotal(product.Price, quantity),
			Notes:       notes,
		}
		if err := carts.UpsertItem(item); err != nil {
			return apperrors.Storage(op, err)
		}
		if _, err := carts.RecomputeTotal(locked.ID); err != nil {
			return apperrors.Storage(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(op, cart.ID)
}

func (s *cartService) UpdateQuantity(customerID, productID uint, quantity int) (*model.Cart, error) {
	const op = "cart.UpdateQuantity"

	if quantity <= 0 {
		return s.RemoveFromCart(customerID, productID)
	}

	var cartID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		carts := s.cartRepo.WithTx(tx)
		cart, err := s.lockActive(carts, customerID, 0)
		if err != nil {
			return err
		}
		cartID = cart.ID

		ok, err := carts.SetItemQuantity(cart.ID, productID, quantity)
		if err != nil {
			return apperrors.Storage(op, err)
		}
		if !ok {
			return ErrCartItemNotFound.WithOp(op)
		}
		if _, err := carts.RecomputeTotal(cart.ID); err != nil {
			return apperrors.Storage(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cart item quantity updated", map[string]interface{}{
		"customer_id": customerID,
		"product_id":  productID,
		"quantity":    quantity,
	})
	return s.reload(op, cartID)
}

func (s *cartService) RemoveFromCart(customerID, productID uint) (*model.Cart, error) {
	const op = "cart.RemoveFromCart"

	var cartID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		carts := s.cartRepo.WithTx(tx)
		cart, err := s.lockActive(carts, customerID, 0)
		if err != nil {
			return err
		}
		cartID = cart.ID

		ok, err := carts.DeleteItem(cart.ID, productID)
		if err != nil {
			return apperrors.Storage(op, err)
		}
		if !ok {
			return ErrCartItemNotFound.WithOp(op)
		}
		if _, err := carts.RecomputeTotal(cart.ID); err != nil {
			return apperrors.Storage(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Product removed from cart", map[string]interface{}{
		"customer_id": customerID,
		"product_id":  productID,
	})
	return s.reload(op, cartID)
}

func (s *cartService) ClearCart(customerID uint) (*model.Cart, error) {
	const op = "cart.ClearCart"

	var cartID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		carts := s.cartRepo.WithTx(tx)
		cart, err := s.lockActive(carts, customerID, 0)
		if err != nil {
			return err
		}
		cartID = cart.ID

		if err := carts.DeleteItems(cart.ID); err != nil {
			return apperrors.Storage(op, err)
		}
		if _, err := carts.RecomputeTotal(cart.ID); err != nil {
			return apperrors.Storage(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cart cleared", map[string]interface{}{
		"customer_id": customerID,
		"cart_id":     cartID,
	})
	return s.reload(op, cartID)
}

// ValidateCart reports every reason the active cart cannot be checked out.
// Only storage failures are returned as errors.
func (s *cartService) ValidateCart(customerID uint) (*model.CartValidation, error) {
	const op = "cart.ValidateCart"

	cart, err := s.cartRepo.FindActiveByCustomer(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.CartValidation{Problems: []model.CartProblem{{Reason: "no active cart"}}}, nil
		}
		return nil, apperrors.Storage(op, err)
	}

	problems, err := checkCartItems(s.productRepo, cart)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	return &model.CartValidation{Valid: len(problems) == 0, Problems: problems}, nil
}

func (s *cartService) AbandonStaleCarts(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	n, err := s.cartRepo.AbandonStale(cutoff)
	if err != nil {
		return 0, apperrors.Storage("cart.AbandonStaleCarts", err)
	}
	if n > 0 {
		logger.Info("Stale carts abandoned", map[string]interface{}{
			"count":  n,
			"cutoff": cutoff,
		})
	}
	return n, nil
}

// lockActive re-reads the customer's active cart under a row lock. When
// expectID is set the cart must still be that one.
func (s *cartService) lockActive(carts repository.CartRepository, customerID, expectID uint) (*model.Cart, error) {
	cart, err := carts.FindActiveByCustomerForUpdate(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if expectID != 0 {
				return nil, ErrCartNotActive.WithOp("cart.lockActive")
			}
			return nil, ErrCartNotFound.WithOp("cart.lockActive")
		}
		return nil, apperrors.Storage("cart.lockActive", err)
	}
	if expectID != 0 && cart.ID != expectID {
		return nil, ErrCartNotActive.WithOp("cart.lockActive")
	}
	return cart, nil
}

func (s *cartService) reload(op string, cartID uint) (*model.Cart, error) {
	cart, err := s.cartRepo.FindByID(cartID)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrCartNotFound)
	}
	return cart, nil
}

// checkCartItems lists checkout blockers: empty cart, products that were
// deleted, and products that are no longer available.
func checkCartItems(products repository.ProductRepository, cart *model.Cart) ([]model.CartProblem, error) {
	if !cart.IsActive() {
		return []model.CartProblem{{Reason: "cart is not active"}}, nil
	}
	if len(cart.Items) == 0 {
		return []model.CartProblem{{Reason: "cart is empty"}}, nil
	}

	ids := make([]uint, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	found, err := products.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	var problems []model.CartProblem
	for _, item := range cart.Items {
		p, ok := found[item.ProductID]
		switch {
		case !ok:
			problems = append(problems, model.CartProblem{
				ProductID: item.ProductID,
				Reason:    fmt.Sprintf("%s is no longer on the menu", item.ProductName),
			})
		case !p.Available:
			problems = append(problems, model.CartProblem{
				ProductID: item.ProductID,
				Reason:    fmt.Sprintf("%s is unavailable", p.Name),
			})
		}
	}
	return problems, nil
}
