package service

import (
	"errors"
	"strings"
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/notify"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"gorm.io/gorm"
)

type IngredientInput struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Quantity    float64    `json:"quantity" validate:"gte=0"`
	Unit        string     `json:"unit" validate:"required,max=20"`
	MinQuantity float64    `json:"min_quantity" validate:"gte=0"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	Supplier    string     `json:"supplier" validate:"max=120"`
}

type IngredientService interface {
	CreateIngredient(in IngredientInput) (*model.Ingredient, error)
	UpdateIngredient(id uint, in IngredientInput) (*model.Ingredient, error)
	GetIngredient(id uint) (*model.Ingredient, error)
	ListIngredients(status model.IngredientStatus) ([]model.Ingredient, error)
	DeleteIngredient(id uint) error
	AdjustQuantity(id uint, delta float64) (*model.Ingredient, error)
	LowStock() ([]model.Ingredient, error)
	RefreshStatuses() (int, error)
}

type ingredientService struct {
	repo      repository.IngredientRepository
	events    EventPublisher
	threshold float64
	now       func() time.Time
}

// NewIngredientService wires stock keeping. threshold applies to ingredients
// without their own min_quantity.
func NewIngredientService(repo repository.IngredientRepository, events EventPublisher, threshold float64) IngredientService {
	return &ingredientService{
		repo:      repo,
		events:    publisherOrDiscard(events),
		threshold: threshold,
		now:       time.Now,
	}
}

func (s *ingredientService) CreateIngredient(in IngredientInput) (*model.Ingredient, error) {
	const op = "ingredient.CreateIngredient"

	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(op, in); err != nil {
		return nil, err
	}

	ingredient := &model.Ingredient{
		Name:        in.Name,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		MinQuantity: in.MinQuantity,
		ExpiryDate:  in.ExpiryDate,
		Supplier:    in.Supplier,
	}
	ingredient.Status = ingredient.ComputeStatus(s.now(), s.threshold)

	if err := s.repo.Create(ingredient); err != nil {
		return nil, apperrors.FromDB(op, err, nil)
	}

	logger.Info("Ingredient created", map[string]interface{}{
		"ingredient_id": ingredient.ID,
		"name":          ingredient.Name,
		"status":        ingredient.Status,
	})
	s.announce(ingredient, model.IngredientAvailable)
	return ingredient, nil
}

func (s *ingredientService) UpdateIngredient(id uint, in IngredientInput) (*model.Ingredient, error) {
	const op = "ingredient.UpdateIngredient"

	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(op, in); err != nil {
		return nil, err
	}

	ingredient, err := s.repo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrIngredientNotFound)
	}
	before := ingredient.Status

	ingredient.Name = in.Name
	ingredient.Quantity = in.Quantity
	ingredient.Unit = in.Unit
	ingredient.MinQuantity = in.MinQuantity
	ingredient.ExpiryDate = in.ExpiryDate
	ingredient.Supplier = in.Supplier
	ingredient.Status = ingredient.ComputeStatus(s.now(), s.threshold)

	if err := s.repo.Update(ingredient); err != nil {
		return nil, apperrors.FromDB(op, err, ErrIngredientNotFound)
	}
	s.announce(ingredient, before)
	return ingredient, nil
}

func (s *ingredientService) GetIngredient(id uint) (*model.Ingredient, error) {
	ingredient, err := s.repo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB("ingredient.GetIngredient", err, ErrIngredientNotFound)
	}
	return ingredient, nil
}

func (s *ingredientService) ListIngredients(status model.IngredientStatus) ([]model.Ingredient, error) {
	var (
		items []model.Ingredient
		err   error
	)
	if status == "" {
		items, err = s.repo.FindAll()
	} else {
		items, err = s.repo.FindByStatus(status)
	}
	if err != nil {
		return nil, apperrors.Storage("ingredient.ListIngredients", err)
	}
	return items, nil
}

func (s *ingredientService) DeleteIngredient(id uint) error {
	if err := s.repo.Delete(id); err != nil {
		return apperrors.FromDB("ingredient.DeleteIngredient", err, ErrIngredientNotFound)
	}
	logger.Info("Ingredient deleted", map[string]interface{}{
		"ingredient_id": id,
	})
	return nil
}

// AdjustQuantity adds delta (negative to consume). The update is refused
// when it would take the quantity below zero.
func (s *ingredientService) AdjustQuantity(id uint, delta float64) (*model.Ingredient, error) {
	const op = "ingredient.AdjustQuantity"

	ok, err := s.repo.AdjustQuantity(id, delta)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	if !ok {
		if _, err := s.repo.FindByID(id); err != nil {
			return nil, apperrors.FromDB(op, err, ErrIngredientNotFound)
		}
		return nil, ErrNegativeStock.WithOp(op)
	}

	ingredient, err := s.repo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrIngredientNotFound)
	}
	if _, err := s.refreshOne(ingredient); err != nil {
		return nil, apperrors.Storage(op, err)
	}
	return ingredient, nil
}

func (s *ingredientService) LowStock() ([]model.Ingredient, error) {
	items, err := s.repo.FindByStatus(model.IngredientLow, model.IngredientOutOfStock)
	if err != nil {
		return nil, apperrors.Storage("ingredient.LowStock", err)
	}
	return items, nil
}

// RefreshStatuses recomputes every ingredient's status and returns how many
// changed. Run by the scheduler.
func (s *ingredientService) RefreshStatuses() (int, error) {
	items, err := s.repo.FindAll()
	if err != nil {
		return 0, apperrors.Storage("ingredient.RefreshStatuses", err)
	}

	changed := 0
	for i := range items {
		ok, err := s.refreshOne(&items[i])
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return changed, apperrors.Storage("ingredient.RefreshStatuses", err)
		}
		if ok {
			changed++
		}
	}
	if changed > 0 {
		logger.Info("Ingredient statuses refreshed", map[string]interface{}{
			"checked": len(items),
			"changed": changed,
		})
	}
	return changed, nil
}

// refreshOne stores the recomputed status when it differs and announces it.
func (s *ingredientService) refreshOne(ingredient *model.Ingredient) (bool, error) {
	before := ingredient.Status
	after := ingredient.ComputeStatus(s.now(), s.threshold)
	if after == before {
		return false, nil
	}
	if err := s.repo.UpdateStatus(ingredient.ID, after); err != nil {
		return false, err
	}
	ingredient.Status = after
	s.announce(ingredient, before)
	return true, nil
}

// announce fires LOW_STOCK or EXPIRED_INGREDIENT when the ingredient has just
// entered that state.
func (s *ingredientService) announce(ingredient *model.Ingredient, before model.IngredientStatus) {
	if ingredient.Status == before {
		return
	}
	data := map[string]interface{}{
		"ingredient_id": ingredient.ID,
		"name":          ingredient.Name,
		"quantity":      ingredient.Quantity,
		"unit":          ingredient.Unit,
		"status":        string(ingredient.Status),
	}

	switch ingredient.Status {
	case model.IngredientLow, model.IngredientOutOfStock:
		if before == model.IngredientLow || before == model.IngredientOutOfStock {
			// Still short; only the first crossing is announced.
			if ingredient.Status == model.IngredientLow {
				return
			}
		}
		logger.Warn("Ingredient stock is low", data)
		emit(s.events, notify.EventLowStock, 0, data)
	case model.IngredientExpired:
		logger.Warn("Ingredient expired", data)
		emit(s.events, notify.EventExpiredIngredient, 0, data)
	}
}
