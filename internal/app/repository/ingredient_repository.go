package repository

import (
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"gorm.io/gorm"
)

type IngredientRepository interface {
	Create(ingredient *model.Ingredient) error
	FindByID(id uint) (*model.Ingredient, error)
	FindAll() ([]model.Ingredient, error)
	FindByStatus(statuses ...model.IngredientStatus) ([]model.Ingredient, error)
	Update(ingredient *model.Ingredient) error
	AdjustQuantity(id uint, delta float64) (bool, error)
	UpdateStatus(id uint, status model.IngredientStatus) error
	CountByStatus() (map[model.IngredientStatus]int64, error)
	Delete(id uint) error
}

type ingredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) Create(ingredient *model.Ingredient) error {
	if err := r.db.Create(ingredient).Error; err != nil {
		logger.Error("Failed to create ingredient in database", err, map[string]interface{}{
			"name": ingredient.Name,
		})
		return err
	}
	return nil
}

func (r *ingredientRepository) FindByID(id uint) (*model.Ingredient, error) {
	var ingredient model.Ingredient
	if err := r.db.First(&ingredient, id).Error; err != nil {
		logLookupError("Failed to find ingredient by ID in database", err, map[string]interface{}{
			"ingredient_id": id,
		})
		return nil, err
	}
	return &ingredient, nil
}

func (r *ingredientRepository) FindAll() ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if err := r.db.Order("name ASC").Find(&ingredients).Error; err != nil {
		logger.Error("Failed to list ingredients in database", err)
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) FindByStatus(statuses ...model.IngredientStatus) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if err := r.db.Where("status IN ?", statuses).Order("name ASC").Find(&ingredients).Error; err != nil {
		logger.Error("Failed to list ingredients by status in database", err)
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) Update(ingredient *model.Ingredient) error {
	if err := r.db.Save(ingredient).Error; err != nil {
		logger.Error("Failed to update ingredient in database", err, map[string]interface{}{
			"ingredient_id": ingredient.ID,
		})
		return err
	}
	return nil
}

// AdjustQuantity applies delta atomically and refuses to go below zero.
// False means the ingredient is missing or the stock would turn negative.
func (r *ingredientRepository) AdjustQuantity(id uint, delta float64) (bool, error) {
	result := r.db.Model(&model.Ingredient{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to adjust ingredient quantity", result.Error, map[string]interface{}{
			"ingredient_id": id,
			"delta":         delta,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *ingredientRepository) UpdateStatus(id uint, status model.IngredientStatus) error {
	err := r.db.Model(&model.Ingredient{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		logger.Error("Failed to update ingredient status", err, map[string]interface{}{
			"ingredient_id": id,
			"status":        status,
		})
	}
	return err
}

func (r *ingredientRepository) CountByStatus() (map[model.IngredientStatus]int64, error) {
	var rows []struct {
		Status model.IngredientStatus
		Count  int64
	}
	err := r.db.Model(&model.Ingredient{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count ingredients by status", err)
		return nil, err
	}

	counts := make(map[model.IngredientStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *ingredientRepository) Delete(id uint) error {
	result := r.db.Delete(&model.Ingredient{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete ingredient from database", result.Error, map[string]interface{}{
			"ingredient_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
