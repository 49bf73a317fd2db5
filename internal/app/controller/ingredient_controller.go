package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

// IngredientController 재료 재고 관리
type IngredientController struct {
	ingredientService service.IngredientService
}

func NewIngredientController(ingredientService service.IngredientService) *IngredientController {
	return &IngredientController{
		ingredientService: ingredientService,
	}
}

type AdjustQuantityRequest struct {
	// 입고는 양수, 사용/폐기는 음수
	Delta *float64 `json:"delta" binding:"required"`
}

// ListIngredients GET /api/v1/ingredients?status=low
func (ctrl *IngredientController) ListIngredients(c *gin.Context) {
	ingredients, err := ctrl.ingredientService.ListIngredients(model.IngredientStatus(c.Query("status")))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredients": ingredients,
		"count":       len(ingredients),
	})
}

// LowStock GET /api/v1/ingredients/low-stock
func (ctrl *IngredientController) LowStock(c *gin.Context) {
	ingredients, err := ctrl.ingredientService.LowStock()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredients": ingredients,
		"count":       len(ingredients),
	})
}

// GetIngredient GET /api/v1/ingredients/:id
func (ctrl *IngredientController) GetIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ingredient, err := ctrl.ingredientService.GetIngredient(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredient": ingredient,
	})
}

// CreateIngredient POST /api/v1/ingredients
func (ctrl *IngredientController) CreateIngredient(c *gin.Context) {
	var req service.IngredientInput
	if !bindJSON(c, &req) {
		return
	}
	ingredient, err := ctrl.ingredientService.CreateIngredient(req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Ingredient created", map[string]interface{}{
		"ingredient_id": ingredient.ID,
		"status":        ingredient.Status,
	})
	c.JSON(http.StatusCreated, gin.H{
		"ingredient": ingredient,
	})
}

// UpdateIngredient PUT /api/v1/ingredients/:id
func (ctrl *IngredientController) UpdateIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.IngredientInput
	if !bindJSON(c, &req) {
		return
	}
	ingredient, err := ctrl.ingredientService.UpdateIngredient(id, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredient": ingredient,
	})
}

// AdjustQuantity 입출고
// POST /api/v1/ingredients/:id/adjust
func (ctrl *IngredientController) AdjustQuantity(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req AdjustQuantityRequest
	if !bindJSON(c, &req) {
		return
	}

	ingredient, err := ctrl.ingredientService.AdjustQuantity(id, *req.Delta)
	if err != nil {
		log.Warn("Stock adjustment rejected", map[string]interface{}{
			"ingredient_id": id,
			"delta":         *req.Delta,
			"error":         err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Stock adjusted", map[string]interface{}{
		"ingredient_id": id,
		"delta":         *req.Delta,
		"quantity":      ingredient.Quantity,
		"status":        ingredient.Status,
	})
	c.JSON(http.StatusOK, gin.H{
		"ingredient": ingredient,
	})
}

// RefreshStatuses 상태 재계산 (스케줄러와 같은 작업을 수동 실행)
// POST /api/v1/ingredients/refresh
func (ctrl *IngredientController) RefreshStatuses(c *gin.Context) {
	changed, err := ctrl.ingredientService.RefreshStatuses()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"changed": changed,
	})
}

// DeleteIngredient DELETE /api/v1/ingredients/:id
func (ctrl *IngredientController) DeleteIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.ingredientService.DeleteIngredient(id); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "ingredient deleted",
	})
}
