package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIngredientComputeStatus(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	nextWeek := now.AddDate(0, 0, 7)

	tests := []struct {
		name       string
		ingredient Ingredient
		want       IngredientStatus
	}{
		{"plenty", Ingredient{Quantity: 50, MinQuantity: 10}, IngredientAvailable},
		{"at threshold", Ingredient{Quantity: 10, MinQuantity: 10}, IngredientLow},
		{"default threshold", Ingredient{Quantity: 4}, IngredientLow},
		{"empty", Ingredient{Quantity: 0, MinQuantity: 10}, IngredientOutOfStock},
		{"expired wins", Ingredient{Quantity: 50, ExpiryDate: &yesterday}, IngredientExpired},
		{"not yet expired", Ingredient{Quantity: 50, ExpiryDate: &nextWeek}, IngredientAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ingredient.ComputeStatus(now, 5))
		})
	}
}

func TestTags(t *testing.T) {
	tags := Tags{"spicy", "vegan"}
	v, err := tags.Value()
	assert.NoError(t, err)
	assert.Equal(t, `{"spicy","vegan"}`, v)

	var scanned Tags
	assert.NoError(t, scanned.Scan(`{spicy,vegan}`))
	assert.True(t, scanned.Has("vegan"))
	assert.False(t, scanned.Has("halal"))
}
