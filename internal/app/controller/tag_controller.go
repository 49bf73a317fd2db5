package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

type TagController struct {
	tagService service.TagService
}

func NewTagController(tagService service.TagService) *TagController {
	return &TagController{tagService: tagService}
}

// ListTags 메뉴 태그 목록 (메뉴 수 많은 순)
// GET /api/v1/tags?category=noodle&limit=10
func (ctrl *TagController) ListTags(c *gin.Context) {
	category := c.Query("category")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	var (
		tags []service.TagCount
		err  error
	)
	if category == "" {
		tags, err = ctrl.tagService.ListTags()
	} else {
		tags, err = ctrl.tagService.GetTagsByCategory(category)
	}
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to list tags", err, map[string]interface{}{
			"category": category,
		})
		apperrors.Respond(c, err)
		return
	}

	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags, "count": len(tags)})
}
