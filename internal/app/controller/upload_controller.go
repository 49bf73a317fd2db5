package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/middleware"
)

// UploadController hands out presigned S3 URLs for menu images.
type UploadController struct {
	productService service.ProductService
}

func NewUploadController(productService service.ProductService) *UploadController {
	return &UploadController{
		productService: productService,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// ProductImageURL generates a presigned PUT URL and records the resulting
// file URL on the product.
// POST /api/v1/products/:id/image-upload
func (ctrl *UploadController) ProductImageURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req GeneratePresignedURLRequest
	if !bindJSON(c, &req) {
		return
	}

	upload, err := ctrl.productService.ImageUploadURL(c.Request.Context(), id, req.Filename, req.ContentType)
	if err != nil {
		log.Warn("Failed to generate presigned URL", map[string]interface{}{
			"product_id":   id,
			"content_type": req.ContentType,
			"error":        err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	log.Info("Presigned URL generated successfully", map[string]interface{}{
		"product_id": id,
		"key":        upload.Key,
	})

	c.JSON(http.StatusOK, gin.H{
		"upload_url": upload.UploadURL,
		"file_url":   upload.FileURL,
		"key":        upload.Key,
		"expires_at": upload.ExpiresAt,
	})
}
