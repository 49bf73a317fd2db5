package service

import (
	"context"
	"strings"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/internal/storage"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/shopspring/decimal"
)

// ImageStorage hands out upload URLs; *storage.S3Storage satisfies it.
type ImageStorage interface {
	PresignUpload(ctx context.Context, folder, filename, contentType string) (*storage.PresignedUpload, error)
}

type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"max=50"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	Available   *bool           `json:"available"`
	Tags        []string        `json:"tags" validate:"max=20,dive,required,max=30"`
}

type ProductService interface {
	CreateProduct(in ProductInput) (*model.Product, error)
	UpdateProduct(id uint, in ProductInput) (*model.Product, error)
	GetProduct(id uint) (*model.Product, error)
	ListProducts(filter model.ProductFilter) ([]model.Product, int64, error)
	ListCategories() ([]string, error)
	SetAvailability(id uint, available bool) (*model.Product, error)
	DeleteProduct(id uint) error
	ImageUploadURL(ctx context.Context, id uint, filename, contentType string) (*storage.PresignedUpload, error)
}

type productService struct {
	productRepo repository.ProductRepository
	images      ImageStorage
}

// NewProductService wires the menu. images may be nil when S3 is not configured.
func NewProductService(productRepo repository.ProductRepository, images ImageStorage) ProductService {
	return &productService{productRepo: productRepo, images: images}
}

func (s *productService) check(op string, in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateInput(op, in); err != nil {
		return err
	}
	if !in.Price.IsPositive() {
		return apperrors.Validation("", "price must be greater than zero").WithOp(op)
	}
	if in.Price.Exponent() < -2 {
		return apperrors.Validation("", "price has more than two decimal places").WithOp(op)
	}
	return nil
}

func normalizeTags(tags []string) model.Tags {
	out := make(model.Tags, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (s *productService) CreateProduct(in ProductInput) (*model.Product, error) {
	const op = "product.CreateProduct"

	if err := s.check(op, &in); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Available:   in.Available == nil || *in.Available,
		Tags:        normalizeTags(in.Tags),
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, apperrors.FromDB(op, err, nil)
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"price":      product.Price.String(),
	})
	return product, nil
}

// UpdateProduct replaces the editable fields. Existing carts and orders keep
// the price they captured.
func (s *productService) UpdateProduct(id uint, in ProductInput) (*model.Product, error) {
	const op = "product.UpdateProduct"

	if err := s.check(op, &in); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrProductNotFound)
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Category = in.Category
	product.ImageURL = in.ImageURL
	product.Tags = normalizeTags(in.Tags)
	if in.Available != nil {
		product.Available = *in.Available
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, apperrors.FromDB(op, err, ErrProductNotFound)
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": id,
		"price":      product.Price.String(),
		"available":  product.Available,
	})
	return product, nil
}

func (s *productService) GetProduct(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB("product.GetProduct", err, ErrProductNotFound)
	}
	return product, nil
}

func (s *productService) ListProducts(filter model.ProductFilter) ([]model.Product, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))

	products, total, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		return nil, 0, apperrors.Storage("product.ListProducts", err)
	}
	return products, total, nil
}

func (s *productService) ListCategories() ([]string, error) {
	categories, err := s.productRepo.ListCategories()
	if err != nil {
		return nil, apperrors.Storage("product.ListCategories", err)
	}
	return categories, nil
}

func (s *productService) SetAvailability(id uint, available bool) (*model.Product, error) {
	const op = "product.SetAvailability"

	if err := s.productRepo.UpdateAvailability(id, available); err != nil {
		return nil, apperrors.FromDB(op, err, ErrProductNotFound)
	}
	logger.Info("Product availability changed", map[string]interface{}{
		"product_id": id,
		"available":  available,
	})
	return s.GetProduct(id)
}

// DeleteProduct soft-deletes; order snapshots are unaffected.
func (s *productService) DeleteProduct(id uint) error {
	if err := s.productRepo.Delete(id); err != nil {
		return apperrors.FromDB("product.DeleteProduct", err, ErrProductNotFound)
	}
	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

// ImageUploadURL presigns a PUT for a new menu image and points the product
// at the resulting file URL.
func (s *productService) ImageUploadURL(ctx context.Context, id uint, filename, contentType string) (*storage.PresignedUpload, error) {
	const op = "product.ImageUploadURL"

	if s.images == nil {
		return nil, ErrStorageDisabled.WithOp(op)
	}
	if err := storage.ValidateContentType(contentType, storage.ImageContentTypes); err != nil {
		return nil, apperrors.Validation("", "%v", err).WithOp(op)
	}
	if _, err := s.GetProduct(id); err != nil {
		return nil, err
	}

	upload, err := s.images.PresignUpload(ctx, "products", filename, contentType)
	if err != nil {
		return nil, ErrUploadFailed.WithOp(op).Wrap(err)
	}
	if err := s.productRepo.UpdateImageURL(id, upload.FileURL); err != nil {
		return nil, apperrors.FromDB(op, err, ErrProductNotFound)
	}
	return upload, nil
}
