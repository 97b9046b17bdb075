package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crowrepuestos/storefront/internal/catalog/domain"
	"github.com/crowrepuestos/storefront/internal/catalog/repository"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
	"github.com/crowrepuestos/storefront/pkg/slug"
)

// MaxPriceCOP caps product prices at fifty million pesos to catch data
// entry mistakes.
const MaxPriceCOP = 50_000_000

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name             string `json:"name" validate:"required,min=1,max=500"`
	Description      string `json:"description"`
	Brand            string `json:"brand" validate:"required"`
	CompatibleModels string `json:"compatible_models"`
	Price            int64  `json:"price" validate:"required,gte=0"`
	Stock            int    `json:"stock" validate:"gte=0"`
	ImageURL         string `json:"image_url"`
}

// ListProductsInput narrows a catalog listing.
type ListProductsInput struct {
	Search  string
	Brand   string
	Page    int
	PerPage int
}

// ProductService implements the catalog business logic.
type ProductService struct {
	repo   repository.ProductRepository
	logger *slog.Logger
}

// NewProductService creates a catalog service.
func NewProductService(repo repository.ProductRepository, logger *slog.Logger) *ProductService {
	return &ProductService{repo: repo, logger: logger}
}

// Create registers a new product with a generated ID and slug.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Brand == "" {
		return nil, apperrors.InvalidInput("brand is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Price > MaxPriceCOP {
		return nil, apperrors.InvalidInput(fmt.Sprintf("price must not exceed %d", MaxPriceCOP))
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:               uuid.New().String(),
		Name:             input.Name,
		Slug:             slug.Generate(input.Name),
		Description:      input.Description,
		Brand:            input.Brand,
		CompatibleModels: input.CompatibleModels,
		Price:            input.Price,
		Stock:            input.Stock,
		ImageURL:         input.ImageURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// Get retrieves a product by ID.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// GetBySlug retrieves a product by its URL slug.
func (s *ProductService) GetBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	if productSlug == "" {
		return nil, apperrors.InvalidInput("slug is required")
	}

	product, err := s.repo.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return product, nil
}

// List returns a page of products matching the input filter.
func (s *ProductService) List(ctx context.Context, input ListProductsInput) ([]domain.Product, int, error) {
	filter := repository.ProductFilter{
		Page:    input.Page,
		PerPage: input.PerPage,
	}
	if input.Search != "" {
		filter.Search = &input.Search
	}
	if input.Brand != "" {
		filter.Brand = &input.Brand
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// UpdateStock sets the available stock for a product.
func (s *ProductService) UpdateStock(ctx context.Context, id string, stock int) (*domain.Product, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}

	if err := s.repo.UpdateStock(ctx, id, stock); err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload product: %w", err)
	}

	s.logger.InfoContext(ctx, "product stock updated",
		slog.String("product_id", id),
		slog.Int("stock", stock),
	)

	return product, nil
}
