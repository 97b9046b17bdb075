package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crowrepuestos/storefront/internal/catalog/domain"
	"github.com/crowrepuestos/storefront/internal/catalog/repository"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

// --- Mock Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	args := m.Called(ctx, id, stock)
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testProduct() *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:               "prod-1",
		Name:             "Pastillas de freno",
		Slug:             "pastillas-de-freno",
		Brand:            "Kenworth",
		CompatibleModels: "T800, T660",
		Price:            85000,
		Stock:            12,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// --- Tests ---

func TestProductCreate_Success(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.Create(ctx, CreateProductInput{
		Name:             "Espejo Retrovisor Cataño",
		Brand:            "International",
		CompatibleModels: "ProStar",
		Price:            95000,
		Stock:            3,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "espejo-retrovisor-catano", product.Slug)
	assert.Equal(t, int64(95000), product.Price)
	repo.AssertExpectations(t)
}

func TestProductCreate_Validation(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, newTestLogger())
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"missing name", CreateProductInput{Brand: "B", Price: 100}},
		{"missing brand", CreateProductInput{Name: "N", Price: 100}},
		{"negative price", CreateProductInput{Name: "N", Brand: "B", Price: -1}},
		{"price over cap", CreateProductInput{Name: "N", Brand: "B", Price: MaxPriceCOP + 1}},
		{"negative stock", CreateProductInput{Name: "N", Brand: "B", Price: 100, Stock: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		})
	}

	repo.AssertNotCalled(t, "Create")
}

func TestProductGet_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	repo.AssertExpectations(t)
}

func TestProductList_PassesFilter(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, newTestLogger())
	ctx := context.Background()

	search := "freno"
	expectedFilter := repository.ProductFilter{Search: &search, Page: 2, PerPage: 10}
	repo.On("List", ctx, expectedFilter).Return([]domain.Product{*testProduct()}, 21, nil)

	products, total, err := svc.List(ctx, ListProductsInput{Search: "freno", Page: 2, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, products, 1)
	repo.AssertExpectations(t)
}

func TestProductUpdateStock(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, newTestLogger())
	ctx := context.Background()

	updated := testProduct()
	updated.Stock = 7
	repo.On("UpdateStock", ctx, "prod-1", 7).Return(nil)
	repo.On("GetByID", ctx, "prod-1").Return(updated, nil)

	product, err := svc.UpdateStock(ctx, "prod-1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, product.Stock)
	repo.AssertExpectations(t)
}

func TestProductUpdateStock_Negative(t *testing.T) {
	repo := new(mockProductRepository)
	svc := NewProductService(repo, newTestLogger())

	_, err := svc.UpdateStock(context.Background(), "prod-1", -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	repo.AssertNotCalled(t, "UpdateStock")
}
