package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crowrepuestos/storefront/internal/catalog/domain"
	"github.com/crowrepuestos/storefront/internal/catalog/repository"
	"github.com/crowrepuestos/storefront/internal/catalog/service"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

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

func newTestHandler(repo *mockProductRepository) *ProductHandler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewProductHandler(service.NewProductService(repo, logger), logger)
}

func newTestRouter(h *ProductHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/api/v1/products", h.List)
	r.Get("/api/v1/products/{id}", h.Get)
	r.Post("/api/v1/products", h.Create)
	r.Patch("/api/v1/products/{id}/stock", h.UpdateStock)
	return r
}

func TestProductList(t *testing.T) {
	repo := new(mockProductRepository)
	h := newTestHandler(repo)

	now := time.Now().UTC()
	repo.On("List", mock.Anything, mock.Anything).Return([]domain.Product{
		{ID: "p1", Name: "Pastillas de freno", Price: 85000, Brand: "Kenworth", CreatedAt: now, UpdatedAt: now},
	}, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?search=freno", nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Data       []domain.Product `json:"data"`
			TotalCount int              `json:"total_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.TotalCount)
	require.Len(t, body.Data.Data, 1)
	assert.Equal(t, "p1", body.Data.Data[0].ID)
}

func TestProductGet_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	h := newTestHandler(repo)

	repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestProductCreate(t *testing.T) {
	repo := new(mockProductRepository)
	h := newTestHandler(repo)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	body := `{"name":"Filtro de aire","brand":"Freightliner","compatible_models":"Cascadia","price":250000,"stock":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "filtro-de-aire")
	repo.AssertExpectations(t)
}

func TestProductCreate_ValidationFailure(t *testing.T) {
	repo := new(mockProductRepository)
	h := newTestHandler(repo)

	body := `{"brand":"Freightliner","price":250000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	repo.AssertNotCalled(t, "Create")
}

func TestProductUpdateStock(t *testing.T) {
	repo := new(mockProductRepository)
	h := newTestHandler(repo)

	repo.On("UpdateStock", mock.Anything, "p1", 9).Return(nil)
	repo.On("GetByID", mock.Anything, "p1").Return(&domain.Product{ID: "p1", Stock: 9}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/products/p1/stock", strings.NewReader(`{"stock":9}`))
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}
