package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crowrepuestos/storefront/internal/cart/domain"
	"github.com/crowrepuestos/storefront/internal/cart/event"
	catalogdomain "github.com/crowrepuestos/storefront/internal/catalog/domain"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
	pkgkafka "github.com/crowrepuestos/storefront/pkg/kafka"
)

// --- Mock Repository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Mock Product Getter ---

type mockProductGetter struct {
	mock.Mock
}

func (m *mockProductGetter) Get(ctx context.Context, id string) (*catalogdomain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogdomain.Product), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(repo *mockCartRepository, products *mockProductGetter) *CartService {
	logger := newTestLogger()
	// Kafka producer pointed at an unreachable broker; publish failures are
	// logged and swallowed by the service.
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	producer := event.NewProducer(kafkaProducer, logger)
	return NewCartService(repo, products, producer, logger, 24*time.Hour)
}

func testProduct() *catalogdomain.Product {
	now := time.Now().UTC()
	return &catalogdomain.Product{
		ID:               "prod-1",
		Name:             "Filtro de aceite Cummins ISX",
		Slug:             "filtro-de-aceite-cummins-isx",
		Brand:            "Cummins",
		CompatibleModels: "ISX 15, X15",
		Price:            145000,
		Stock:            10,
		ImageURL:         "https://cdn.example.com/filtro.jpg",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func newCartWithItem(userID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:     "cart-123",
		UserID: userID,
		Items: []domain.CartItem{
			{
				Product:  testProduct().Snapshot(),
				Quantity: 2,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

// --- Tests ---

func TestGetCart_Empty(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))

	cart, err := svc.GetCart(ctx, "user-1")

	require.NoError(t, err)
	assert.NotEmpty(t, cart.ID)
	assert.Equal(t, "user-1", cart.UserID)
	assert.Empty(t, cart.Items)
	assert.NotZero(t, cart.CreatedAt)
	assert.NotZero(t, cart.UpdatedAt)
	assert.NotZero(t, cart.ExpiresAt)

	repo.AssertExpectations(t)
}

func TestGetCart_Existing(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	expected := newCartWithItem("user-1")
	repo.On("Get", ctx, "user-1").Return(expected, nil)

	cart, err := svc.GetCart(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, expected, cart)
	assert.Len(t, cart.Items, 1)

	repo.AssertExpectations(t)
}

func TestGetCart_EmptyUserID(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)

	cart, err := svc.GetCart(context.Background(), "")

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_NewItem(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	products.On("Get", ctx, "prod-1").Return(testProduct(), nil)
	// Cart does not exist yet, returns not found.
	repo.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.AddItem(ctx, "user-1", "prod-1", 2)

	require.NoError(t, err)
	assert.NotEmpty(t, cart.ID)
	assert.Equal(t, "user-1", cart.UserID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "prod-1", cart.Items[0].Product.ID)
	assert.Equal(t, "Filtro de aceite Cummins ISX", cart.Items[0].Product.Name)
	assert.Equal(t, int64(145000), cart.Items[0].Product.Price)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestAddItem_MergeExisting(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	existing := newCartWithItem("user-1")
	products.On("Get", ctx, "prod-1").Return(testProduct(), nil)
	repo.On("Get", ctx, "user-1").Return(existing, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.AddItem(ctx, "user-1", "prod-1", 3)

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	// Quantity merged: 2 existing + 3 new.
	assert.Equal(t, 5, cart.Items[0].Quantity)

	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestAddItem_InsufficientStock(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	product := testProduct()
	product.Stock = 1
	products.On("Get", ctx, "prod-1").Return(product, nil)
	repo.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))

	cart, err := svc.AddItem(ctx, "user-1", "prod-1", 2)

	assert.Nil(t, cart)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)

	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestAddItem_MergeExceedsStock(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	product := testProduct()
	product.Stock = 3
	existing := newCartWithItem("user-1") // holds quantity 2 already
	products.On("Get", ctx, "prod-1").Return(product, nil)
	repo.On("Get", ctx, "user-1").Return(existing, nil)

	cart, err := svc.AddItem(ctx, "user-1", "prod-1", 2)

	assert.Nil(t, cart)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)
}

func TestAddItem_ProductNotFound(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	products.On("Get", ctx, "prod-999").Return(nil, apperrors.NotFound("product", "prod-999"))

	cart, err := svc.AddItem(ctx, "user-1", "prod-999", 1)

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	products.AssertExpectations(t)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)

	cart, err := svc.AddItem(context.Background(), "user-1", "prod-1", 0)

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_QuantityExceedsLimit(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)

	cart, err := svc.AddItem(context.Background(), "user-1", "prod-1", MaxQuantityPerItem+1)

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_EmptyUserID(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)

	cart, err := svc.AddItem(context.Background(), "", "prod-1", 1)

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_EmptyProductID(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)

	cart, err := svc.AddItem(context.Background(), "user-1", "", 1)

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_CartFull(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	full := newCartWithItem("user-1")
	full.Items = make([]domain.CartItem, MaxItemsPerCart)
	for i := range full.Items {
		full.Items[i] = domain.CartItem{
			Product:  catalogdomain.Snapshot{ID: "prod-" + string(rune('a'+i%26))},
			Quantity: 1,
		}
	}

	newProduct := testProduct()
	newProduct.ID = "prod-new"
	products.On("Get", ctx, "prod-new").Return(newProduct, nil)
	repo.On("Get", ctx, "user-1").Return(full, nil)

	cart, err := svc.AddItem(ctx, "user-1", "prod-new", 1)

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateItemQuantity_Success(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	existing := newCartWithItem("user-1")
	products.On("Get", ctx, "prod-1").Return(testProduct(), nil)
	repo.On("Get", ctx, "user-1").Return(existing, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.UpdateItemQuantity(ctx, "user-1", "prod-1", 5)

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestUpdateItemQuantity_ZeroRemoves(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	existing := newCartWithItem("user-1")
	repo.On("Get", ctx, "user-1").Return(existing, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.UpdateItemQuantity(ctx, "user-1", "prod-1", 0)

	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	repo.AssertExpectations(t)
}

func TestUpdateItemQuantity_ExceedsStock(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	product := testProduct()
	product.Stock = 4
	existing := newCartWithItem("user-1")
	products.On("Get", ctx, "prod-1").Return(product, nil)
	repo.On("Get", ctx, "user-1").Return(existing, nil)

	cart, err := svc.UpdateItemQuantity(ctx, "user-1", "prod-1", 5)

	assert.Nil(t, cart)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)
}

func TestUpdateItemQuantity_ItemNotFound(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	existing := newCartWithItem("user-1")
	repo.On("Get", ctx, "user-1").Return(existing, nil)

	cart, err := svc.UpdateItemQuantity(ctx, "user-1", "prod-999", 5)

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	repo.AssertExpectations(t)
}

func TestUpdateItemQuantity_NegativeQuantity(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)

	cart, err := svc.UpdateItemQuantity(context.Background(), "user-1", "prod-1", -1)

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateItemQuantity_CartNotFound(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))

	cart, err := svc.UpdateItemQuantity(ctx, "user-1", "prod-1", 5)

	assert.Nil(t, cart)
	assert.Error(t, err)

	repo.AssertExpectations(t)
}

func TestRemoveItem_Success(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	existing := newCartWithItem("user-1")
	repo.On("Get", ctx, "user-1").Return(existing, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.RemoveItem(ctx, "user-1", "prod-1")

	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	repo.AssertExpectations(t)
}

func TestRemoveItem_NotFound(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	existing := newCartWithItem("user-1")
	repo.On("Get", ctx, "user-1").Return(existing, nil)

	cart, err := svc.RemoveItem(ctx, "user-1", "prod-999")

	assert.Nil(t, cart)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	repo.AssertExpectations(t)
}

func TestClearCart_Success(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("Delete", ctx, "user-1").Return(nil)

	err := svc.ClearCart(ctx, "user-1")

	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestClearCart_EmptyUserID(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)

	err := svc.ClearCart(context.Background(), "")

	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
