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

	cartdomain "github.com/crowrepuestos/storefront/internal/cart/domain"
	catalogdomain "github.com/crowrepuestos/storefront/internal/catalog/domain"
	"github.com/crowrepuestos/storefront/internal/order/domain"
	"github.com/crowrepuestos/storefront/internal/order/event"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
	pkgkafka "github.com/crowrepuestos/storefront/pkg/kafka"
)

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id, status, reason string) error {
	args := m.Called(ctx, id, status, reason)
	return args.Error(0)
}

type mockCartSource struct {
	mock.Mock
}

func (m *mockCartSource) GetCart(ctx context.Context, userID string) (*cartdomain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cartdomain.Cart), args.Error(1)
}

func (m *mockCartSource) ClearCart(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newTestService(repo *mockOrderRepository, cart *mockCartSource) *OrderService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	producer := event.NewProducer(kafkaProducer, logger)
	return NewOrderService(repo, cart, producer, logger)
}

func testCart(userID string) *cartdomain.Cart {
	now := time.Now().UTC()
	return &cartdomain.Cart{
		ID:     "cart-1",
		UserID: userID,
		Items: []cartdomain.CartItem{
			{
				Product: catalogdomain.Snapshot{
					ID:    "prod-1",
					Name:  "Turbo Holset HX40 Cummins",
					Brand: "Holset",
					Price: 3200000,
				},
				Quantity: 1,
			},
			{
				Product: catalogdomain.Snapshot{
					ID:    "prod-2",
					Name:  "Juego de empaques motor ISX",
					Brand: "Cummins",
					Price: 420000,
				},
				Quantity: 2,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testAddress() *domain.Address {
	return &domain.Address{
		FullName:    "Carlos Mendoza",
		AddressLine: "Calle 45 #12-30, bodega 4",
		City:        "Barranquilla",
		Department:  "Atlántico",
		Phone:       "+57 315 555 0101",
	}
}

func TestCheckout_PlacesOrderFromCart(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	cart.On("GetCart", mock.Anything, "user-1").Return(testCart("user-1"), nil)
	cart.On("ClearCart", mock.Anything, "user-1").Return(nil)

	var created *domain.Order
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Order)
		}).
		Return(nil)

	order, err := svc.Checkout(context.Background(), "user-1", CheckoutInput{
		ShippingAddress: testAddress(),
		Notes:           "entregar en horario de bodega",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "COP", order.Currency)
	assert.Len(t, order.Items, 2)
	// 3200000*1 + 420000*2, above the free shipping threshold.
	assert.Equal(t, int64(4040000), order.SubtotalAmount)
	assert.Equal(t, int64(0), order.ShippingAmount)
	assert.Equal(t, int64(4040000), order.TotalAmount)
	assert.Equal(t, "prod-1", order.Items[0].ProductID)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	cart.AssertCalled(t, "ClearCart", mock.Anything, "user-1")
}

func TestCheckout_ChargesShippingBelowThreshold(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	small := testCart("user-1")
	small.Items = small.Items[1:2]
	small.Items[0].Quantity = 1 // subtotal 420000, under the free shipping threshold

	cart.On("GetCart", mock.Anything, "user-1").Return(small, nil)
	cart.On("ClearCart", mock.Anything, "user-1").Return(nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	order, err := svc.Checkout(context.Background(), "user-1", CheckoutInput{ShippingAddress: testAddress()})
	require.NoError(t, err)

	assert.Equal(t, int64(420000), order.SubtotalAmount)
	assert.Equal(t, int64(18000), order.ShippingAmount)
	assert.Equal(t, int64(438000), order.TotalAmount)
}

func TestCheckout_EmptyCart(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	empty := testCart("user-1")
	empty.Items = nil
	cart.On("GetCart", mock.Anything, "user-1").Return(empty, nil)

	_, err := svc.Checkout(context.Background(), "user-1", CheckoutInput{ShippingAddress: testAddress()})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_MissingAddress(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	_, err := svc.Checkout(context.Background(), "user-1", CheckoutInput{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCheckout_RepositoryError(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	cart.On("GetCart", mock.Anything, "user-1").Return(testCart("user-1"), nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(errors.New("connection refused"))

	_, err := svc.Checkout(context.Background(), "user-1", CheckoutInput{ShippingAddress: testAddress()})
	require.Error(t, err)
	cart.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything)
}

func TestCheckout_SucceedsWhenCartClearFails(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	cart.On("GetCart", mock.Anything, "user-1").Return(testCart("user-1"), nil)
	cart.On("ClearCart", mock.Anything, "user-1").Return(errors.New("redis down"))
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	order, err := svc.Checkout(context.Background(), "user-1", CheckoutInput{ShippingAddress: testAddress()})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
}

func TestGetOrder_OwnedByUser(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	repo.On("GetByID", mock.Anything, "order-1").Return(&domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: domain.OrderStatusPending,
	}, nil)

	order, err := svc.GetOrder(context.Background(), "user-1", "order-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
}

func TestGetOrder_OtherUsersOrderIsHidden(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	repo.On("GetByID", mock.Anything, "order-1").Return(&domain.Order{
		ID:     "order-1",
		UserID: "user-2",
	}, nil)

	_, err := svc.GetOrder(context.Background(), "user-1", "order-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := svc.GetOrder(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListOrders_ClampsPagination(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	repo.On("ListByUser", mock.Anything, "user-1", 100, 0).Return([]domain.Order{}, 0, nil)

	_, total, err := svc.ListOrders(context.Background(), "user-1", 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	repo.AssertExpectations(t)
}

func TestListOrders_ReturnsOrders(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	repo.On("ListByUser", mock.Anything, "user-1", 20, 0).Return([]domain.Order{
		{ID: "order-2", UserID: "user-1", Status: domain.OrderStatusShipped},
		{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusDelivered},
	}, 2, nil)

	orders, total, err := svc.ListOrders(context.Background(), "user-1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, orders, 2)
	assert.Equal(t, "order-2", orders[0].ID)
}

func TestCancelOrder_Pending(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	repo.On("GetByID", mock.Anything, "order-1").Return(&domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: domain.OrderStatusPending,
	}, nil)
	repo.On("UpdateStatus", mock.Anything, "order-1", domain.OrderStatusCanceled, "pedido duplicado").Return(nil)

	order, err := svc.CancelOrder(context.Background(), "user-1", "order-1", "pedido duplicado")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	assert.Equal(t, "pedido duplicado", order.CanceledReason)
}

func TestCancelOrder_ShippedIsRejected(t *testing.T) {
	repo := new(mockOrderRepository)
	cart := new(mockCartSource)
	svc := newTestService(repo, cart)

	repo.On("GetByID", mock.Anything, "order-1").Return(&domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: domain.OrderStatusShipped,
	}, nil)

	_, err := svc.CancelOrder(context.Background(), "user-1", "order-1", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
