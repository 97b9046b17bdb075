package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	cartdomain "github.com/crowrepuestos/storefront/internal/cart/domain"
	"github.com/crowrepuestos/storefront/internal/order/domain"
	"github.com/crowrepuestos/storefront/internal/order/event"
	"github.com/crowrepuestos/storefront/internal/order/repository"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

const (
	// Flat shipping rate in pesos, waived above the free shipping threshold.
	shippingRate          int64 = 18000
	freeShippingThreshold int64 = 500000

	currencyCOP = "COP"
)

// CartSource provides the cart an order is checked out from.
type CartSource interface {
	GetCart(ctx context.Context, userID string) (*cartdomain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// OrderService implements the business logic for order operations.
type OrderService struct {
	repo     repository.OrderRepository
	cart     CartSource
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, cart CartSource, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		cart:     cart,
		producer: producer,
		logger:   logger,
	}
}

// CheckoutInput holds the parameters for placing an order.
type CheckoutInput struct {
	ShippingAddress *domain.Address
	Notes           string
}

// Checkout places an order from the user's current cart. Line prices come
// from the cart snapshots, never from the request. The cart is cleared once
// the order is persisted.
func (s *OrderService) Checkout(ctx context.Context, userID string, input CheckoutInput) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.ShippingAddress == nil {
		return nil, apperrors.InvalidInput("shipping address is required")
	}

	cart, err := s.cart.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart for checkout: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()

	var subtotal int64
	items := make([]domain.OrderItem, len(cart.Items))
	for i, line := range cart.Items {
		items[i] = domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Brand:     line.Product.Brand,
			ImageURL:  line.Product.ImageURL,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
		}
		subtotal += items[i].LineTotal()
	}

	shipping := shippingRate
	if subtotal >= freeShippingThreshold {
		shipping = 0
	}

	order := &domain.Order{
		ID:              orderID,
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		Items:           items,
		SubtotalAmount:  subtotal,
		ShippingAmount:  shipping,
		TotalAmount:     subtotal + shipping,
		Currency:        currencyCOP,
		ShippingAddress: input.ShippingAddress,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.cart.ClearCart(ctx, userID); err != nil {
		// The order is already placed; a stale cart is recoverable.
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("order_id", order.ID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.Int64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// GetOrder retrieves one of the user's orders by ID. Orders belonging to
// other users are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, id string) (*domain.Order, error) {
	if userID == "" || id == "" {
		return nil, apperrors.InvalidInput("user id and order id are required")
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order", id)
	}

	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("user id is required")
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	orders, total, err := s.repo.ListByUser(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// CancelOrder cancels one of the user's orders, validating the transition.
func (s *OrderService) CancelOrder(ctx context.Context, userID, id, reason string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if !order.CanTransitionTo(domain.OrderStatusCanceled) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot cancel order in %q status", order.Status))
	}

	if err := s.repo.UpdateStatus(ctx, id, domain.OrderStatusCanceled, reason); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if err := s.producer.PublishOrderCanceled(ctx, order, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.canceled event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order canceled",
		slog.String("order_id", id),
		slog.String("user_id", userID),
	)

	order.Status = domain.OrderStatusCanceled
	order.CanceledReason = reason
	order.UpdatedAt = time.Now().UTC()

	return order, nil
}
