package repository

import (
	"context"

	"github.com/crowrepuestos/storefront/internal/order/domain"
)

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, id, status, reason string) error
}
