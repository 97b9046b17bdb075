package repository

import (
	"context"

	"github.com/crowrepuestos/storefront/internal/cart/domain"
)

// CartRepository abstracts cart persistence, keyed by user ID.
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
