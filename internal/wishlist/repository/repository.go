package repository

import (
	"context"

	"github.com/crowrepuestos/storefront/internal/wishlist/domain"
)

// WishlistRepository defines the persistence operations for wishlists.
type WishlistRepository interface {
	// Add inserts a product into the user's wishlist. Adding a product that
	// is already present is a no-op.
	Add(ctx context.Context, userID, productID string) error

	// Remove deletes a product from the user's wishlist.
	Remove(ctx context.Context, userID, productID string) error

	// List returns the user's wishlist, newest first, with each entry joined
	// to the current catalog snapshot of its product.
	List(ctx context.Context, userID string) ([]*domain.Item, error)

	// Exists checks whether a product is in the user's wishlist.
	Exists(ctx context.Context, userID, productID string) (bool, error)

	// Clear removes every entry from the user's wishlist.
	Clear(ctx context.Context, userID string) error
}
