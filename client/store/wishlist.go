package store

import (
	"context"

	"github.com/crowrepuestos/storefront/client/api"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

// WishlistStore is the single source of truth for the current wishlist.
// It has the same shape as CartStore minus quantities: adds are idempotent
// and membership is the interesting query.
type WishlistStore struct {
	*resourceStore
}

// NewWishlist creates a wishlist store, rehydrating any persisted entries.
func NewWishlist(cfg Config) *WishlistStore {
	remote := func(token string) Backend {
		return &remoteWishlistBackend{client: cfg.API, token: token}
	}
	return &WishlistStore{
		resourceStore: newResourceStore("wishlist", cfg, &localBackend{}, remote),
	}
}

// Load refreshes the wishlist from the server when a credential is present.
// Failures are swallowed; the last-known list stays in place.
func (s *WishlistStore) Load(ctx context.Context) {
	s.load(ctx)
}

// Add puts the product on the wishlist. Adding a product already present
// is a no-op.
func (s *WishlistStore) Add(ctx context.Context, product api.Product) error {
	if product.ID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	return s.mutate(ctx, "add", func(b Backend, current []api.Entry) ([]api.Entry, error) {
		return b.Add(ctx, current, product, 1)
	})
}

// Remove deletes the product from the wishlist.
func (s *WishlistStore) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	return s.mutate(ctx, "remove", func(b Backend, current []api.Entry) ([]api.Entry, error) {
		return b.Remove(ctx, current, productID)
	})
}

// Clear empties the wishlist.
func (s *WishlistStore) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func(b Backend, _ []api.Entry) ([]api.Entry, error) {
		return b.Clear(ctx)
	})
}

// IsFavorite reports whether the product is on the wishlist.
func (s *WishlistStore) IsFavorite(productID string) bool {
	return s.Contains(productID)
}

// PushLocal uploads entries accumulated while anonymous to the server.
func (s *WishlistStore) PushLocal(ctx context.Context) error {
	return s.pushLocal(ctx)
}

// Products returns the wishlisted product snapshots.
func (s *WishlistStore) Products() []api.Product {
	entries := s.Entries()
	products := make([]api.Product, 0, len(entries))
	for _, entry := range entries {
		products = append(products, entry.Product)
	}
	return products
}
