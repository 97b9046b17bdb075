package store

import (
	"context"

	"github.com/crowrepuestos/storefront/client/api"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

var errLoginRequired = apperrors.Unauthorized("login required")

// CartStore is the single source of truth for the current cart. Construct
// one per application and inject it; operations are safe for concurrent use.
type CartStore struct {
	*resourceStore
}

// NewCart creates a cart store, rehydrating any persisted entries.
func NewCart(cfg Config) *CartStore {
	remote := func(token string) Backend {
		return &remoteCartBackend{client: cfg.API, token: token}
	}
	return &CartStore{
		resourceStore: newResourceStore("cart", cfg, &localBackend{incrementOnAdd: true}, remote),
	}
}

// Load refreshes the cart from the server when a credential is present.
// Failures are swallowed; the last-known list stays in place.
func (s *CartStore) Load(ctx context.Context) {
	s.load(ctx)
}

// Add puts quantity units of the product in the cart. Adding a product
// already present increments its quantity rather than duplicating the line.
func (s *CartStore) Add(ctx context.Context, product api.Product, quantity int) error {
	if product.ID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if quantity < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}

	return s.mutate(ctx, "add", func(b Backend, current []api.Entry) ([]api.Entry, error) {
		return b.Add(ctx, current, product, quantity)
	})
}

// UpdateQuantity sets the quantity of an existing line. A non-positive
// quantity removes the line entirely.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if quantity <= 0 {
		return s.Remove(ctx, productID)
	}

	return s.mutate(ctx, "update_quantity", func(b Backend, current []api.Entry) ([]api.Entry, error) {
		return b.UpdateQuantity(ctx, current, productID, quantity)
	})
}

// Remove deletes the product's line from the cart.
func (s *CartStore) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	return s.mutate(ctx, "remove", func(b Backend, current []api.Entry) ([]api.Entry, error) {
		return b.Remove(ctx, current, productID)
	})
}

// Clear empties the cart.
func (s *CartStore) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func(b Backend, _ []api.Entry) ([]api.Entry, error) {
		return b.Clear(ctx)
	})
}

// PushLocal uploads entries accumulated while anonymous to the server.
// Call it once after a successful login; it fails if no credential is
// present.
func (s *CartStore) PushLocal(ctx context.Context) error {
	return s.pushLocal(ctx)
}
