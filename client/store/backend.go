package store

import (
	"context"

	"github.com/crowrepuestos/storefront/client/api"
)

// Backend is the strategy behind a resource store. Each mutation receives
// the current entry list and returns the full canonical list that replaces
// it. The local implementation computes the next list in memory; the remote
// implementation round-trips through the API and returns the server's view.
// Quantity arguments are always >= 1; the store translates non-positive
// quantities into Remove before dispatching.
type Backend interface {
	Fetch(ctx context.Context, current []api.Entry) ([]api.Entry, error)
	Add(ctx context.Context, current []api.Entry, product api.Product, quantity int) ([]api.Entry, error)
	UpdateQuantity(ctx context.Context, current []api.Entry, productID string, quantity int) ([]api.Entry, error)
	Remove(ctx context.Context, current []api.Entry, productID string) ([]api.Entry, error)
	Clear(ctx context.Context) ([]api.Entry, error)
}

// localBackend mutates the entry list in memory without any network access.
// When incrementOnAdd is set (cart), adding a present product increments its
// quantity; otherwise (wishlist) the add is idempotent.
type localBackend struct {
	incrementOnAdd bool
}

func (b *localBackend) Fetch(_ context.Context, current []api.Entry) ([]api.Entry, error) {
	return current, nil
}

func (b *localBackend) Add(_ context.Context, current []api.Entry, product api.Product, quantity int) ([]api.Entry, error) {
	for i, entry := range current {
		if entry.Product.ID != product.ID {
			continue
		}
		if !b.incrementOnAdd {
			return current, nil
		}
		next := make([]api.Entry, len(current))
		copy(next, current)
		next[i].Quantity += quantity
		return next, nil
	}
	return append(append([]api.Entry(nil), current...), api.Entry{Product: product, Quantity: quantity}), nil
}

func (b *localBackend) UpdateQuantity(_ context.Context, current []api.Entry, productID string, quantity int) ([]api.Entry, error) {
	for i, entry := range current {
		if entry.Product.ID != productID {
			continue
		}
		next := make([]api.Entry, len(current))
		copy(next, current)
		next[i].Quantity = quantity
		return next, nil
	}
	// Absent product: nothing to update.
	return current, nil
}

func (b *localBackend) Remove(_ context.Context, current []api.Entry, productID string) ([]api.Entry, error) {
	next := make([]api.Entry, 0, len(current))
	for _, entry := range current {
		if entry.Product.ID != productID {
			next = append(next, entry)
		}
	}
	return next, nil
}

func (b *localBackend) Clear(_ context.Context) ([]api.Entry, error) {
	return []api.Entry{}, nil
}

// remoteCartBackend round-trips every mutation through the cart API and
// trusts the server's returned list wholesale.
type remoteCartBackend struct {
	client *api.Client
	token  string
}

func (b *remoteCartBackend) Fetch(ctx context.Context, _ []api.Entry) ([]api.Entry, error) {
	return b.client.FetchCart(ctx, b.token)
}

func (b *remoteCartBackend) Add(ctx context.Context, _ []api.Entry, product api.Product, quantity int) ([]api.Entry, error) {
	return b.client.AddCartItem(ctx, b.token, product.ID, quantity)
}

func (b *remoteCartBackend) UpdateQuantity(ctx context.Context, _ []api.Entry, productID string, quantity int) ([]api.Entry, error) {
	return b.client.UpdateCartItem(ctx, b.token, productID, quantity)
}

func (b *remoteCartBackend) Remove(ctx context.Context, _ []api.Entry, productID string) ([]api.Entry, error) {
	return b.client.RemoveCartItem(ctx, b.token, productID)
}

func (b *remoteCartBackend) Clear(ctx context.Context) ([]api.Entry, error) {
	if err := b.client.ClearCart(ctx, b.token); err != nil {
		return nil, err
	}
	return []api.Entry{}, nil
}

// remoteWishlistBackend is the wishlist counterpart; quantity is not part
// of the wishlist contract so Add ignores it and UpdateQuantity is a no-op
// fetch-free passthrough.
type remoteWishlistBackend struct {
	client *api.Client
	token  string
}

func (b *remoteWishlistBackend) Fetch(ctx context.Context, _ []api.Entry) ([]api.Entry, error) {
	return b.client.FetchWishlist(ctx, b.token)
}

func (b *remoteWishlistBackend) Add(ctx context.Context, _ []api.Entry, product api.Product, _ int) ([]api.Entry, error) {
	return b.client.AddWishlistItem(ctx, b.token, product.ID)
}

func (b *remoteWishlistBackend) UpdateQuantity(_ context.Context, current []api.Entry, _ string, _ int) ([]api.Entry, error) {
	return current, nil
}

func (b *remoteWishlistBackend) Remove(ctx context.Context, _ []api.Entry, productID string) ([]api.Entry, error) {
	return b.client.RemoveWishlistItem(ctx, b.token, productID)
}

func (b *remoteWishlistBackend) Clear(ctx context.Context) ([]api.Entry, error) {
	if err := b.client.ClearWishlist(ctx, b.token); err != nil {
		return nil, err
	}
	return []api.Entry{}, nil
}
