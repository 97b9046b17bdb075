package service

import (
	"context"
	"fmt"
	"log/slog"

	catalogdomain "github.com/crowrepuestos/storefront/internal/catalog/domain"
	"github.com/crowrepuestos/storefront/internal/wishlist/domain"
	"github.com/crowrepuestos/storefront/internal/wishlist/repository"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

// ProductGetter resolves products so additions can be checked against the
// catalog before they are stored.
type ProductGetter interface {
	Get(ctx context.Context, id string) (*catalogdomain.Product, error)
}

// WishlistService implements the business logic for wishlist operations.
type WishlistService struct {
	repo     repository.WishlistRepository
	products ProductGetter
	logger   *slog.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(repo repository.WishlistRepository, products ProductGetter, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		repo:     repo,
		products: products,
		logger:   logger,
	}
}

// List returns the user's wishlist, newest first.
func (s *WishlistService) List(ctx context.Context, userID string) ([]*domain.Item, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}

	return items, nil
}

// Add saves a product to the user's wishlist and returns the updated list.
// Adding a product that is already saved is a no-op.
func (s *WishlistService) Add(ctx context.Context, userID, productID string) ([]*domain.Item, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product for wishlist: %w", err)
	}

	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("add wishlist item: %w", err)
	}

	s.logger.InfoContext(ctx, "product added to wishlist",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)

	return s.List(ctx, userID)
}

// Remove deletes a product from the user's wishlist and returns the updated list.
func (s *WishlistService) Remove(ctx context.Context, userID, productID string) ([]*domain.Item, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("remove wishlist item: %w", err)
	}

	s.logger.InfoContext(ctx, "product removed from wishlist",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)

	return s.List(ctx, userID)
}

// Contains reports whether a product is saved in the user's wishlist.
func (s *WishlistService) Contains(ctx context.Context, userID, productID string) (bool, error) {
	if userID == "" {
		return false, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return false, apperrors.InvalidInput("product id is required")
	}

	exists, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("check wishlist item: %w", err)
	}

	return exists, nil
}

// Clear removes every entry from the user's wishlist.
func (s *WishlistService) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	if err := s.repo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}

	s.logger.InfoContext(ctx, "wishlist cleared",
		slog.String("user_id", userID),
	)

	return nil
}
