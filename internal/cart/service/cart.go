package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	cartdomain "github.com/crowrepuestos/storefront/internal/cart/domain"
	"github.com/crowrepuestos/storefront/internal/cart/event"
	"github.com/crowrepuestos/storefront/internal/cart/repository"
	catalogdomain "github.com/crowrepuestos/storefront/internal/catalog/domain"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart item.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct items allowed in a cart.
	MaxItemsPerCart = 50
)

// ProductGetter resolves product details for cart items. Prices and stock
// always come from the catalog, never from the request body.
type ProductGetter interface {
	Get(ctx context.Context, id string) (*catalogdomain.Product, error)
}

// CartService implements the business logic for cart operations.
type CartService struct {
	repo     repository.CartRepository
	products ProductGetter
	producer *event.Producer
	logger   *slog.Logger
	cartTTL  time.Duration
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, products ProductGetter, producer *event.Producer, logger *slog.Logger, cartTTL time.Duration) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		producer: producer,
		logger:   logger,
		cartTTL:  cartTTL,
	}
}

func validateItemRef(userID, productID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	return nil
}

// touch stamps the cart's update time and pushes out its expiry.
func (s *CartService) touch(cart *cartdomain.Cart) {
	now := time.Now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.cartTTL)
}

// saveAndPublish persists the cart then emits cart.updated. A publish
// failure is logged but does not fail the mutation.
func (s *CartService) saveAndPublish(ctx context.Context, cart *cartdomain.Cart) error {
	s.touch(cart)

	if err := s.repo.Save(ctx, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}

	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", cart.UserID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// GetCart retrieves the cart for a user. If no cart exists, returns an empty cart.
func (s *CartService) GetCart(ctx context.Context, userID string) (*cartdomain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	return s.getOrCreateCart(ctx, userID)
}

// AddItem adds a product to the user's cart. If the product is already in the
// cart, the quantities are merged. The product snapshot is captured from the
// catalog at the time of the call.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*cartdomain.Cart, error) {
	if err := validateItemRef(userID, productID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product for cart: %w", err)
	}

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if idx := cart.FindItemIndex(productID); idx >= 0 {
		newQty := cart.Items[idx].Quantity + quantity
		if newQty > MaxQuantityPerItem {
			return nil, apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
		}
		if !product.HasStock(newQty) {
			return nil, apperrors.OutOfStock(productID)
		}
		cart.Items[idx].Quantity = newQty
		// Refresh the snapshot in case the catalog entry changed.
		cart.Items[idx].Product = product.Snapshot()
	} else {
		if len(cart.Items) >= MaxItemsPerCart {
			return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
		}
		if !product.HasStock(quantity) {
			return nil, apperrors.OutOfStock(productID)
		}
		cart.Items = append(cart.Items, cartdomain.CartItem{
			Product:  product.Snapshot(),
			Quantity: quantity,
		})
	}

	if err := s.saveAndPublish(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// UpdateItemQuantity updates the quantity of an item in the cart. If quantity is 0, the item is removed.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*cartdomain.Cart, error) {
	if err := validateItemRef(userID, productID); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart for update: %w", err)
	}

	idx := cart.FindItemIndex(productID)
	if idx < 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}

	if quantity == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		product, err := s.products.Get(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("get product for cart: %w", err)
		}
		if !product.HasStock(quantity) {
			return nil, apperrors.OutOfStock(productID)
		}
		cart.Items[idx].Quantity = quantity
		cart.Items[idx].Product = product.Snapshot()
	}

	if err := s.saveAndPublish(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// RemoveItem removes a specific item from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*cartdomain.Cart, error) {
	if err := validateItemRef(userID, productID); err != nil {
		return nil, err
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart for remove: %w", err)
	}

	idx := cart.FindItemIndex(productID)
	if idx < 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if err := s.saveAndPublish(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)

	return cart, nil
}

// ClearCart removes all items from the user's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	if err := s.producer.PublishCartCleared(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("user_id", userID),
	)

	return nil
}

// getOrCreateCart retrieves the cart for a user, creating an empty one if it does not exist.
func (s *CartService) getOrCreateCart(ctx context.Context, userID string) (*cartdomain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return s.newEmptyCart(userID), nil
	case err != nil:
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// newEmptyCart creates a new empty cart for the given user.
func (s *CartService) newEmptyCart(userID string) *cartdomain.Cart {
	now := time.Now().UTC()
	return &cartdomain.Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     []cartdomain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cartTTL),
	}
}
