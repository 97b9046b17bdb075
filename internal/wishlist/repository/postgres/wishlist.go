package postgres

import (
	"context"
	"fmt"

	"github.com/crowrepuestos/storefront/internal/wishlist/domain"
	"github.com/crowrepuestos/storefront/pkg/database"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

// WishlistRepository implements repository.WishlistRepository using PostgreSQL.
type WishlistRepository struct {
	db database.DBTX
}

// NewWishlistRepository creates a PostgreSQL-backed wishlist repository.
func NewWishlistRepository(db database.DBTX) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Add inserts a product into the user's wishlist.
// Uses ON CONFLICT DO NOTHING for idempotent behavior.
func (r *WishlistRepository) Add(ctx context.Context, userID, productID string) error {
	query := `
		INSERT INTO wishlists (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}

	return nil
}

// Remove deletes a product from the user's wishlist.
func (r *WishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	query := `DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`

	ct, err := r.db.Exec(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist item", productID)
	}

	return nil
}

// List returns the user's wishlist, newest first, joined with the catalog so
// every entry carries the product's current price and stock.
func (r *WishlistRepository) List(ctx context.Context, userID string) ([]*domain.Item, error) {
	query := `
		SELECT w.user_id, w.created_at,
		       p.id, p.name, p.price, p.image_url, p.stock, p.brand, p.compatible_models, p.description
		FROM wishlists w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.UserID,
			&item.AddedAt,
			&item.Product.ID,
			&item.Product.Name,
			&item.Product.Price,
			&item.Product.ImageURL,
			&item.Product.Stock,
			&item.Product.Brand,
			&item.Product.CompatibleModels,
			&item.Product.Description,
		); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist rows: %w", err)
	}

	if items == nil {
		items = []*domain.Item{}
	}

	return items, nil
}

// Exists checks whether a product is in the user's wishlist.
func (r *WishlistRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM wishlists WHERE user_id = $1 AND product_id = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check wishlist item exists: %w", err)
	}

	return exists, nil
}

// Clear removes every entry from the user's wishlist.
func (r *WishlistRepository) Clear(ctx context.Context, userID string) error {
	query := `DELETE FROM wishlists WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}

	return nil
}
