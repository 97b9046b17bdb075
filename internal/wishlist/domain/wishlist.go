package domain

import (
	"time"

	catalogdomain "github.com/crowrepuestos/storefront/internal/catalog/domain"
)

// Item is a product saved in a user's wishlist, joined with the current
// catalog state of the product.
type Item struct {
	UserID  string                 `json:"-"`
	Product catalogdomain.Snapshot `json:"product"`
	AddedAt time.Time              `json:"added_at"`
}
