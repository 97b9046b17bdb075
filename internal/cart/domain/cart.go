package domain

import (
	"time"

	catalogdomain "github.com/crowrepuestos/storefront/internal/catalog/domain"
)

// Cart is a user's shopping cart. One cart per user, stored as a single
// document with a TTL.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// CartItem is one line in the cart. The product snapshot is captured from
// the catalog when the line is created.
type CartItem struct {
	Product  catalogdomain.Snapshot `json:"product"`
	Quantity int                    `json:"quantity"`
}

// TotalAmount is the cart total in pesos.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Product.Price * int64(item.Quantity)
	}
	return total
}

// ItemCount is the total number of units across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// FindItemIndex returns the index of the line for the given product, or -1.
func (c *Cart) FindItemIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}
