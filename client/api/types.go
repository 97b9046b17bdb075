package api

// Product is the snapshot of a catalog product embedded in cart and
// wishlist entries.
type Product struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	ImageURL         string `json:"image_url"`
	Stock            int    `json:"stock"`
	Brand            string `json:"brand"`
	CompatibleModels string `json:"compatible_models"`
	Description      string `json:"description,omitempty"`
}

// Entry is one line item in a cart or wishlist. Wishlist entries carry
// Quantity 1.
type Entry struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type cartPayload struct {
	Items      []Entry `json:"items"`
	TotalPrice int64   `json:"total_price"`
	TotalItems int     `json:"total_items"`
}

type wishlistItem struct {
	Product Product `json:"product"`
	AddedAt string  `json:"added_at"`
}

type wishlistPayload struct {
	Items []wishlistItem `json:"items"`
}

func (p wishlistPayload) entries() []Entry {
	entries := make([]Entry, 0, len(p.Items))
	for _, item := range p.Items {
		entries = append(entries, Entry{Product: item.Product, Quantity: 1})
	}
	return entries
}
