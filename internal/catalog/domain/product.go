package domain

import "time"

// Product is a truck spare part in the catalog. Prices are Colombian pesos
// stored as whole units (COP has no fractional circulation).
type Product struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description"`
	Brand            string    `json:"brand"`
	CompatibleModels string    `json:"compatible_models"`
	Price            int64     `json:"price"`
	Stock            int       `json:"stock"`
	ImageURL         string    `json:"image_url"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Snapshot is the product view embedded in cart lines, wishlist entries and
// order items, captured at the time the entry is created.
type Snapshot struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	ImageURL         string `json:"image_url"`
	Stock            int    `json:"stock"`
	Brand            string `json:"brand"`
	CompatibleModels string `json:"compatible_models"`
	Description      string `json:"description,omitempty"`
}

// Snapshot captures the product's current state for embedding.
func (p *Product) Snapshot() Snapshot {
	return Snapshot{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price,
		ImageURL:         p.ImageURL,
		Stock:            p.Stock,
		Brand:            p.Brand,
		CompatibleModels: p.CompatibleModels,
		Description:      p.Description,
	}
}

// HasStock reports whether the product can cover the requested quantity.
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}
