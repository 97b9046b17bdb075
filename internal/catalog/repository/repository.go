package repository

import (
	"context"

	"github.com/crowrepuestos/storefront/internal/catalog/domain"
)

// ProductFilter narrows List results. Nil fields are ignored.
type ProductFilter struct {
	Search  *string
	Brand   *string
	Page    int
	PerPage int
}

// ProductRepository abstracts product persistence.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
	UpdateStock(ctx context.Context, id string, stock int) error
}
