package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/crowrepuestos/storefront/internal/catalog/domain"
	"github.com/crowrepuestos/storefront/internal/catalog/repository"
	"github.com/crowrepuestos/storefront/pkg/database"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

const productColumns = "id, name, slug, description, brand, compatible_models, price, stock, image_url, created_at, updated_at"

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, p.Slug, p.Description,
		p.Brand, p.CompatibleModels,
		p.Price, p.Stock, p.ImageURL,
		p.CreatedAt, p.UpdatedAt,
	)
	switch {
	case isUniqueViolation(err):
		return apperrors.AlreadyExists("product", "slug", p.Slug)
	case err != nil:
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.getBy(ctx, "id", id)
}

// GetBySlug retrieves a product by its slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getBy(ctx, "slug", slug)
}

func (r *ProductRepository) getBy(ctx context.Context, column, value string) (*domain.Product, error) {
	var p domain.Product

	err := r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE `+column+` = $1`,
		value,
	).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description,
		&p.Brand, &p.CompatibleModels,
		&p.Price, &p.Stock, &p.ImageURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, apperrors.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

// filterClause builds the WHERE clause and bind args for a product filter.
// Search matches name, brand, and compatible models case-insensitively.
func filterClause(filter repository.ProductFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filter.Search != nil {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR brand ILIKE $%d OR compatible_models ILIKE $%d)", n, n, n))
		args = append(args, "%"+*filter.Search+"%")
	}

	if filter.Brand != nil {
		conditions = append(conditions, fmt.Sprintf("brand = $%d", len(args)+1))
		args = append(args, *filter.Brand)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns products matching the filter plus the total count, computed
// with count(*) OVER() in the same query.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	whereClause, args := filterClause(filter)

	query := fmt.Sprintf(`
		SELECT `+productColumns+`,
			   count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, len(args)+1, len(args)+2,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	totalCount := 0
	products := make([]domain.Product, 0)

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description,
			&p.Brand, &p.CompatibleModels,
			&p.Price, &p.Stock, &p.ImageURL,
			&p.CreatedAt, &p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, totalCount, nil
}

// UpdateStock sets the available stock for a product.
func (r *ProductRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	ct, err := r.db.Exec(ctx, `UPDATE products SET stock = $1, updated_at = now() WHERE id = $2`, stock, id)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
