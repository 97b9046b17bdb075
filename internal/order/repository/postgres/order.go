package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/crowrepuestos/storefront/internal/order/domain"
	"github.com/crowrepuestos/storefront/pkg/database"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func marshalAddress(addr *domain.Address) ([]byte, error) {
	if addr == nil {
		return nil, nil
	}
	return json.Marshal(addr)
}

func unmarshalAddress(raw []byte) (*domain.Address, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var addr domain.Address
	if err := json.Unmarshal(raw, &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}

// Create inserts an order and its items atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	shippingJSON, err := marshalAddress(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, status, subtotal_amount, shipping_amount, total_amount, currency, shipping_address, notes, canceled_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.UserID, o.Status,
		o.SubtotalAmount, o.ShippingAmount, o.TotalAmount, o.Currency,
		shippingJSON, o.Notes, o.CanceledReason,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, brand, image_url, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, item.OrderID, item.ProductID,
			item.Name, item.Brand, item.ImageURL,
			item.Price, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID. Items are aggregated into the same
// row with JSONB_AGG so a single round trip loads the whole order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT
			o.id, o.user_id, o.status, o.subtotal_amount, o.shipping_amount,
			o.total_amount, o.currency, o.shipping_address, o.notes,
			o.canceled_reason, o.created_at, o.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'product_id', oi.product_id,
						'name', oi.name,
						'brand', oi.brand,
						'image_url', oi.image_url,
						'price', oi.price,
						'quantity', oi.quantity
					) ORDER BY oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.id = $1
		GROUP BY o.id`

	var (
		o            domain.Order
		shippingJSON []byte
		itemsJSON    []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.UserID, &o.Status,
		&o.SubtotalAmount, &o.ShippingAmount, &o.TotalAmount, &o.Currency,
		&shippingJSON, &o.Notes, &o.CanceledReason,
		&o.CreatedAt, &o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if o.ShippingAddress, err = unmarshalAddress(shippingJSON); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}

	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" && string(itemsJSON) != "[]" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}

	return &o, nil
}

// ListByUser returns the user's orders, newest first, with the total count.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int, error) {
	query := `
		SELECT id, user_id, status, subtotal_amount, shipping_amount, total_amount, currency, shipping_address, notes, canceled_reason, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var (
			o            domain.Order
			shippingJSON []byte
		)

		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Status,
			&o.SubtotalAmount, &o.ShippingAmount, &o.TotalAmount, &o.Currency,
			&shippingJSON, &o.Notes, &o.CanceledReason,
			&o.CreatedAt, &o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}

		if o.ShippingAddress, err = unmarshalAddress(shippingJSON); err != nil {
			return nil, 0, fmt.Errorf("unmarshal shipping address: %w", err)
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}

	return orders, totalCount, nil
}

// attachItems batch-loads the items of every order in one query and assigns
// them back by order ID.
func (r *OrderRepository) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	orderIDs := make([]string, len(orders))
	for i := range orders {
		orderIDs[i] = orders[i].ID
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, name, brand, image_url, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`, orderIDs)
	if err != nil {
		return fmt.Errorf("batch load order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string][]domain.OrderItem, len(orders))
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID,
			&item.Name, &item.Brand, &item.ImageURL,
			&item.Price, &item.Quantity,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order item rows: %w", err)
	}

	for i := range orders {
		items := byOrder[orders[i].ID]
		if items == nil {
			items = []domain.OrderItem{}
		}
		orders[i].Items = items
	}

	return nil
}

// UpdateStatus changes the status of an order and optionally sets a cancel reason.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status, reason string) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET status = $1, canceled_reason = $2, updated_at = $3
		WHERE id = $4`,
		status, reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}
