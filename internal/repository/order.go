package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawmart/pawmart-api/internal/domain/order"
	"github.com/pawmart/pawmart-api/internal/domain/promotion"
)

const (
	insertOrderSQL = `INSERT INTO orders (
			id, user_id, status, subtotal, discount, shipping_cost, total_cost,
			promotion_code,
			address_province, address_district, address_ward, address_detail,
			receiver_name, receiver_phone,
			payment_method, shipping_method, note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`

	insertOrderItemSQL = `INSERT INTO order_items (
			order_id, product_id, variant_id, product_name, variant_name,
			quantity, unit_price, total_price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// Compare-and-decrement: the WHERE clause is the stock guard, so two
	// concurrent checkouts over the same last unit can never both match.
	decrementStockSQL = `UPDATE product_variants
		SET in_stock = in_stock - $2
		WHERE id = $1 AND is_available AND in_stock >= $2`

	currentStockSQL = `SELECT in_stock FROM product_variants WHERE id = $1`

	restockSQL = `UPDATE product_variants
		SET in_stock = in_stock + $2
		WHERE id = $1`

	// Guarded increment: matches no row once the usage limit is exhausted.
	usePromotionSQL = `UPDATE promotions
		SET used_count = used_count + 1
		WHERE code = UPPER($1) AND (usage_limit = 0 OR used_count < usage_limit)`

	clearCartForCheckoutSQL = `DELETE FROM cart_items WHERE user_id = $1`

	getOrderSQL = `SELECT
			id, user_id, status, subtotal, discount, shipping_cost, total_cost,
			COALESCE(promotion_code, ''),
			address_province, address_district, address_ward, address_detail,
			receiver_name, receiver_phone,
			payment_method, shipping_method, note, created_at, updated_at
		FROM orders WHERE id = $1`

	lockOrderStatusSQL = `SELECT status FROM orders WHERE id = $1 FOR UPDATE`

	setOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`

	listOrdersByUserSQL = `SELECT
			id, user_id, status, subtotal, discount, shipping_cost, total_cost,
			COALESCE(promotion_code, ''),
			address_province, address_district, address_ward, address_detail,
			receiver_name, receiver_phone,
			payment_method, shipping_method, note, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	getOrderItemsSQL = `SELECT order_id, product_id, variant_id, product_name, variant_name,
			quantity, unit_price, total_price
		FROM order_items WHERE order_id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Checkout
// and lifecycle transitions run as single transactions so stock, promotion
// counters, cart, and order rows always move together.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create commits a checkout atomically: order + line items inserted, stock
// conditionally decremented per line, the promotion's used_count consumed,
// and the user's cart cleared. Any guard failing rolls everything back.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin checkout tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var promoCode any
	if o.PromotionCode != "" {
		promoCode = o.PromotionCode
	}

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.ID, o.UserID, o.Status, o.Subtotal, o.Discount, o.ShippingCost, o.TotalCost,
		promoCode,
		o.Address.Province, o.Address.District, o.Address.Ward, o.Address.Detail,
		o.Address.Name, o.Address.Phone,
		o.PaymentMethod, o.ShippingMethod, o.Note,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	for _, li := range o.Items {
		_, err = tx.Exec(ctx, insertOrderItemSQL,
			o.ID, li.ProductID, li.VariantID, li.ProductName, li.VariantName,
			li.Quantity, li.UnitPrice, li.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("inserting order item %q: %w", li.VariantID, err)
		}

		tag, err := tx.Exec(ctx, decrementStockSQL, li.VariantID, li.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for %q: %w", li.VariantID, err)
		}
		if tag.RowsAffected() == 0 {
			// Lost the race or the variant went unavailable; report the
			// remaining stock for the error message.
			var inStock int
			if err := tx.QueryRow(ctx, currentStockSQL, li.VariantID).Scan(&inStock); err != nil {
				inStock = 0
			}
			return &order.StockConflictError{
				VariantID: li.VariantID,
				Requested: li.Quantity,
				InStock:   inStock,
			}
		}
	}

	if o.PromotionCode != "" {
		tag, err := tx.Exec(ctx, usePromotionSQL, o.PromotionCode)
		if err != nil {
			return fmt.Errorf("consuming promotion %q: %w", o.PromotionCode, err)
		}
		if tag.RowsAffected() == 0 {
			return promotion.ErrLimitReached
		}
	}

	if _, err := tx.Exec(ctx, clearCartForCheckoutSQL, o.UserID); err != nil {
		return fmt.Errorf("clearing cart for user %q: %w", o.UserID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit checkout tx: %w", err)
	}
	return nil
}

// GetByID returns an order with its line items.
// Returns order.ErrNotFound when no such order exists.
func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", orderID, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", orderID, err)
	}

	irows, err := r.pool.Query(ctx, getOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %q: %w", orderID, err)
	}
	o.Items, err = pgx.CollectRows(irows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %q: %w", orderID, err)
	}

	return &o, nil
}

// ListByUser returns the user's orders, newest first, without line items.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Transition moves an order to the next status under a row lock, enforcing
// the state machine. Moving to cancelled restores each line's stock in the
// same transaction, the exact inverse of checkout's decrement.
func (r *OrderRepository) Transition(ctx context.Context, orderID string, next order.Status) (*order.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current order.Status
	if err := tx.QueryRow(ctx, lockOrderStatusSQL, orderID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("locking order %q: %w", orderID, err)
	}

	if !order.CanTransition(current, next) {
		return nil, &order.InvalidTransitionError{From: current, To: next}
	}

	if _, err := tx.Exec(ctx, setOrderStatusSQL, orderID, next); err != nil {
		return nil, fmt.Errorf("updating order %q status: %w", orderID, err)
	}

	if next == order.StatusCancelled {
		irows, err := tx.Query(ctx, getOrderItemsSQL, orderID)
		if err != nil {
			return nil, fmt.Errorf("loading items for restock: %w", err)
		}
		items, err := pgx.CollectRows(irows, scanOrderItem)
		if err != nil {
			return nil, fmt.Errorf("loading items for restock: %w", err)
		}
		for _, li := range items {
			if _, err := tx.Exec(ctx, restockSQL, li.VariantID, li.Quantity); err != nil {
				return nil, fmt.Errorf("restocking variant %q: %w", li.VariantID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition tx: %w", err)
	}

	return r.GetByID(ctx, orderID)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.Discount, &o.ShippingCost, &o.TotalCost,
		&o.PromotionCode,
		&o.Address.Province, &o.Address.District, &o.Address.Ward, &o.Address.Detail,
		&o.Address.Name, &o.Address.Phone,
		&o.PaymentMethod, &o.ShippingMethod, &o.Note, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.LineItem, error) {
	var li order.LineItem
	err := row.Scan(
		&li.OrderID, &li.ProductID, &li.VariantID, &li.ProductName, &li.VariantName,
		&li.Quantity, &li.UnitPrice, &li.TotalPrice,
	)
	return li, err
}
