package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pawmart/pawmart-api/internal/domain/cart"
)

const (
	// Cart reads join the live catalog snapshot so prices shown are current
	// even when the stored unit_price has drifted.
	getCartByUserSQL = `SELECT
			ci.id, ci.user_id, ci.product_id, ci.variant_id, ci.quantity, ci.unit_price,
			p.name, pv.variant_name, p.image_url,
			pv.price, pv.discount_percent
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		JOIN product_variants pv ON pv.id = ci.variant_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`

	upsertCartItemSQL = `INSERT INTO cart_items (user_id, product_id, variant_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, variant_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity,
		    updated_at = now()
		RETURNING id, quantity, unit_price`

	updateCartQuantitySQL = `UPDATE cart_items ci
		SET quantity = $3, updated_at = now()
		FROM products p, product_variants pv
		WHERE ci.user_id = $1 AND ci.id = $2
			AND p.id = ci.product_id AND pv.id = ci.variant_id
		RETURNING ci.id, ci.user_id, ci.product_id, ci.variant_id, ci.quantity, ci.unit_price,
			p.name, pv.variant_name, p.image_url,
			pv.price, pv.discount_percent`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE user_id = $1 AND id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByUser returns the user's cart items joined with the current product and
// variant snapshot.
func (r *CartRepository) GetByUser(ctx context.Context, userID string) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, getCartByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("loading cart for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartItem)
}

// Upsert inserts a cart line or, when a row for (user, variant) already
// exists, increments its quantity.
func (r *CartRepository) Upsert(ctx context.Context, item cart.Item) (*cart.Item, error) {
	row := r.pool.QueryRow(ctx, upsertCartItemSQL,
		item.UserID, item.ProductID, item.VariantID, item.Quantity, item.UnitPrice,
	)
	if err := row.Scan(&item.ID, &item.Quantity, &item.UnitPrice); err != nil {
		return nil, fmt.Errorf("upserting cart item: %w", err)
	}
	item.LivePrice = item.UnitPrice
	return &item, nil
}

// UpdateQuantity sets the quantity of the user's cart line. The returned item
// carries the same joined catalog snapshot as GetByUser.
func (r *CartRepository) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*cart.Item, error) {
	var (
		it              cart.Item
		price           decimal.Decimal
		discountPercent decimal.Decimal
	)
	row := r.pool.QueryRow(ctx, updateCartQuantitySQL, userID, itemID, quantity)
	err := row.Scan(
		&it.ID, &it.UserID, &it.ProductID, &it.VariantID, &it.Quantity, &it.UnitPrice,
		&it.ProductName, &it.VariantName, &it.ImageURL,
		&price, &discountPercent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, fmt.Errorf("updating cart quantity: %w", err)
	}
	it.LivePrice = livePrice(price, discountPercent)
	return &it, nil
}

// Delete removes a single cart line. Unknown ids are a no-op.
func (r *CartRepository) Delete(ctx context.Context, userID, itemID string) error {
	if _, err := r.pool.Exec(ctx, deleteCartItemSQL, userID, itemID); err != nil {
		return fmt.Errorf("deleting cart item %q: %w", itemID, err)
	}
	return nil
}

// Clear removes every cart line for the user. Idempotent.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, userID); err != nil {
		return fmt.Errorf("clearing cart for user %q: %w", userID, err)
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var (
		it              cart.Item
		price           decimal.Decimal
		discountPercent decimal.Decimal
	)
	err := row.Scan(
		&it.ID, &it.UserID, &it.ProductID, &it.VariantID, &it.Quantity, &it.UnitPrice,
		&it.ProductName, &it.VariantName, &it.ImageURL,
		&price, &discountPercent,
	)
	if err != nil {
		return it, err
	}

	it.LivePrice = livePrice(price, discountPercent)
	return it, nil
}

func livePrice(price, discountPercent decimal.Decimal) decimal.Decimal {
	if discountPercent.IsZero() {
		return price
	}
	hundred := decimal.NewFromInt(100)
	return price.Sub(price.Mul(discountPercent).Div(hundred)).Round(2)
}
