package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned when a requested quantity is below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrItemNotFound is returned when a cart item id does not exist for the
	// acting user. Removal treats this as a no-op instead.
	ErrItemNotFound = errors.New("cart item not found")
)

// OutOfStockError indicates the requested quantity exceeds the variant's
// current stock, or the variant is not available for sale.
type OutOfStockError struct {
	VariantID string
	InStock   int
}

func (e *OutOfStockError) Error() string {
	return errors.Errorf("variant %s has only %d in stock", e.VariantID, e.InStock).Error()
}

// Item is a single pending-purchase line in a user's cart. UnitPrice is the
// variant price captured at add time; the live price is re-joined on read and
// re-checked at checkout.
type Item struct {
	ID          string
	UserID      string
	ProductID   string
	VariantID   string
	Quantity    int
	UnitPrice   decimal.Decimal
	ProductName string
	VariantName string
	ImageURL    string
	// LivePrice is the variant's current effective price (after catalog
	// markdown), populated when reading the cart.
	LivePrice decimal.Decimal
}

// Summary aggregates a cart for display: total item count and the subtotal
// computed from live prices.
type Summary struct {
	TotalItems int
	Subtotal   decimal.Decimal
}

// Cart is the per-user collection of items with its computed summary.
type Cart struct {
	Items   []Item
	Summary Summary
}

// Repository defines persistence operations for cart items. Upsert increments
// the quantity when a row for (user, variant) already exists. All item-scoped
// mutations are keyed by (user, item id) so users cannot touch foreign carts.
type Repository interface {
	GetByUser(ctx context.Context, userID string) ([]Item, error)
	Upsert(ctx context.Context, item Item) (*Item, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*Item, error)
	Delete(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}
