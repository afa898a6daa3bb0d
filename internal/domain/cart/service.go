package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pawmart/pawmart-api/internal/domain/catalog"
)

// Service encapsulates cart business rules: stock-aware adds, strict quantity
// updates, idempotent removal, and summary computation.
type Service struct {
	items   Repository
	catalog catalog.Repository
}

// NewService creates a cart Service with the required dependencies.
func NewService(items Repository, cat catalog.Repository) *Service {
	return &Service{items: items, catalog: cat}
}

// Add puts quantity units of a variant into the user's cart. An existing line
// for the same variant is incremented rather than duplicated. The combined
// quantity must not exceed the variant's current stock.
func (s *Service) Add(ctx context.Context, userID, productID, variantID string, quantity int) (*Item, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	v, err := s.catalog.GetVariant(ctx, variantID)
	if err != nil {
		return nil, errors.Wrap(err, "get variant")
	}
	if v.ProductID != productID {
		return nil, catalog.ErrNotFound
	}
	if !v.IsAvailable || v.InStock < quantity {
		return nil, &OutOfStockError{VariantID: v.ID, InStock: availableStock(v)}
	}

	// Account for units already in the cart so the combined quantity still
	// fits the stock.
	existing, err := s.items.GetByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	for _, it := range existing {
		if it.VariantID == variantID && it.Quantity+quantity > v.InStock {
			return nil, &OutOfStockError{VariantID: v.ID, InStock: v.InStock}
		}
	}

	item, err := s.items.Upsert(ctx, Item{
		UserID:    userID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: v.EffectivePrice(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "upsert cart item")
	}
	return item, nil
}

// UpdateQuantity sets an item's quantity. The server is the source of truth:
// quantities above the variant's stock are rejected rather than clamped, so
// the client never silently under-fulfils what the user asked for.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*Item, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	items, err := s.items.GetByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	var target *Item
	for i := range items {
		if items[i].ID == itemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return nil, ErrItemNotFound
	}

	v, err := s.catalog.GetVariant(ctx, target.VariantID)
	if err != nil {
		return nil, errors.Wrap(err, "get variant")
	}
	if !v.IsAvailable || quantity > v.InStock {
		return nil, &OutOfStockError{VariantID: v.ID, InStock: availableStock(v)}
	}

	item, err := s.items.UpdateQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, errors.Wrap(err, "update quantity")
	}
	return item, nil
}

// Remove deletes a single cart item. Removing an id that does not exist (or
// belongs to someone else) is a no-op success.
func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	if err := s.items.Delete(ctx, userID, itemID); err != nil {
		return errors.Wrap(err, "delete cart item")
	}
	return nil
}

// Clear empties the user's cart. Idempotent.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.items.Clear(ctx, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

// Get returns the user's cart items joined with the live catalog snapshot,
// plus the computed summary.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	items, err := s.items.GetByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	summary := Summary{Subtotal: decimal.Zero}
	for _, it := range items {
		summary.TotalItems += it.Quantity
		line := it.LivePrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		summary.Subtotal = summary.Subtotal.Add(line)
	}
	summary.Subtotal = summary.Subtotal.Round(2)

	return &Cart{Items: items, Summary: summary}, nil
}

// availableStock reports stock as zero for unavailable variants so error
// messages do not advertise units that cannot be sold.
func availableStock(v *catalog.Variant) int {
	if !v.IsAvailable {
		return 0
	}
	return v.InStock
}
