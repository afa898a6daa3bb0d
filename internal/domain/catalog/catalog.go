package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product or variant does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. A product is
// purchasable only through one of its variants.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	ImageURL    string
	Variants    []Variant
}

// Variant is a purchasable SKU of a product carrying its own price and stock.
// DiscountPercent is a catalog-level markdown applied to Price; promotion
// codes are handled separately at checkout.
type Variant struct {
	ID              string
	ProductID       string
	Name            string
	Price           decimal.Decimal
	DiscountPercent decimal.Decimal
	InStock         int
	IsAvailable     bool
}

var hundred = decimal.NewFromInt(100)

// EffectivePrice returns the unit price after the catalog markdown.
func (v Variant) EffectivePrice() decimal.Decimal {
	if v.DiscountPercent.IsZero() {
		return v.Price
	}
	return v.Price.Sub(v.Price.Mul(v.DiscountPercent).Div(hundred)).Round(2)
}

// Repository defines read operations for the product catalog. The storefront
// never mutates the catalog; stock changes happen only inside checkout and
// cancellation transactions owned by the order repository.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetVariant(ctx context.Context, id string) (*Variant, error)
	GetVariants(ctx context.Context, ids []string) ([]Variant, error)
}
