package promotion

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Apply calculates the discount for the given promotion and cart subtotal.
// Eligibility (dates, usage limit, minimum amount) is checked by the
// evaluator before this is called.
func Apply(p *Promotion, subtotal decimal.Decimal) (Discount, error) {
	switch p.Type {
	case TypePercentage:
		amount := subtotal.Mul(p.Value).Div(hundred)
		return Discount{
			Amount:      floorAtZero(amount).Round(2),
			Description: p.Description,
		}, nil
	case TypeFixed:
		amount := decimal.Min(p.Value, subtotal)
		return Discount{
			Amount:      floorAtZero(amount).Round(2),
			Description: p.Description,
		}, nil
	case TypeFreeShipping:
		// Shipping is waived at checkout; no subtotal discount.
		return Discount{
			Amount:       zero,
			FreeShipping: true,
			Description:  p.Description,
		}, nil
	case TypeBuyXGetY:
		// Display-only: the storefront shows the offer text, nothing is
		// granted automatically.
		return Discount{
			Amount:      zero,
			Description: p.Description,
		}, nil
	default:
		return Discount{}, errors.Errorf("unsupported promotion type: %q", p.Type)
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
