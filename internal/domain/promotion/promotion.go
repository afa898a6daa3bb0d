package promotion

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported promotion discount strategies.
type Type string

const (
	// TypePercentage applies a percentage-based discount to the cart subtotal.
	TypePercentage Type = "percentage"
	// TypeFixed applies a fixed monetary discount capped at the subtotal.
	TypeFixed Type = "fixed"
	// TypeFreeShipping waives the shipping cost instead of discounting the subtotal.
	TypeFreeShipping Type = "free_shipping"
	// TypeBuyXGetY is a display-only promotion; it grants no monetary discount.
	TypeBuyXGetY Type = "buy_x_get_y"
)

var (
	// ErrEmptyCode is returned when an empty promotion code is submitted.
	ErrEmptyCode = errors.New("promotion code required")
	// ErrNotFound is returned when no promotion exists for the given code.
	ErrNotFound = errors.New("promotion not found")
	// ErrExpired is returned when the promotion is outside its valid time window.
	ErrExpired = errors.New("promotion expired")
	// ErrLimitReached is returned when the promotion has exhausted its allowed uses.
	ErrLimitReached = errors.New("promotion usage limit reached")
	// ErrMinAmountNotMet is returned when the cart subtotal is below the
	// promotion's minimum amount.
	ErrMinAmountNotMet = errors.New("cart subtotal below promotion minimum")
)

// Promotion is a discount rule activated by a code, with eligibility
// constraints. UsageLimit of 0 means unlimited uses.
type Promotion struct {
	Code        string
	Type        Type
	Value       decimal.Decimal
	MinAmount   decimal.Decimal
	UsageLimit  int
	UsedCount   int
	Description string
	StartsAt    *time.Time
	EndsAt      *time.Time
}

// Discount is the result of evaluating a promotion against a cart subtotal.
// FreeShipping discounts are applied to the shipping cost at checkout, so
// Amount stays zero for them.
type Discount struct {
	Amount       decimal.Decimal
	FreeShipping bool
	Description  string
}

// Repository provides lookup of promotion rules. Usage counting is not part
// of this interface: used_count moves only inside the checkout transaction.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Promotion, error)
}
