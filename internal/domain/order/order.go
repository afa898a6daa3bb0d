package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is an order's position in the fulfilment state machine.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipping  Status = "shipping"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions is the full state machine: pending → confirmed → shipping →
// delivered, with cancellation possible only before shipping. Delivered and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipping, StatusCancelled},
	StatusShipping:  {StatusDelivered},
}

// CanTransition reports whether the state machine permits moving from one
// status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusShipping, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", errors.Errorf("unknown order status: %q", s)
}

// PaymentMethod enumerates the accepted payment options.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCard         PaymentMethod = "card"
)

// ShippingMethod enumerates the delivery options.
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
	ShippingSameDay  ShippingMethod = "same_day"
)

// Address is the delivery destination for an order.
type Address struct {
	Province string
	District string
	Ward     string
	Detail   string
	Name     string
	Phone    string
}

// LineItem is a frozen copy of one cart line at order-creation time.
// UnitPrice and Quantity never change after creation.
type LineItem struct {
	OrderID     string
	ProductID   string
	VariantID   string
	ProductName string
	VariantName string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// Order is the atomic result of a checkout. Line items are immutable after
// creation; only Status moves, and only along the state machine.
//
// ShippingCost is stored net of any free_shipping promotion, so
// subtotal − discount + shipping_cost = total_cost always holds.
type Order struct {
	ID             string
	UserID         string
	Status         Status
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	ShippingCost   decimal.Decimal
	TotalCost      decimal.Decimal
	PromotionCode  string
	Address        Address
	PaymentMethod  PaymentMethod
	ShippingMethod ShippingMethod
	Note           string
	Items          []LineItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Sentinel errors for checkout and lifecycle operations.
var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrNotFound              = errors.New("order not found")
	ErrForbidden             = errors.New("order belongs to another user")
	ErrInvalidAddress        = errors.New("incomplete delivery address")
	ErrInvalidPaymentMethod  = errors.New("unknown payment method")
	ErrInvalidShippingMethod = errors.New("unknown shipping method")
)

// StockConflictError indicates a cart line whose requested quantity exceeds
// the variant's authoritative stock at checkout time.
type StockConflictError struct {
	VariantID string
	Requested int
	InStock   int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("variant %s: requested %d but only %d in stock", e.VariantID, e.Requested, e.InStock)
}

// InvalidTransitionError indicates a status change the state machine forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// Repository defines persistence operations for orders.
//
// Create commits the entire checkout in one transaction: order + line items
// inserted, each variant's stock conditionally decremented, the promotion's
// used_count conditionally incremented, and the user's cart cleared. It
// returns *StockConflictError when a conditional decrement matches no row,
// and promotion.ErrLimitReached when the promotion has no uses left; either
// rolls the whole transaction back.
//
// Transition moves an order to the next status under a row lock, returning
// *InvalidTransitionError when the state machine forbids it. Transitioning
// to cancelled restores each line's stock in the same transaction.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	Transition(ctx context.Context, orderID string, next Status) (*Order, error)
}
