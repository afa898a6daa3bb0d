package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawmart/pawmart-api/internal/domain/cart"
	"github.com/pawmart/pawmart-api/internal/domain/catalog"
	"github.com/pawmart/pawmart-api/internal/domain/promotion"
)

// ShippingRates maps shipping methods to their flat fees.
type ShippingRates struct {
	Standard decimal.Decimal
	Express  decimal.Decimal
	SameDay  decimal.Decimal
}

// CheckoutRequest holds the input for converting a cart into an order.
type CheckoutRequest struct {
	Address        Address
	PaymentMethod  PaymentMethod
	ShippingMethod ShippingMethod
	Note           string
	PromotionCode  string
}

// Service orchestrates checkout and drives the order lifecycle.
type Service struct {
	orders     Repository
	carts      cart.Repository
	catalog    catalog.Repository
	promotions promotion.Evaluator
	rates      ShippingRates
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	orders Repository,
	carts cart.Repository,
	cat catalog.Repository,
	promotions promotion.Evaluator,
	rates ShippingRates,
) *Service {
	return &Service{
		orders:     orders,
		carts:      carts,
		catalog:    cat,
		promotions: promotions,
		rates:      rates,
	}
}

// Checkout converts the user's cart into an order. Steps 1–4 (cart load,
// stock pre-check, promotion evaluation, totals) have no side effects; every
// state change happens inside the repository's single transaction, which
// re-checks stock with conditional decrements. Any failure leaves cart,
// stock, and promotion counters untouched.
func (s *Service) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	items, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// Re-validate each line against the authoritative catalog state. The
	// cart snapshot is advisory only; prices and stock are re-read here.
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.VariantID
	}
	variants, err := s.catalog.GetVariants(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get variants")
	}
	byID := make(map[string]catalog.Variant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}

	lines := make([]LineItem, len(items))
	subtotal := decimal.Zero
	for i, it := range items {
		v, ok := byID[it.VariantID]
		if !ok {
			return nil, &StockConflictError{VariantID: it.VariantID, Requested: it.Quantity}
		}
		if !v.IsAvailable || it.Quantity > v.InStock {
			return nil, &StockConflictError{
				VariantID: v.ID,
				Requested: it.Quantity,
				InStock:   v.InStock,
			}
		}

		unit := v.EffectivePrice()
		total := unit.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
		lines[i] = LineItem{
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			VariantName: v.Name,
			Quantity:    it.Quantity,
			UnitPrice:   unit,
			TotalPrice:  total,
		}
		subtotal = subtotal.Add(total)
	}
	subtotal = subtotal.Round(2)

	shippingCost := s.shippingFee(req.ShippingMethod)

	// Re-run the evaluator against the freshly computed subtotal; the
	// specific evaluator error propagates to the caller.
	discount := decimal.Zero
	promoCode := ""
	if req.PromotionCode != "" {
		p, d, err := s.promotions.Evaluate(ctx, req.PromotionCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount = d.Amount
		if d.FreeShipping {
			shippingCost = decimal.Zero
		}
		// Store the canonical code: lookup is case-insensitive, but the
		// orders table references promotions(code) exactly.
		promoCode = p.Code
	}

	total := subtotal.Sub(discount).Add(shippingCost)
	if total.IsNegative() {
		total = decimal.Zero
	}

	o := &Order{
		ID:             uuid.New().String(),
		UserID:         userID,
		Status:         StatusPending,
		Subtotal:       subtotal,
		Discount:       discount,
		ShippingCost:   shippingCost,
		TotalCost:      total.Round(2),
		PromotionCode:  promoCode,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
		ShippingMethod: req.ShippingMethod,
		Note:           req.Note,
		Items:          lines,
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}

	if err := s.orders.Create(ctx, o); err != nil {
		var sc *StockConflictError
		if errors.As(err, &sc) || errors.Is(err, promotion.ErrLimitReached) {
			return nil, err
		}
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// Cancel moves the caller's order to cancelled and restores its stock.
// Only pending and confirmed orders can be cancelled.
func (s *Service) Cancel(ctx context.Context, orderID, userID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrForbidden
	}

	return s.orders.Transition(ctx, orderID, StatusCancelled)
}

// SetStatus performs a privileged lifecycle transition (confirm, ship,
// deliver, or administrative cancel). The state machine still applies.
func (s *Service) SetStatus(ctx context.Context, orderID string, next Status, actorIsAdmin bool) (*Order, error) {
	if !actorIsAdmin {
		return nil, ErrForbidden
	}
	if _, err := ParseStatus(string(next)); err != nil {
		return nil, err
	}

	return s.orders.Transition(ctx, orderID, next)
}

// Get returns an order visible to the caller: its owner, or an admin.
func (s *Service) Get(ctx context.Context, orderID, userID string, actorIsAdmin bool) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID && !actorIsAdmin {
		return nil, ErrForbidden
	}
	return o, nil
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

func (s *Service) shippingFee(m ShippingMethod) decimal.Decimal {
	switch m {
	case ShippingExpress:
		return s.rates.Express
	case ShippingSameDay:
		return s.rates.SameDay
	default:
		return s.rates.Standard
	}
}

func validateRequest(req CheckoutRequest) error {
	a := req.Address
	if a.Name == "" || a.Phone == "" || a.Province == "" || a.District == "" || a.Ward == "" || a.Detail == "" {
		return ErrInvalidAddress
	}
	switch req.PaymentMethod {
	case PaymentCOD, PaymentBankTransfer, PaymentCard:
	default:
		return ErrInvalidPaymentMethod
	}
	switch req.ShippingMethod {
	case ShippingStandard, ShippingExpress, ShippingSameDay:
	default:
		return ErrInvalidShippingMethod
	}
	return nil
}
