package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawmart/pawmart-api/internal/domain/cart"
	"github.com/pawmart/pawmart-api/internal/domain/catalog"
	"github.com/pawmart/pawmart-api/internal/domain/order"
)

// View types shape domain objects for JSON responses. Decimals marshal as
// strings, which keeps money exact on the wire.

type variantView struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	EffectivePrice  decimal.Decimal `json:"effective_price"`
	InStock         int             `json:"in_stock"`
	IsAvailable     bool            `json:"is_available"`
}

type productView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	Variants    []variantView `json:"variants"`
}

func newProductView(p catalog.Product) productView {
	variants := make([]variantView, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = variantView{
			ID:              v.ID,
			Name:            v.Name,
			Price:           v.Price,
			DiscountPercent: v.DiscountPercent,
			EffectivePrice:  v.EffectivePrice(),
			InStock:         v.InStock,
			IsAvailable:     v.IsAvailable,
		}
	}
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Variants:    variants,
	}
}

type cartItemView struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	VariantID   string          `json:"variant_id"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name"`
	ImageURL    string          `json:"image_url,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type cartSummaryView struct {
	TotalItems int             `json:"total_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Items   []cartItemView  `json:"items"`
	Summary cartSummaryView `json:"summary"`
}

func newCartItemView(it cart.Item) cartItemView {
	price := it.LivePrice
	if price.IsZero() {
		price = it.UnitPrice
	}
	return cartItemView{
		ID:          it.ID,
		ProductID:   it.ProductID,
		VariantID:   it.VariantID,
		ProductName: it.ProductName,
		VariantName: it.VariantName,
		ImageURL:    it.ImageURL,
		Quantity:    it.Quantity,
		Price:       price,
	}
}

func newCartView(c *cart.Cart) cartView {
	items := make([]cartItemView, len(c.Items))
	for i, it := range c.Items {
		items[i] = newCartItemView(it)
	}
	return cartView{
		Items: items,
		Summary: cartSummaryView{
			TotalItems: c.Summary.TotalItems,
			Subtotal:   c.Summary.Subtotal,
		},
	}
}

type addressView struct {
	Province string `json:"province"`
	District string `json:"district"`
	Ward     string `json:"ward"`
	Detail   string `json:"detail"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type orderItemView struct {
	ProductID   string          `json:"product_id"`
	VariantID   string          `json:"variant_id"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type orderView struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	PromotionCode  string          `json:"promotion_code,omitempty"`
	PaymentMethod  string          `json:"payment_method"`
	ShippingMethod string          `json:"shipping_method"`
	Note           string          `json:"note,omitempty"`
	Address        addressView     `json:"address"`
	Items          []orderItemView `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func newOrderView(o *order.Order) orderView {
	items := make([]orderItemView, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemView{
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			VariantName: it.VariantName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		}
	}
	return orderView{
		ID:             o.ID,
		Status:         string(o.Status),
		Subtotal:       o.Subtotal,
		Discount:       o.Discount,
		ShippingCost:   o.ShippingCost,
		TotalCost:      o.TotalCost,
		PromotionCode:  o.PromotionCode,
		PaymentMethod:  string(o.PaymentMethod),
		ShippingMethod: string(o.ShippingMethod),
		Note:           o.Note,
		Address: addressView{
			Province: o.Address.Province,
			District: o.Address.District,
			Ward:     o.Address.Ward,
			Detail:   o.Address.Detail,
			Name:     o.Address.Name,
			Phone:    o.Address.Phone,
		},
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}
