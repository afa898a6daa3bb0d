// Package handler is the REST boundary of the storefront. It translates HTTP
// requests into domain service calls and domain errors into status codes,
// holding no business rules of its own.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pawmart/pawmart-api/internal/domain/auth"
	"github.com/pawmart/pawmart-api/internal/domain/cart"
	"github.com/pawmart/pawmart-api/internal/domain/catalog"
	"github.com/pawmart/pawmart-api/internal/domain/order"
	"github.com/pawmart/pawmart-api/internal/domain/promotion"
)

// AuthService is the slice of the auth domain the REST boundary needs.
type AuthService interface {
	TokenParser
	Register(ctx context.Context, email, password, name string) (*auth.User, error)
	Login(ctx context.Context, email, password string) (string, *auth.User, error)
}

// CartService covers the cart operations exposed over HTTP.
type CartService interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	Add(ctx context.Context, userID, productID, variantID string, quantity int) (*cart.Item, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*cart.Item, error)
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}

// OrderService covers checkout and the order lifecycle.
type OrderService interface {
	Checkout(ctx context.Context, userID string, req order.CheckoutRequest) (*order.Order, error)
	List(ctx context.Context, userID string) ([]order.Order, error)
	Get(ctx context.Context, orderID, userID string, actorIsAdmin bool) (*order.Order, error)
	Cancel(ctx context.Context, orderID, userID string) (*order.Order, error)
	SetStatus(ctx context.Context, orderID string, next order.Status, actorIsAdmin bool) (*order.Order, error)
}

// Handler bundles the domain services behind the REST routes.
type Handler struct {
	auth       AuthService
	catalog    catalog.Repository
	carts      CartService
	promotions promotion.Evaluator
	orders     OrderService
}

// New creates a Handler over the given services.
func New(
	authSvc AuthService,
	cat catalog.Repository,
	carts CartService,
	promotions promotion.Evaluator,
	orders OrderService,
) *Handler {
	return &Handler{
		auth:       authSvc,
		catalog:    cat,
		carts:      carts,
		promotions: promotions,
		orders:     orders,
	}
}

// Routes mounts every API route on a fresh chi router. Probe endpoints are
// wired separately by the caller so the handler stays ignorant of health
// internals.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(h.auth))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.getCart)
				r.Delete("/", h.clearCart)
				r.Post("/items", h.addCartItem)
				r.Put("/items/{id}", h.updateCartItem)
				r.Delete("/items/{id}", h.removeCartItem)
			})

			r.Post("/promotions/validate", h.validatePromotion)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.checkout)
				r.Get("/", h.listOrders)
				r.Get("/{id}", h.getOrder)
				r.Put("/{id}/cancel", h.cancelOrder)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Put("/orders/{id}/status", h.setOrderStatus)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondFail(w, http.StatusNotFound, "route not found")
	})

	return r
}
