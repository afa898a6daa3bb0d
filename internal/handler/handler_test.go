package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/pawmart-api/internal/domain/auth"
	"github.com/pawmart/pawmart-api/internal/domain/cart"
	"github.com/pawmart/pawmart-api/internal/domain/catalog"
	"github.com/pawmart/pawmart-api/internal/domain/order"
	"github.com/pawmart/pawmart-api/internal/domain/promotion"
)

type mockAuth struct {
	registerErr error
	user        *auth.User
}

func (m *mockAuth) ParseToken(token string) (*auth.Identity, error) {
	switch token {
	case "customer-token":
		return &auth.Identity{UserID: "u1", Role: auth.RoleCustomer}, nil
	case "admin-token":
		return &auth.Identity{UserID: "a1", Role: auth.RoleAdmin}, nil
	}
	return nil, auth.ErrInvalidToken
}

func (m *mockAuth) Register(_ context.Context, email, _, name string) (*auth.User, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return &auth.User{ID: "u1", Email: email, Name: name, Role: auth.RoleCustomer}, nil
}

func (m *mockAuth) Login(_ context.Context, email, password string) (string, *auth.User, error) {
	if password != "correct horse" {
		return "", nil, auth.ErrInvalidCredentials
	}
	return "customer-token", &auth.User{ID: "u1", Email: email, Role: auth.RoleCustomer}, nil
}

type mockCatalog struct {
	products []catalog.Product
}

func (m *mockCatalog) List(context.Context) ([]catalog.Product, error) { return m.products, nil }

func (m *mockCatalog) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *mockCatalog) GetVariant(context.Context, string) (*catalog.Variant, error) {
	return nil, catalog.ErrNotFound
}

func (m *mockCatalog) GetVariants(context.Context, []string) ([]catalog.Variant, error) {
	return nil, nil
}

type mockCartSvc struct {
	cart   *cart.Cart
	addErr error
}

func (m *mockCartSvc) Get(context.Context, string) (*cart.Cart, error) {
	if m.cart == nil {
		return &cart.Cart{Items: []cart.Item{}}, nil
	}
	return m.cart, nil
}

func (m *mockCartSvc) Add(_ context.Context, userID, productID, variantID string, quantity int) (*cart.Item, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return &cart.Item{
		ID: "ci1", UserID: userID, ProductID: productID, VariantID: variantID,
		Quantity: quantity, LivePrice: decimal.NewFromInt(120000),
	}, nil
}

func (m *mockCartSvc) UpdateQuantity(_ context.Context, _, itemID string, quantity int) (*cart.Item, error) {
	if itemID != "ci1" {
		return nil, cart.ErrItemNotFound
	}
	return &cart.Item{ID: itemID, Quantity: quantity, LivePrice: decimal.NewFromInt(120000)}, nil
}

func (m *mockCartSvc) Remove(context.Context, string, string) error { return nil }
func (m *mockCartSvc) Clear(context.Context, string) error          { return nil }

type mockEvaluator struct {
	promo *promotion.Promotion
	disc  promotion.Discount
	err   error
}

func (m *mockEvaluator) Evaluate(context.Context, string, decimal.Decimal) (*promotion.Promotion, promotion.Discount, error) {
	if m.err != nil {
		return nil, promotion.Discount{}, m.err
	}
	return m.promo, m.disc, nil
}

type mockOrderSvc struct {
	order       *order.Order
	checkoutErr error
	statusErr   error
}

func (m *mockOrderSvc) Checkout(_ context.Context, userID string, _ order.CheckoutRequest) (*order.Order, error) {
	if m.checkoutErr != nil {
		return nil, m.checkoutErr
	}
	o := *m.order
	o.UserID = userID
	return &o, nil
}

func (m *mockOrderSvc) List(context.Context, string) ([]order.Order, error) {
	if m.order == nil {
		return nil, nil
	}
	return []order.Order{*m.order}, nil
}

func (m *mockOrderSvc) Get(_ context.Context, orderID, userID string, actorIsAdmin bool) (*order.Order, error) {
	if m.order == nil || m.order.ID != orderID {
		return nil, order.ErrNotFound
	}
	if m.order.UserID != userID && !actorIsAdmin {
		return nil, order.ErrForbidden
	}
	return m.order, nil
}

func (m *mockOrderSvc) Cancel(_ context.Context, orderID, userID string) (*order.Order, error) {
	o, err := m.Get(context.Background(), orderID, userID, false)
	if err != nil {
		return nil, err
	}
	cp := *o
	cp.Status = order.StatusCancelled
	return &cp, nil
}

func (m *mockOrderSvc) SetStatus(_ context.Context, orderID string, next order.Status, actorIsAdmin bool) (*order.Order, error) {
	if !actorIsAdmin {
		return nil, order.ErrForbidden
	}
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	cp := *m.order
	cp.Status = next
	return &cp, nil
}

type fixture struct {
	auth    *mockAuth
	catalog *mockCatalog
	carts   *mockCartSvc
	promos  *mockEvaluator
	orders  *mockOrderSvc
	router  http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		auth: &mockAuth{},
		catalog: &mockCatalog{products: []catalog.Product{{
			ID:   "p1",
			Name: "Salmon Crunch 2kg",
			Variants: []catalog.Variant{{
				ID: "v1", ProductID: "p1", Name: "2kg",
				Price: decimal.NewFromInt(120000), InStock: 5, IsAvailable: true,
			}},
		}}},
		carts:  &mockCartSvc{},
		promos: &mockEvaluator{},
		orders: &mockOrderSvc{},
	}
	f.router = New(f.auth, f.catalog, f.carts, f.promos, f.orders).Routes()
	return f
}

func (f *fixture) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func TestRegister(t *testing.T) {
	f := newFixture()

	rec, env := f.do(t, http.MethodPost, "/api/auth/register", "",
		`{"email":"linh@example.com","password":"longenough","name":"Linh"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	f.auth.registerErr = auth.ErrEmailTaken
	rec, env = f.do(t, http.MethodPost, "/api/auth/register", "",
		`{"email":"linh@example.com","password":"longenough"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
}

func TestLogin(t *testing.T) {
	f := newFixture()

	rec, env := f.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"linh@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "customer-token", resp.Token)

	rec, _ = f.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"linh@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListProducts(t *testing.T) {
	f := newFixture()

	rec, env := f.do(t, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	rec, _ = f.do(t, http.MethodGet, "/api/products/p1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/products/unknown", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartRequiresAuth(t *testing.T) {
	f := newFixture()

	rec, _ := f.do(t, http.MethodGet, "/api/cart", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/cart", "garbage", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/cart", "customer-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAddCartItem(t *testing.T) {
	f := newFixture()

	rec, env := f.do(t, http.MethodPost, "/api/cart/items", "customer-token",
		`{"product_id":"p1","variant_id":"v1","quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	rec, _ = f.do(t, http.MethodPost, "/api/cart/items", "customer-token",
		`{"variant_id":"v1","quantity":2}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	f.carts.addErr = &cart.OutOfStockError{VariantID: "v1", InStock: 1}
	rec, env = f.do(t, http.MethodPost, "/api/cart/items", "customer-token",
		`{"product_id":"p1","variant_id":"v1","quantity":5}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, env.Message, "in stock")
}

func TestUpdateCartItem(t *testing.T) {
	f := newFixture()

	rec, _ := f.do(t, http.MethodPut, "/api/cart/items/ci1", "customer-token",
		`{"quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPut, "/api/cart/items/unknown", "customer-token",
		`{"quantity":3}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidatePromotion(t *testing.T) {
	f := newFixture()
	f.carts.cart = &cart.Cart{
		Summary: cart.Summary{TotalItems: 2, Subtotal: decimal.NewFromInt(150000)},
	}
	f.promos.promo = &promotion.Promotion{Code: "SALE10", Type: promotion.TypePercentage}
	f.promos.disc = promotion.Discount{Amount: decimal.NewFromInt(15000), Description: "10% off"}

	rec, env := f.do(t, http.MethodPost, "/api/promotions/validate", "customer-token",
		`{"code":"SALE10"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var view promotionValidationView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, "SALE10", view.Code)
	assert.Equal(t, "15000", view.Discount.String())

	f.promos.err = promotion.ErrExpired
	rec, _ = f.do(t, http.MethodPost, "/api/promotions/validate", "customer-token",
		`{"code":"OLD"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	f.promos.err = promotion.ErrNotFound
	rec, _ = f.do(t, http.MethodPost, "/api/promotions/validate", "customer-token",
		`{"code":"NOPE"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

const checkoutBody = `{
	"address": {"province":"Hanoi","district":"Ba Dinh","ward":"Truc Bach",
		"detail":"12 Pho X","name":"Linh","phone":"0900000000"},
	"payment_method": "cod",
	"shipping_method": "standard"
}`

func TestCheckout(t *testing.T) {
	f := newFixture()
	f.orders.order = &order.Order{
		ID:             "o1",
		UserID:         "u1",
		Status:         order.StatusPending,
		Subtotal:       decimal.NewFromInt(240000),
		TotalCost:      decimal.NewFromInt(240000),
		PaymentMethod:  order.PaymentCOD,
		ShippingMethod: order.ShippingStandard,
	}

	rec, env := f.do(t, http.MethodPost, "/api/orders", "customer-token", checkoutBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, env.Success)

	f.orders.checkoutErr = order.ErrEmptyCart
	rec, _ = f.do(t, http.MethodPost, "/api/orders", "customer-token", checkoutBody)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	f.orders.checkoutErr = &order.StockConflictError{VariantID: "v1", Requested: 3, InStock: 1}
	rec, env = f.do(t, http.MethodPost, "/api/orders", "customer-token", checkoutBody)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, env.Message, "v1")
}

func TestOrderVisibility(t *testing.T) {
	f := newFixture()
	f.orders.order = &order.Order{ID: "o1", UserID: "u1", Status: order.StatusPending}

	rec, _ := f.do(t, http.MethodGet, "/api/orders/o1", "customer-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Admin can see any order.
	rec, _ = f.do(t, http.MethodGet, "/api/orders/o1", "admin-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/orders/missing", "customer-token", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	f := newFixture()
	f.orders.order = &order.Order{ID: "o1", UserID: "u1", Status: order.StatusPending}

	rec, env := f.do(t, http.MethodPut, "/api/orders/o1/cancel", "customer-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var view orderView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, "cancelled", view.Status)
}

func TestAdminStatusRoute(t *testing.T) {
	f := newFixture()
	f.orders.order = &order.Order{ID: "o1", UserID: "u1", Status: order.StatusPending}

	// Customers are rejected before the service is reached.
	rec, _ := f.do(t, http.MethodPut, "/api/admin/orders/o1/status", "customer-token",
		`{"status":"confirmed"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := f.do(t, http.MethodPut, "/api/admin/orders/o1/status", "admin-token",
		`{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	rec, _ = f.do(t, http.MethodPut, "/api/admin/orders/o1/status", "admin-token",
		`{"status":"teleported"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	f.orders.statusErr = &order.InvalidTransitionError{From: order.StatusDelivered, To: order.StatusConfirmed}
	rec, _ = f.do(t, http.MethodPut, "/api/admin/orders/o1/status", "admin-token",
		`{"status":"confirmed"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestBadJSONBody(t *testing.T) {
	f := newFixture()

	rec, env := f.do(t, http.MethodPost, "/api/auth/register", "", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	f := newFixture()
	f.auth.registerErr = errors.New("pq: connection refused")

	rec, env := f.do(t, http.MethodPost, "/api/auth/register", "",
		`{"email":"a@b.c","password":"longenough"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", env.Message)
}
