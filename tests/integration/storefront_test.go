//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	token := registerUser(t, "register-flow@test.local")
	if token == "" {
		t.Fatal("expected a bearer token")
	}

	// Duplicate registration conflicts.
	resp := doRequest(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "register-flow@test.local",
		"password": "longenough-pw",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    demoEmail,
		"password": "not-the-password",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProductCatalog(t *testing.T) {
	resp := doGet(t, "/api/products", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeData[[]productResponse](t, resp)
	if len(products) != 4 {
		t.Fatalf("expected 4 products, got %d", len(products))
	}

	for _, p := range products {
		if len(p.Variants) == 0 {
			t.Errorf("product %s has no variants", p.Name)
		}
	}

	// Single product fetch.
	single := doGet(t, "/api/products/"+products[0].ID, "")
	defer single.Body.Close()
	if single.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", single.StatusCode)
	}

	// Unknown id.
	missing := doGet(t, "/api/products/00000000-0000-0000-0000-000000000000", "")
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}

func TestCatalogMarkdownPrice(t *testing.T) {
	resp := doGet(t, "/api/products", "")
	defer resp.Body.Close()

	products := decodeData[[]productResponse](t, resp)
	for _, p := range products {
		if p.Name != "Salmon Crunch Dry Food" {
			continue
		}
		for _, v := range p.Variants {
			if v.Name != "5kg" {
				continue
			}
			// 260000 with 10% markdown.
			if v.EffectivePrice != "234000" {
				t.Errorf("effective price: got %s, want 234000", v.EffectivePrice)
			}
			return
		}
	}
	t.Fatal("5kg salmon variant not found")
}

func TestCartRequiresAuth(t *testing.T) {
	resp := doGet(t, "/api/cart", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCartFlow(t *testing.T) {
	token := registerUser(t, "cart-flow@test.local")
	productID, variantID, _ := findVariant(t, "Braided Rope Tug", "One size")

	// Add twice: the second add increments the same line.
	for range 2 {
		resp := doRequest(t, http.MethodPost, "/api/cart/items", token, map[string]any{
			"product_id": productID,
			"variant_id": variantID,
			"quantity":   1,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("add item: expected 201, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doGet(t, "/api/cart", token)
	c := decodeData[cartResponse](t, resp)
	resp.Body.Close()

	if len(c.Items) != 1 {
		t.Fatalf("expected 1 cart line, got %d", len(c.Items))
	}
	if c.Items[0].Quantity != 2 {
		t.Errorf("quantity: got %d, want 2", c.Items[0].Quantity)
	}
	if c.Summary.Subtotal != "90000" {
		t.Errorf("subtotal: got %s, want 90000", c.Summary.Subtotal)
	}

	// Update quantity. The response carries the same joined snapshot as a
	// cart read.
	upd := doRequest(t, http.MethodPut, "/api/cart/items/"+c.Items[0].ID, token, map[string]int{"quantity": 3})
	if upd.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", upd.StatusCode)
	}
	updated := decodeData[cartItemResponse](t, upd)
	upd.Body.Close()
	if updated.Quantity != 3 {
		t.Errorf("updated quantity: got %d, want 3", updated.Quantity)
	}
	if updated.ProductName != "Braided Rope Tug" || updated.VariantName != "One size" {
		t.Errorf("updated item snapshot: got %q/%q", updated.ProductName, updated.VariantName)
	}
	if updated.Price != "45000" {
		t.Errorf("updated item price: got %s, want 45000", updated.Price)
	}

	// Over-stock update is rejected, not clamped.
	over := doRequest(t, http.MethodPut, "/api/cart/items/"+c.Items[0].ID, token, map[string]int{"quantity": 100000})
	if over.StatusCode != http.StatusConflict {
		t.Fatalf("over-stock update: expected 409, got %d", over.StatusCode)
	}
	over.Body.Close()

	resp = doGet(t, "/api/cart", token)
	c = decodeData[cartResponse](t, resp)
	resp.Body.Close()
	if c.Items[0].Quantity != 3 {
		t.Errorf("quantity after rejected update: got %d, want 3", c.Items[0].Quantity)
	}

	// Remove is idempotent.
	for range 2 {
		del := doRequest(t, http.MethodDelete, "/api/cart/items/"+c.Items[0].ID, token, nil)
		if del.StatusCode != http.StatusOK {
			t.Fatalf("delete: expected 200, got %d", del.StatusCode)
		}
		del.Body.Close()
	}

	resp = doGet(t, "/api/cart", token)
	c = decodeData[cartResponse](t, resp)
	resp.Body.Close()
	if len(c.Items) != 0 {
		t.Errorf("expected empty cart, got %d items", len(c.Items))
	}
}

func TestValidatePromotion(t *testing.T) {
	token := registerUser(t, "promo-validate@test.local")
	productID, variantID, _ := findVariant(t, "Tuna Pate Cans", "12x85g")

	// 180000 subtotal clears SALE10's 100000 minimum.
	resp := doRequest(t, http.MethodPost, "/api/cart/items", token, map[string]any{
		"product_id": productID,
		"variant_id": variantID,
		"quantity":   1,
	})
	resp.Body.Close()

	validate := doRequest(t, http.MethodPost, "/api/promotions/validate", token, map[string]string{"code": "SALE10"})
	if validate.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", validate.StatusCode)
	}
	v := decodeData[promotionValidationResponse](t, validate)
	validate.Body.Close()

	if v.Discount != "18000" {
		t.Errorf("discount: got %s, want 18000", v.Discount)
	}

	// Below-minimum code is rejected.
	below := doRequest(t, http.MethodPost, "/api/promotions/validate", token, map[string]string{"code": "FREESHIP"})
	defer below.Body.Close()
	if below.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", below.StatusCode)
	}

	// Unknown code.
	unknown := doRequest(t, http.MethodPost, "/api/promotions/validate", token, map[string]string{"code": "NOPE"})
	defer unknown.Body.Close()
	if unknown.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", unknown.StatusCode)
	}
}
