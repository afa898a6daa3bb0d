package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/pawmart-api/internal/domain/catalog"
)

// --- Mock implementations ---

type mockCartRepo struct {
	items   map[string]*Item
	nextID  int
	getErr  error
	deleted []string
	cleared []string
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{items: make(map[string]*Item)}
}

func (m *mockCartRepo) GetByUser(_ context.Context, userID string) ([]Item, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []Item
	for _, it := range m.items {
		if it.UserID == userID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *mockCartRepo) Upsert(_ context.Context, item Item) (*Item, error) {
	for _, it := range m.items {
		if it.UserID == item.UserID && it.VariantID == item.VariantID {
			it.Quantity += item.Quantity
			cp := *it
			return &cp, nil
		}
	}
	m.nextID++
	item.ID = string(rune('a' + m.nextID - 1))
	item.LivePrice = item.UnitPrice
	m.items[item.ID] = &item
	cp := item
	return &cp, nil
}

func (m *mockCartRepo) UpdateQuantity(_ context.Context, userID, itemID string, quantity int) (*Item, error) {
	it, ok := m.items[itemID]
	if !ok || it.UserID != userID {
		return nil, ErrItemNotFound
	}
	it.Quantity = quantity
	cp := *it
	return &cp, nil
}

func (m *mockCartRepo) Delete(_ context.Context, userID, itemID string) error {
	m.deleted = append(m.deleted, itemID)
	if it, ok := m.items[itemID]; ok && it.UserID == userID {
		delete(m.items, itemID)
	}
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, userID string) error {
	m.cleared = append(m.cleared, userID)
	for id, it := range m.items {
		if it.UserID == userID {
			delete(m.items, id)
		}
	}
	return nil
}

type mockCatalogRepo struct {
	variants map[string]*catalog.Variant
}

func (m *mockCatalogRepo) List(_ context.Context) ([]catalog.Product, error) { return nil, nil }

func (m *mockCatalogRepo) GetByID(_ context.Context, _ string) (*catalog.Product, error) {
	return nil, catalog.ErrNotFound
}

func (m *mockCatalogRepo) GetVariant(_ context.Context, id string) (*catalog.Variant, error) {
	v, ok := m.variants[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *mockCatalogRepo) GetVariants(_ context.Context, ids []string) ([]catalog.Variant, error) {
	var out []catalog.Variant
	for _, id := range ids {
		if v, ok := m.variants[id]; ok {
			out = append(out, *v)
		}
	}
	return out, nil
}

// --- Helpers ---

func newTestVariant(id, productID string, price int64, stock int) *catalog.Variant {
	return &catalog.Variant{
		ID:          id,
		ProductID:   productID,
		Name:        "1kg",
		Price:       decimal.NewFromInt(price),
		InStock:     stock,
		IsAvailable: true,
	}
}

func newCatalogRepo(variants ...*catalog.Variant) *mockCatalogRepo {
	byID := make(map[string]*catalog.Variant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}
	return &mockCatalogRepo{variants: byID}
}

// --- Tests ---

func TestAdd_ThenGet(t *testing.T) {
	cat := newCatalogRepo(newTestVariant("v1", "p1", 45000, 10))
	svc := NewService(newMockCartRepo(), cat)

	item, err := svc.Add(context.Background(), "u1", "p1", "v1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	c, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 3, c.Summary.TotalItems)
	assert.True(t, decimal.NewFromInt(135000).Equal(c.Summary.Subtotal),
		"expected subtotal 135000, got %s", c.Summary.Subtotal)
}

func TestAdd_SameVariantIncrements(t *testing.T) {
	cat := newCatalogRepo(newTestVariant("v1", "p1", 45000, 10))
	repo := newMockCartRepo()
	svc := NewService(repo, cat)

	_, err := svc.Add(context.Background(), "u1", "p1", "v1", 2)
	require.NoError(t, err)
	item, err := svc.Add(context.Background(), "u1", "p1", "v1", 3)
	require.NoError(t, err)

	assert.Equal(t, 5, item.Quantity)
	c, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1, "same variant must not duplicate lines")
}

func TestAdd_InvalidQuantity(t *testing.T) {
	svc := NewService(newMockCartRepo(), newCatalogRepo())

	_, err := svc.Add(context.Background(), "u1", "p1", "v1", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAdd_OutOfStock(t *testing.T) {
	cat := newCatalogRepo(newTestVariant("v1", "p1", 45000, 2))
	svc := NewService(newMockCartRepo(), cat)

	_, err := svc.Add(context.Background(), "u1", "p1", "v1", 3)

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "v1", oos.VariantID)
	assert.Equal(t, 2, oos.InStock)
}

func TestAdd_CombinedQuantityExceedsStock(t *testing.T) {
	cat := newCatalogRepo(newTestVariant("v1", "p1", 45000, 5))
	svc := NewService(newMockCartRepo(), cat)

	_, err := svc.Add(context.Background(), "u1", "p1", "v1", 4)
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), "u1", "p1", "v1", 2)
	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
}

func TestAdd_UnavailableVariant(t *testing.T) {
	v := newTestVariant("v1", "p1", 45000, 10)
	v.IsAvailable = false
	svc := NewService(newMockCartRepo(), newCatalogRepo(v))

	_, err := svc.Add(context.Background(), "u1", "p1", "v1", 1)

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, 0, oos.InStock)
}

func TestAdd_VariantOfDifferentProduct(t *testing.T) {
	cat := newCatalogRepo(newTestVariant("v1", "p1", 45000, 10))
	svc := NewService(newMockCartRepo(), cat)

	_, err := svc.Add(context.Background(), "u1", "p2", "v1", 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestUpdateQuantity_RejectsOverStock(t *testing.T) {
	cat := newCatalogRepo(newTestVariant("v1", "p1", 45000, 5))
	svc := NewService(newMockCartRepo(), cat)

	item, err := svc.Add(context.Background(), "u1", "p1", "v1", 2)
	require.NoError(t, err)

	// Over-quantity is rejected, never clamped.
	_, err = svc.UpdateQuantity(context.Background(), "u1", item.ID, 6)
	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)

	c, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Items[0].Quantity, "failed update must not change state")
}

func TestUpdateQuantity_Succeeds(t *testing.T) {
	cat := newCatalogRepo(newTestVariant("v1", "p1", 45000, 5))
	svc := NewService(newMockCartRepo(), cat)

	item, err := svc.Add(context.Background(), "u1", "p1", "v1", 2)
	require.NoError(t, err)

	updated, err := svc.UpdateQuantity(context.Background(), "u1", item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)
}

func TestUpdateQuantity_UnknownItem(t *testing.T) {
	svc := NewService(newMockCartRepo(), newCatalogRepo())

	_, err := svc.UpdateQuantity(context.Background(), "u1", "missing", 1)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemove_UnknownItemIsNoOp(t *testing.T) {
	repo := newMockCartRepo()
	svc := NewService(repo, newCatalogRepo())

	err := svc.Remove(context.Background(), "u1", "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, []string{"does-not-exist"}, repo.deleted)
}

func TestClear_Idempotent(t *testing.T) {
	cat := newCatalogRepo(newTestVariant("v1", "p1", 45000, 10))
	repo := newMockCartRepo()
	svc := NewService(repo, cat)

	_, err := svc.Add(context.Background(), "u1", "p1", "v1", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), "u1"))
	require.NoError(t, svc.Clear(context.Background(), "u1"))

	c, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 0, c.Summary.TotalItems)
}

func TestGet_EmptyCart(t *testing.T) {
	svc := NewService(newMockCartRepo(), newCatalogRepo())

	c, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, decimal.Zero.Equal(c.Summary.Subtotal))
}
