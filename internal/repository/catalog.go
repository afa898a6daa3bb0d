package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawmart/pawmart-api/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, name, description, category, image_url
		FROM products ORDER BY name`

	getProductByIDSQL = `SELECT id, name, description, category, image_url
		FROM products WHERE id = $1`

	listVariantsForProductsSQL = `SELECT id, product_id, variant_name, price, discount_percent, in_stock, is_available
		FROM product_variants WHERE product_id = ANY($1) ORDER BY price`

	getVariantSQL = `SELECT id, product_id, variant_name, price, discount_percent, in_stock, is_available
		FROM product_variants WHERE id = $1`

	getVariantsSQL = `SELECT id, product_id, variant_name, price, discount_percent, in_stock, is_available
		FROM product_variants WHERE id = ANY($1)`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns all products with their variants attached.
func (r *CatalogRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	if len(products) == 0 {
		return products, nil
	}

	ids := make([]string, len(products))
	idx := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		idx[p.ID] = i
	}

	vrows, err := r.pool.Query(ctx, listVariantsForProductsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing variants: %w", err)
	}
	variants, err := pgx.CollectRows(vrows, scanVariant)
	if err != nil {
		return nil, fmt.Errorf("listing variants: %w", err)
	}
	for _, v := range variants {
		i := idx[v.ProductID]
		products[i].Variants = append(products[i].Variants, v)
	}

	return products, nil
}

// GetByID returns a single product with its variants.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	vrows, err := r.pool.Query(ctx, listVariantsForProductsSQL, []string{id})
	if err != nil {
		return nil, fmt.Errorf("getting variants for %q: %w", id, err)
	}
	p.Variants, err = pgx.CollectRows(vrows, scanVariant)
	if err != nil {
		return nil, fmt.Errorf("getting variants for %q: %w", id, err)
	}

	return &p, nil
}

// GetVariant returns a single variant by its identifier.
func (r *CatalogRepository) GetVariant(ctx context.Context, id string) (*catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, getVariantSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting variant %q: %w", id, err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, scanVariant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting variant %q: %w", id, err)
	}
	return &v, nil
}

// GetVariants returns variants matching any of the given IDs.
func (r *CatalogRepository) GetVariants(ctx context.Context, ids []string) ([]catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, getVariantsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting variants by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanVariant)
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.ImageURL)
	return p, err
}

func scanVariant(row pgx.CollectableRow) (catalog.Variant, error) {
	var v catalog.Variant
	err := row.Scan(
		&v.ID, &v.ProductID, &v.Name, &v.Price,
		&v.DiscountPercent, &v.InStock, &v.IsAvailable,
	)
	return v, err
}
