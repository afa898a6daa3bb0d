// Command seed-db loads demo data for local development and the integration
// suite: an admin and a demo customer, a small pet-supply catalog, and a set
// of promotions including the SALE10 code used throughout the docs.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/matthewhartstonge/argon2"
	"github.com/shopspring/decimal"

	"github.com/pawmart/pawmart-api/internal/repository"
)

func main() {
	var (
		databaseURL   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&adminEmail, "admin-email", "admin@pawmart.local", "admin account email")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password (or PAWMART_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("PAWMART_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or PAWMART_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedUsers(ctx, pool, adminEmail, adminPassword); err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedCatalog(ctx, pool); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	if err := seedPromotions(ctx, pool); err != nil {
		return errors.Wrap(err, "seed promotions")
	}

	return nil
}

// seedID derives a stable UUID from a seed name so repeated runs upsert the
// same rows instead of accumulating duplicates.
func seedID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("pawmart/seed/"+name)).String()
}

const upsertUserSQL = `
INSERT INTO users (id, email, password_hash, name, role)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role`

func seedUsers(ctx context.Context, pool *pgxpool.Pool, adminEmail, adminPassword string) error {
	argon := argon2.DefaultConfig()

	adminHash, err := argon.HashEncoded([]byte(adminPassword))
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}
	demoHash, err := argon.HashEncoded([]byte("demo-password"))
	if err != nil {
		return errors.Wrap(err, "hash demo password")
	}

	users := []struct {
		name  string
		email string
		hash  []byte
		role  string
		label string
	}{
		{"user/admin", adminEmail, adminHash, "admin", "Pawmart Admin"},
		{"user/demo", "demo@pawmart.local", demoHash, "customer", "Demo Customer"},
	}

	for _, u := range users {
		if _, err := pool.Exec(ctx, upsertUserSQL, seedID(u.name), u.email, string(u.hash), u.label, u.role); err != nil {
			return errors.Wrapf(err, "upsert user %s", u.email)
		}
		slog.Info("upserted user", slog.String("email", u.email), slog.String("role", u.role))
	}

	return nil
}

const upsertProductSQL = `
INSERT INTO products (id, name, description, category, image_url)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name, description = EXCLUDED.description,
    category = EXCLUDED.category, image_url = EXCLUDED.image_url`

const upsertVariantSQL = `
INSERT INTO product_variants (id, product_id, variant_name, price, discount_percent, in_stock, is_available)
VALUES ($1, $2, $3, $4, $5, $6, TRUE)
ON CONFLICT (id) DO UPDATE SET
    variant_name = EXCLUDED.variant_name, price = EXCLUDED.price,
    discount_percent = EXCLUDED.discount_percent, in_stock = EXCLUDED.in_stock,
    is_available = EXCLUDED.is_available`

type seedVariant struct {
	name            string
	price           int64
	discountPercent int64
	inStock         int
}

type seedProduct struct {
	key         string
	name        string
	description string
	category    string
	variants    []seedVariant
}

var catalog = []seedProduct{
	{
		key:         "product/salmon-crunch",
		name:        "Salmon Crunch Dry Food",
		description: "Grain-free salmon kibble for adult dogs.",
		category:    "dog-food",
		variants: []seedVariant{
			{name: "2kg", price: 120000, inStock: 40},
			{name: "5kg", price: 260000, discountPercent: 10, inStock: 25},
		},
	},
	{
		key:         "product/tuna-pate",
		name:        "Tuna Pate Cans",
		description: "Wet food pate for cats, 12-can tray.",
		category:    "cat-food",
		variants: []seedVariant{
			{name: "12x85g", price: 180000, inStock: 60},
		},
	},
	{
		key:         "product/rope-tug",
		name:        "Braided Rope Tug",
		description: "Cotton tug toy for medium breeds.",
		category:    "toys",
		variants: []seedVariant{
			{name: "One size", price: 45000, inStock: 120},
		},
	},
	{
		key:         "product/clay-litter",
		name:        "Clumping Clay Litter",
		description: "Low-dust clumping litter, unscented.",
		category:    "cat-care",
		variants: []seedVariant{
			{name: "5L", price: 95000, inStock: 80},
			{name: "10L", price: 170000, discountPercent: 5, inStock: 45},
		},
	},
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("upserting catalog", slog.Int("products", len(catalog)))

	for _, p := range catalog {
		productID := seedID(p.key)
		if _, err := pool.Exec(ctx, upsertProductSQL, productID, p.name, p.description, p.category, ""); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.name)
		}

		for _, v := range p.variants {
			variantID := seedID(p.key + "/" + v.name)
			if _, err := pool.Exec(ctx, upsertVariantSQL,
				variantID, productID, v.name,
				decimal.NewFromInt(v.price),
				decimal.NewFromInt(v.discountPercent),
				v.inStock,
			); err != nil {
				return errors.Wrapf(err, "upsert variant %s %s", p.name, v.name)
			}
		}

		slog.Info("upserted product", slog.String("name", p.name), slog.Int("variants", len(p.variants)))
	}

	return nil
}

const upsertPromotionSQL = `
INSERT INTO promotions (code, type, value, min_amount, usage_limit, description)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (code) DO UPDATE SET
    type = EXCLUDED.type, value = EXCLUDED.value, min_amount = EXCLUDED.min_amount,
    usage_limit = EXCLUDED.usage_limit, description = EXCLUDED.description`

func seedPromotions(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding promotions")

	promotions := []struct {
		code        string
		kind        string
		value       int64
		minAmount   int64
		usageLimit  int
		description string
	}{
		{"SALE10", "percentage", 10, 100000, 0, "10% off orders from 100k"},
		{"FLAT20K", "fixed", 20000, 150000, 100, "20k off orders from 150k"},
		{"FREESHIP", "free_shipping", 0, 200000, 0, "Free shipping from 200k"},
		{"PAWCOMBO", "buy_x_get_y", 0, 0, 0, "Buy 2 rope tugs, get a surprise treat"},
	}

	for _, p := range promotions {
		if _, err := pool.Exec(ctx, upsertPromotionSQL,
			p.code, p.kind,
			decimal.NewFromInt(p.value),
			decimal.NewFromInt(p.minAmount),
			p.usageLimit, p.description,
		); err != nil {
			return errors.Wrapf(err, "upsert promotion %s", p.code)
		}
		slog.Info("upserted promotion", slog.String("code", p.code), slog.String("description", p.description))
	}

	return nil
}
