package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pawmart/pawmart-api/internal/domain/order"
)

// Config holds the complete application configuration, loadable from
// environment variables (PAWMART_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (PAWMART_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Token       TokenConfig
	Shipping    ShippingConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// TokenConfig controls bearer-token issuance.
type TokenConfig struct {
	Secret string        `usage:"HMAC secret for signing tokens (PAWMART_TOKEN_SECRET)" flag:"token-secret"`
	TTL    time.Duration `default:"24h" usage:"Token lifetime"`
}

// ShippingConfig holds per-method flat shipping fees as decimal strings.
// All default to zero; deployments set them per market.
type ShippingConfig struct {
	Standard string `default:"0" usage:"Standard shipping fee"`
	Express  string `default:"0" usage:"Express shipping fee"`
	SameDay  string `default:"0" usage:"Same-day shipping fee" flag:"same-day"`
}

// Rates parses the configured fees into shipping rates.
func (s ShippingConfig) Rates() (order.ShippingRates, error) {
	standard, err := decimal.NewFromString(s.Standard)
	if err != nil {
		return order.ShippingRates{}, errors.Wrap(err, "standard fee")
	}
	express, err := decimal.NewFromString(s.Express)
	if err != nil {
		return order.ShippingRates{}, errors.Wrap(err, "express fee")
	}
	sameDay, err := decimal.NewFromString(s.SameDay)
	if err != nil {
		return order.ShippingRates{}, errors.Wrap(err, "same-day fee")
	}
	return order.ShippingRates{Standard: standard, Express: express, SameDay: sameDay}, nil
}

// RateLimitConfig controls the per-client fixed window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PAWMART",
		Files:     []string{"config.yaml", "/etc/pawmart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set PAWMART_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Token.Secret == "" {
		return nil, errors.New("token secret is required: set PAWMART_TOKEN_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the PAWMART_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
