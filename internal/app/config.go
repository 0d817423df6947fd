package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL     string `usage:"Redis connection URL (SHOP_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com)" flag:"image-base-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (SHOP_API_KEY_PEPPER)" flag:"api-key-pepper"`
	UploadDir    string `default:"./uploads/products" usage:"Directory for uploaded product images" flag:"upload-dir"`
	Pricing      PricingConfig
	Cart         CartConfig
	SMTP         SMTPConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// PricingConfig drives server-side order totals.
type PricingConfig struct {
	TaxRate        string `default:"0.05" usage:"Sales tax rate as a decimal fraction" flag:"tax-rate"`
	ShippingFee    string `default:"9.99" usage:"Flat shipping fee" flag:"shipping-fee"`
	FreeShippingAt string `default:"100"  usage:"Subtotal at which shipping becomes free" flag:"free-shipping-at"`
}

// Policy parses the configured figures into a pricing policy.
func (c PricingConfig) Policy() (pricing.Policy, error) {
	taxRate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return pricing.Policy{}, errors.Wrap(err, "tax rate")
	}
	shippingFee, err := decimal.NewFromString(c.ShippingFee)
	if err != nil {
		return pricing.Policy{}, errors.Wrap(err, "shipping fee")
	}
	freeAt, err := decimal.NewFromString(c.FreeShippingAt)
	if err != nil {
		return pricing.Policy{}, errors.Wrap(err, "free shipping threshold")
	}
	return pricing.Policy{
		TaxRate:        taxRate,
		ShippingFee:    shippingFee,
		FreeShippingAt: freeAt,
	}, nil
}

// CartConfig controls session cart persistence.
type CartConfig struct {
	TTL time.Duration `default:"168h" usage:"Idle session cart lifetime" flag:"cart-ttl"`
}

// SMTPConfig configures order confirmation email delivery. Emails are
// disabled when Host is empty.
type SMTPConfig struct {
	Host         string `default:"" usage:"SMTP server host; empty disables email"`
	Port         int    `default:"587" usage:"SMTP server port"`
	Username     string `usage:"SMTP username"`
	Password     string `usage:"SMTP password"`
	From         string `usage:"Confirmation email From address"`
	SupportEmail string `default:"support@oakmart.example" usage:"Support contact shown in emails" flag:"support-email"`
}

// RateLimitConfig controls the per-client token bucket rate limiter.
type RateLimitConfig struct {
	RPS   float64 `default:"20" usage:"Sustained requests per second per client"`
	Burst int     `default:"40" usage:"Burst size per client"`
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
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("redis URL is required: set SHOP_REDIS_URL or REDIS_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) with standard names like DATABASE_URL and PORT to
// the SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
