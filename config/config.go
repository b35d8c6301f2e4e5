package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	AppURL     string `env:"APP_URL" envDefault:"http://localhost:3000" validate:"required,url"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"postgres" validate:"oneof=postgres mongo memory"`
	DBURL         string `env:"DB_URL" validate:"required_if=StoreDriver postgres"`
	MongoURL      string `env:"MONGO_URL" validate:"required_if=StoreDriver mongo"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"summarist"`
	RedisURL      string `env:"REDIS_URL"`

	StripeSecretKey     string        `env:"STRIPE_SECRET_KEY,required" validate:"required"`
	StripeWebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET,required" validate:"required"`
	StripeProductID     string        `env:"STRIPE_PRODUCT_ID"`
	StripeTimeout       time.Duration `env:"STRIPE_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	WebhookTimeout      time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"25s" validate:"gt=0"`
	RequireKnownPrice   bool          `env:"CHECKOUT_REQUIRE_KNOWN_PRICE" envDefault:"false"`
	EventDedupeTTL      time.Duration `env:"EVENT_DEDUPE_TTL" envDefault:"72h"`

	BreakerFailures    uint32        `env:"BREAKER_FAILURES" envDefault:"5" validate:"gt=0"`
	BreakerOpenTimeout time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`

	JWTSecret    string `env:"JWT_SECRET"`
	OIDCIssuer   string `env:"OIDC_ISSUER" validate:"omitempty,url"`
	OIDCAudience string `env:"OIDC_AUDIENCE" validate:"required_with=OIDCIssuer"`
}

var ErrNoTokenVerifier = errors.New("either JWT_SECRET or OIDC_ISSUER must be set")

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.JWTSecret == "" && c.OIDCIssuer == "" {
		return ErrNoTokenVerifier
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// RedirectURL joins the base URL and path.
func (c *Config) RedirectURL(path string) string {
	return strings.TrimRight(c.AppURL, "/") + path
}
