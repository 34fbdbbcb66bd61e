package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	OTelEndpoint    string        `env:"OTEL_ENDPOINT"`

	ShippingServiceURL string        `env:"SHIPPING_SERVICE_URL" envDefault:"http://localhost:3000/api"`
	PaymentServiceURL  string        `env:"PAYMENT_SERVICE_URL" envDefault:"http://localhost:3000/api"`
	OrderServiceURL    string        `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:3000/api"`
	BackendTimeout     time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`

	FreeShippingThreshold  float64       `env:"FREE_SHIPPING_THRESHOLD" envDefault:"165"`
	TaxRate                float64       `env:"TAX_RATE" envDefault:"0.08"`
	ShippingDebounce       time.Duration `env:"SHIPPING_DEBOUNCE" envDefault:"800ms"`
	LocalPickupMethodID    string        `env:"LOCAL_PICKUP_METHOD_ID" envDefault:"local-pickup"`
	RequireSMSVerification bool          `env:"REQUIRE_SMS_VERIFICATION" envDefault:"false"`
	ConfirmationPath       string        `env:"CONFIRMATION_PATH" envDefault:"/checkout/confirmation"`
	SessionTTL             time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	MongoURI    string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDBName string `env:"MONGO_DB_NAME" envDefault:"storefront"`

	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RateCacheTTL  time.Duration `env:"RATE_CACHE_TTL" envDefault:"10m"`

	DBHost         string `env:"DB_HOST" envDefault:"localhost"`
	DBPort         int    `env:"DB_PORT" envDefault:"5432"`
	DBUser         string `env:"DB_USER" envDefault:"postgres"`
	DBPassword     string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName         string `env:"DB_NAME" envDefault:"ecommerce"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./internal/repository/migrations"`

	KafkaBrokers       []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	OutboxTopic        string        `env:"OUTBOX_TOPIC" envDefault:"checkout-outbox"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	OutboxRetention    time.Duration `env:"OUTBOX_RETENTION" envDefault:"168h"`
	CartConsumerGroup  string        `env:"CART_CONSUMER_GROUP" envDefault:"storefront-checkout-carts"`
}

// PricingConfig is the part of the configuration the totals calculator reads.
type PricingConfig struct {
	FreeShippingThreshold float64
	TaxRate               float64
}

// CheckoutConfig is the part of the configuration each checkout wizard reads.
type CheckoutConfig struct {
	ShippingDebounce       time.Duration
	LocalPickupMethodID    string
	RequireSMSVerification bool
	ConfirmationPath       string
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var problems []string
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		problems = append(problems, "TAX_RATE must be in [0, 1)")
	}
	if c.FreeShippingThreshold <= 0 {
		problems = append(problems, "FREE_SHIPPING_THRESHOLD must be positive")
	}
	if c.ShippingDebounce < 0 {
		problems = append(problems, "SHIPPING_DEBOUNCE must not be negative")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if c.OutboxPollInterval <= 0 {
		problems = append(problems, "OUTBOX_POLL_INTERVAL must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) Pricing() PricingConfig {
	return PricingConfig{
		FreeShippingThreshold: c.FreeShippingThreshold,
		TaxRate:               c.TaxRate,
	}
}

func (c *Config) Checkout() CheckoutConfig {
	return CheckoutConfig{
		ShippingDebounce:       c.ShippingDebounce,
		LocalPickupMethodID:    c.LocalPickupMethodID,
		RequireSMSVerification: c.RequireSMSVerification,
		ConfirmationPath:       c.ConfirmationPath,
	}
}
