package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort           string        `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxRequestBodySize int64         `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// DBDriver is "postgres" or "sqlite".
	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"file:storefront.db?_pragma=foreign_keys(1)"`

	// SlotBackend selects where carts and wishlists live: "mongo" or "memory".
	SlotBackend string `env:"SLOT_BACKEND" envDefault:"memory"`
	MongoURI    string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDBName string `env:"MONGO_DB_NAME" envDefault:"storefront"`

	// RedisAddr enables the slot cache and cross-instance notifications when set.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	KafkaBrokers []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string        `env:"KAFKA_TOPIC" envDefault:"storefront-orders"`
	KafkaGroup   string        `env:"KAFKA_GROUP" envDefault:"storefront-cart"`
	OutboxTick   time.Duration `env:"OUTBOX_TICK" envDefault:"1s"`

	FreeShippingThreshold decimal.Decimal `env:"FREE_SHIPPING_THRESHOLD" envDefault:"50000"`
	FlatShippingFee       decimal.Decimal `env:"FLAT_SHIPPING_FEE" envDefault:"500"`
	Currency              string          `env:"CURRENCY" envDefault:"USD"`

	JWTSecret         string        `env:"JWT_SECRET"`
	AdminTokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"8h"`
	AdminEmail        string        `env:"ADMIN_EMAIL"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	GuestTokenTTL     time.Duration `env:"GUEST_TOKEN_TTL" envDefault:"720h"`

	EventHeartbeat time.Duration `env:"EVENT_HEARTBEAT" envDefault:"15s"`
}

// Load parses the environment into a Config and validates it for serving.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads the environment and checks only the database settings. Maintenance commands that
// never serve traffic use it.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validateDatabase(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validateDatabase() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	switch c.SlotBackend {
	case "mongo", "memory":
	default:
		return fmt.Errorf("SLOT_BACKEND must be mongo or memory, got %q", c.SlotBackend)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.FreeShippingThreshold.IsNegative() || c.FlatShippingFee.IsNegative() {
		return fmt.Errorf("shipping policy values must not be negative")
	}
	return nil
}
