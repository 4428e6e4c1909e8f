package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "memory", cfg.SlotBackend)
	assert.True(t, decimal.NewFromInt(50000).Equal(cfg.FreeShippingThreshold))
	assert.True(t, decimal.NewFromInt(500).Equal(cfg.FlatShippingFee))
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "storefront-cart", cfg.KafkaGroup)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FLAT_SHIPPING_FEE", "7.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, decimal.RequireFromString("7.5").Equal(cfg.FlatShippingFee))
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.ErrorContains(t, err, "JWT_SECRET is required")
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", SlotBackend: "memory", JWTSecret: "x"}
	require.ErrorContains(t, cfg.Validate(), "DB_DRIVER")

	cfg = &Config{DBDriver: "sqlite", SlotBackend: "disk", JWTSecret: "x"}
	require.ErrorContains(t, cfg.Validate(), "SLOT_BACKEND")
}

func TestParse_DoesNotRequireSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GUEST_TOKEN_TTL", "1h")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.GuestTokenTTL)
	assert.Equal(t, 15*time.Second, cfg.EventHeartbeat)
}

func TestParse_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Parse()
	require.ErrorContains(t, err, "DB_DRIVER")
}
