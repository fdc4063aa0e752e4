package config

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "redis", cfg.CartBackend)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Len(t, cfg.SessionKey, len("go_delivery-development-session-key-000"))
}

func TestLoad_Overrides(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("SESSION_KEY", base64.StdEncoding.EncodeToString(key))
	t.Setenv("COOKIE_SECURE", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 6543, cfg.DBPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, key, cfg.SessionKey)
	assert.True(t, cfg.CookieSecure)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("ORDER_CACHE_TTL", "-1m")
	t.Setenv("SESSION_KEY", "short")

	cfg := Load()

	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, 5*time.Minute, cfg.OrderCacheTTL)
	assert.Equal(t, []byte("go_delivery-development-session-key-000"), cfg.SessionKey)
}
