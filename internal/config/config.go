package config

import (
	"encoding/base64"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	GRPCPort string

	DBDriver   string // "postgres" or "sqlite"
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	RedisAddr     string
	RedisPassword string

	CartBackend string // "redis", "mongo" or "memory"
	CartTTL     time.Duration
	MongoURI    string
	MongoDBName string

	KafkaBrokers []string
	OrdersTopic  string

	SessionKey   []byte
	CookieSecure bool

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	OrderCacheTTL   time.Duration

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads the configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "error", err)
	}

	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		GRPCPort: getEnv("GRPC_PORT", "50051"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "delivery"),
		SQLitePath: getEnv("SQLITE_PATH", "./delivery.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		CartBackend: getEnv("CART_BACKEND", "redis"),
		CartTTL:     getDuration("CART_TTL", 30*24*time.Hour),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "delivery"),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		OrdersTopic:  getEnv("ORDERS_TOPIC", "orders-outbox"),

		SessionKey:   sessionKey(),
		CookieSecure: getEnv("COOKIE_SECURE", "false") == "true",

		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		OrderCacheTTL:   getDuration("ORDER_CACHE_TTL", 5*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sessionKey decodes SESSION_KEY (base64, at least 32 bytes). Without it a fixed
// development key is used, so cart cookies survive restarts on a dev box.
func sessionKey() []byte {
	raw := os.Getenv("SESSION_KEY")
	if raw != "" {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err == nil && len(decoded) >= 32 {
			return decoded
		}
		slog.Warn("SESSION_KEY is invalid or shorter than 32 bytes, using development key")
	}
	return []byte("go_delivery-development-session-key-000")
}
