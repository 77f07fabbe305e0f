package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary     Primary           `koanf:"primary"`
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Logger      LoggerConfig      `koanf:"logger"`
	Idempotency IdempotencyConfig `koanf:"idempotency"`
	Outbox      OutboxConfig      `koanf:"outbox"`
	Kafka       KafkaConfig       `koanf:"kafka"`
	Cache       CacheConfig       `koanf:"cache"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

// IdempotencyConfig controls the charge idempotency coordinator.
type IdempotencyConfig struct {
	// Scope namespaces client keys per API operation, so the same key sent
	// to a different endpoint can never collide.
	Scope string `koanf:"scope" validate:"required"`

	// StaleInProgressAfter is the age after which an IN_PROGRESS record is
	// considered abandoned (process crash) and safe to re-process.
	StaleInProgressAfter time.Duration `koanf:"stale_in_progress_after" validate:"required"`
}

// OutboxConfig controls the outbox dispatcher.
type OutboxConfig struct {
	Topic           string        `koanf:"topic" validate:"required"`
	BatchSize       int           `koanf:"batch_size" validate:"required"`
	PublishInterval time.Duration `koanf:"publish_interval" validate:"required"`
	SendTimeout     time.Duration `koanf:"send_timeout" validate:"required"`
	MaxAttempts     int           `koanf:"max_attempts" validate:"required"`
	BaseBackoff     time.Duration `koanf:"base_backoff" validate:"required"`
	MaxBackoff      time.Duration `koanf:"max_backoff" validate:"required"`
}

type KafkaConfig struct {
	Brokers  []string `koanf:"brokers" validate:"required"`
	ClientID string   `koanf:"client_id"`
}

// CacheConfig configures the optional Redis response cache.
// An empty Addr disables the cache entirely.
type CacheConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"primary.env":                         "development",
		"server.port":                         "8080",
		"server.read_timeout":                 "15s",
		"server.write_timeout":                "15s",
		"server.idle_timeout":                 "60s",
		"database.host":                       "localhost",
		"database.port":                       5432,
		"database.user":                       "gateway",
		"database.password":                   "gateway",
		"database.name":                       "gateway",
		"database.ssl_mode":                   "disable",
		"database.max_open_conns":             20,
		"database.max_idle_conns":             5,
		"database.conn_max_lifetime":          "1h",
		"database.conn_max_idle_time":         "30m",
		"logger.level":                        "info",
		"idempotency.scope":                   "payments:charge",
		"idempotency.stale_in_progress_after": "30s",
		"outbox.topic":                        "payments-events",
		"outbox.batch_size":                   100,
		"outbox.publish_interval":             "1s",
		"outbox.send_timeout":                 "5s",
		"outbox.max_attempts":                 10,
		"outbox.base_backoff":                 "1s",
		"outbox.max_backoff":                  "2m",
		"kafka.brokers":                       []string{"localhost:9092"},
		"kafka.client_id":                     "charge-gateway",
		"cache.addr":                          "",
		"cache.ttl":                           "30m",
	}
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load default configuration", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider("GATEWAY_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "GATEWAY_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// NewLogger builds the process logger from the configured level.
func (c *LoggerConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
