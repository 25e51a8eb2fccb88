package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port      string `mapstructure:"PORT"`
	AppEnv    string `mapstructure:"APP_ENV"`
	GinMode   string `mapstructure:"GIN_MODE"`
	ClientURL string `mapstructure:"CLIENT_URL"`

	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	DBMaxConnLifetime time.Duration `mapstructure:"DB_MAX_CONN_LIFETIME"`
	DBMaxConnIdleTime time.Duration `mapstructure:"DB_MAX_CONN_IDLE_TIME"`
	AutoMigrate       bool          `mapstructure:"AUTO_MIGRATE"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ProductLogCollection             string `mapstructure:"PRODUCT_LOG_COLLECTION"`

	EventQueueSize      int           `mapstructure:"EVENT_QUEUE_SIZE"`
	EventWorkers        int           `mapstructure:"EVENT_WORKERS"`
	EventPublishTimeout time.Duration `mapstructure:"EVENT_PUBLISH_TIMEOUT"`
	FeedLimit           int           `mapstructure:"FEED_LIMIT"`

	RedisURL            string        `mapstructure:"REDIS_URL"`
	AuthRateLimitWindow time.Duration `mapstructure:"AUTH_RATE_LIMIT_WINDOW"`
	AuthRateLimitIP     int           `mapstructure:"AUTH_RATE_LIMIT_IP"`
	AuthRateLimitEmail  int           `mapstructure:"AUTH_RATE_LIMIT_EMAIL"`

	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"PORT":                   "3000",
	"APP_ENV":                "development",
	"GIN_MODE":               "debug",
	"CLIENT_URL":             "http://localhost:5173",
	"DB_MAX_CONNS":           10,
	"DB_MIN_CONNS":           0,
	"DB_MAX_CONN_LIFETIME":   "1h",
	"DB_MAX_CONN_IDLE_TIME":  "10m",
	"AUTO_MIGRATE":           false,
	"PRODUCT_LOG_COLLECTION": "product_logs",
	"EVENT_QUEUE_SIZE":       256,
	"EVENT_WORKERS":          2,
	"EVENT_PUBLISH_TIMEOUT":  "5s",
	"FEED_LIMIT":             50,
	"AUTH_RATE_LIMIT_WINDOW": "1m",
	"AUTH_RATE_LIMIT_IP":     20,
	"AUTH_RATE_LIMIT_EMAIL":  5,
	"SHUTDOWN_TIMEOUT":       "10s",
}

var envOnly = []string{
	"DATABASE_URL",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"REDIS_URL",
}

// LoadConfig loads configuration from the environment, an optional .env file
// and an optional config file named by CONFIG_FILE. Environment wins.
func LoadConfig() (*Config, error) {
	if os.Getenv("GIN_MODE") != "release" {
		// Missing .env is normal outside local development.
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range envOnly {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports the first out-of-range setting. Settings only some
// binaries need are checked by RequireDatabase and RequireFirebase.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.ProductLogCollection == "" {
		return errors.New("PRODUCT_LOG_COLLECTION must not be empty")
	}
	if c.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return errors.New("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}
	if c.EventQueueSize <= 0 {
		return errors.New("EVENT_QUEUE_SIZE must be positive")
	}
	if c.EventWorkers <= 0 {
		return errors.New("EVENT_WORKERS must be positive")
	}
	if c.FeedLimit <= 0 {
		return errors.New("FEED_LIMIT must be positive")
	}
	return nil
}

// RequireDatabase fails when no relational store is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

// RequireFirebase fails when no Firebase project is configured.
func (c *Config) RequireFirebase() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	return nil
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// RateLimitEnabled reports whether auth endpoints are throttled.
func (c *Config) RateLimitEnabled() bool {
	return c.RedisURL != "" && c.AuthRateLimitWindow > 0
}
