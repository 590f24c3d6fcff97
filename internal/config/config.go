package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the API process reads at startup.
type Config struct {
	HTTP       HTTPConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Stripe     StripeConfig
	Catalog    CatalogConfig
	Onboarding OnboardingConfig
	Log        LogConfig
}

type HTTPConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig accepts either a full DSN or discrete connection fields.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// RedisConfig configures the catalog job queue. An empty Addr selects the in-process queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	QueueKey string
}

type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminPasswordHash string
}

type StripeConfig struct {
	SecretKey     string
	BaseURL       string
	WebhookSecret string
	FrontendURL   string
}

type CatalogConfig struct {
	UploadDir string
	Workers   int
}

type OnboardingConfig struct {
	// StepsFile overrides the embedded step table when set.
	StepsFile string
}

type LogConfig struct {
	Level   string
	Format  string
	Service string
}

// DSN returns the connection string for lib/pq.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Load reads .env (when present) and the process environment on top of defaults.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTP: HTTPConfig{Port: "8080", ShutdownTimeout: 10 * time.Second},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "supplier_user",
			Database: "supplier_portal",
			SSLMode:  "disable",
			MaxConns: 20,
			MaxIdle:  5,
		},
		Redis:   RedisConfig{QueueKey: "onboarding:catalog:jobs"},
		Auth:    AuthConfig{TokenTTL: 24 * time.Hour},
		Stripe:  StripeConfig{BaseURL: "https://api.stripe.com", FrontendURL: "http://localhost:3000"},
		Catalog: CatalogConfig{UploadDir: "uploads", Workers: 2},
		Log:     LogConfig{Level: "info", Format: "json", Service: "supplier-onboarding"},
	}

	setString(&cfg.HTTP.Port, "APP_PORT")
	setDuration(&cfg.HTTP.ShutdownTimeout, "SHUTDOWN_TIMEOUT")

	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Database, "DB_DATABASE")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")
	setInt(&cfg.Database.MaxConns, "DB_MAX_CONNS")
	setInt(&cfg.Database.MaxIdle, "DB_MAX_IDLE")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.Redis.QueueKey, "REDIS_CATALOG_QUEUE")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "JWT_TTL")
	setString(&cfg.Auth.AdminPasswordHash, "ADMIN_PASSWORD_HASH")

	setString(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Stripe.BaseURL, "STRIPE_BASE_URL")
	setString(&cfg.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&cfg.Stripe.FrontendURL, "FRONTEND_URL")

	setString(&cfg.Catalog.UploadDir, "UPLOAD_DIR")
	setInt(&cfg.Catalog.Workers, "CATALOG_WORKERS")

	setString(&cfg.Onboarding.StepsFile, "ONBOARDING_STEPS_FILE")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.Service, "SERVICE_NAME")

	return cfg
}

// Validate reports settings the process cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" && c.Database.Host == "" {
		errs = append(errs, errors.New("DATABASE_URL or DB_HOST is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.AdminPasswordHash == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD_HASH is required"))
	}
	if c.Catalog.Workers < 1 {
		errs = append(errs, fmt.Errorf("CATALOG_WORKERS must be at least 1, got %d", c.Catalog.Workers))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
