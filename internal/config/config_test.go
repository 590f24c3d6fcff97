package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("JWT_TTL", "")
	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "https://api.stripe.com", cfg.Stripe.BaseURL)
	assert.Equal(t, 2, cfg.Catalog.Workers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x?sslmode=disable")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("CATALOG_WORKERS", "4")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg := Load()

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, "postgres://u:p@db:5432/x?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 4, cfg.Catalog.Workers)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestDSN_FromFields(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "require"}
	assert.Equal(t, "host=h port=5433 user=u password=p dbname=d sslmode=require", c.DSN())
}

func TestValidate(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "localhost"}, Catalog: CatalogConfig{Workers: 1}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "ADMIN_PASSWORD_HASH")

	cfg.Auth.JWTSecret = "s"
	cfg.Auth.AdminPasswordHash = "$2a$10$abc"
	assert.NoError(t, cfg.Validate())
}
