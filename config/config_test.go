package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "go-user-management", cfg.AppName)
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Equal(t, 3, cfg.LockoutThreshold)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL)
	assert.False(t, cfg.JWTRevalidate)
	assert.False(t, cfg.UseMemoryStore())
	assert.Empty(t, cfg.ESAddrs())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("LOCKOUT_THRESHOLD", "5")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("JWT_REVALIDATE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("ELASTICSEARCH_ADDRS", "http://es1:9200,http://es2:9200")

	cfg := Load()
	assert.True(t, cfg.UseMemoryStore())
	assert.Equal(t, 5, cfg.LockoutThreshold)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.JWTRevalidate)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ESAddrs())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("LOCKOUT_THRESHOLD", "three")
	t.Setenv("JWT_REVALIDATE", "maybe")
	t.Setenv("VERIFY_TOKEN_TTL", "tomorrow")

	cfg := Load()
	assert.Equal(t, 3, cfg.LockoutThreshold)
	assert.False(t, cfg.JWTRevalidate)
	assert.Equal(t, 24*time.Hour, cfg.VerifyTokenTTL)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "users", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/users?sslmode=disable", cfg.PostgresDSN())
}
