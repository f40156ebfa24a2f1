package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"catalog/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	v.Set("JWT_SECRET", "secret")

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, config.DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "product_events", cfg.RabbitMQQueue)
	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file::memory:")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, config.DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "file::memory:", cfg.DatabaseDSN)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Rejects(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		v := viper.New()
		v.Set("JWT_SECRET", "secret")
		v.Set("DATABASE_DRIVER", "cassandra")
		_, err := config.Load(v)
		assert.ErrorContains(t, err, "unsupported DATABASE_DRIVER")
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := config.Load(viper.New())
		assert.ErrorContains(t, err, "JWT_SECRET")
	})
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CATALOG_DOTENV_CHECK=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CATALOG_DOTENV_CHECK") })

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("CATALOG_DOTENV_CHECK"))
}
