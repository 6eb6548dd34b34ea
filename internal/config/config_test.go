package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, 5, cfg.JWT.RecentLoginMinutes)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 3, cfg.Shop.LowStockThreshold)
	assert.False(t, cfg.StorageEnabled())
	assert.Equal(t, "postgres://postgres:@db.internal:6543/repairshop?sslmode=disable", cfg.DSN())
}

func TestLoadFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("SHOP_CURRENCY", "NGN")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
shop:
  name: Fix It
  timezone: Africa/Lagos
storage:
  bucket: b
  access_key: a
  secret_key: s
`), 0o600))

	cfg, err := load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Fix It", cfg.Shop.Name)
	assert.Equal(t, "Africa/Lagos", cfg.Shop.Timezone)
	assert.Equal(t, "NGN", cfg.Shop.Currency)
	assert.True(t, cfg.StorageEnabled())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
