package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Registry.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Registry.Timeout)
	assert.Equal(t, 0.00001, cfg.Registry.PremiumThreshold)
	assert.Equal(t, CacheFile, cfg.Registry.Cache.Driver)
	assert.Zero(t, cfg.Registry.Cache.TTL)
	assert.Equal(t, 20, cfg.Server.RateLimit.Burst)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REGISTRY_CACHE_DRIVER", "memory")
	t.Setenv("REGISTRY_CACHE_TTL", "1h")
	t.Setenv("REGISTRY_PREMIUM_THRESHOLD", "0.005")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, CacheMemory, cfg.Registry.Cache.Driver)
	assert.Equal(t, time.Hour, cfg.Registry.Cache.TTL)
	assert.Equal(t, 0.005, cfg.Registry.PremiumThreshold)
}

func TestLoad_FileAndSecretResolution(t *testing.T) {
	t.Setenv("TEST_REDIS_PASSWORD", "hunter2")

	content := `
registry:
  cache:
    driver: redis
redis:
  addr: "cache:6379"
  password: "ENV:TEST_REDIS_PASSWORD"
  key: "selector:test"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, CacheRedis, cfg.Registry.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "hunter2", cfg.Redis.Password)
	assert.Equal(t, "selector:test", cfg.Redis.Key)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig()
	require.NoError(t, err)

	bad := *cfg
	bad.Registry.Cache.Driver = "etcd"
	bad.Registry.PremiumThreshold = 0
	err = bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry.cache.driver")
	assert.Contains(t, err.Error(), "premium_threshold")

	watch := *cfg
	watch.Registry.Cache.Driver = CacheSQLite
	watch.Registry.Cache.Watch = true
	assert.ErrorContains(t, watch.Validate(), "requires the file driver")
}
