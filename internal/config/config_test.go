package config_test

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"magal/internal/config"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MAGAL_STORE", "memory")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.EnvLocal, cfg.Env)
	assert.Equal(t, "https://magal-touba-service-main-wb2l6a.laravel.cloud/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "http://localhost:8000", cfg.API.AssetBaseURL)
	assert.Equal(t, 5*time.Minute, cfg.API.RefreshLeeway)
	assert.Equal(t, config.StoreMemory, cfg.Store.Kind)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, "magal:", cfg.Redis.Prefix)
	assert.Equal(t, 3, cfg.Redis.Attempts)
}

func TestLoad_FileStoreGetsDefaultPath(t *testing.T) {
	t.Setenv("MAGAL_STORE", "file")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "session.json", filepath.Base(cfg.Store.Path))
	assert.Equal(t, "magal", filepath.Base(filepath.Dir(cfg.Store.Path)))
}

func TestLoad_YamlThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
api:
  base_url: https://staging.example.sn/api
  timeout: 3s
store:
  kind: redis
redis:
  host: cache
  port: "6380"
`), 0o600))
	t.Setenv("MAGAL_API_TIMEOUT", "7s")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.EnvProd, cfg.Env)
	assert.Equal(t, "https://staging.example.sn/api", cfg.API.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.API.Timeout, "env wins over yaml")
	assert.Equal(t, config.StoreRedis, cfg.Store.Kind)
	assert.Equal(t, "cache", cfg.Redis.Host)
	assert.Equal(t, "6380", cfg.Redis.Port)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("MAGAL_STORE", "sqlite")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind: oneof")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "/etc/magal.yaml")
	assert.Equal(t, "/etc/magal.yaml", config.Path("flag.yaml"))
}
