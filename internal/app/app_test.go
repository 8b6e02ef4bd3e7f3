package app_test

import (
	"context"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"magal/internal/app"
	"magal/internal/config"
	"magal/internal/model"
	"magal/internal/storage"
	"net"
	"path/filepath"
	"testing"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	t.Setenv("MAGAL_STORE", config.StoreFile)
	t.Setenv("MAGAL_STORE_PATH", filepath.Join(t.TempDir(), "session.json"))
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_FileStore(t *testing.T) {
	cfg := testConfig(t)

	a, err := app.New(context.Background(), cfg, quiet())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Store.Save(context.Background(), "T1", &model.User{ID: 1, Email: "a@b.sn"}))
	assert.True(t, a.Session.IsAuthenticated(context.Background()))
	assert.Equal(t, cfg.API.BaseURL, a.Client.BaseURL())
	assert.NotNil(t, a.Events)
	assert.NotNil(t, a.Places)
	assert.NotNil(t, a.Notifications)
	assert.NotNil(t, a.Files)
}

func TestNew_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Store.Kind = config.StoreRedis
	cfg.Redis.Host = host
	cfg.Redis.Port = port

	a, err := app.New(context.Background(), cfg, quiet())
	require.NoError(t, err)

	require.NoError(t, a.Store.Save(context.Background(), "T1", &model.User{ID: 1, Email: "a@b.sn"}))
	mr.CheckGet(t, "magal:magal_touba_token", "T1")
	require.NoError(t, a.Close())
}

func TestNew_RedisDown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(l.Addr().String())
	require.NoError(t, l.Close())

	cfg := testConfig(t)
	cfg.Store.Kind = config.StoreRedis
	cfg.Redis.Host = host
	cfg.Redis.Port = port
	cfg.Redis.Attempts = 1

	_, err = app.New(context.Background(), cfg, quiet())
	require.ErrorIs(t, err, storage.ErrUnavailable)
}
