package suite

import (
	"github.com/stretchr/testify/require"
	"log/slog"
	"magal/internal/app"
	"magal/internal/bus"
	"magal/internal/config"
	"magal/internal/provider/files"
	"magal/internal/storage"
	"os"
	"sync"
	"testing"
	"time"
)

// Suite - тестовая сьюта: фейковый сервер + полностью собранный клиент
type Suite struct {
	*testing.T

	// Сервер
	Backend *Backend

	// Клиент
	App   *app.App
	Store storage.Store

	mu          sync.Mutex
	invalidated []bus.SessionInvalidated
}

// New создает новую тестовую сьюту
func New(t *testing.T) *Suite {
	t.Helper()

	// Поднимаем фейковый API
	backend := NewBackend()

	cfg := &config.Config{
		Env: config.EnvLocal,
		API: config.APIConfig{
			BaseURL:       backend.BaseURL(),
			Timeout:       5 * time.Second,
			AssetBaseURL:  "http://assets.test",
			RefreshLeeway: 5 * time.Minute,
		},
		Store:  config.StoreConfig{Kind: config.StoreMemory},
		Upload: config.UploadConfig{MaxBytes: files.DefaultMaxImageSize},
	}

	store := storage.NewMemory()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// Собираем клиент поверх памяти
	application, err := app.NewWithStore(cfg, log, store)
	require.NoError(t, err)

	s := &Suite{
		T:       t,
		Backend: backend,
		App:     application,
		Store:   store,
	}

	unsubscribe := application.OnSessionInvalidated(func(ev bus.SessionInvalidated) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.invalidated = append(s.invalidated, ev)
	})

	// Регистрируем cleanup
	t.Cleanup(func() {
		unsubscribe()
		s.Cleanup()
	})

	return s
}

// Cleanup очищает ресурсы
func (s *Suite) Cleanup() {
	if s.App != nil {
		_ = s.App.Close()
	}
	if s.Backend != nil {
		s.Backend.Close()
	}
}

// Invalidated returns the session-invalidated events seen so far.
func (s *Suite) Invalidated() []bus.SessionInvalidated {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bus.SessionInvalidated(nil), s.invalidated...)
}

// SignIn logs in with the given seeded account and fails the test otherwise.
func (s *Suite) SignIn(email, password string) {
	s.Helper()

	_, err := s.App.Session.Login(s.Context(), email, password)
	require.NoError(s, err)
}
