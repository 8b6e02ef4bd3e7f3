package app

import (
	"context"
	"fmt"
	"log/slog"
	"magal/internal/api"
	"magal/internal/bus"
	"magal/internal/config"
	"magal/internal/interceptor"
	"magal/internal/provider/events"
	"magal/internal/provider/files"
	"magal/internal/provider/notifications"
	"magal/internal/provider/places"
	"magal/internal/provider/users"
	redis2 "magal/internal/redis"
	"magal/internal/servises/session"
	"magal/internal/storage"
	"magal/internal/storage/file"
	"magal/internal/validation"
	"magal/pkg/client/redis"
)

// App is the session context: built once at start, shared by every
// command, torn down with Close.
type App struct {
	Config *config.Config
	Log    *slog.Logger

	Store  storage.Store
	Bus    *bus.Bus
	Client *api.Client

	Session       *session.Service
	Events        events.Provider
	Places        places.Provider
	Notifications notifications.Provider
	Files         files.Provider
}

// New opens the configured store and wires every service on top of it.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...api.Option) (*App, error) {
	const op = "app.New"

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a, err := NewWithStore(cfg, log, store, opts...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

// NewWithStore wires the services over an already opened store.
func NewWithStore(cfg *config.Config, log *slog.Logger, store storage.Store, opts ...api.Option) (*App, error) {
	b := bus.New(log)
	auth := interceptor.NewAuth(store, b, log)

	opts = append([]api.Option{
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(log),
		api.WithInterceptor(auth),
	}, opts...)

	client, err := api.New(cfg.API.BaseURL, opts...)
	if err != nil {
		return nil, err
	}

	validate := validation.New()
	usersProvider := users.NewUsersProvider(client, log)

	return &App{
		Config:        cfg,
		Log:           log,
		Store:         store,
		Bus:           b,
		Client:        client,
		Session:       session.New(usersProvider, store, validate, log),
		Events:        events.NewEventsProvider(client, validate, log),
		Places:        places.NewPlacesProvider(client, validate, log),
		Notifications: notifications.NewNotificationsProvider(client, validate, log),
		Files:         files.NewFilesProvider(client, cfg.API.AssetBaseURL, cfg.Upload.MaxBytes, log),
	}, nil
}

// OnSessionInvalidated registers the handler that reacts to a forced
// logout, typically by sending the user back to login.
func (a *App) OnSessionInvalidated(h bus.Handler) (unsubscribe func()) {
	return a.Bus.Subscribe(h)
}

func (a *App) Close() error {
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("app.Close: %w", err)
	}
	a.Log.Debug("session context closed")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Store.Kind {
	case config.StoreMemory:
		return storage.NewMemory(), nil
	case config.StoreRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
		}
		return redis2.NewRepositoryRedis(client, cfg.Redis.Prefix), nil
	default:
		return file.New(cfg.Store.Path), nil
	}
}
