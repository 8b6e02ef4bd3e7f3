// Package interceptor holds the api.Client hooks that tie HTTP traffic to
// the local session.
package interceptor

import (
	"context"
	"fmt"
	"log/slog"
	"magal/internal/api"
	"magal/internal/bus"
	"magal/internal/storage"
	"net/http"
	"time"
)

type Auth struct {
	store storage.Store
	bus   *bus.Bus
	log   *slog.Logger
	now   func() time.Time
}

var _ api.Interceptor = (*Auth)(nil)

func NewAuth(store storage.Store, b *bus.Bus, log *slog.Logger) *Auth {
	if log == nil {
		log = slog.Default()
	}
	return &Auth{
		store: store,
		bus:   b,
		log:   log,
		now:   time.Now,
	}
}

// BeforeSend attaches the stored bearer token. Without a token the request
// goes out unauthenticated.
func (a *Auth) BeforeSend(ctx context.Context, req *http.Request) error {
	token, err := a.store.Token(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// AfterReceive forces a logout on 401 and returns err unchanged.
func (a *Auth) AfterReceive(ctx context.Context, req *http.Request, _ *api.Response, err error) error {
	if err == nil {
		return nil
	}

	apiErr, ok := api.AsError(err)
	if !ok {
		return err
	}

	switch apiErr.Kind {
	case api.KindUnauthorized:
		a.invalidate(ctx, apiErr)
	case api.KindUnreachable:
		a.log.Error("server unreachable",
			slog.String("method", apiErr.Method),
			slog.String("path", apiErr.Path),
			slog.String("error", apiErr.Err.Error()))
	default:
		a.log.Warn("api error",
			slog.String("method", apiErr.Method),
			slog.String("path", apiErr.Path),
			slog.Int("status", apiErr.Status),
			slog.String("kind", apiErr.Kind.String()),
			slog.String("message", apiErr.Message))
	}

	return err
}

// invalidate clears the session and tells subscribers. It runs for every
// 401, clearing an empty store is harmless.
func (a *Auth) invalidate(ctx context.Context, apiErr *api.Error) {
	// Очистка не должна зависеть от отмены запроса
	if err := a.store.Clear(context.WithoutCancel(ctx)); err != nil {
		a.log.Error("failed to clear session",
			slog.String("path", apiErr.Path),
			slog.String("error", err.Error()))
	}

	a.log.Info("session invalidated",
		slog.String("method", apiErr.Method),
		slog.String("path", apiErr.Path))

	if a.bus == nil {
		return
	}
	a.bus.Publish(bus.SessionInvalidated{
		Method: apiErr.Method,
		Path:   apiErr.Path,
		Status: apiErr.Status,
		At:     a.now(),
	})
}
