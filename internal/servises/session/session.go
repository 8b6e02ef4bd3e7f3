package session

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"log/slog"
	"magal/internal/model"
	"magal/internal/provider/users"
	"magal/internal/storage"
	"magal/internal/token"
	"strings"
	"time"
)

// Service owns the session lifecycle. It is the only writer of the store
// apart from the auth interceptor's forced clear.
type Service struct {
	users    users.Provider
	store    storage.Store
	validate *validator.Validate
	refresh  singleflight.Group
	log      *slog.Logger
	now      func() time.Time
}

func New(users users.Provider, store storage.Store, validate *validator.Validate, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		users:    users,
		store:    store,
		validate: validate,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	const op = "session.Login"

	req := model.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := s.validate.Struct(req); err != nil {
		return nil, invalidInput(op, err)
	}

	// 1. Аутентификация на сервере
	out, err := s.users.Login(ctx, req)
	if err != nil {
		s.log.Warn("login failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()))
		return nil, mapError(op, err)
	}

	// 2. Сохраняем токен и профиль одной записью
	if err := s.store.Save(ctx, out.AccessToken, out.User); err != nil {
		return nil, fmt.Errorf("%s: save session: %w", op, err)
	}

	s.log.Info("user logged in",
		slog.Int64("user_id", out.User.ID),
		slog.String("role", out.User.Role))

	return &model.Session{User: *out.User, Token: out.AccessToken}, nil
}

// Register creates the account and signs the user in with the returned
// session.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (*model.Session, error) {
	const op = "session.Register"

	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, invalidInput(op, err)
	}

	out, err := s.users.Register(ctx, req)
	if err != nil {
		s.log.Warn("registration failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()))
		return nil, mapError(op, err)
	}

	if err := s.store.Save(ctx, out.AccessToken, out.User); err != nil {
		return nil, fmt.Errorf("%s: save session: %w", op, err)
	}

	s.log.Info("user registered", slog.Int64("user_id", out.User.ID))

	return &model.Session{User: *out.User, Token: out.AccessToken}, nil
}

// Logout tells the server when there is a token to revoke, then clears the
// local session whatever the server said. Calling it twice is harmless.
func (s *Service) Logout(ctx context.Context) error {
	const op = "session.Logout"

	tok, err := s.store.Token(ctx)
	if err != nil {
		s.log.Warn("failed to read token before logout", slog.String("error", err.Error()))
	}

	if tok != "" {
		if err := s.users.Logout(ctx); err != nil {
			// Ошибка сервера не мешает локальному выходу
			s.log.Warn("remote logout failed", slog.String("error", err.Error()))
		}
	}

	if err := s.store.Clear(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user logged out")
	return nil
}

// RefreshToken swaps the stored token for a new one. Concurrent callers
// share a single remote call that outlives any one caller's ctx; each
// caller stops waiting when its own ctx is done. On failure the session is
// cleared.
func (s *Service) RefreshToken(ctx context.Context) (string, error) {
	ch := s.refresh.DoChan("refresh", func() (any, error) {
		return s.refreshToken(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("session.RefreshToken: %w", ctx.Err())
	case res := <-ch:
		if res.Shared {
			s.log.Debug("refresh shared with concurrent caller")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *Service) refreshToken(ctx context.Context) (string, error) {
	const op = "session.RefreshToken"

	snap, err := s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !snap.Authenticated() {
		return "", notAuthenticated(op)
	}

	tok, err := s.users.Refresh(ctx)
	if errors.Is(err, context.Canceled) {
		// Обновление брошено, а не отклонено: сессию не трогаем
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err != nil {
		s.log.Warn("token refresh failed, clearing session", slog.String("error", err.Error()))
		if cerr := s.store.Clear(context.WithoutCancel(ctx)); cerr != nil {
			s.log.Error("failed to clear session", slog.String("error", cerr.Error()))
		}
		return "", mapError(op, err)
	}

	if err := s.store.SetToken(ctx, tok); err != nil {
		if errors.Is(err, storage.ErrNoSession) {
			// Сессию успели сбросить (401 параллельного запроса)
			return "", notAuthenticated(op)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("token refreshed")
	return tok, nil
}

// EnsureFresh refreshes the token when it is a JWT expiring within leeway.
// Opaque tokens and tokens without exp are left alone.
func (s *Service) EnsureFresh(ctx context.Context, leeway time.Duration) (bool, error) {
	tok, err := s.store.Token(ctx)
	if err != nil {
		return false, fmt.Errorf("session.EnsureFresh: %w", err)
	}
	if tok == "" {
		return false, nil
	}

	due, err := token.ExpiresWithin(tok, leeway, s.now())
	if err != nil || !due {
		return false, nil
	}

	if _, err := s.RefreshToken(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// GetProfile fetches the profile and replaces the cached one.
func (s *Service) GetProfile(ctx context.Context) (*model.User, error) {
	const op = "session.GetProfile"

	user, err := s.users.Profile(ctx)
	if err != nil {
		return nil, mapError(op, err)
	}

	if err := s.store.SetUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrNoSession) {
			return nil, notAuthenticated(op)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// IsAuthenticated reports whether a token and a profile are both stored.
// A store failure counts as signed out.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	snap, err := s.store.Load(ctx)
	if err != nil {
		s.log.Error("failed to read session", slog.String("error", err.Error()))
		return false
	}
	return snap.Authenticated()
}

func (s *Service) IsAdmin(ctx context.Context) bool {
	snap, err := s.store.Load(ctx)
	if err != nil {
		s.log.Error("failed to read session", slog.String("error", err.Error()))
		return false
	}
	return snap.Authenticated() && snap.User.IsAdmin()
}

func (s *Service) Token(ctx context.Context) (string, error) {
	return s.store.Token(ctx)
}

func (s *Service) User(ctx context.Context) (*model.User, error) {
	return s.store.User(ctx)
}

// Current returns the stored session as one snapshot.
func (s *Service) Current(ctx context.Context) (storage.Snapshot, error) {
	return s.store.Load(ctx)
}
