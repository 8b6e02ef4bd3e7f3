package users

import (
	"context"
	"fmt"
	"log/slog"
	"magal/internal/model"
	"magal/internal/provider"
)

const (
	pathLogin    = "/auth/login"
	pathRegister = "/auth/register"
	pathLogout   = "/auth/logout"
	pathRefresh  = "/auth/refresh"
	pathProfile  = "/auth/profile"
)

// Provider talks to the auth endpoints of the remote API.
type Provider interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (string, error)
	Profile(ctx context.Context) (*model.User, error)
}

type usersProvider struct {
	client provider.Client
	log    *slog.Logger
}

func NewUsersProvider(client provider.Client, log *slog.Logger) Provider {
	if log == nil {
		log = slog.Default()
	}
	return &usersProvider{
		client: client,
		log:    log,
	}
}

func (u *usersProvider) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	u.log.Debug("calling login", slog.String("email", req.Email))

	var out model.AuthResponse
	if err := u.client.Post(ctx, pathLogin, req, &out); err != nil {
		return nil, err
	}

	if err := checkAuth(&out); err != nil {
		u.log.Error("login returned malformed payload", slog.String("error", err.Error()))
		return nil, err
	}

	u.log.Debug("login completed", slog.Int64("user_id", out.User.ID))
	return &out, nil
}

func (u *usersProvider) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	u.log.Debug("calling register", slog.String("email", req.Email))

	var out model.AuthResponse
	if err := u.client.Post(ctx, pathRegister, req, &out); err != nil {
		return nil, err
	}

	if err := checkAuth(&out); err != nil {
		u.log.Error("register returned malformed payload", slog.String("error", err.Error()))
		return nil, err
	}

	u.log.Debug("register completed", slog.Int64("user_id", out.User.ID))
	return &out, nil
}

func (u *usersProvider) Logout(ctx context.Context) error {
	return u.client.Post(ctx, pathLogout, nil, nil)
}

func (u *usersProvider) Refresh(ctx context.Context) (string, error) {
	var out model.RefreshResponse
	if err := u.client.Post(ctx, pathRefresh, nil, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: refresh without access_token", provider.ErrMalformedResponse)
	}
	return out.AccessToken, nil
}

func (u *usersProvider) Profile(ctx context.Context) (*model.User, error) {
	var out model.ProfileResponse
	if err := u.client.Get(ctx, pathProfile, nil, &out); err != nil {
		return nil, err
	}
	if err := checkUser(out.User); err != nil {
		return nil, err
	}
	return out.User, nil
}

func checkAuth(out *model.AuthResponse) error {
	if out.AccessToken == "" {
		return fmt.Errorf("%w: missing access_token", provider.ErrMalformedResponse)
	}
	return checkUser(out.User)
}

func checkUser(u *model.User) error {
	if u == nil {
		return fmt.Errorf("%w: missing user", provider.ErrMalformedResponse)
	}
	if u.Email == "" {
		return fmt.Errorf("%w: user without email", provider.ErrMalformedResponse)
	}
	return nil
}
