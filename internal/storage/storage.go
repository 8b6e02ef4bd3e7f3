package storage

import (
	"context"
	"errors"
	"magal/internal/model"
)

const (
	TokenKey = "magal_touba_token"
	UserKey  = "magal_touba_user"
)

var (
	// ErrUnavailable wraps every backend failure. Callers treat it as an
	// environment problem, not a business error.
	ErrUnavailable = errors.New("token store unavailable")
	// ErrNoSession is returned when a partial write would leave a token
	// without a profile or a profile without a token.
	ErrNoSession = errors.New("no session to update")

	ErrIncomplete = errors.New("session requires both token and user")
)

// Snapshot is a token/profile pair read in one step.
type Snapshot struct {
	Token string
	User  *model.User
}

func (s Snapshot) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Store persists the session token and the user profile. Token and user are
// only ever written together or replaced while the other one is present, so
// a reader never sees exactly one of them.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, token string, user *model.User) error

	Token(ctx context.Context) (string, error)
	// SetToken replaces the token of the current session. An empty token
	// clears the session.
	SetToken(ctx context.Context, token string) error

	User(ctx context.Context) (*model.User, error)
	// SetUser replaces the profile of the current session. A nil user
	// clears the session.
	SetUser(ctx context.Context, user *model.User) error

	// Clear removes both entries. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
	Close() error
}

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
