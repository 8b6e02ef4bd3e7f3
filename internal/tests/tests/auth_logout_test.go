package tests

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"magal/internal/api"
	"magal/internal/tests/suite"
	"net/http"
	"sync"
	"testing"
)

func TestLogout_HappyPath(t *testing.T) {
	s := suite.New(t)
	ctx := t.Context()

	s.SignIn(suite.UserEmail, suite.UserPassword)
	tok, err := s.Store.Token(ctx)
	require.NoError(t, err)

	require.NoError(t, s.App.Session.Logout(ctx))

	assert.False(t, s.App.Session.IsAuthenticated(ctx))
	calls := s.Backend.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/auth/logout", calls[1].Path)
	assert.Equal(t, "Bearer "+tok, calls[1].Authorization)
}

func TestLogout_NetworkErrorStillSignsOut(t *testing.T) {
	s := suite.New(t)
	ctx := t.Context()

	s.SignIn(suite.UserEmail, suite.UserPassword)
	s.Backend.Drop(http.MethodPost, "/auth/logout")

	err := s.App.Session.Logout(ctx)

	require.NoError(t, err, "remote failure is not propagated")
	assert.False(t, s.App.Session.IsAuthenticated(ctx))
	assert.Equal(t, 1, s.Backend.CallsTo(http.MethodPost, "/auth/logout"))
}

func TestLogout_Idempotent(t *testing.T) {
	s := suite.New(t)
	ctx := t.Context()

	s.SignIn(suite.UserEmail, suite.UserPassword)

	require.NoError(t, s.App.Session.Logout(ctx))
	require.NoError(t, s.App.Session.Logout(ctx))

	assert.False(t, s.App.Session.IsAuthenticated(ctx))
	assert.Equal(t, 1, s.Backend.CallsTo(http.MethodPost, "/auth/logout"), "signed-out logout stays local")
}

func TestLogout_RevokedTokenStillSignsOut(t *testing.T) {
	s := suite.New(t)
	ctx := t.Context()

	s.SignIn(suite.UserEmail, suite.UserPassword)
	s.Backend.RevokeAll()

	require.NoError(t, s.App.Session.Logout(ctx))

	assert.False(t, s.App.Session.IsAuthenticated(ctx))
}

func TestLogout_Concurrent(t *testing.T) {
	s := suite.New(t)
	ctx := t.Context()

	s.SignIn(suite.UserEmail, suite.UserPassword)

	const callers = 10
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.App.Session.Logout(ctx)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.False(t, s.App.Session.IsAuthenticated(ctx))

	snap, err := s.Store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
}

func TestLogout_RacesForcedLogout(t *testing.T) {
	s := suite.New(t)
	ctx := t.Context()

	s.SignIn(suite.UserEmail, suite.UserPassword)
	s.Backend.RevokeAll()

	// Ручной выход и 401 от ресурса сбрасывают сессию одновременно
	var (
		wg        sync.WaitGroup
		logoutErr error
		countErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		logoutErr = s.App.Session.Logout(ctx)
	}()
	go func() {
		defer wg.Done()
		_, countErr = s.App.Notifications.UnreadCount(ctx)
	}()
	wg.Wait()

	require.NoError(t, logoutErr)
	require.ErrorIs(t, countErr, api.ErrUnauthorized)
	assert.False(t, s.App.Session.IsAuthenticated(ctx))

	snap, err := s.Store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
}
