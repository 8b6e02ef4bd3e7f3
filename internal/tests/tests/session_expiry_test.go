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

func TestSessionExpiry_401ClearsSession(t *testing.T) {
	s := suite.New(t)
	ctx := t.Context()

	s.SignIn(suite.UserEmail, suite.UserPassword)
	s.Backend.RevokeAll()

	_, err := s.App.Notifications.UnreadCount(ctx)

	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, s.App.Session.IsAuthenticated(ctx))

	events := s.Invalidated()
	require.Len(t, events, 1, "one signal per triggering response")
	assert.Equal(t, http.MethodGet, events[0].Method)
	assert.Equal(t, "/notifications/non-lues/count", events[0].Path)
	assert.Equal(t, http.StatusUnauthorized, events[0].Status)

	// Следующие запросы уходят без токена
	_, err = s.App.Events.List(ctx, defaultEvents())
	require.NoError(t, err)
	calls := s.Backend.Calls()
	assert.Empty(t, calls[len(calls)-1].Authorization)
}

func TestSessionExpiry_Concurrent401sConverge(t *testing.T) {
	s := suite.New(t)
	ctx := t.Context()

	s.SignIn(suite.UserEmail, suite.UserPassword)
	s.Backend.RevokeAll()

	const callers = 5
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.App.Notifications.UnreadCount(ctx)
			assert.ErrorIs(t, err, api.ErrUnauthorized)
		}()
	}
	wg.Wait()

	assert.False(t, s.App.Session.IsAuthenticated(ctx))
	assert.Len(t, s.Invalidated(), callers)
}

func TestSessionExpiry_OtherErrorsKeepSession(t *testing.T) {
	s := suite.New(t)
	ctx := t.Context()

	s.SignIn(suite.UserEmail, suite.UserPassword)

	_, err := s.App.Events.Get(ctx, 999)

	require.ErrorIs(t, err, api.ErrNotFound)
	assert.True(t, s.App.Session.IsAuthenticated(ctx))
	assert.Empty(t, s.Invalidated())
}

func TestSessionExpiry_ProfileAfterForcedLogout(t *testing.T) {
	s := suite.New(t)
	ctx := t.Context()

	s.SignIn(suite.UserEmail, suite.UserPassword)
	s.Backend.RevokeAll()

	_, err := s.App.Session.GetProfile(ctx)

	require.Error(t, err)
	assert.False(t, s.App.Session.IsAuthenticated(ctx))
	user, err := s.Store.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}
