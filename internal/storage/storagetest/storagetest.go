package storagetest

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"magal/internal/model"
	"magal/internal/storage"
	"testing"
)

// Run checks the behaviour every storage.Store backend must share.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()
	user := &model.User{ID: 7, Name: "Diop", Surname: "Awa", Email: "awa@example.sn", Role: "user"}

	t.Run("EmptyStore", func(t *testing.T) {
		s := newStore(t)

		snap, err := s.Load(ctx)
		require.NoError(t, err)
		assert.False(t, snap.Authenticated())
		assert.Empty(t, snap.Token)
		assert.Nil(t, snap.User)

		require.NoError(t, s.Clear(ctx))
		require.NoError(t, s.Clear(ctx))
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Save(ctx, "tok-1", user))

		snap, err := s.Load(ctx)
		require.NoError(t, err)
		assert.True(t, snap.Authenticated())
		assert.Equal(t, "tok-1", snap.Token)
		assert.Equal(t, user, snap.User)

		tok, err := s.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-1", tok)

		u, err := s.User(ctx)
		require.NoError(t, err)
		assert.Equal(t, user.Email, u.Email)
	})

	t.Run("SaveRejectsHalfSession", func(t *testing.T) {
		s := newStore(t)

		assert.ErrorIs(t, s.Save(ctx, "", user), storage.ErrIncomplete)
		assert.ErrorIs(t, s.Save(ctx, "tok", nil), storage.ErrIncomplete)

		snap, err := s.Load(ctx)
		require.NoError(t, err)
		assert.False(t, snap.Authenticated())
	})

	t.Run("PartialWritesNeedExistingSession", func(t *testing.T) {
		s := newStore(t)

		assert.ErrorIs(t, s.SetToken(ctx, "tok-2"), storage.ErrNoSession)
		assert.ErrorIs(t, s.SetUser(ctx, user), storage.ErrNoSession)

		snap, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap.Token)
		assert.Nil(t, snap.User)
	})

	t.Run("ReplaceTokenAndUser", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "tok-1", user))

		require.NoError(t, s.SetToken(ctx, "tok-2"))
		updated := *user
		updated.Role = model.RoleAdmin
		require.NoError(t, s.SetUser(ctx, &updated))

		snap, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-2", snap.Token)
		assert.True(t, snap.User.IsAdmin())
	})

	t.Run("EmptyValuesClear", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "tok-1", user))
		require.NoError(t, s.SetToken(ctx, ""))

		snap, err := s.Load(ctx)
		require.NoError(t, err)
		assert.False(t, snap.Authenticated())
		assert.Nil(t, snap.User)

		require.NoError(t, s.Save(ctx, "tok-1", user))
		require.NoError(t, s.SetUser(ctx, nil))

		snap, err = s.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap.Token)
	})

	t.Run("ReturnedUserIsACopy", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "tok-1", user))

		u, err := s.User(ctx)
		require.NoError(t, err)
		u.Role = model.RoleAdmin

		again, err := s.User(ctx)
		require.NoError(t, err)
		assert.False(t, again.IsAdmin())
	})
}
