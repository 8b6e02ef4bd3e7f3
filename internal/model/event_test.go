package model

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestEvent_MarkRegistered(t *testing.T) {
	left := 1
	e := &Event{ID: 1, RegisteredCount: 9, SeatsLeft: &left}

	e.MarkRegistered(true)
	assert.True(t, e.Registered)
	assert.Equal(t, 10, e.RegisteredCount)
	require.NotNil(t, e.SeatsLeft)
	assert.Equal(t, 0, *e.SeatsLeft)
	assert.True(t, e.Full)

	e.MarkRegistered(true)
	assert.Equal(t, 10, e.RegisteredCount, "no double count")

	e.MarkRegistered(false)
	assert.False(t, e.Registered)
	assert.Equal(t, 9, e.RegisteredCount)
	assert.Equal(t, 1, *e.SeatsLeft)
	assert.False(t, e.Full)
	assert.Equal(t, 1, left, "caller's value is not mutated")
}

func TestEvent_MarkRegisteredUnlimited(t *testing.T) {
	e := &Event{ID: 1}

	e.MarkRegistered(true)
	assert.Equal(t, 1, e.RegisteredCount)
	assert.Nil(t, e.SeatsLeft)
	assert.False(t, e.Full)
}

func TestUser_IsAdmin(t *testing.T) {
	var nobody *User
	assert.False(t, nobody.IsAdmin())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: "user"}).IsAdmin())
}
