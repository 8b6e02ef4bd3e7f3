package storage

import (
	"context"
	"magal/internal/model"
	"sync"
)

// Memory keeps the session in process memory. It is used by tests and by
// the CLI when persistence is disabled.
type Memory struct {
	mu    sync.RWMutex
	token string
	user  *model.User
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Token: m.token, User: copyUser(m.user)}, nil
}

func (m *Memory) Save(_ context.Context, token string, user *model.User) error {
	if token == "" || user == nil {
		return ErrIncomplete
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = copyUser(user)
	return nil
}

func (m *Memory) Token(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return m.Clear(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return ErrNoSession
	}
	m.token = token
	return nil
}

func (m *Memory) User(_ context.Context) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyUser(m.user), nil
}

func (m *Memory) SetUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return m.Clear(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return ErrNoSession
	}
	m.user = copyUser(user)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	return nil
}

func (m *Memory) Close() error {
	return nil
}
