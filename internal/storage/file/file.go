// Package file persists the session as one JSON document on disk, the
// desktop counterpart of browser local storage.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"magal/internal/model"
	"magal/internal/storage"
	"os"
	"path/filepath"
	"sync"
)

type document struct {
	Token string      `json:"magal_touba_token,omitempty"`
	User  *model.User `json:"magal_touba_user,omitempty"`
}

type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store writing to path. The parent directory is created on
// first write.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(_ context.Context) (storage.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return storage.Snapshot{}, err
	}
	return storage.Snapshot{Token: doc.Token, User: doc.User}, nil
}

func (s *Store) Save(_ context.Context, token string, user *model.User) error {
	if token == "" || user == nil {
		return storage.ErrIncomplete
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(document{Token: token, User: user})
}

func (s *Store) Token(ctx context.Context) (string, error) {
	snap, err := s.Load(ctx)
	return snap.Token, err
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if doc.User == nil {
		return storage.ErrNoSession
	}
	doc.Token = token
	return s.write(doc)
}

func (s *Store) User(ctx context.Context) (*model.User, error) {
	snap, err := s.Load(ctx)
	return snap.User, err
}

func (s *Store) SetUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return s.Clear(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if doc.Token == "" {
		return storage.ErrNoSession
	}
	doc.User = user
	return s.write(doc)
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", storage.ErrUnavailable, s.path, err)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

// read returns an empty document when the file does not exist. A document
// holding only one of the two entries is treated as empty.
func (s *Store) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("%w: read %s: %v", storage.ErrUnavailable, s.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("%w: decode %s: %v", storage.ErrUnavailable, s.path, err)
	}
	if doc.Token == "" || doc.User == nil {
		return document{}, nil
	}
	return doc, nil
}

// write replaces the file through a rename so a crash never leaves half a
// document behind.
func (s *Store) write(doc document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", storage.ErrUnavailable, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", storage.ErrUnavailable, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", storage.ErrUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp: %v", storage.ErrUnavailable, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: chmod temp: %v", storage.ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %v", storage.ErrUnavailable, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: rename: %v", storage.ErrUnavailable, err)
	}
	return nil
}
