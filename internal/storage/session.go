package storage

import (
	"context"
	"fmt"
)

// Session is the per-request session a SessionStorage writes through.
type Session interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Forget(key string) error
}

// SessionSource resolves the session bound to a request context.
// It returns an error wrapping ErrNoSession when there is none.
type SessionSource func(ctx context.Context) (Session, error)

// SessionStorage is the session-backed Handle.
type SessionStorage struct {
	path   string
	source SessionSource
}

var _ Handle = (*SessionStorage)(nil)

// NewSessionStorage creates a session-backed handle. path prefixes every key.
func NewSessionStorage(path string, source SessionSource) *SessionStorage {
	return &SessionStorage{
		path:   path,
		source: source,
	}
}

// Path returns the key prefix.
func (s *SessionStorage) Path() string {
	return s.path
}

func (s *SessionStorage) session(ctx context.Context) (Session, error) {
	if s.source == nil {
		return nil, ErrNoSession
	}
	sess, err := s.source(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (s *SessionStorage) Get(ctx context.Context, key string) ([]byte, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	value, ok := sess.Get(s.path + key)
	if !ok {
		return nil, missing(key)
	}
	return value, nil
}

func (s *SessionStorage) Put(ctx context.Context, key string, value []byte) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	if err := sess.Put(s.path+key, value); err != nil {
		return fmt.Errorf("failed to write session key %s: %w", key, err)
	}
	return nil
}

func (s *SessionStorage) Has(ctx context.Context, key string) (bool, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return false, err
	}
	_, ok := sess.Get(s.path + key)
	return ok, nil
}

func (s *SessionStorage) Forget(ctx context.Context, key string) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	if err := sess.Forget(s.path + key); err != nil {
		return fmt.Errorf("failed to remove session key %s: %w", key, err)
	}
	return nil
}
