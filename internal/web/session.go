package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"forrest/internal/config"
	"forrest/internal/storage"
	"forrest/pkg/logging"
)

// Sessions resolves the named gorilla session of the bound request.
type Sessions struct {
	store sessions.Store
	name  string
}

// NewSessions wraps an existing store.
func NewSessions(store sessions.Store, name string) *Sessions {
	return &Sessions{store: store, name: name}
}

// NewCookieSessions builds a cookie store from the session settings.
func NewCookieSessions(cfg config.SessionConfig) *Sessions {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return NewSessions(store, cfg.Name)
}

// Name returns the session cookie name.
func (s *Sessions) Name() string {
	return s.name
}

// Source returns the storage.SessionSource backed by this store.
func (s *Sessions) Source() storage.SessionSource {
	return func(ctx context.Context) (storage.Session, error) {
		b, ok := fromContext(ctx)
		if !ok || b.r == nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrNoSession, ErrNotBound)
		}
		sess, err := s.store.Get(b.r, s.name)
		if err != nil {
			if sess == nil {
				return nil, fmt.Errorf("failed to load session %s: %w", s.name, err)
			}
			// Unreadable cookies (rotated secret, tampering) start a fresh session.
			logging.Warn("Server", "Discarding unreadable session %s: %v", s.name, err)
		}
		return &gorillaSession{sess: sess, binding: b, name: s.name}, nil
	}
}

type gorillaSession struct {
	sess    *sessions.Session
	binding *binding
	name    string
}

func (g *gorillaSession) Get(key string) ([]byte, bool) {
	v, ok := g.sess.Values[key]
	if !ok {
		return nil, false
	}
	switch v := v.(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	default:
		return nil, false
	}
}

func (g *gorillaSession) Put(key string, value []byte) error {
	g.sess.Values[key] = string(value)
	g.markDirty()
	return nil
}

func (g *gorillaSession) Forget(key string) error {
	if _, ok := g.sess.Values[key]; !ok {
		return nil
	}
	delete(g.sess.Values, key)
	g.markDirty()
	return nil
}

func (g *gorillaSession) markDirty() {
	b := g.binding
	b.schedule(g.name, func() error {
		return g.sess.Save(b.r, b.w)
	})
}
