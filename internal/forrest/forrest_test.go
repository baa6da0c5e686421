package forrest

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forrest/internal/auth"
	"forrest/internal/config"
	"forrest/internal/events"
	"forrest/internal/storage"
	"forrest/internal/storage/memorycache"
)

func TestParseStorageKind(t *testing.T) {
	tests := []struct {
		in       string
		expected StorageKind
		unknown  bool
	}{
		{in: "session", expected: StorageSession},
		{in: "cache", expected: StorageCache},
		{in: "", expected: StorageSession, unknown: true},
		{in: "bogus", expected: StorageSession, unknown: true},
		{in: "Cache", expected: StorageSession, unknown: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			kind, err := ParseStorageKind(tt.in)
			assert.Equal(t, tt.expected, kind)
			if !tt.unknown {
				assert.NoError(t, err)
				return
			}
			var unknown *UnknownValueError
			require.True(t, errors.As(err, &unknown))
			assert.Equal(t, "storage.type", unknown.Key)
			assert.Equal(t, tt.in, unknown.Value)
			assert.Equal(t, "session", unknown.Fallback)
		})
	}
}

func TestParseAuthenticationKind(t *testing.T) {
	tests := []struct {
		in       string
		expected AuthenticationKind
		unknown  bool
	}{
		{in: "WebServer", expected: AuthWebServer},
		{in: "UserPassword", expected: AuthUserPassword},
		{in: "", expected: AuthWebServer, unknown: true},
		{in: "ClientCredentials", expected: AuthWebServer, unknown: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			kind, err := ParseAuthenticationKind(tt.in)
			assert.Equal(t, tt.expected, kind)
			if tt.unknown {
				var unknown *UnknownValueError
				assert.True(t, errors.As(err, &unknown))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUnknownValueError(t *testing.T) {
	assert.Equal(t, `unknown storage.type "bogus", using "session"`,
		(&UnknownValueError{Key: "storage.type", Value: "bogus", Fallback: "session"}).Error())
	assert.Equal(t, `authentication is not set, using "WebServer"`,
		(&UnknownValueError{Key: "authentication", Fallback: "WebServer"}).Error())
}

func TestSelectStorage(t *testing.T) {
	cache, err := memorycache.New(10)
	require.NoError(t, err)
	defer cache.Close()

	deps := StorageDeps{
		Path:    "app_",
		Session: func(context.Context) (storage.Session, error) { return nil, storage.ErrNoSession },
		Cache:   cache,
		TTL:     time.Hour,
	}

	session, ok := SelectStorage(StorageSession, deps).(*storage.SessionStorage)
	require.True(t, ok)
	assert.Equal(t, "app_", session.Path())

	cached, ok := SelectStorage(StorageCache, deps).(*storage.CacheStorage)
	require.True(t, ok)
	assert.Equal(t, "app_", cached.Path())
	assert.Equal(t, time.Hour, cached.TTL())

	_, ok = SelectStorage(StorageKind(42), deps).(*storage.SessionStorage)
	assert.True(t, ok, "out of range kinds get session storage")
}

type nopEmitter struct{}

func (nopEmitter) Fire(context.Context, events.Name, events.Data) {}

type nopInput struct{}

func (nopInput) Get(context.Context, string) string { return "" }

type nopRedirect struct{}

func (nopRedirect) To(context.Context, string) error { return nil }

func TestSelectAuthentication(t *testing.T) {
	cfg := config.DefaultConfig()
	deps := auth.Dependencies{
		HTTPClient: &http.Client{},
		Event:      nopEmitter{},
		Input:      nopInput{},
		Redirect:   nopRedirect{},
		Storage:    storage.NewSessionStorage("forrest_", nil),
		Settings:   cfg,
	}

	ws, ok := SelectAuthentication(AuthWebServer, deps).(*auth.WebServer)
	require.True(t, ok)
	assertHoldsDependencies(t, deps, ws.Dependencies())

	up, ok := SelectAuthentication(AuthUserPassword, deps).(*auth.UserPassword)
	require.True(t, ok)
	assertHoldsDependencies(t, deps, up.Dependencies())

	_, ok = SelectAuthentication(AuthenticationKind(-1), deps).(*auth.WebServer)
	assert.True(t, ok)

	// no validation at selection time
	empty, ok := SelectAuthentication(AuthWebServer, auth.Dependencies{}).(*auth.WebServer)
	require.True(t, ok)
	assert.Nil(t, empty.Settings())
}

func assertHoldsDependencies(t *testing.T, want, got auth.Dependencies) {
	t.Helper()
	assert.Same(t, want.HTTPClient, got.HTTPClient)
	assert.Same(t, want.Settings, got.Settings)
	assert.Equal(t, want.Storage, got.Storage)
	assert.Equal(t, want.Event, got.Event)
	assert.Equal(t, want.Input, got.Input)
	assert.Equal(t, want.Redirect, got.Redirect)
}

func newHost(t *testing.T) Host {
	t.Helper()
	cache, err := memorycache.New(10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	return Host{
		HTTPClient: &http.Client{},
		Sessions:   func(context.Context) (storage.Session, error) { return nil, storage.ErrNoSession },
		Cache:      cache,
		Events:     nopEmitter{},
		Input:      nopInput{},
		Redirect:   nopRedirect{},
	}
}

func TestProvider_CacheAndUserPassword(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Type = "cache"
	cfg.Authentication = "UserPassword"

	host := newHost(t)
	p := NewProvider(cfg, host)

	client, err := p.Client()
	require.NoError(t, err)

	up, ok := client.(*auth.UserPassword)
	require.True(t, ok)

	cached, ok := up.Dependencies().Storage.(*storage.CacheStorage)
	require.True(t, ok)
	assert.Equal(t, cfg.Storage.Path, cached.Path())
	assert.Equal(t, cfg.Storage.TTL(), cached.TTL())
	assert.Same(t, p.Storage(), up.Dependencies().Storage)

	assert.Same(t, cfg, up.Settings())
	assert.Same(t, host.HTTPClient, up.Dependencies().HTTPClient)
	assert.Equal(t, auth.FlowUserPassword, client.Flow())
}

func TestProvider_UnknownStorageFallsBackToSession(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Type = "bogus"

	client, err := NewProvider(cfg, newHost(t)).Client()
	require.NoError(t, err)

	ws, ok := client.(*auth.WebServer)
	require.True(t, ok)
	_, ok = ws.Dependencies().Storage.(*storage.SessionStorage)
	assert.True(t, ok)
}

func TestProvider_UnsetAuthenticationIsWebServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Authentication = ""

	client, err := NewProvider(cfg, newHost(t)).Client()
	require.NoError(t, err)
	_, ok := client.(*auth.WebServer)
	assert.True(t, ok)
}

func TestProvider_NilConfigUsesDefaults(t *testing.T) {
	p := NewProvider(nil, newHost(t))
	client, err := p.Client()
	require.NoError(t, err)
	_, ok := client.(*auth.WebServer)
	assert.True(t, ok)
	assert.NotNil(t, p.Settings())
}

func TestProvider_ReturnsSameInstance(t *testing.T) {
	p := NewProvider(config.DefaultConfig(), newHost(t))

	first, err := p.Client()
	require.NoError(t, err)
	second, err := p.Client()
	require.NoError(t, err)
	assert.Same(t, first, second)

	var wg sync.WaitGroup
	results := make([]auth.Client, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.Client()
		}(i)
	}
	wg.Wait()
	for _, c := range results {
		assert.Same(t, first, c)
	}
}

func TestProvider_StorageBeforeClient(t *testing.T) {
	p := NewProvider(config.DefaultConfig(), newHost(t))

	var wg sync.WaitGroup
	handles := make([]storage.Handle, 8)
	clients := make([]auth.Client, 8)
	for i := range handles {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			handles[i] = p.Storage()
		}(i)
		go func(i int) {
			defer wg.Done()
			clients[i], _ = p.Client()
		}(i)
	}
	wg.Wait()

	ws, ok := clients[0].(*auth.WebServer)
	require.True(t, ok)
	for i := range handles {
		require.NotNil(t, handles[i])
		assert.Same(t, ws.Dependencies().Storage, handles[i])
		assert.Same(t, clients[0], clients[i])
	}
}

func TestProvider_Strict(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.ForrestConfig)
		wantKey string
	}{
		{
			name:    "unknown storage",
			mutate:  func(c *config.ForrestConfig) { c.Storage.Type = "redis" },
			wantKey: "storage.type",
		},
		{
			name:    "unknown authentication",
			mutate:  func(c *config.ForrestConfig) { c.Authentication = "JWT" },
			wantKey: "authentication",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Strict = true
			tt.mutate(cfg)

			p := NewProvider(cfg, newHost(t))
			client, err := p.Client()
			assert.Nil(t, client)

			var unknown *UnknownValueError
			require.True(t, errors.As(err, &unknown))
			assert.Equal(t, tt.wantKey, unknown.Key)

			_, again := p.Client()
			assert.Same(t, err, again, "the failure is memoized too")
		})
	}
}
