package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forrest/internal/auth"
	"forrest/internal/config"
)

func validConfig() *config.ForrestConfig {
	cfg := config.DefaultConfig()
	cfg.Credentials.ConsumerKey = "key"
	cfg.Credentials.ConsumerSecret = "secret"
	cfg.Credentials.CallbackURI = "https://app.example.com/callback"
	cfg.Storage.Session.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	return cfg
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(true, "/custom/config/path")

	assert.True(t, cfg.Debug)
	assert.Equal(t, "/custom/config/path", cfg.ConfigPath)
	assert.Nil(t, cfg.ForrestConfig)
}

func TestNewApplication_SessionStorage(t *testing.T) {
	cfg := &Config{ForrestConfig: validConfig()}

	application, err := newApplication(cfg, io.Discard)
	require.NoError(t, err)
	defer application.Services().Close()

	client, err := application.Services().Provider.Client()
	require.NoError(t, err)
	assert.Equal(t, auth.FlowWebServer, client.Flow())
	assert.NotNil(t, application.Services().Server)
}

func TestNewApplication_MemoryCache(t *testing.T) {
	fc := validConfig()
	fc.Storage.Type = config.StorageTypeCache
	fc.Authentication = config.AuthenticationUserPassword
	fc.Credentials.Username = "user@example.com"
	fc.Credentials.Password = "pw"

	application, err := newApplication(&Config{ForrestConfig: fc}, io.Discard)
	require.NoError(t, err)

	services := application.Services()
	require.Len(t, services.closers, 1)
	client, err := services.Provider.Client()
	require.NoError(t, err)
	assert.Equal(t, auth.FlowUserPassword, client.Flow())
	assert.NoError(t, services.Close())
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	fc := validConfig()
	fc.Credentials.ConsumerKey = ""

	_, err := newApplication(&Config{ForrestConfig: fc}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials.consumerKey")
}

func TestNewApplication_StrictRejectsUnknownStorage(t *testing.T) {
	fc := validConfig()
	fc.Strict = true
	fc.Storage.Type = "database"

	_, err := newApplication(&Config{ForrestConfig: fc}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}

func TestNewApplication_LenientFallbackWarns(t *testing.T) {
	fc := validConfig()
	fc.Authentication = "SAML"

	var logs bytes.Buffer
	application, err := newApplication(&Config{ForrestConfig: fc}, &logs)
	require.NoError(t, err)
	defer application.Services().Close()

	client, err := application.Services().Provider.Client()
	require.NoError(t, err)
	assert.Equal(t, auth.FlowWebServer, client.Flow())
	assert.Contains(t, logs.String(), "SAML")
}

func TestNewApplication_LoadsFromPath(t *testing.T) {
	dir := t.TempDir()
	yaml := `credentials:
  consumerKey: key
  consumerSecret: secret
  callbackURI: https://app.example.com/callback
storage:
  session:
    secret: from-file-secret
server:
  host: 127.0.0.1
  port: 0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	application, err := newApplication(NewConfig(false, dir), io.Discard)
	require.NoError(t, err)
	defer application.Services().Close()

	assert.Equal(t, "from-file-secret", application.config.ForrestConfig.Storage.Session.Secret)
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	states := make(chan string, 2)
	original := sdNotify
	sdNotify = func(_ bool, state string) (bool, error) {
		states <- state
		return true, nil
	}
	t.Cleanup(func() { sdNotify = original })

	application, err := newApplication(&Config{ForrestConfig: validConfig()}, io.Discard)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	select {
	case state := <-states:
		assert.Equal(t, daemon.SdNotifyReady, state)
	case <-time.After(5 * time.Second):
		t.Fatal("server never reported ready")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, daemon.SdNotifyStopping, <-states)
	assert.Empty(t, application.Services().closers)
}

func TestServices_HealthEndpoint(t *testing.T) {
	application, err := newApplication(&Config{ForrestConfig: validConfig()}, io.Discard)
	require.NoError(t, err)
	defer application.Services().Close()

	rec := httptest.NewRecorder()
	application.Services().Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewCache_UnknownDriver(t *testing.T) {
	_, _, err := newCache(context.Background(), config.CacheConfig{Driver: "memcached"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memcached")
}
