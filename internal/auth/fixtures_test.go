package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"forrest/internal/config"
	"forrest/internal/events"
	"forrest/internal/storage"
	"forrest/internal/storage/memorycache"
)

// fakeSalesforce is a login server and API instance in one.
type fakeSalesforce struct {
	server *httptest.Server

	mu           sync.Mutex
	grants       []url.Values
	revoked      []string
	accessToken  string
	refreshToken string
	// apiStatus overrides the status of the next API responses, consumed in order.
	apiStatus []int
	apiCalls  []*http.Request
}

func newFakeSalesforce(t *testing.T) *fakeSalesforce {
	f := &fakeSalesforce{accessToken: "access-1", refreshToken: "refresh-1"}
	mux := http.NewServeMux()
	mux.HandleFunc("/services/oauth2/token", f.token)
	mux.HandleFunc("/services/oauth2/revoke", f.revoke)
	mux.HandleFunc("/services/data/", f.api)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSalesforce) URL() string { return f.server.URL }

func (f *fakeSalesforce) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.grants = append(f.grants, r.PostForm)
	access, refresh := f.accessToken, f.refreshToken
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if r.PostForm.Get("client_secret") != "secret" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"invalid client credentials"}`))
		return
	}

	body := map[string]any{
		"access_token": access,
		"token_type":   "Bearer",
		"instance_url": f.server.URL,
		"id":           f.server.URL + "/id/00D/005",
		"issued_at":    "1700000000000",
		"signature":    "sig",
	}
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"expired authorization code"}`))
			return
		}
		body["refresh_token"] = refresh
	case "refresh_token":
		if r.PostForm.Get("refresh_token") != refresh {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"expired access/refresh token"}`))
			return
		}
	case "password":
		if r.PostForm.Get("username") != "user@example.com" || r.PostForm.Get("password") != "pw" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"authentication failure"}`))
			return
		}
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeSalesforce) revoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.revoked = append(f.revoked, r.PostForm.Get("token"))
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeSalesforce) api(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.apiCalls = append(f.apiCalls, r.Clone(context.Background()))
	status := 0
	if len(f.apiStatus) > 0 {
		status = f.apiStatus[0]
		f.apiStatus = f.apiStatus[1:]
	}
	access := f.accessToken
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status == 0 && r.Header.Get("Authorization") != "Bearer "+access {
		status = http.StatusUnauthorized
	}
	switch status {
	case 0:
		_, _ = w.Write([]byte(`{"DailyApiRequests":{"Max":15000,"Remaining":14998}}`))
	case http.StatusUnauthorized:
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`[{"message":"Session expired or invalid","errorCode":"INVALID_SESSION_ID"}]`))
	case http.StatusServiceUnavailable:
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`[{"message":"Server temporarily unavailable","errorCode":"SERVER_UNAVAILABLE"}]`))
	default:
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`[{"message":"Required fields are missing: [Name]","errorCode":"REQUIRED_FIELD_MISSING","fields":["Name"]}]`))
	}
}

func (f *fakeSalesforce) grantTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.grants))
	for _, g := range f.grants {
		out = append(out, g.Get("grant_type"))
	}
	return out
}

func (f *fakeSalesforce) rotateAccessToken(token string) {
	f.mu.Lock()
	f.accessToken = token
	f.mu.Unlock()
}

type mapInput map[string]string

func (m mapInput) Get(_ context.Context, name string) string { return m[name] }

type recordingRedirect struct{ urls []string }

func (r *recordingRedirect) To(_ context.Context, u string) error {
	r.urls = append(r.urls, u)
	return nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Name
	data   []events.Data
}

func (r *recordingEmitter) Fire(_ context.Context, name events.Name, data events.Data) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
	r.data = append(r.data, data)
}

func (r *recordingEmitter) names() []events.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Name(nil), r.events...)
}

func testSettings(loginURL string) *config.ForrestConfig {
	cfg := config.DefaultConfig()
	cfg.Credentials = config.Credentials{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		CallbackURI:    "https://app.example.com/callback",
		LoginURL:       loginURL,
		Username:       "user@example.com",
		Password:       "pw",
	}
	cfg.Parameters.Display = "popup"
	cfg.Parameters.Prompt = "login"
	cfg.Version = "60.0"
	cfg.Storage.EncryptionKey = "test-encryption-key"
	return cfg
}

func newTestStorage(t *testing.T) *storage.CacheStorage {
	t.Helper()
	c, err := memorycache.New(100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return storage.NewCacheStorage("forrest_", c, time.Hour)
}

type testDeps struct {
	Dependencies
	input    mapInput
	redirect *recordingRedirect
	emitter  *recordingEmitter
	store    *storage.CacheStorage
}

func newTestDeps(t *testing.T, f *fakeSalesforce) *testDeps {
	d := &testDeps{
		input:    mapInput{},
		redirect: &recordingRedirect{},
		emitter:  &recordingEmitter{},
		store:    newTestStorage(t),
	}
	d.Dependencies = Dependencies{
		HTTPClient: f.server.Client(),
		Event:      d.emitter,
		Input:      d.input,
		Redirect:   d.redirect,
		Storage:    d.store,
		Settings:   testSettings(f.URL()),
	}
	return d
}

// authenticateWebServer runs Authenticate and Callback end to end.
func authenticateWebServer(t *testing.T, ctx context.Context, w *WebServer, d *testDeps) map[string]any {
	t.Helper()
	require.NoError(t, w.Authenticate(ctx, WithState(map[string]any{"returnTo": "/dashboard"})))
	require.NotEmpty(t, d.redirect.urls)

	authURL, err := url.Parse(d.redirect.urls[len(d.redirect.urls)-1])
	require.NoError(t, err)

	d.input["code"] = "good-code"
	d.input["state"] = authURL.Query().Get("state")

	opts, err := w.Callback(ctx)
	require.NoError(t, err)
	return opts
}
